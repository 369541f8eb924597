package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/pnlfinance/family-finance/internal/aggregation"
	"github.com/pnlfinance/family-finance/internal/domain"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Transactions
// ============================================================

// AddTransaction records a transaction on the ledger titled title.
func (s *LedgerService) AddTransaction(ctx context.Context, familyID, profileID, title string, req domain.TransactionRequest) (*domain.Transaction, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.AddTransaction")
	defer span.End()
	span.SetAttributes(attribute.String("ledger.title", title))

	snap, ledger, err := s.ledgerByTitle(ctx, familyID, title)
	if err != nil {
		return nil, err
	}

	amount, err := s.validateTransaction(snap, ledger, req)
	if err != nil {
		return nil, err
	}
	when, err := occurredAt(req, s.now())
	if err != nil {
		return nil, err
	}

	created, err := s.store.CreateTransaction(ctx, &domain.Transaction{
		LedgerID:   ledger.ID,
		ProfileID:  profileID,
		Amount:     decimal.NewNullDecimal(amount),
		Kind:       req.Kind,
		CategoryID: req.CategoryID,
		Comment:    s.comment(req.Comment),
		OccurredAt: when,
	})
	if err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}

	s.mutated(familyID, "transaction", "create", created.ID)
	return created, nil
}

// UpdateTransaction replaces amount, kind, category and comment of an
// existing transaction. The timestamp changes only when one is given.
func (s *LedgerService) UpdateTransaction(ctx context.Context, familyID, id string, req domain.TransactionRequest) (*domain.Transaction, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.UpdateTransaction")
	defer span.End()

	existing, snap, ledger, err := s.ownedTransaction(ctx, familyID, id, "update transaction")
	if err != nil {
		return nil, err
	}

	amount, err := s.validateTransaction(snap, ledger, req)
	if err != nil {
		return nil, err
	}

	updated := *existing
	updated.Amount = decimal.NewNullDecimal(amount)
	updated.Kind = req.Kind
	updated.CategoryID = req.CategoryID
	updated.Comment = s.comment(req.Comment)
	if strings.TrimSpace(req.OccurredAt) != "" || strings.TrimSpace(req.Month) != "" {
		if updated.OccurredAt, err = occurredAt(req, s.now()); err != nil {
			return nil, err
		}
	}

	saved, err := s.store.UpdateTransaction(ctx, &updated)
	if err != nil {
		return nil, fmt.Errorf("update transaction: %w", err)
	}

	s.mutated(familyID, "transaction", "update", id)
	return saved, nil
}

// DeleteTransaction removes one transaction of the family.
func (s *LedgerService) DeleteTransaction(ctx context.Context, familyID, id string) error {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.DeleteTransaction")
	defer span.End()

	if _, _, _, err := s.ownedTransaction(ctx, familyID, id, "delete transaction"); err != nil {
		return err
	}
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.mutated(familyID, "transaction", "delete", id)
	return nil
}

// DeleteGroup removes every transaction of one aggregated group of the
// selected month and returns how many were deleted. Group membership is
// resolved exactly as the view resolves it.
func (s *LedgerService) DeleteGroup(ctx context.Context, familyID, title string, month domain.YearMonth, sel domain.GroupSelector) (int, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.DeleteGroup")
	defer span.End()

	if !sel.Kind.Valid() {
		return 0, &domain.ErrValidation{Field: "kind", Message: "must be income or expense"}
	}
	if sel.CategoryID == "" && strings.TrimSpace(sel.Name) == "" {
		return 0, &domain.ErrValidation{Field: "name", Message: "category_id or name is required"}
	}

	// Group deletes are destructive; work from fresh data.
	s.Invalidate(familyID)
	snap, ledger, err := s.ledgerByTitle(ctx, familyID, title)
	if err != nil {
		return 0, err
	}

	ids := aggregation.GroupMembers(snap.Transactions, snap.Categories, ledger.ID, month, sel)
	if len(ids) == 0 {
		name := sel.Name
		if sel.CategoryID != "" {
			name = sel.CategoryID
		}
		return 0, &domain.ErrNotFound{Resource: "group", ID: name}
	}

	if err := s.store.DeleteTransactions(ctx, ids); err != nil {
		return 0, fmt.Errorf("delete group: %w", err)
	}

	s.logger.Info("transaction group deleted",
		zap.String("ledger", title),
		zap.String("month", month.String()),
		zap.Int("count", len(ids)),
	)
	s.mutated(familyID, "group", "delete", ledger.ID)
	return len(ids), nil
}

func (s *LedgerService) ownedTransaction(ctx context.Context, familyID, id, action string) (*domain.Transaction, *domain.Snapshot, *domain.Ledger, error) {
	tx, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}
	snap, err := s.Snapshot(ctx, familyID)
	if err != nil {
		return nil, nil, nil, err
	}
	ledger, err := ownedLedger(snap, tx.LedgerID, action)
	if err != nil {
		return nil, nil, nil, err
	}
	return tx, snap, ledger, nil
}

func (s *LedgerService) validateTransaction(snap *domain.Snapshot, ledger *domain.Ledger, req domain.TransactionRequest) (decimal.Decimal, error) {
	if !req.Kind.Valid() {
		return decimal.Zero, &domain.ErrValidation{Field: "transaction_type", Message: "must be income or expense"}
	}
	amount, err := parseAmount("amount", req.Amount, false)
	if err != nil {
		return decimal.Zero, err
	}
	if req.CategoryID == "" {
		return amount, nil
	}

	for _, c := range snap.Categories {
		if c.ID != req.CategoryID {
			continue
		}
		if c.LedgerID != ledger.ID {
			return decimal.Zero, &domain.ErrValidation{Field: "category_id", Message: "category belongs to another ledger"}
		}
		if c.Kind != req.Kind {
			return decimal.Zero, &domain.ErrValidation{Field: "category_id", Message: "category kind does not match transaction kind"}
		}
		return amount, nil
	}
	return decimal.Zero, &domain.ErrValidation{Field: "category_id", Message: "unknown category"}
}

func (s *LedgerService) comment(raw string) string {
	if c := strings.TrimSpace(raw); c != "" {
		return c
	}
	return s.defaultComment
}

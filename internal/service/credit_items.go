package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/pnlfinance/family-finance/internal/domain"

	"github.com/shopspring/decimal"
)

// ============================================================
// Credit items
// ============================================================

// CreateCreditItem adds a loan or credit card to the credit ledger titled title.
func (s *LedgerService) CreateCreditItem(ctx context.Context, familyID, title string, req domain.CreditItemRequest) (*domain.CreditItem, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.CreateCreditItem")
	defer span.End()

	_, ledger, err := s.ledgerByTitle(ctx, familyID, title)
	if err != nil {
		return nil, err
	}
	if ledger.Kind != domain.LedgerCredit {
		return nil, &domain.ErrValidation{Field: "ledger", Message: "credit items belong to the credit ledger"}
	}

	item, err := buildCreditItem(req)
	if err != nil {
		return nil, err
	}
	item.LedgerID = ledger.ID

	created, err := s.store.CreateCreditItem(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("create credit item: %w", err)
	}

	s.mutated(familyID, "credit_item", "create", created.ID)
	return created, nil
}

// UpdateCreditItem replaces every field of a credit item.
func (s *LedgerService) UpdateCreditItem(ctx context.Context, familyID, id string, req domain.CreditItemRequest) (*domain.CreditItem, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.UpdateCreditItem")
	defer span.End()

	existing, err := s.ownedCreditItem(ctx, familyID, id, "update credit item")
	if err != nil {
		return nil, err
	}

	item, err := buildCreditItem(req)
	if err != nil {
		return nil, err
	}
	item.ID = existing.ID
	item.LedgerID = existing.LedgerID

	saved, err := s.store.UpdateCreditItem(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("update credit item: %w", err)
	}

	s.mutated(familyID, "credit_item", "update", id)
	return saved, nil
}

// DeleteCreditItem removes a credit item.
func (s *LedgerService) DeleteCreditItem(ctx context.Context, familyID, id string) error {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.DeleteCreditItem")
	defer span.End()

	if _, err := s.ownedCreditItem(ctx, familyID, id, "delete credit item"); err != nil {
		return err
	}
	if err := s.store.DeleteCreditItem(ctx, id); err != nil {
		return fmt.Errorf("delete credit item: %w", err)
	}

	s.mutated(familyID, "credit_item", "delete", id)
	return nil
}

func (s *LedgerService) ownedCreditItem(ctx context.Context, familyID, id, action string) (*domain.CreditItem, error) {
	item, err := s.store.GetCreditItem(ctx, id)
	if err != nil {
		return nil, err
	}
	snap, err := s.Snapshot(ctx, familyID)
	if err != nil {
		return nil, err
	}
	if _, err := ownedLedger(snap, item.LedgerID, action); err != nil {
		return nil, err
	}
	return item, nil
}

// buildCreditItem validates req. Limits only apply to cards; a loan's limits
// are stored as zero.
func buildCreditItem(req domain.CreditItemRequest) (*domain.CreditItem, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "is required"}
	}
	if !req.Kind.Valid() {
		return nil, &domain.ErrValidation{Field: "item_type", Message: "must be loan or credit_card"}
	}

	debt, err := parseAmount("total_debt", req.TotalDebt, true)
	if err != nil {
		return nil, err
	}
	due, err := parseDueDate(req.DueDate)
	if err != nil {
		return nil, err
	}

	item := &domain.CreditItem{
		Name:          name,
		Kind:          req.Kind,
		TotalDebt:     debt,
		CreditLimit:   decimal.Zero,
		TransferLimit: decimal.Zero,
		DueDate:       due,
	}
	if req.Kind == domain.CreditCard {
		if item.CreditLimit, err = parseOptionalAmount("credit_limit", req.CreditLimit); err != nil {
			return nil, err
		}
		if item.TransferLimit, err = parseOptionalAmount("transfer_limit", req.TransferLimit); err != nil {
			return nil, err
		}
	}
	return item, nil
}

package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/pnlfinance/family-finance/internal/domain"
)

// ============================================================
// Debts
// ============================================================

// CreateDebt records that the ledger titled title owes another personal ledger.
func (s *LedgerService) CreateDebt(ctx context.Context, familyID, title string, req domain.DebtRequest) (*domain.Debt, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.CreateDebt")
	defer span.End()

	snap, ledger, err := s.ledgerByTitle(ctx, familyID, title)
	if err != nil {
		return nil, err
	}

	debt, err := buildDebt(snap, ledger, req)
	if err != nil {
		return nil, err
	}

	created, err := s.store.CreateDebt(ctx, debt)
	if err != nil {
		return nil, fmt.Errorf("create debt: %w", err)
	}

	s.mutated(familyID, "debt", "create", created.ID)
	return created, nil
}

// UpdateDebt replaces every field of a debt.
func (s *LedgerService) UpdateDebt(ctx context.Context, familyID, id string, req domain.DebtRequest) (*domain.Debt, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.UpdateDebt")
	defer span.End()

	existing, snap, ledger, err := s.ownedDebt(ctx, familyID, id, "update debt")
	if err != nil {
		return nil, err
	}

	debt, err := buildDebt(snap, ledger, req)
	if err != nil {
		return nil, err
	}
	debt.ID = existing.ID

	saved, err := s.store.UpdateDebt(ctx, debt)
	if err != nil {
		return nil, fmt.Errorf("update debt: %w", err)
	}

	s.mutated(familyID, "debt", "update", id)
	return saved, nil
}

// DeleteDebt removes a debt.
func (s *LedgerService) DeleteDebt(ctx context.Context, familyID, id string) error {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.DeleteDebt")
	defer span.End()

	if _, _, _, err := s.ownedDebt(ctx, familyID, id, "delete debt"); err != nil {
		return err
	}
	if err := s.store.DeleteDebt(ctx, id); err != nil {
		return fmt.Errorf("delete debt: %w", err)
	}

	s.mutated(familyID, "debt", "delete", id)
	return nil
}

func (s *LedgerService) ownedDebt(ctx context.Context, familyID, id, action string) (*domain.Debt, *domain.Snapshot, *domain.Ledger, error) {
	debt, err := s.store.GetDebt(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}
	snap, err := s.Snapshot(ctx, familyID)
	if err != nil {
		return nil, nil, nil, err
	}
	ledger, err := ownedLedger(snap, debt.LedgerID, action)
	if err != nil {
		return nil, nil, nil, err
	}
	return debt, snap, ledger, nil
}

// buildDebt validates req for a debt held by ledger. Debts exist only between
// two distinct standard ledgers of the family.
func buildDebt(snap *domain.Snapshot, ledger *domain.Ledger, req domain.DebtRequest) (*domain.Debt, error) {
	if ledger.Kind != domain.LedgerStandard {
		return nil, &domain.ErrValidation{Field: "ledger", Message: "debts belong to a personal ledger"}
	}

	counterparty := strings.TrimSpace(req.Counterparty)
	other := snap.LedgerByTitle(counterparty)
	if other == nil || other.Kind != domain.LedgerStandard || other.ID == ledger.ID {
		return nil, &domain.ErrValidation{Field: "counterparty", Message: "must be another personal ledger"}
	}

	amount, err := parseAmount("amount", req.Amount, false)
	if err != nil {
		return nil, err
	}
	due, err := parseDueDate(req.DueDate)
	if err != nil {
		return nil, err
	}

	return &domain.Debt{
		LedgerID:     ledger.ID,
		Counterparty: counterparty,
		Amount:       amount,
		DueDate:      due,
		Comment:      strings.TrimSpace(req.Comment),
	}, nil
}

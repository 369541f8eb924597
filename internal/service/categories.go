package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pnlfinance/family-finance/internal/domain"
)

// ============================================================
// Categories
// ============================================================

// ListCategories returns the categories of the ledger titled title.
func (s *LedgerService) ListCategories(ctx context.Context, familyID, title string) ([]domain.Category, error) {
	snap, ledger, err := s.ledgerByTitle(ctx, familyID, title)
	if err != nil {
		return nil, err
	}
	cats := make([]domain.Category, 0)
	for _, c := range snap.Categories {
		if c.LedgerID == ledger.ID {
			cats = append(cats, c)
		}
	}
	return cats, nil
}

// CreateCategory adds a category to the ledger titled title. Names are unique
// per ledger and kind.
func (s *LedgerService) CreateCategory(ctx context.Context, familyID, title string, req domain.CategoryRequest) (*domain.Category, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.CreateCategory")
	defer span.End()

	snap, ledger, err := s.ledgerByTitle(ctx, familyID, title)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if err := validateCategory(name, req.Kind); err != nil {
		return nil, err
	}
	if duplicateCategory(snap, ledger.ID, "", name, req.Kind) {
		return nil, &domain.ErrValidation{Field: "name", Message: fmt.Sprintf("category %q already exists", name)}
	}

	created, err := s.store.CreateCategories(ctx, []domain.Category{{
		LedgerID: ledger.ID,
		Name:     name,
		Icon:     strings.TrimSpace(req.Icon),
		Kind:     req.Kind,
	}})
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	if len(created) == 0 {
		return nil, errors.New("create category: store returned no rows")
	}

	s.mutated(familyID, "category", "create", created[0].ID)
	return &created[0], nil
}

// UpdateCategory renames a category or changes its icon. The kind is fixed
// once created because existing transactions reference it.
func (s *LedgerService) UpdateCategory(ctx context.Context, familyID, id string, req domain.CategoryRequest) (*domain.Category, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.UpdateCategory")
	defer span.End()

	existing, snap, err := s.ownedCategory(ctx, familyID, id, "update category")
	if err != nil {
		return nil, err
	}

	kind := req.Kind
	if kind == "" {
		kind = existing.Kind
	}
	if kind != existing.Kind {
		return nil, &domain.ErrValidation{Field: "type", Message: "category kind cannot be changed"}
	}
	name := strings.TrimSpace(req.Name)
	if err := validateCategory(name, kind); err != nil {
		return nil, err
	}
	if duplicateCategory(snap, existing.LedgerID, id, name, kind) {
		return nil, &domain.ErrValidation{Field: "name", Message: fmt.Sprintf("category %q already exists", name)}
	}

	updated := *existing
	updated.Name = name
	updated.Icon = strings.TrimSpace(req.Icon)

	saved, err := s.store.UpdateCategory(ctx, &updated)
	if err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}

	s.mutated(familyID, "category", "update", id)
	return saved, nil
}

// DeleteCategory removes a category. Its transactions are kept and regroup
// by their comments.
func (s *LedgerService) DeleteCategory(ctx context.Context, familyID, id string) error {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.DeleteCategory")
	defer span.End()

	if _, _, err := s.ownedCategory(ctx, familyID, id, "delete category"); err != nil {
		return err
	}
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	s.mutated(familyID, "category", "delete", id)
	return nil
}

func (s *LedgerService) ownedCategory(ctx context.Context, familyID, id, action string) (*domain.Category, *domain.Snapshot, error) {
	cat, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	snap, err := s.Snapshot(ctx, familyID)
	if err != nil {
		return nil, nil, err
	}
	if _, err := ownedLedger(snap, cat.LedgerID, action); err != nil {
		return nil, nil, err
	}
	return cat, snap, nil
}

func validateCategory(name string, kind domain.TxKind) error {
	if name == "" {
		return &domain.ErrValidation{Field: "name", Message: "is required"}
	}
	if !kind.Valid() {
		return &domain.ErrValidation{Field: "type", Message: "must be income or expense"}
	}
	return nil
}

func duplicateCategory(snap *domain.Snapshot, ledgerID, exceptID, name string, kind domain.TxKind) bool {
	for _, c := range snap.Categories {
		if c.LedgerID == ledgerID && c.Kind == kind && c.ID != exceptID && strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

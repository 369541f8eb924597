package supabase

import (
	"context"
	"fmt"

	"github.com/pnlfinance/family-finance/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// Categories: CRUD via PostgREST
// ============================================================

func (c *Client) ListCategories(ctx context.Context, ledgerIDs []string) ([]domain.Category, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListCategories")
	defer span.End()
	span.SetAttributes(attribute.Int("ledgers.count", len(ledgerIDs)))

	if len(ledgerIDs) == 0 {
		return []domain.Category{}, nil
	}

	body, err := c.read(ctx, "categories", fmt.Sprintf("categories?%s&order=name.asc", in("ledger_id", ledgerIDs)))
	if err != nil {
		return nil, err
	}
	rows, err := decodeRows[categoryRow](body, "categories")
	if err != nil {
		return nil, err
	}
	return c.categoriesFromRows(rows), nil
}

func (c *Client) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetCategory")
	defer span.End()

	body, err := c.read(ctx, "categories", fmt.Sprintf("categories?%s&limit=1", eq("id", id)))
	if err != nil {
		return nil, err
	}
	return decodeCategory(body, id)
}

// CreateCategories inserts categories in one bulk request.
func (c *Client) CreateCategories(ctx context.Context, cats []domain.Category) ([]domain.Category, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateCategories")
	defer span.End()
	span.SetAttributes(attribute.Int("categories.count", len(cats)))

	payload := make([]map[string]any, 0, len(cats))
	for _, cat := range cats {
		row := categoryPayload(&cat)
		row["ledger_id"] = cat.LedgerID
		payload = append(payload, row)
	}

	body, err := c.write("categories", func() ([]byte, error) {
		return c.doPost(ctx, "categories", payload)
	})
	if err != nil {
		return nil, err
	}
	rows, err := decodeRows[categoryRow](body, "categories")
	if err != nil {
		return nil, err
	}
	return c.categoriesFromRows(rows), nil
}

func (c *Client) UpdateCategory(ctx context.Context, cat *domain.Category) (*domain.Category, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateCategory")
	defer span.End()

	body, err := c.write("categories", func() ([]byte, error) {
		return c.doPatch(ctx, "categories?"+eq("id", cat.ID), categoryPayload(cat))
	})
	if err != nil {
		return nil, err
	}
	return decodeCategory(body, cat.ID)
}

func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteCategory")
	defer span.End()

	_, err := c.write("categories", func() ([]byte, error) {
		return nil, c.doDelete(ctx, "categories?"+eq("id", id))
	})
	return err
}

func categoryPayload(cat *domain.Category) map[string]any {
	return map[string]any{
		"name": cat.Name,
		"icon": optional(cat.Icon),
		"type": string(cat.Kind),
	}
}

func (c *Client) categoriesFromRows(rows []categoryRow) []domain.Category {
	cats := make([]domain.Category, 0, len(rows))
	for _, r := range rows {
		cat, ok := r.toDomain()
		if !ok {
			c.logger.Warn("supabase: dropping category with unknown type")
			continue
		}
		cats = append(cats, cat)
	}
	return cats
}

func decodeCategory(body []byte, id string) (*domain.Category, error) {
	row, err := firstRow[categoryRow](body, "category")
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, &domain.ErrNotFound{Resource: "category", ID: id}
	}
	cat, ok := row.toDomain()
	if !ok {
		return nil, fmt.Errorf("category %s has unknown type %q", row.ID, row.Type)
	}
	return &cat, nil
}

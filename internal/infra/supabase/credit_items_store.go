package supabase

import (
	"context"
	"fmt"

	"github.com/pnlfinance/family-finance/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// Credit items: loans and credit cards
// ============================================================

func (c *Client) ListCreditItems(ctx context.Context, ledgerIDs []string) ([]domain.CreditItem, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListCreditItems")
	defer span.End()
	span.SetAttributes(attribute.Int("ledgers.count", len(ledgerIDs)))

	if len(ledgerIDs) == 0 {
		return []domain.CreditItem{}, nil
	}

	body, err := c.read(ctx, "credit_items", fmt.Sprintf("credit_items?%s&order=created_at.asc", in("ledger_id", ledgerIDs)))
	if err != nil {
		return nil, err
	}
	rows, err := decodeRows[creditItemRow](body, "credit_items")
	if err != nil {
		return nil, err
	}
	items := make([]domain.CreditItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, r.toDomain())
	}
	return items, nil
}

func (c *Client) GetCreditItem(ctx context.Context, id string) (*domain.CreditItem, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetCreditItem")
	defer span.End()

	body, err := c.read(ctx, "credit_items", fmt.Sprintf("credit_items?%s&limit=1", eq("id", id)))
	if err != nil {
		return nil, err
	}
	return decodeCreditItem(body, id)
}

func (c *Client) CreateCreditItem(ctx context.Context, item *domain.CreditItem) (*domain.CreditItem, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateCreditItem")
	defer span.End()

	row := creditItemPayload(item)
	row["ledger_id"] = item.LedgerID

	body, err := c.write("credit_items", func() ([]byte, error) {
		return c.doPost(ctx, "credit_items", row)
	})
	if err != nil {
		return nil, err
	}
	return decodeCreditItem(body, "")
}

func (c *Client) UpdateCreditItem(ctx context.Context, item *domain.CreditItem) (*domain.CreditItem, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateCreditItem")
	defer span.End()

	body, err := c.write("credit_items", func() ([]byte, error) {
		return c.doPatch(ctx, "credit_items?"+eq("id", item.ID), creditItemPayload(item))
	})
	if err != nil {
		return nil, err
	}
	return decodeCreditItem(body, item.ID)
}

func (c *Client) DeleteCreditItem(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteCreditItem")
	defer span.End()

	_, err := c.write("credit_items", func() ([]byte, error) {
		return nil, c.doDelete(ctx, "credit_items?"+eq("id", id))
	})
	return err
}

func creditItemPayload(item *domain.CreditItem) map[string]any {
	return map[string]any{
		"name":           item.Name,
		"item_type":      string(item.Kind),
		"total_debt":     item.TotalDebt.String(),
		"credit_limit":   item.CreditLimit.String(),
		"transfer_limit": item.TransferLimit.String(),
		"due_date":       formatDate(item.DueDate),
	}
}

func decodeCreditItem(body []byte, id string) (*domain.CreditItem, error) {
	row, err := firstRow[creditItemRow](body, "credit_item")
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, &domain.ErrNotFound{Resource: "credit_item", ID: id}
	}
	item := row.toDomain()
	return &item, nil
}

package supabase

import (
	"context"
	"fmt"

	"github.com/pnlfinance/family-finance/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// Debts: informal IOUs between personal ledgers
// ============================================================

func (c *Client) ListDebts(ctx context.Context, ledgerIDs []string) ([]domain.Debt, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListDebts")
	defer span.End()
	span.SetAttributes(attribute.Int("ledgers.count", len(ledgerIDs)))

	if len(ledgerIDs) == 0 {
		return []domain.Debt{}, nil
	}

	body, err := c.read(ctx, "debts", fmt.Sprintf("debts?%s&order=created_at.asc", in("ledger_id", ledgerIDs)))
	if err != nil {
		return nil, err
	}
	rows, err := decodeRows[debtRow](body, "debts")
	if err != nil {
		return nil, err
	}
	debts := make([]domain.Debt, 0, len(rows))
	for _, r := range rows {
		debts = append(debts, r.toDomain())
	}
	return debts, nil
}

func (c *Client) GetDebt(ctx context.Context, id string) (*domain.Debt, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetDebt")
	defer span.End()

	body, err := c.read(ctx, "debts", fmt.Sprintf("debts?%s&limit=1", eq("id", id)))
	if err != nil {
		return nil, err
	}
	return decodeDebt(body, id)
}

func (c *Client) CreateDebt(ctx context.Context, debt *domain.Debt) (*domain.Debt, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateDebt")
	defer span.End()

	row := debtPayload(debt)
	row["ledger_id"] = debt.LedgerID

	body, err := c.write("debts", func() ([]byte, error) {
		return c.doPost(ctx, "debts", row)
	})
	if err != nil {
		return nil, err
	}
	return decodeDebt(body, "")
}

func (c *Client) UpdateDebt(ctx context.Context, debt *domain.Debt) (*domain.Debt, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateDebt")
	defer span.End()

	body, err := c.write("debts", func() ([]byte, error) {
		return c.doPatch(ctx, "debts?"+eq("id", debt.ID), debtPayload(debt))
	})
	if err != nil {
		return nil, err
	}
	return decodeDebt(body, debt.ID)
}

func (c *Client) DeleteDebt(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteDebt")
	defer span.End()

	_, err := c.write("debts", func() ([]byte, error) {
		return nil, c.doDelete(ctx, "debts?"+eq("id", id))
	})
	return err
}

func debtPayload(debt *domain.Debt) map[string]any {
	return map[string]any{
		"counterparty": debt.Counterparty,
		"amount":       debt.Amount.String(),
		"due_date":     formatDate(debt.DueDate),
		"comment":      optional(debt.Comment),
	}
}

func decodeDebt(body []byte, id string) (*domain.Debt, error) {
	row, err := firstRow[debtRow](body, "debt")
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, &domain.ErrNotFound{Resource: "debt", ID: id}
	}
	debt := row.toDomain()
	return &debt, nil
}

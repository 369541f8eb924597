package supabase

import (
	"context"
	"fmt"
	"time"

	"github.com/pnlfinance/family-finance/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// Transactions: CRUD via PostgREST
// ============================================================

func (c *Client) ListTransactions(ctx context.Context, ledgerIDs []string) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListTransactions")
	defer span.End()
	span.SetAttributes(attribute.Int("ledgers.count", len(ledgerIDs)))

	if len(ledgerIDs) == 0 {
		return []domain.Transaction{}, nil
	}

	path := fmt.Sprintf("transactions?%s&order=created_at.desc", in("ledger_id", ledgerIDs))
	body, err := c.read(ctx, "transactions", path)
	if err != nil {
		return nil, err
	}

	rows, err := decodeRows[transactionRow](body, "transactions")
	if err != nil {
		return nil, err
	}
	txs := make([]domain.Transaction, 0, len(rows))
	for _, r := range rows {
		if tx, ok := r.toDomain(c.logger); ok {
			txs = append(txs, tx)
		}
	}
	span.SetAttributes(attribute.Int("transactions.count", len(txs)))
	return txs, nil
}

func (c *Client) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetTransaction")
	defer span.End()

	body, err := c.read(ctx, "transactions", fmt.Sprintf("transactions?%s&limit=1", eq("id", id)))
	if err != nil {
		return nil, err
	}
	return c.decodeTransaction(body, id)
}

func (c *Client) CreateTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateTransaction")
	defer span.End()
	span.SetAttributes(attribute.String("ledger.id", tx.LedgerID))

	row := transactionPayload(tx)
	row["ledger_id"] = tx.LedgerID
	row["profile_id"] = optional(tx.ProfileID)

	body, err := c.write("transactions", func() ([]byte, error) {
		return c.doPost(ctx, "transactions", row)
	})
	if err != nil {
		return nil, err
	}
	return c.decodeTransaction(body, "")
}

func (c *Client) UpdateTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateTransaction")
	defer span.End()
	span.SetAttributes(attribute.String("transaction.id", tx.ID))

	body, err := c.write("transactions", func() ([]byte, error) {
		return c.doPatch(ctx, "transactions?"+eq("id", tx.ID), transactionPayload(tx))
	})
	if err != nil {
		return nil, err
	}
	return c.decodeTransaction(body, tx.ID)
}

func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteTransaction")
	defer span.End()

	_, err := c.write("transactions", func() ([]byte, error) {
		return nil, c.doDelete(ctx, "transactions?"+eq("id", id))
	})
	return err
}

// DeleteTransactions removes a set of transactions in one request.
func (c *Client) DeleteTransactions(ctx context.Context, ids []string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteTransactions")
	defer span.End()
	span.SetAttributes(attribute.Int("transactions.count", len(ids)))

	if len(ids) == 0 {
		return nil
	}
	_, err := c.write("transactions", func() ([]byte, error) {
		return nil, c.doDelete(ctx, "transactions?"+in("id", ids))
	})
	return err
}

func transactionPayload(tx *domain.Transaction) map[string]any {
	return map[string]any{
		"amount":           tx.Amount.Decimal.String(),
		"transaction_type": string(tx.Kind),
		"category_id":      optional(tx.CategoryID),
		"comment":          optional(tx.Comment),
		"created_at":       tx.OccurredAt.UTC().Format(time.RFC3339),
	}
}

func (c *Client) decodeTransaction(body []byte, id string) (*domain.Transaction, error) {
	row, err := firstRow[transactionRow](body, "transaction")
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, &domain.ErrNotFound{Resource: "transaction", ID: id}
	}
	tx, ok := row.toDomain(c.logger)
	if !ok {
		return nil, fmt.Errorf("transaction %s has an unusable row", row.ID)
	}
	return &tx, nil
}

package supabase

import (
	"context"
	"fmt"

	"github.com/pnlfinance/family-finance/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// Ledgers: list & seed
// ============================================================

func (c *Client) ListLedgers(ctx context.Context, familyID string) ([]domain.Ledger, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListLedgers")
	defer span.End()
	span.SetAttributes(attribute.String("family.id", familyID))

	body, err := c.read(ctx, "ledgers", fmt.Sprintf("ledgers?%s&order=created_at.asc", eq("family_id", familyID)))
	if err != nil {
		return nil, err
	}

	rows, err := decodeRows[ledgerRow](body, "ledgers")
	if err != nil {
		return nil, err
	}
	ledgers := make([]domain.Ledger, 0, len(rows))
	for _, r := range rows {
		ledgers = append(ledgers, r.toDomain())
	}
	return ledgers, nil
}

// CreateLedgers inserts all ledgers in one bulk request.
func (c *Client) CreateLedgers(ctx context.Context, ledgers []domain.Ledger) ([]domain.Ledger, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateLedgers")
	defer span.End()
	span.SetAttributes(attribute.Int("ledgers.count", len(ledgers)))

	payload := make([]map[string]any, 0, len(ledgers))
	for _, l := range ledgers {
		payload = append(payload, map[string]any{
			"family_id": l.FamilyID,
			"title":     l.Title,
			"type":      string(l.Kind),
		})
	}

	body, err := c.write("ledgers", func() ([]byte, error) {
		return c.doPost(ctx, "ledgers", payload)
	})
	if err != nil {
		return nil, err
	}

	rows, err := decodeRows[ledgerRow](body, "ledgers")
	if err != nil {
		return nil, err
	}
	created := make([]domain.Ledger, 0, len(rows))
	for _, r := range rows {
		created = append(created, r.toDomain())
	}
	return created, nil
}

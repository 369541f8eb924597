package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/pnlfinance/family-finance/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// Families & profiles: used by session bootstrap
// ============================================================

func (c *Client) GetProfileByTelegramID(ctx context.Context, telegramID int64) (*domain.Profile, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetProfileByTelegramID")
	defer span.End()
	span.SetAttributes(attribute.Int64("telegram.id", telegramID))

	path := fmt.Sprintf("profiles?%s&limit=1", eq("telegram_id", strconv.FormatInt(telegramID, 10)))
	body, err := c.read(ctx, "profiles", path)
	if err != nil {
		return nil, err
	}

	row, err := firstRow[profileRow](body, "profile")
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, &domain.ErrNotFound{Resource: "profile", ID: strconv.FormatInt(telegramID, 10)}
	}
	p := row.toDomain()
	return &p, nil
}

func (c *Client) CreateFamily(ctx context.Context) (*domain.Family, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateFamily")
	defer span.End()

	body, err := c.write("families", func() ([]byte, error) {
		return c.doPost(ctx, "families", map[string]any{})
	})
	if err != nil {
		return nil, err
	}

	row, err := firstRow[familyRow](body, "family")
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, fmt.Errorf("no result from families insert")
	}
	created, _ := parseTime(row.CreatedAt)
	if created.IsZero() {
		created = time.Now().UTC()
	}
	return &domain.Family{ID: row.ID, CreatedAt: created}, nil
}

func (c *Client) CreateProfile(ctx context.Context, p *domain.Profile) (*domain.Profile, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateProfile")
	defer span.End()

	body, err := c.write("profiles", func() ([]byte, error) {
		return c.doPost(ctx, "profiles", map[string]any{
			"telegram_id":  p.TelegramID,
			"family_id":    p.FamilyID,
			"display_name": p.DisplayName,
		})
	})
	if err != nil {
		return nil, err
	}

	row, err := firstRow[profileRow](body, "profile")
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, fmt.Errorf("no result from profiles insert")
	}
	created := row.toDomain()
	return &created, nil
}

// decodeRows unmarshals a PostgREST array, treating an empty body as no rows.
func decodeRows[T any](body []byte, what string) ([]T, error) {
	var rows []T
	if len(body) == 0 {
		return rows, nil
	}
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode %s: %w", what, err)
	}
	return rows, nil
}

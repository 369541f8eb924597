package service

import (
	"strings"
	"time"

	"github.com/pnlfinance/family-finance/internal/domain"

	"github.com/shopspring/decimal"
)

// parseAmount accepts "1234.5" or "1234,5". Amounts in the write path are
// never negative; allowZero admits 0 for optional limits.
func parseAmount(field, raw string, allowZero bool) (decimal.Decimal, error) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	if raw == "" {
		return decimal.Zero, &domain.ErrValidation{Field: field, Message: "is required"}
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, &domain.ErrValidation{Field: field, Message: "must be a decimal number"}
	}
	if d.IsNegative() {
		return decimal.Zero, &domain.ErrValidation{Field: field, Message: "must not be negative"}
	}
	if d.IsZero() && !allowZero {
		return decimal.Zero, &domain.ErrValidation{Field: field, Message: "must be greater than zero"}
	}
	return d, nil
}

// parseOptionalAmount is parseAmount where an empty value means zero.
func parseOptionalAmount(field, raw string) (decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero, nil
	}
	return parseAmount(field, raw, true)
}

// parseTimestamp accepts RFC3339 or a bare YYYY-MM-DD date (UTC midnight).
func parseTimestamp(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	return time.Time{}, &domain.ErrValidation{Field: field, Message: "must be RFC3339 or YYYY-MM-DD"}
}

// parseDueDate returns nil for an empty value.
func parseDueDate(raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	t, err := parseTimestamp("due_date", raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// occurredAt resolves when a new transaction happened: an explicit timestamp
// wins, then noon UTC on the first day of the selected month, then now.
func occurredAt(req domain.TransactionRequest, now time.Time) (time.Time, error) {
	if strings.TrimSpace(req.OccurredAt) != "" {
		return parseTimestamp("created_at", req.OccurredAt)
	}
	if strings.TrimSpace(req.Month) != "" {
		m, err := domain.ParseYearMonth(req.Month)
		if err != nil {
			return time.Time{}, err
		}
		return m.Start().Add(12 * time.Hour), nil
	}
	return now.UTC(), nil
}

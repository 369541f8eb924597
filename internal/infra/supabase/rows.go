package supabase

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/pnlfinance/family-finance/internal/domain"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ============================================================
// Row types: PostgREST columns, coerced into domain records
// ============================================================

type familyRow struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
}

type profileRow struct {
	ID          string `json:"id"`
	TelegramID  int64  `json:"telegram_id"`
	FamilyID    string `json:"family_id"`
	DisplayName string `json:"display_name"`
}

func (r profileRow) toDomain() domain.Profile {
	return domain.Profile{ID: r.ID, TelegramID: r.TelegramID, FamilyID: r.FamilyID, DisplayName: r.DisplayName}
}

type ledgerRow struct {
	ID       string `json:"id"`
	FamilyID string `json:"family_id"`
	Title    string `json:"title"`
	Type     string `json:"type"`
}

func (r ledgerRow) toDomain() domain.Ledger {
	kind := domain.LedgerStandard
	if r.Type == string(domain.LedgerCredit) {
		kind = domain.LedgerCredit
	}
	return domain.Ledger{ID: r.ID, FamilyID: r.FamilyID, Title: r.Title, Kind: kind}
}

type transactionRow struct {
	ID              string          `json:"id"`
	LedgerID        string          `json:"ledger_id"`
	ProfileID       *string         `json:"profile_id"`
	Amount          json.RawMessage `json:"amount"`
	TransactionType string          `json:"transaction_type"`
	CategoryID      *string         `json:"category_id"`
	Comment         *string         `json:"comment"`
	CreatedAt       string          `json:"created_at"`
}

// toDomain coerces a row. ok is false when the row cannot be used at all
// (unknown kind or timestamp); an unparsable amount still yields a record
// with an invalid Amount.
func (r transactionRow) toDomain(logger *zap.Logger) (domain.Transaction, bool) {
	kind := domain.TxKind(strings.ToLower(strings.TrimSpace(r.TransactionType)))
	if !kind.Valid() {
		logger.Warn("supabase: dropping transaction with unknown type",
			zap.String("transaction_id", r.ID),
			zap.String("transaction_type", r.TransactionType),
		)
		return domain.Transaction{}, false
	}

	amount := coerceAmount(r.Amount)
	if !amount.Valid {
		logger.Warn("supabase: malformed transaction amount",
			zap.String("transaction_id", r.ID),
			zap.String("amount", string(r.Amount)),
		)
	}

	// Without a timestamp the row has no month bucket.
	occurred, err := parseTime(r.CreatedAt)
	if err != nil {
		logger.Warn("supabase: dropping transaction with unparsable timestamp",
			zap.String("transaction_id", r.ID),
			zap.String("created_at", r.CreatedAt),
		)
		return domain.Transaction{}, false
	}

	return domain.Transaction{
		ID:         r.ID,
		LedgerID:   r.LedgerID,
		ProfileID:  deref(r.ProfileID),
		Amount:     amount,
		Kind:       kind,
		CategoryID: deref(r.CategoryID),
		Comment:    deref(r.Comment),
		OccurredAt: occurred,
	}, true
}

type categoryRow struct {
	ID       string  `json:"id"`
	LedgerID string  `json:"ledger_id"`
	Name     string  `json:"name"`
	Icon     *string `json:"icon"`
	Type     string  `json:"type"`
}

func (r categoryRow) toDomain() (domain.Category, bool) {
	kind := domain.TxKind(r.Type)
	if !kind.Valid() {
		return domain.Category{}, false
	}
	return domain.Category{ID: r.ID, LedgerID: r.LedgerID, Name: r.Name, Icon: deref(r.Icon), Kind: kind}, true
}

type creditItemRow struct {
	ID            string          `json:"id"`
	LedgerID      string          `json:"ledger_id"`
	Name          string          `json:"name"`
	ItemType      string          `json:"item_type"`
	TotalDebt     json.RawMessage `json:"total_debt"`
	CreditLimit   json.RawMessage `json:"credit_limit"`
	TransferLimit json.RawMessage `json:"transfer_limit"`
	DueDate       *string         `json:"due_date"`
}

func (r creditItemRow) toDomain() domain.CreditItem {
	kind := domain.CreditItemKind(r.ItemType)
	if !kind.Valid() {
		kind = domain.CreditLoan
	}
	return domain.CreditItem{
		ID:            r.ID,
		LedgerID:      r.LedgerID,
		Name:          r.Name,
		Kind:          kind,
		TotalDebt:     coerceAmount(r.TotalDebt).Decimal,
		CreditLimit:   coerceAmount(r.CreditLimit).Decimal,
		TransferLimit: coerceAmount(r.TransferLimit).Decimal,
		DueDate:       parseOptionalTime(r.DueDate),
	}
}

type debtRow struct {
	ID           string          `json:"id"`
	LedgerID     string          `json:"ledger_id"`
	Counterparty string          `json:"counterparty"`
	Amount       json.RawMessage `json:"amount"`
	DueDate      *string         `json:"due_date"`
	Comment      *string         `json:"comment"`
}

func (r debtRow) toDomain() domain.Debt {
	return domain.Debt{
		ID:           r.ID,
		LedgerID:     r.LedgerID,
		Counterparty: r.Counterparty,
		Amount:       coerceAmount(r.Amount).Decimal,
		DueDate:      parseOptionalTime(r.DueDate),
		Comment:      deref(r.Comment),
	}
}

// ============================================================
// Coercion helpers
// ============================================================

// coerceAmount accepts a JSON number or a numeric string. Anything else,
// including null, yields an invalid NullDecimal (zero Decimal).
func coerceAmount(raw json.RawMessage) decimal.NullDecimal {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.NullDecimal{}
	}
	s := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.NullDecimal{}
		}
		s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999-07",
	"2006-01-02",
}

// parseTime accepts timestamptz, timestamp (assumed UTC) and date columns.
func parseTime(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func parseOptionalTime(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := parseTime(*s)
	if err != nil {
		return nil
	}
	return &t
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func formatDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format("2006-01-02")
}

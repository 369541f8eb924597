package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerKind distinguishes regular spending ledgers from the credit-obligations ledger.
type LedgerKind string

const (
	LedgerStandard LedgerKind = "standard"
	LedgerCredit   LedgerKind = "credit"
)

// TxKind is the direction of a transaction or the kind of a category.
type TxKind string

const (
	Income  TxKind = "income"
	Expense TxKind = "expense"
)

// Valid reports whether k is one of the known kinds.
func (k TxKind) Valid() bool {
	return k == Income || k == Expense
}

// CreditItemKind is the type of a standing credit obligation.
type CreditItemKind string

const (
	CreditLoan CreditItemKind = "loan"
	CreditCard CreditItemKind = "credit_card"
)

// Valid reports whether k is one of the known credit item kinds.
func (k CreditItemKind) Valid() bool {
	return k == CreditLoan || k == CreditCard
}

// Family groups the profiles sharing one ledger set.
type Family struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile is a Telegram user attached to a family.
type Profile struct {
	ID          string `json:"id"`
	TelegramID  int64  `json:"telegram_id"`
	FamilyID    string `json:"family_id"`
	DisplayName string `json:"display_name"`
}

// Ledger is a named bucket of transactions.
type Ledger struct {
	ID       string     `json:"id"`
	FamilyID string     `json:"family_id"`
	Title    string     `json:"title"`
	Kind     LedgerKind `json:"type"`
}

// Transaction is a single income or expense record.
// Amount is invalid when the stored value could not be coerced to a decimal.
type Transaction struct {
	ID         string              `json:"id"`
	LedgerID   string              `json:"ledger_id"`
	ProfileID  string              `json:"profile_id,omitempty"`
	Amount     decimal.NullDecimal `json:"amount"`
	Kind       TxKind              `json:"transaction_type"`
	CategoryID string              `json:"category_id,omitempty"`
	Comment    string              `json:"comment,omitempty"`
	OccurredAt time.Time           `json:"created_at"`
}

// Category is a user-defined label scoped to one ledger and one kind.
type Category struct {
	ID       string `json:"id"`
	LedgerID string `json:"ledger_id"`
	Name     string `json:"name"`
	Icon     string `json:"icon,omitempty"`
	Kind     TxKind `json:"type"`
}

// CreditItem is a standing loan or credit card balance.
type CreditItem struct {
	ID            string          `json:"id"`
	LedgerID      string          `json:"ledger_id"`
	Name          string          `json:"name"`
	Kind          CreditItemKind  `json:"item_type"`
	TotalDebt     decimal.Decimal `json:"total_debt"`
	CreditLimit   decimal.Decimal `json:"credit_limit"`
	TransferLimit decimal.Decimal `json:"transfer_limit"`
	DueDate       *time.Time      `json:"due_date,omitempty"`
}

// Debt is an informal IOU towards another personal ledger.
type Debt struct {
	ID           string          `json:"id"`
	LedgerID     string          `json:"ledger_id"`
	Counterparty string          `json:"counterparty"`
	Amount       decimal.Decimal `json:"amount"`
	DueDate      *time.Time      `json:"due_date,omitempty"`
	Comment      string          `json:"comment,omitempty"`
}

// Snapshot is the full set of records loaded for one family.
type Snapshot struct {
	Ledgers      []Ledger
	Transactions []Transaction
	Categories   []Category
	CreditItems  []CreditItem
	Debts        []Debt
}

// LedgerByTitle returns the ledger with the given title, or nil.
func (s *Snapshot) LedgerByTitle(title string) *Ledger {
	for i := range s.Ledgers {
		if s.Ledgers[i].Title == title {
			return &s.Ledgers[i]
		}
	}
	return nil
}

// LedgerIDs returns the ids of all ledgers in the snapshot.
func (s *Snapshot) LedgerIDs() []string {
	ids := make([]string, 0, len(s.Ledgers))
	for _, l := range s.Ledgers {
		ids = append(ids, l.ID)
	}
	return ids
}

package domain

import "github.com/shopspring/decimal"

// Group is the per-month aggregate of transactions sharing a category
// (or, without one, the same comment text).
type Group struct {
	Name       string          `json:"name"`
	Icon       string          `json:"icon,omitempty"`
	Total      decimal.Decimal `json:"total"`
	Kind       TxKind          `json:"kind"`
	CategoryID string          `json:"categoryId,omitempty"`
	Count      int             `json:"count"`
}

// LedgerView is the derived, read-only view of one ledger for one month.
type LedgerView struct {
	Ledger            Ledger          `json:"ledger"`
	Month             YearMonth       `json:"month"`
	CumulativeBalance decimal.Decimal `json:"cumulativeBalance"`
	MonthIncome       decimal.Decimal `json:"monthIncome"`
	MonthExpense      decimal.Decimal `json:"monthExpense"`
	IncomeGroups      []Group         `json:"incomeGroups"`
	ExpenseGroups     []Group         `json:"expenseGroups"`
	CreditItems       []CreditItem    `json:"creditItems"`
	Debts             []Debt          `json:"debts"`
	MalformedAmounts  int             `json:"malformedAmounts"`
}

// SessionInfo is returned to the Mini App after bootstrap.
type SessionInfo struct {
	Token   string   `json:"token"`
	Profile Profile  `json:"profile"`
	Ledgers []Ledger `json:"ledgers"`
}

// TelegramUser is the subset of Telegram WebApp user data used for bootstrap.
type TelegramUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
}

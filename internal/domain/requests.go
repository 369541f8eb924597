package domain

// ============================================================
// Mutation requests (JSON bodies from the Mini App)
// ============================================================

// TransactionRequest creates or replaces a transaction.
// Amount stays a string so that the service owns decimal parsing.
type TransactionRequest struct {
	Amount     string `json:"amount"`
	Kind       TxKind `json:"transaction_type"`
	CategoryID string `json:"category_id,omitempty"`
	Comment    string `json:"comment,omitempty"`
	OccurredAt string `json:"created_at,omitempty"` // RFC3339 or YYYY-MM-DD
	Month      string `json:"month,omitempty"`      // fallback month when OccurredAt is empty
}

// CategoryRequest creates or replaces a category.
type CategoryRequest struct {
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
	Kind TxKind `json:"type"`
}

// CreditItemRequest creates or replaces a credit item.
type CreditItemRequest struct {
	Name          string         `json:"name"`
	Kind          CreditItemKind `json:"item_type"`
	TotalDebt     string         `json:"total_debt"`
	CreditLimit   string         `json:"credit_limit,omitempty"`
	TransferLimit string         `json:"transfer_limit,omitempty"`
	DueDate       string         `json:"due_date,omitempty"`
}

// DebtRequest creates or replaces a debt.
type DebtRequest struct {
	Counterparty string `json:"counterparty"`
	Amount       string `json:"amount"`
	DueDate      string `json:"due_date,omitempty"`
	Comment      string `json:"comment,omitempty"`
}

// GroupSelector identifies one aggregated group inside a ledger.
type GroupSelector struct {
	Kind       TxKind
	CategoryID string
	Name       string
}

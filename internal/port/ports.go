// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the service layer
// from the Supabase adapter and the in-memory demo store.
package port

import (
	"context"

	"github.com/pnlfinance/family-finance/internal/domain"
)

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

// ProfileStore resolves and creates families and profiles during session bootstrap.
type ProfileStore interface {
	GetProfileByTelegramID(ctx context.Context, telegramID int64) (*domain.Profile, error)
	CreateFamily(ctx context.Context) (*domain.Family, error)
	CreateProfile(ctx context.Context, p *domain.Profile) (*domain.Profile, error)
}

// LedgerStore lists and seeds a family's ledgers.
type LedgerStore interface {
	ListLedgers(ctx context.Context, familyID string) ([]domain.Ledger, error)
	CreateLedgers(ctx context.Context, ledgers []domain.Ledger) ([]domain.Ledger, error)
}

// TransactionStore handles transaction records.
type TransactionStore interface {
	ListTransactions(ctx context.Context, ledgerIDs []string) ([]domain.Transaction, error)
	GetTransaction(ctx context.Context, id string) (*domain.Transaction, error)
	CreateTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
	UpdateTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
	DeleteTransactions(ctx context.Context, ids []string) error
}

// CategoryStore handles category records.
type CategoryStore interface {
	ListCategories(ctx context.Context, ledgerIDs []string) ([]domain.Category, error)
	GetCategory(ctx context.Context, id string) (*domain.Category, error)
	CreateCategories(ctx context.Context, cats []domain.Category) ([]domain.Category, error)
	UpdateCategory(ctx context.Context, cat *domain.Category) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

// CreditItemStore handles loans and credit cards.
type CreditItemStore interface {
	ListCreditItems(ctx context.Context, ledgerIDs []string) ([]domain.CreditItem, error)
	GetCreditItem(ctx context.Context, id string) (*domain.CreditItem, error)
	CreateCreditItem(ctx context.Context, item *domain.CreditItem) (*domain.CreditItem, error)
	UpdateCreditItem(ctx context.Context, item *domain.CreditItem) (*domain.CreditItem, error)
	DeleteCreditItem(ctx context.Context, id string) error
}

// DebtStore handles informal IOUs.
type DebtStore interface {
	ListDebts(ctx context.Context, ledgerIDs []string) ([]domain.Debt, error)
	GetDebt(ctx context.Context, id string) (*domain.Debt, error)
	CreateDebt(ctx context.Context, debt *domain.Debt) (*domain.Debt, error)
	UpdateDebt(ctx context.Context, debt *domain.Debt) (*domain.Debt, error)
	DeleteDebt(ctx context.Context, id string) error
}

// FinanceStore is the full Data Store Client.
// Implemented by the Supabase adapter and the in-memory store.
type FinanceStore interface {
	ProfileStore
	LedgerStore
	TransactionStore
	CategoryStore
	CreditItemStore
	DebtStore
}

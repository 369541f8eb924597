// Package memory is an in-process FinanceStore. It backs demo mode when
// Supabase is not configured and doubles as a realistic store in tests.
package memory

import (
	"context"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/pnlfinance/family-finance/internal/domain"
	"github.com/pnlfinance/family-finance/internal/port"

	"github.com/google/uuid"
)

var _ port.FinanceStore = (*Store)(nil)

// Store keeps every record in insertion order behind one mutex.
type Store struct {
	mu           sync.Mutex
	families     []domain.Family
	profiles     []domain.Profile
	ledgers      []domain.Ledger
	transactions []domain.Transaction
	categories   []domain.Category
	creditItems  []domain.CreditItem
	debts        []domain.Debt
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// ============================================================
// Families & profiles
// ============================================================

func (s *Store) GetProfileByTelegramID(_ context.Context, telegramID int64) (*domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.profiles {
		if p.TelegramID == telegramID {
			return &p, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "profile", ID: telegramKey(telegramID)}
}

func (s *Store) CreateFamily(_ context.Context) (*domain.Family, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := domain.Family{ID: uuid.NewString(), CreatedAt: time.Now().UTC()}
	s.families = append(s.families, f)
	return &f, nil
}

func (s *Store) CreateProfile(_ context.Context, p *domain.Profile) (*domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := *p
	created.ID = uuid.NewString()
	s.profiles = append(s.profiles, created)
	return &created, nil
}

// ============================================================
// Ledgers
// ============================================================

func (s *Store) ListLedgers(_ context.Context, familyID string) ([]domain.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return filter(s.ledgers, func(l domain.Ledger) bool { return l.FamilyID == familyID }), nil
}

func (s *Store) CreateLedgers(_ context.Context, ledgers []domain.Ledger) ([]domain.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := make([]domain.Ledger, 0, len(ledgers))
	for _, l := range ledgers {
		l.ID = uuid.NewString()
		s.ledgers = append(s.ledgers, l)
		created = append(created, l)
	}
	return created, nil
}

// ============================================================
// Transactions
// ============================================================

// ListTransactions returns newest first, the order the Supabase adapter requests.
func (s *Store) ListTransactions(_ context.Context, ledgerIDs []string) ([]domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	txs := filter(s.transactions, func(t domain.Transaction) bool { return slices.Contains(ledgerIDs, t.LedgerID) })
	slices.SortStableFunc(txs, func(a, b domain.Transaction) int {
		return b.OccurredAt.Compare(a.OccurredAt)
	})
	return txs, nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return find(s.transactions, "transaction", id, func(t domain.Transaction) string { return t.ID })
}

func (s *Store) CreateTransaction(_ context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := *tx
	created.ID = uuid.NewString()
	s.transactions = append(s.transactions, created)
	return &created, nil
}

func (s *Store) UpdateTransaction(_ context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return replace(s.transactions, "transaction", *tx, func(t domain.Transaction) string { return t.ID })
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transactions = remove(s.transactions, func(t domain.Transaction) bool { return t.ID == id })
	return nil
}

func (s *Store) DeleteTransactions(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transactions = remove(s.transactions, func(t domain.Transaction) bool { return slices.Contains(ids, t.ID) })
	return nil
}

// ============================================================
// Categories
// ============================================================

func (s *Store) ListCategories(_ context.Context, ledgerIDs []string) ([]domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return filter(s.categories, func(c domain.Category) bool { return slices.Contains(ledgerIDs, c.LedgerID) }), nil
}

func (s *Store) GetCategory(_ context.Context, id string) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return find(s.categories, "category", id, func(c domain.Category) string { return c.ID })
}

func (s *Store) CreateCategories(_ context.Context, cats []domain.Category) ([]domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := make([]domain.Category, 0, len(cats))
	for _, c := range cats {
		c.ID = uuid.NewString()
		s.categories = append(s.categories, c)
		created = append(created, c)
	}
	return created, nil
}

func (s *Store) UpdateCategory(_ context.Context, cat *domain.Category) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return replace(s.categories, "category", *cat, func(c domain.Category) string { return c.ID })
}

func (s *Store) DeleteCategory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.categories = remove(s.categories, func(c domain.Category) bool { return c.ID == id })
	return nil
}

// ============================================================
// Credit items
// ============================================================

func (s *Store) ListCreditItems(_ context.Context, ledgerIDs []string) ([]domain.CreditItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return filter(s.creditItems, func(c domain.CreditItem) bool { return slices.Contains(ledgerIDs, c.LedgerID) }), nil
}

func (s *Store) GetCreditItem(_ context.Context, id string) (*domain.CreditItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return find(s.creditItems, "credit_item", id, func(c domain.CreditItem) string { return c.ID })
}

func (s *Store) CreateCreditItem(_ context.Context, item *domain.CreditItem) (*domain.CreditItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := *item
	created.ID = uuid.NewString()
	s.creditItems = append(s.creditItems, created)
	return &created, nil
}

func (s *Store) UpdateCreditItem(_ context.Context, item *domain.CreditItem) (*domain.CreditItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return replace(s.creditItems, "credit_item", *item, func(c domain.CreditItem) string { return c.ID })
}

func (s *Store) DeleteCreditItem(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creditItems = remove(s.creditItems, func(c domain.CreditItem) bool { return c.ID == id })
	return nil
}

// ============================================================
// Debts
// ============================================================

func (s *Store) ListDebts(_ context.Context, ledgerIDs []string) ([]domain.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return filter(s.debts, func(d domain.Debt) bool { return slices.Contains(ledgerIDs, d.LedgerID) }), nil
}

func (s *Store) GetDebt(_ context.Context, id string) (*domain.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return find(s.debts, "debt", id, func(d domain.Debt) string { return d.ID })
}

func (s *Store) CreateDebt(_ context.Context, debt *domain.Debt) (*domain.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := *debt
	created.ID = uuid.NewString()
	s.debts = append(s.debts, created)
	return &created, nil
}

func (s *Store) UpdateDebt(_ context.Context, debt *domain.Debt) (*domain.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return replace(s.debts, "debt", *debt, func(d domain.Debt) string { return d.ID })
}

func (s *Store) DeleteDebt(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.debts = remove(s.debts, func(d domain.Debt) bool { return d.ID == id })
	return nil
}

// ============================================================
// Slice helpers (callers hold s.mu)
// ============================================================

// filter returns a fresh slice so callers never alias store memory.
func filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0)
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

func find[T any](items []T, resource, id string, key func(T) string) (*T, error) {
	for _, it := range items {
		if key(it) == id {
			return &it, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: resource, ID: id}
}

func replace[T any](items []T, resource string, updated T, key func(T) string) (*T, error) {
	id := key(updated)
	for i := range items {
		if key(items[i]) == id {
			items[i] = updated
			return &updated, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: resource, ID: id}
}

func remove[T any](items []T, drop func(T) bool) []T {
	return slices.DeleteFunc(items, drop)
}

func telegramKey(telegramID int64) string {
	return "telegram:" + strconv.FormatInt(telegramID, 10)
}

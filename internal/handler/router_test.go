package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/pnlfinance/family-finance/internal/domain"
	"github.com/pnlfinance/family-finance/internal/handler"
	"github.com/pnlfinance/family-finance/internal/infra/cache"
	"github.com/pnlfinance/family-finance/internal/infra/memory"
	"github.com/pnlfinance/family-finance/internal/infra/observability"
	"github.com/pnlfinance/family-finance/internal/infra/resilience"
	"github.com/pnlfinance/family-finance/internal/service"

	"go.uber.org/zap"
)

// --- Mocks ---

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error {
	return m.err
}

// --- Helpers ---

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	return newTestRouterWithTitles(t, "Настя", "Глеб", "Кредиты")
}

func newTestRouterWithTitles(t *testing.T, titles ...string) http.Handler {
	t.Helper()
	store := memory.New()
	c := cache.New[*domain.Snapshot](time.Minute)
	t.Cleanup(c.Close)
	metrics := observability.NewMetrics()

	sessions := service.NewSessionService(store, service.SessionConfig{
		LedgerTitles:      titles,
		CreditLedgerTitle: "Кредиты",
		JWTSecret:         "test-secret",
		SessionTTL:        time.Hour,
	}, zap.NewNop())
	ledgers := service.NewLedgerService(store, c, resilience.NewBulkhead(4), metrics, "Общее", zap.NewNop())

	return handler.NewRouter(sessions, ledgers, nil, []string{"*"}, metrics, zap.NewNop())
}

func do(t *testing.T, router http.Handler, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func startSession(t *testing.T, router http.Handler) string {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/v1/session", "", map[string]any{"id": 42, "first_name": "Глеб"})
	if rec.Code != http.StatusOK {
		t.Fatalf("session: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var info domain.SessionInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return info.Token
}

func ledgerPath(title, suffix string) string {
	return "/v1/ledgers/" + url.PathEscape(title) + suffix
}

// --- Operational ---

func TestHealthz(t *testing.T) {
	router := handler.NewRouter(nil, nil, nil, nil, observability.NewMetrics(), zap.NewNop())

	rec := do(t, router, http.MethodGet, "/healthz", "", nil)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHealthz_DegradedStore(t *testing.T) {
	router := handler.NewRouter(nil, nil, &mockPinger{err: errors.New("down")}, nil, observability.NewMetrics(), zap.NewNop())

	rec := do(t, router, http.MethodGet, "/healthz", "", nil)

	var health domain.HealthStatus
	if err := json.NewDecoder(rec.Body).Decode(&health); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if health.Status != "degraded" || len(health.Services) != 2 {
		t.Errorf("expected degraded status with store entry, got %+v", health)
	}
}

func TestReadyz(t *testing.T) {
	router := handler.NewRouter(nil, nil, nil, nil, observability.NewMetrics(), zap.NewNop())

	rec := do(t, router, http.MethodGet, "/readyz", "", nil)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestMetrics(t *testing.T) {
	router := handler.NewRouter(nil, nil, nil, nil, observability.NewMetrics(), zap.NewNop())

	rec := do(t, router, http.MethodGet, "/metrics", "", nil)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestV1_UnavailableWithoutServices(t *testing.T) {
	router := handler.NewRouter(nil, nil, nil, nil, observability.NewMetrics(), zap.NewNop())

	rec := do(t, router, http.MethodGet, "/v1/ledgers", "", nil)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

// --- Session & auth ---

func TestProtectedRoutes_RequireToken(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name  string
		token string
	}{
		{"missing", ""},
		{"invalid", "garbage"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodGet, "/v1/ledgers", tt.token, nil)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestSession_InvalidBody(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/session", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestListLedgers(t *testing.T) {
	router := newTestRouter(t)
	token := startSession(t, router)

	rec := do(t, router, http.MethodGet, "/v1/ledgers", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Ledgers []domain.Ledger `json:"ledgers"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Ledgers) != 3 {
		t.Errorf("expected 3 ledgers, got %d", len(body.Ledgers))
	}
}

func TestLedgerView_TitleDecodedOnce(t *testing.T) {
	router := newTestRouterWithTitles(t, "a%41", "Еда/ВБ", "Кредиты")
	token := startSession(t, router)

	for _, title := range []string{"a%41", "Еда/ВБ"} {
		t.Run(title, func(t *testing.T) {
			rec := do(t, router, http.MethodGet, ledgerPath(title, "/view?month=2024-03"), token, nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			var view domain.LedgerView
			if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if view.Ledger.Title != title {
				t.Errorf("expected ledger %q, got %q", title, view.Ledger.Title)
			}
		})
	}

	// "aA" is a different ledger; the escaped "%41" must not collapse into it.
	rec := do(t, router, http.MethodGet, ledgerPath("aA", "/view"), token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for aA, got %d", rec.Code)
	}
}

// --- Ledger flow ---

func TestLedgerFlow(t *testing.T) {
	router := newTestRouter(t)
	token := startSession(t, router)

	for _, req := range []domain.TransactionRequest{
		{Amount: "1000", Kind: domain.Income, Comment: "зарплата", Month: "2024-03"},
		{Amount: "120.50", Kind: domain.Expense, Comment: "такси", Month: "2024-03"},
		{Amount: "79.50", Kind: domain.Expense, Comment: "такси ", Month: "2024-03"},
	} {
		rec := do(t, router, http.MethodPost, ledgerPath("Глеб", "/transactions"), token, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("add transaction: expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
	}

	rec := do(t, router, http.MethodGet, ledgerPath("Глеб", "/view?month=2024-03"), token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("view: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var view domain.LedgerView
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if view.MonthIncome.String() != "1000" || view.MonthExpense.String() != "200" {
		t.Errorf("unexpected totals income=%s expense=%s", view.MonthIncome, view.MonthExpense)
	}
	if view.CumulativeBalance.String() != "800" {
		t.Errorf("expected balance 800, got %s", view.CumulativeBalance)
	}
	if len(view.ExpenseGroups) != 1 || view.ExpenseGroups[0].Count != 2 {
		t.Errorf("expected one merged такси group, got %+v", view.ExpenseGroups)
	}

	q := url.Values{"kind": {"expense"}, "name": {"такси"}, "month": {"2024-03"}}
	rec = do(t, router, http.MethodDelete, ledgerPath("Глеб", "/groups?"+q.Encode()), token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete group: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, router, http.MethodGet, ledgerPath("Глеб", "/view?month=2024-03"), token, nil)
	view = domain.LedgerView{}
	json.NewDecoder(rec.Body).Decode(&view)
	if len(view.ExpenseGroups) != 0 || view.CumulativeBalance.String() != "1000" {
		t.Errorf("expected expenses gone, got groups=%+v balance=%s", view.ExpenseGroups, view.CumulativeBalance)
	}
}

func TestLedgerErrors(t *testing.T) {
	router := newTestRouter(t)
	token := startSession(t, router)

	tests := []struct {
		name   string
		method string
		target string
		body   any
		want   int
	}{
		{"unknown ledger", http.MethodGet, ledgerPath("Нет", "/view"), nil, http.StatusNotFound},
		{"bad month", http.MethodGet, ledgerPath("Глеб", "/view?month=2024-13"), nil, http.StatusBadRequest},
		{"negative amount", http.MethodPost, ledgerPath("Глеб", "/transactions"), domain.TransactionRequest{Amount: "-1", Kind: domain.Expense}, http.StatusBadRequest},
		{"missing transaction", http.MethodDelete, "/v1/transactions/nope", nil, http.StatusNotFound},
		{"empty group", http.MethodDelete, ledgerPath("Глеб", "/groups?kind=expense&name=x"), nil, http.StatusNotFound},
		{"credit item on personal ledger", http.MethodPost, ledgerPath("Глеб", "/credit-items"), domain.CreditItemRequest{Name: "x", Kind: domain.CreditLoan, TotalDebt: "1"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, tt.method, tt.target, token, tt.body)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestCategoriesAndDebts(t *testing.T) {
	router := newTestRouter(t)
	token := startSession(t, router)

	rec := do(t, router, http.MethodPost, ledgerPath("Настя", "/categories"), token, domain.CategoryRequest{Name: "Книги", Icon: "📚", Kind: domain.Expense})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create category: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var cat domain.Category
	json.NewDecoder(rec.Body).Decode(&cat)

	rec = do(t, router, http.MethodPut, "/v1/categories/"+cat.ID, token, domain.CategoryRequest{Name: "Журналы"})
	if rec.Code != http.StatusOK {
		t.Errorf("update category: expected 200, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodGet, ledgerPath("Настя", "/categories"), token, nil)
	var list struct {
		Categories []domain.Category `json:"categories"`
	}
	json.NewDecoder(rec.Body).Decode(&list)
	if len(list.Categories) != len(service.DefaultCategories)+1 {
		t.Errorf("expected defaults plus one, got %d", len(list.Categories))
	}

	rec = do(t, router, http.MethodDelete, "/v1/categories/"+cat.ID, token, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("delete category: expected 200, got %d", rec.Code)
	}

	rec = do(t, router, http.MethodPost, ledgerPath("Настя", "/debts"), token, domain.DebtRequest{Counterparty: "Глеб", Amount: "250"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create debt: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, router, http.MethodGet, ledgerPath("Настя", "/view"), token, nil)
	var view domain.LedgerView
	json.NewDecoder(rec.Body).Decode(&view)
	if len(view.Debts) != 1 {
		t.Errorf("expected debt in view, got %+v", view.Debts)
	}
}

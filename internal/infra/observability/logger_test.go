package observability_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pnlfinance/family-finance/internal/infra/observability"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedRouter(t *testing.T) (http.Handler, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)

	r := chi.NewRouter()
	r.Use(observability.TracingMiddleware)
	r.Use(observability.ZapLoggerMiddleware(zap.New(core)))
	r.Get("/v1/ledgers/{title}/view", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{}"))
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})
	return r, logs
}

func TestZapLoggerMiddleware_LogsRoutePattern(t *testing.T) {
	h, logs := newObservedRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/ledgers/%D0%95%D0%B4%D0%B0/view", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.FilterMessage("http request").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["route"] != "/v1/ledgers/{title}/view" {
		t.Errorf("expected route pattern, got %v", fields["route"])
	}
	if fields["status"] != int64(http.StatusOK) {
		t.Errorf("expected status 200, got %v", fields["status"])
	}
	if entries[0].Level != zapcore.InfoLevel {
		t.Errorf("expected info level, got %s", entries[0].Level)
	}
}

func TestZapLoggerMiddleware_Levels(t *testing.T) {
	h, logs := newObservedRouter(t)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	entries := logs.All()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	want := []zapcore.Level{zapcore.DebugLevel, zapcore.ErrorLevel, zapcore.WarnLevel}
	for i, e := range entries {
		if e.Level != want[i] {
			t.Errorf("entry %d: expected %s, got %s", i, want[i], e.Level)
		}
	}
}

func TestNewLogger_FallsBackOnUnknownLevel(t *testing.T) {
	logger := observability.NewLogger("loud")
	if !logger.Core().Enabled(zapcore.InfoLevel) {
		t.Error("expected info to be enabled by default")
	}
	if logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("expected debug to be disabled by default")
	}

	if !observability.NewLogger("DEBUG").Core().Enabled(zapcore.DebugLevel) {
		t.Error("expected debug level to be honored case-insensitively")
	}
}

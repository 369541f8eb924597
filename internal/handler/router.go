package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/pnlfinance/family-finance/internal/domain"
	"github.com/pnlfinance/family-finance/internal/infra/observability"
	"github.com/pnlfinance/family-finance/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Pinger is a backing service /healthz can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewRouter creates the HTTP router with all routes and middleware.
// A nil store skips the data store probe in /healthz; nil services disable /v1.
func NewRouter(
	sessions *service.SessionService,
	ledgers *service.LedgerService,
	store Pinger,
	corsOrigins []string,
	metrics *observability.Metrics,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.TracingMiddleware)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(store))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		if sessions == nil || ledgers == nil {
			r.Handle("/*", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeError(w, http.StatusServiceUnavailable, "ledger service unavailable")
			}))
			return
		}

		// Public: Mini App bootstrap
		r.Post("/session", startSessionHandler(sessions, logger))

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(SessionMiddleware(sessions, logger))

			// Ledgers & monthly view
			r.Get("/ledgers", listLedgersHandler(ledgers, logger))
			r.Get("/ledgers/{title}/view", ledgerViewHandler(ledgers, logger))

			// Transactions
			r.Post("/ledgers/{title}/transactions", addTransactionHandler(ledgers, logger))
			r.Put("/transactions/{id}", updateTransactionHandler(ledgers, logger))
			r.Delete("/transactions/{id}", deleteTransactionHandler(ledgers, logger))
			r.Delete("/ledgers/{title}/groups", deleteGroupHandler(ledgers, logger))

			// Categories
			r.Get("/ledgers/{title}/categories", listCategoriesHandler(ledgers, logger))
			r.Post("/ledgers/{title}/categories", createCategoryHandler(ledgers, logger))
			r.Put("/categories/{id}", updateCategoryHandler(ledgers, logger))
			r.Delete("/categories/{id}", deleteCategoryHandler(ledgers, logger))

			// Credit items
			r.Post("/ledgers/{title}/credit-items", createCreditItemHandler(ledgers, logger))
			r.Put("/credit-items/{id}", updateCreditItemHandler(ledgers, logger))
			r.Delete("/credit-items/{id}", deleteCreditItemHandler(ledgers, logger))

			// Debts
			r.Post("/ledgers/{title}/debts", createDebtHandler(ledgers, logger))
			r.Put("/debts/{id}", updateDebtHandler(ledgers, logger))
			r.Delete("/debts/{id}", deleteDebtHandler(ledgers, logger))
		})
	})

	return r
}

// ============================================================
// Session: POST /v1/session
// ============================================================

func startSessionHandler(sessions *service.SessionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/session")
		defer span.End()

		var user domain.TelegramUser
		if !decodeBody(w, r, &user) {
			return
		}
		span.SetAttributes(attribute.Int64("telegram.id", user.ID))

		info, err := sessions.Start(ctx, user)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, info)
	}
}

// ============================================================
// Operational
// ============================================================

func healthzHandler(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: observability.ServiceName, Status: "healthy", LastChecked: now},
		}

		if store != nil {
			start := time.Now()
			err := store.Ping(r.Context())
			status := "healthy"
			if err != nil {
				status = "degraded"
			}
			services = append(services, domain.ServiceHealth{
				Name: "supabase", Status: status,
				LatencyMs: time.Since(start).Milliseconds(), LastChecked: now,
			})
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status != "healthy" {
				overallStatus = s.Status
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pnlfinance/family-finance/internal/config"
	"github.com/pnlfinance/family-finance/internal/domain"
	"github.com/pnlfinance/family-finance/internal/handler"
	"github.com/pnlfinance/family-finance/internal/infra/cache"
	"github.com/pnlfinance/family-finance/internal/infra/memory"
	"github.com/pnlfinance/family-finance/internal/infra/observability"
	"github.com/pnlfinance/family-finance/internal/infra/resilience"
	"github.com/pnlfinance/family-finance/internal/infra/supabase"
	"github.com/pnlfinance/family-finance/internal/port"
	"github.com/pnlfinance/family-finance/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Bool("supabase", cfg.SupabaseEnabled()),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Duration("jwt_session_ttl", cfg.JWTSessionTTL),
		zap.Strings("ledgers", cfg.LedgerTitles),
	)

	// --- Tracing ---
	endpoint := ""
	if cfg.OTELEnabled {
		endpoint = cfg.OTLPEndpoint
	}
	shutdown, err := observability.InitTracer(endpoint, observability.ServiceName)
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	snapshots := cache.New[*domain.Snapshot](cfg.CacheTTL)
	defer snapshots.Close()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	bulkhead := resilience.NewBulkhead(cfg.MaxConcurrency)

	// --- Data store ---
	var store port.FinanceStore
	var pinger handler.Pinger

	if cfg.SupabaseEnabled() {
		logger.Info("using Supabase as data backend", zap.String("supabase_url", cfg.SupabaseURL))
		apiKey := cfg.SupabaseAnonKey
		if apiKey == "" {
			apiKey = cfg.SupabaseKey()
		}
		client := supabase.NewClient(
			&http.Client{Timeout: cfg.HTTPTimeout},
			cfg.SupabaseURL,
			apiKey,
			cfg.SupabaseKey(),
			resilience.NewCircuitBreaker("supabase", logger),
			resilienceCfg,
			metrics,
			logger,
		)
		store = client
		pinger = client
	} else {
		logger.Warn("Supabase not configured, using in-memory demo store; data is lost on restart")
		store = memory.New()
	}

	// --- Services ---
	sessions := service.NewSessionService(store, service.SessionConfig{
		LedgerTitles:      cfg.LedgerTitles,
		CreditLedgerTitle: cfg.CreditLedgerTitle,
		JWTSecret:         cfg.JWTSecret,
		SessionTTL:        cfg.JWTSessionTTL,
	}, logger)
	ledgers := service.NewLedgerService(store, snapshots, bulkhead, metrics, cfg.DefaultComment, logger)

	// --- Router ---
	router := handler.NewRouter(sessions, ledgers, pinger, cfg.CORSOrigins, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

// DefaultLedgerTitles is the ledger set seeded for a new family.
var DefaultLedgerTitles = []string{"Настя", "Глеб", "Еда", "ВБ", "Кредиты"}

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port        int
	LogLevel    string
	CORSOrigins []string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Cache
	CacheTTL time.Duration

	// Observability
	OTLPEndpoint string
	OTELEnabled  bool

	// Supabase
	SupabaseURL        string
	SupabaseAnonKey    string
	SupabaseServiceKey string
	UseSupabase        bool

	// Session tokens
	JWTSecret     string
	JWTSessionTTL time.Duration

	// Ledgers
	LedgerTitles      []string
	CreditLedgerTitle string
	DefaultComment    string // stored when a transaction arrives without a comment
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:        getEnvInt("PORT", 8080),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CORSOrigins: getEnvList("CORS_ORIGINS", []string{"https://web.telegram.org", "http://localhost:3000"}),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 50),

		CacheTTL: getEnvDuration("CACHE_TTL", 30*time.Second),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTELEnabled:  getEnv("OTEL_ENABLED", "false") == "true",

		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseAnonKey:    getEnv("SUPABASE_ANON_KEY", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
		UseSupabase:        getEnv("USE_SUPABASE", "true") == "true",

		JWTSecret:     getEnv("JWT_SECRET", "family-finance-dev-secret-change-me"),
		JWTSessionTTL: getEnvDuration("JWT_SESSION_TTL", 30*24*time.Hour),

		LedgerTitles:      getEnvList("LEDGER_TITLES", DefaultLedgerTitles),
		CreditLedgerTitle: getEnv("CREDIT_LEDGER_TITLE", "Кредиты"),
		DefaultComment:    getEnv("DEFAULT_COMMENT", "Общее"),
	}
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d: must be between 1 and 65535", c.Port))
	}
	if len(c.LedgerTitles) == 0 {
		errs = append(errs, errors.New("LEDGER_TITLES must name at least one ledger"))
	}
	if c.CreditLedgerTitle != "" && !slices.Contains(c.LedgerTitles, c.CreditLedgerTitle) {
		errs = append(errs, fmt.Errorf("CREDIT_LEDGER_TITLE %q is not one of LEDGER_TITLES", c.CreditLedgerTitle))
	}
	if c.UseSupabase && c.SupabaseURL != "" && c.SupabaseServiceKey == "" && c.SupabaseAnonKey == "" {
		errs = append(errs, errors.New("SUPABASE_URL is set but no Supabase key is configured"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET must not be empty"))
	}

	return errors.Join(errs...)
}

// SupabaseEnabled reports whether the Supabase store should be used
// instead of the in-memory demo store.
func (c *Config) SupabaseEnabled() bool {
	return c.UseSupabase && c.SupabaseURL != ""
}

// SupabaseKey returns the key used for PostgREST calls: the service role
// key when present, else the anon key.
func (c *Config) SupabaseKey() string {
	if c.SupabaseServiceKey != "" {
		return c.SupabaseServiceKey
	}
	return c.SupabaseAnonKey
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvList splits a comma-separated variable, dropping blanks.
func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return slices.Clone(fallback)
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

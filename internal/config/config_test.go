package config_test

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/pnlfinance/family-finance/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("LEDGER_TITLES", "")
	t.Setenv("CACHE_TTL", "")

	cfg := config.Load()

	if cfg.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Port)
	}
	if !reflect.DeepEqual(cfg.LedgerTitles, config.DefaultLedgerTitles) {
		t.Errorf("unexpected ledger titles: %v", cfg.LedgerTitles)
	}
	if cfg.CacheTTL != 30*time.Second {
		t.Errorf("expected 30s cache ttl, got %s", cfg.CacheTTL)
	}
	if cfg.DefaultComment != "Общее" {
		t.Errorf("unexpected default comment %q", cfg.DefaultComment)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LEDGER_TITLES", " Alice, Bob ,, Debts ")
	t.Setenv("CREDIT_LEDGER_TITLE", "Debts")
	t.Setenv("CACHE_TTL", "not-a-duration")

	cfg := config.Load()

	if cfg.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Port)
	}
	if !reflect.DeepEqual(cfg.LedgerTitles, []string{"Alice", "Bob", "Debts"}) {
		t.Errorf("unexpected ledger titles: %v", cfg.LedgerTitles)
	}
	if cfg.CacheTTL != 30*time.Second {
		t.Errorf("expected fallback cache ttl, got %s", cfg.CacheTTL)
	}
}

func TestValidate_CollectsErrors(t *testing.T) {
	cfg := config.Load()
	cfg.Port = 0
	cfg.CreditLedgerTitle = "Nope"
	cfg.JWTSecret = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"invalid port", "CREDIT_LEDGER_TITLE", "JWT_SECRET"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to mention %q, got %v", want, err)
		}
	}
}

func TestSupabaseEnabled(t *testing.T) {
	cfg := config.Load()
	cfg.UseSupabase = true
	cfg.SupabaseURL = ""
	if cfg.SupabaseEnabled() {
		t.Error("expected disabled without URL")
	}

	cfg.SupabaseURL = "https://example.supabase.co"
	cfg.SupabaseAnonKey = "anon"
	cfg.SupabaseServiceKey = ""
	if !cfg.SupabaseEnabled() {
		t.Error("expected enabled with URL")
	}
	if cfg.SupabaseKey() != "anon" {
		t.Errorf("expected anon key fallback, got %q", cfg.SupabaseKey())
	}
}

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "FF_TEST_KEEP=from-file\nFF_TEST_NEW=\"quoted value\"\n# comment\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FF_TEST_KEEP", "from-env")
	t.Setenv("FF_TEST_NEW", "")
	os.Unsetenv("FF_TEST_NEW")

	if err := config.LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := os.Getenv("FF_TEST_KEEP"); got != "from-env" {
		t.Errorf("expected env to win, got %q", got)
	}
	if got := os.Getenv("FF_TEST_NEW"); got != "quoted value" {
		t.Errorf("expected value from file, got %q", got)
	}
}

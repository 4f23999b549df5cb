package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeEnvFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	return path
}

func TestLoadFromFileAppliesDefaults(t *testing.T) {
	path := writeEnvFile(t, `
DATABASE_DSN=user:pass@tcp(localhost:3306)/storefront?parseTime=true
JWT_SECRET=secret
`)

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Fatalf("unexpected port %q", cfg.Server.Port)
	}
	if cfg.Payments.SettlementCurrency != "BDT" {
		t.Fatalf("unexpected settlement currency %q", cfg.Payments.SettlementCurrency)
	}
	if cfg.Payments.MinPartialPercent != 10 {
		t.Fatalf("unexpected partial percent %d", cfg.Payments.MinPartialPercent)
	}
	if cfg.Payments.AllowOverpayment {
		t.Fatalf("overpayment should be rejected by default")
	}
	if cfg.Rewards.UnitsPerPoint != 100 || cfg.Rewards.ExpiryDays != 365 {
		t.Fatalf("unexpected rewards config %+v", cfg.Rewards)
	}
	if cfg.Idempotency.TTL != 24*time.Hour {
		t.Fatalf("unexpected idempotency ttl %v", cfg.Idempotency.TTL)
	}
}

func TestLoadFromFileParsesExchangeRates(t *testing.T) {
	path := writeEnvFile(t, `
DATABASE_DSN=dsn
JWT_SECRET=secret
EXCHANGE_RATES=USD=110.25, eur=120.5
`)

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Payments.ExchangeRates["USD"] != "110.25" {
		t.Fatalf("unexpected USD rate %q", cfg.Payments.ExchangeRates["USD"])
	}
	if cfg.Payments.ExchangeRates["EUR"] != "120.5" {
		t.Fatalf("unexpected EUR rate %q", cfg.Payments.ExchangeRates["EUR"])
	}
}

func TestLoadFromFileReportsMissingFields(t *testing.T) {
	path := writeEnvFile(t, "PORT=9090\n")

	_, err := LoadFromFile(path)
	if err == nil {
		t.Fatalf("expected validation error")
	}

	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	fields := validation.Fields()
	if len(fields) != 2 || fields[0] != "DATABASE_DSN" || fields[1] != "JWT_SECRET" {
		t.Fatalf("unexpected missing fields %v", fields)
	}
}

func TestProcessEnvOverridesFile(t *testing.T) {
	path := writeEnvFile(t, `
DATABASE_DSN=file-dsn
JWT_SECRET=secret
PORT=9090
`)
	t.Setenv("PORT", "7070")

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "7070" {
		t.Fatalf("expected process env to win, got %q", cfg.Server.Port)
	}
}

package config

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEnvFile            = ".env"
	defaultPort               = "8080"
	defaultReadTimeout        = 15 * time.Second
	defaultWriteTimeout       = 30 * time.Second
	defaultIdleTimeout        = 120 * time.Second
	defaultGatewayTimeout     = 20 * time.Second
	defaultSettlementCurrency = "BDT"
	defaultMinPartialPercent  = 10
	defaultPointsPerUnit      = 100
	defaultPointsExpiryDays   = 365
	defaultIdempotencyHeader  = "Idempotency-Key"
	defaultIdempotencyTTL     = 24 * time.Hour
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Security    SecurityConfig
	Payments    PaymentsConfig
	Rewards     RewardsConfig
	Idempotency IdempotencyConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig stores MySQL connection parameters.
type DatabaseConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig stores connection parameters for the idempotency store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// SecurityConfig groups authentication settings.
type SecurityConfig struct {
	JWTSecret string
}

// PaymentsConfig collects gateway credentials and settlement policy.
type PaymentsConfig struct {
	StripeAPIKey       string
	BkashBaseURL       string
	BkashAppKey        string
	BkashAppSecret     string
	SettlementCurrency string
	ExchangeRates      map[string]string
	MinPartialPercent  int
	AllowOverpayment   bool
	GatewayTimeout     time.Duration
	SuccessURL         string
	CancelURL          string
}

// RewardsConfig controls reward point accrual.
type RewardsConfig struct {
	// UnitsPerPoint is the amount of currency (minor units) that earns one point.
	UnitsPerPoint int64
	ExpiryDays    int
}

// IdempotencyConfig controls idempotency middleware behaviour.
type IdempotencyConfig struct {
	Header string
	TTL    time.Duration
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Load reads configuration from the optional env file and the process
// environment, applying defaults and validating required fields.
func Load() (Config, error) {
	return LoadFromFile(defaultEnvFile)
}

// LoadFromFile behaves like Load with an explicit env file path.
func LoadFromFile(envFile string) (Config, error) {
	fileValues, err := readEnvFile(envFile)
	if err != nil {
		return Config{}, err
	}

	get := func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return strings.TrimSpace(v)
		}
		return strings.TrimSpace(fileValues[key])
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         defaultString(get("PORT"), defaultPort),
			ReadTimeout:  durationOrDefault(get("SERVER_READ_TIMEOUT"), defaultReadTimeout),
			WriteTimeout: durationOrDefault(get("SERVER_WRITE_TIMEOUT"), defaultWriteTimeout),
			IdleTimeout:  durationOrDefault(get("SERVER_IDLE_TIMEOUT"), defaultIdleTimeout),
		},
		Database: DatabaseConfig{
			DSN:             get("DATABASE_DSN"),
			MaxOpenConns:    intOrDefault(get("DATABASE_MAX_OPEN_CONNS"), 25),
			MaxIdleConns:    intOrDefault(get("DATABASE_MAX_IDLE_CONNS"), 5),
			ConnMaxLifetime: durationOrDefault(get("DATABASE_CONN_MAX_LIFETIME"), time.Hour),
		},
		Redis: RedisConfig{
			Addr:     get("REDIS_ADDR"),
			Password: get("REDIS_PASSWORD"),
			DB:       intOrDefault(get("REDIS_DB"), 0),
		},
		Security: SecurityConfig{
			JWTSecret: get("JWT_SECRET"),
		},
		Payments: PaymentsConfig{
			StripeAPIKey:       get("STRIPE_API_KEY"),
			BkashBaseURL:       get("BKASH_BASE_URL"),
			BkashAppKey:        get("BKASH_APP_KEY"),
			BkashAppSecret:     get("BKASH_APP_SECRET"),
			SettlementCurrency: strings.ToUpper(defaultString(get("SETTLEMENT_CURRENCY"), defaultSettlementCurrency)),
			ExchangeRates:      parseRates(get("EXCHANGE_RATES")),
			MinPartialPercent:  intOrDefault(get("MIN_PARTIAL_PERCENT"), defaultMinPartialPercent),
			AllowOverpayment:   boolOrDefault(get("ALLOW_OVERPAYMENT"), false),
			GatewayTimeout:     durationOrDefault(get("GATEWAY_TIMEOUT"), defaultGatewayTimeout),
			SuccessURL:         get("PAYMENT_SUCCESS_URL"),
			CancelURL:          get("PAYMENT_CANCEL_URL"),
		},
		Rewards: RewardsConfig{
			UnitsPerPoint: int64(intOrDefault(get("REWARD_UNITS_PER_POINT"), defaultPointsPerUnit)),
			ExpiryDays:    intOrDefault(get("REWARD_EXPIRY_DAYS"), defaultPointsExpiryDays),
		},
		Idempotency: IdempotencyConfig{
			Header: defaultString(get("IDEMPOTENCY_HEADER"), defaultIdempotencyHeader),
			TTL:    durationOrDefault(get("IDEMPOTENCY_TTL"), defaultIdempotencyTTL),
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var missing []string
	if strings.TrimSpace(c.Database.DSN) == "" {
		missing = append(missing, "DATABASE_DSN")
	}
	if strings.TrimSpace(c.Security.JWTSecret) == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if c.Payments.MinPartialPercent <= 0 || c.Payments.MinPartialPercent > 100 {
		missing = append(missing, "MIN_PARTIAL_PERCENT")
	}
	if c.Rewards.UnitsPerPoint <= 0 {
		missing = append(missing, "REWARD_UNITS_PER_POINT")
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &ValidationError{fields: missing}
	}
	return nil
}

func readEnvFile(path string) (map[string]string, error) {
	values := map[string]string{}
	if strings.TrimSpace(path) == "" {
		return values, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return values, nil
		}
		return nil, fmt.Errorf("config: open env file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = strings.Trim(value, `"'`)
		if key != "" {
			values[key] = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: read env file: %w", err)
	}
	return values, nil
}

// parseRates decodes "USD=110.25,EUR=120.5" style exchange-rate declarations.
// Values stay as strings so decimal parsing happens in one place downstream.
func parseRates(raw string) map[string]string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	rates := map[string]string{}
	for _, pair := range strings.Split(raw, ",") {
		currency, rate, found := strings.Cut(strings.TrimSpace(pair), "=")
		if !found {
			continue
		}
		currency = strings.ToUpper(strings.TrimSpace(currency))
		rate = strings.TrimSpace(rate)
		if currency != "" && rate != "" {
			rates[currency] = rate
		}
	}
	if len(rates) == 0 {
		return nil
	}
	return rates
}

func defaultString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func durationOrDefault(value string, fallback time.Duration) time.Duration {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func intOrDefault(value string, fallback int) int {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func boolOrDefault(value string, fallback bool) bool {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

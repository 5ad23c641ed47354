package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	JWTSecret          string
	CORSAllowedOrigins []string

	JWTIssuer       string
	JWTAudience     string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	SessionCookie   string

	PaymentKeyID     string
	PaymentKeySecret string
	PaymentBaseURL   string
	Currency         string

	CatalogCacheTTL   time.Duration
	AnalyticsCacheTTL time.Duration

	// Non-subscription flat shipping.
	FlatShippingThreshold decimal.Decimal
	FlatShippingFee       decimal.Decimal
	// Local-delivery city used to classify saved addresses.
	LocalRegionCity string

	CartTTL            time.Duration
	PaymentRecordTTL   time.Duration
	IdempotencyTTL     time.Duration
	RateLimitPerMinute int
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:                valueOrDefault(k.String("APP_ENV"), "development"),
		Port:                  valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:           k.String("DATABASE_URL"),
		RedisURL:              k.String("REDIS_URL"),
		JWTSecret:             k.String("JWT_SECRET"),
		CORSAllowedOrigins:    splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		JWTIssuer:             valueOrDefault(k.String("JWT_ISSUER"), "pawkart"),
		JWTAudience:           valueOrDefault(k.String("JWT_AUDIENCE"), "pawkart-web"),
		AccessTokenTTL:        parseDuration(k.String("ACCESS_TOKEN_TTL"), "15m"),
		RefreshTokenTTL:       parseDuration(k.String("REFRESH_TOKEN_TTL"), "720h"),
		SessionCookie:         valueOrDefault(k.String("SESSION_COOKIE"), "cart_session"),
		PaymentKeyID:          k.String("PAYMENT_KEY_ID"),
		PaymentKeySecret:      k.String("PAYMENT_KEY_SECRET"),
		PaymentBaseURL:        k.String("PAYMENT_BASE_URL"),
		Currency:              valueOrDefault(k.String("CURRENCY"), "INR"),
		CatalogCacheTTL:       parseDuration(k.String("CATALOG_CACHE_TTL"), "5m"),
		AnalyticsCacheTTL:     parseDuration(k.String("ANALYTICS_CACHE_TTL"), "10m"),
		FlatShippingThreshold: parseDecimal(k.String("FLAT_SHIPPING_THRESHOLD"), "500"),
		FlatShippingFee:       parseDecimal(k.String("FLAT_SHIPPING_FEE"), "99"),
		LocalRegionCity:       valueOrDefault(k.String("LOCAL_REGION_CITY"), "chennai"),
		CartTTL:               parseDuration(k.String("CART_TTL"), "720h"),
		PaymentRecordTTL:      parseDuration(k.String("PAYMENT_RECORD_TTL"), "30m"),
		IdempotencyTTL:        parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		RateLimitPerMinute:    parseInt(k.String("RATE_LIMIT_PER_MINUTE"), 120),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.PaymentKeySecret == "" {
		return nil, errors.New("PAYMENT_KEY_SECRET is required")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseDecimal(value, fallback string) decimal.Decimal {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := decimal.NewFromString(base)
	if err != nil {
		d, _ = decimal.NewFromString(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	base := strings.TrimSpace(value)
	if base == "" {
		return fallback
	}
	var n int
	if _, err := fmt.Sscanf(base, "%d", &n); err != nil || n <= 0 {
		return fallback
	}
	return n
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/storefront-toko/internal/money"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	CORSAllowedOrigins []string

	ShopAPIBaseURL            string
	ShopAPITimeout            time.Duration
	ShopAPIRetryMaxAttempts   int
	ShopAPIRetryBase          time.Duration
	ShopAPIRetryJitter        float64
	ShopAPIBreakerMinRequests int
	ShopAPIBreakerFailureRate float64
	ShopAPIBreakerOpenFor     time.Duration

	RedisURL        string
	CatalogCacheTTL time.Duration
	IdempotencyTTL  time.Duration

	MoneySymbol       string
	MoneyExchangeRate decimal.Decimal
	DisplayLocation   *time.Location

	SessionAuthKey []byte
	SessionEncKey  []byte
	CookieSecure   bool
	CookieSameSite http.SameSite

	SessionIdleTTL time.Duration
	AssetBaseURL   string
	MaxBodyBytes   int64

	RateLimitMutations string
	WishlistSize       int
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		ShopAPIBaseURL:            strings.TrimRight(strings.TrimSpace(k.String("SHOP_API_BASE_URL")), "/"),
		ShopAPITimeout:            parseDuration(k.String("SHOP_API_TIMEOUT"), "5s"),
		ShopAPIRetryMaxAttempts:   parseInt(k.String("SHOP_API_RETRY_MAX_ATTEMPTS"), 3),
		ShopAPIRetryBase:          parseDuration(k.String("SHOP_API_RETRY_BASE"), "100ms"),
		ShopAPIRetryJitter:        parseFloat(k.String("SHOP_API_RETRY_JITTER"), 0.2),
		ShopAPIBreakerMinRequests: parseInt(k.String("SHOP_API_BREAKER_MIN_REQUESTS"), 10),
		ShopAPIBreakerFailureRate: parseFloat(k.String("SHOP_API_BREAKER_FAILURE_RATIO"), 0.5),
		ShopAPIBreakerOpenFor:     parseDuration(k.String("SHOP_API_BREAKER_OPEN_FOR"), "30s"),

		RedisURL:        strings.TrimSpace(k.String("REDIS_URL")),
		CatalogCacheTTL: parseDuration(k.String("CATALOG_CACHE_TTL"), "5m"),
		IdempotencyTTL:  parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),

		MoneySymbol: valueOrDefault(k.String("MONEY_SYMBOL"), "₹"),

		CookieSecure:   parseBool(k.String("COOKIE_SECURE")),
		CookieSameSite: parseSameSite(k.String("COOKIE_SAMESITE")),

		SessionIdleTTL: parseDuration(k.String("SESSION_IDLE_TTL"), "2h"),
		AssetBaseURL:   strings.TrimSpace(k.String("ASSET_BASE_URL")),
		MaxBodyBytes:   int64(parseInt(k.String("MAX_BODY_BYTES"), 64<<10)),

		RateLimitMutations: valueOrDefault(k.String("RATE_LIMIT_MUTATIONS"), "30-S"),
		WishlistSize:       parseInt(k.String("WISHLIST_SIZE"), 6),
	}

	if cfg.CookieSameSite == http.SameSiteDefaultMode {
		cfg.CookieSameSite = http.SameSiteLaxMode
	}

	if cfg.ShopAPIBaseURL == "" {
		return nil, errors.New("SHOP_API_BASE_URL is required")
	}
	if u, err := url.Parse(cfg.ShopAPIBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("SHOP_API_BASE_URL must be an absolute URL, got %q", cfg.ShopAPIBaseURL)
	}

	rate, err := money.ParseRate(valueOrDefault(k.String("MONEY_EXCHANGE_RATE"), "10"))
	if err != nil {
		return nil, fmt.Errorf("MONEY_EXCHANGE_RATE: %w", err)
	}
	cfg.MoneyExchangeRate = rate

	loc, err := time.LoadLocation(valueOrDefault(k.String("DISPLAY_TIMEZONE"), "Local"))
	if err != nil {
		return nil, fmt.Errorf("DISPLAY_TIMEZONE: %w", err)
	}
	cfg.DisplayLocation = loc

	if cfg.SessionAuthKey, err = decodeKey(k.String("SESSION_AUTH_KEY")); err != nil {
		return nil, fmt.Errorf("SESSION_AUTH_KEY: %w", err)
	}
	if cfg.SessionEncKey, err = decodeKey(k.String("SESSION_ENC_KEY")); err != nil {
		return nil, fmt.Errorf("SESSION_ENC_KEY: %w", err)
	}
	if n := len(cfg.SessionEncKey); n != 0 && n != 16 && n != 24 && n != 32 {
		return nil, fmt.Errorf("SESSION_ENC_KEY has invalid length %d, must be 16, 24, or 32 bytes", n)
	}
	if cfg.AppEnv == "production" && len(cfg.SessionAuthKey) == 0 {
		return nil, errors.New("SESSION_AUTH_KEY is required in production")
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
		return strings.TrimSpace(value)
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

func parseInt(value string, fallback int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func parseFloat(value string, fallback float64) float64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func parseSameSite(value string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	case "lax":
		return http.SameSiteLaxMode
	default:
		return http.SameSiteDefaultMode
	}
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

package config_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/storefront-toko/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"SHOP_API_BASE_URL":   "http://localhost:3000/",
		"MONEY_EXCHANGE_RATE": "",
		"MONEY_SYMBOL":        "",
		"DISPLAY_TIMEZONE":    "UTC",
		"PORT":                "",
		"SESSION_AUTH_KEY":    "",
		"SESSION_ENC_KEY":     "",
		"COOKIE_SAMESITE":     "",
		"APP_ENV":             "",
		"SESSION_IDLE_TTL":    "",
		"MAX_BODY_BYTES":      "",
	})
	require.NoError(t, err)
	require.Equal(t, "http://localhost:3000", cfg.ShopAPIBaseURL)
	require.Equal(t, "₹", cfg.MoneySymbol)
	require.Equal(t, "10", cfg.MoneyExchangeRate.String())
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, http.SameSiteLaxMode, cfg.CookieSameSite)
	require.Equal(t, 5*time.Second, cfg.ShopAPITimeout)
	require.Equal(t, 6, cfg.WishlistSize)
	require.Equal(t, "UTC", cfg.DisplayLocation.String())
	require.Equal(t, 2*time.Hour, cfg.SessionIdleTTL)
	require.Equal(t, int64(64<<10), cfg.MaxBodyBytes)
}

func TestLoadRequiresBaseURL(t *testing.T) {
	_, err := config.LoadForTests(map[string]string{"SHOP_API_BASE_URL": ""})
	require.Error(t, err)

	_, err = config.LoadForTests(map[string]string{"SHOP_API_BASE_URL": "not a url"})
	require.Error(t, err)
}

func TestLoadRejectsBadExchangeRate(t *testing.T) {
	_, err := config.LoadForTests(map[string]string{
		"SHOP_API_BASE_URL":   "http://localhost:3000",
		"MONEY_EXCHANGE_RATE": "-1",
	})
	require.Error(t, err)
}

func TestGeneratedSessionKeysRoundTrip(t *testing.T) {
	keys, err := config.GenerateSessionKeys()
	require.NoError(t, err)

	cfg, err := config.LoadForTests(map[string]string{
		"SHOP_API_BASE_URL": "http://localhost:3000",
		"SESSION_AUTH_KEY":  keys.AuthKey,
		"SESSION_ENC_KEY":   keys.EncKey,
	})
	require.NoError(t, err)
	require.Len(t, cfg.SessionAuthKey, 64)
	require.Len(t, cfg.SessionEncKey, 32)
}

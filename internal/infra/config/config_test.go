package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.HTTP.Address)
	require.Equal(t, 30*24*time.Hour, cfg.Auth.TokenTTL)
	require.Equal(t, time.Hour, cfg.Auth.CSRFTTL)
	require.Equal(t, 5*time.Minute, cfg.Auth.WalletTTL)
	require.False(t, cfg.Auth.Production)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDRESS", ":9999")
	t.Setenv("AUTH_SECRET", "env-secret")
	t.Setenv("AUTH_TOKEN_TTL", "12h")
	t.Setenv("HTTP_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("VALKEY_ENABLED", "true")
	t.Setenv("VALKEY_ADDR", "localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, ":9999", cfg.HTTP.Address)
	require.Equal(t, "env-secret", cfg.Auth.Secret)
	require.Equal(t, 12*time.Hour, cfg.Auth.TokenTTL)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.AllowedOrigins)
	require.True(t, cfg.Valkey.Enabled)
}

func TestValidate_ProductionRequiresSecret(t *testing.T) {
	cfg := defaultConfig()
	cfg.Auth.Production = true
	require.ErrorContains(t, cfg.Validate(), "auth.secret")

	cfg.Auth.Secret = "something"
	require.NoError(t, cfg.Validate())
}

func TestValidate_ValkeyAddr(t *testing.T) {
	cfg := defaultConfig()
	cfg.Valkey.Enabled = true
	require.ErrorContains(t, cfg.Validate(), "valkey.addr")
}

func TestValidate_TTLs(t *testing.T) {
	cfg := defaultConfig()
	cfg.Auth.CSRFTTL = 0
	require.ErrorContains(t, cfg.Validate(), "csrfTtl")
}

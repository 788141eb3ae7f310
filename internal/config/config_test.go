package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TOKEN_KEY", "secret")
	for _, k := range []string{"ADDR", "DATABASE_URL", "TLS_CERT", "TLS_KEY", "RATE_LIMIT", "RATE_BURST", "DATA_DIR", "TRUSTED_PROXIES", "ALLOWED_ORIGINS"} {
		t.Setenv(k, "")
	}

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "sqlite:feedspeed.db", cfg.DatabaseURL)
	assert.Equal(t, 5.0, cfg.RateLimit)
	assert.Equal(t, 10, cfg.RateBurst)
	assert.False(t, cfg.TLS())
	assert.Empty(t, cfg.TrustedProxies)
	assert.Empty(t, cfg.AllowedOrigins)
}

func TestLoad_Lists(t *testing.T) {
	t.Setenv("TOKEN_KEY", "secret")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.0.2.1,")
	t.Setenv("ALLOWED_ORIGINS", "https://shop.example.com , http://localhost:5173")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.0/8", "192.0.2.1"}, cfg.TrustedProxies)
	assert.Equal(t, []string{"https://shop.example.com", "http://localhost:5173"}, cfg.AllowedOrigins)
}

func TestLoad_EnvFile(t *testing.T) {
	t.Setenv("TOKEN_KEY", "")
	t.Setenv("ADDR", "")
	t.Setenv("RATE_BURST", "")
	// godotenv does not override variables that exist, even empty ones
	os.Unsetenv("TOKEN_KEY")
	os.Unsetenv("ADDR")
	os.Unsetenv("RATE_BURST")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("TOKEN_KEY=from-file\nADDR=:9443\nRATE_BURST=3\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.TokenKey)
	assert.Equal(t, ":9443", cfg.Addr)
	assert.Equal(t, 3, cfg.RateBurst)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "none.env")

	t.Setenv("TOKEN_KEY", "")
	_, err := Load(missing)
	assert.ErrorContains(t, err, "TOKEN_KEY")

	t.Setenv("TOKEN_KEY", "k")
	t.Setenv("RATE_LIMIT", "fast")
	_, err = Load(missing)
	assert.ErrorContains(t, err, "RATE_LIMIT")

	t.Setenv("RATE_LIMIT", "")
	t.Setenv("TLS_CERT", "server.crt")
	t.Setenv("TLS_KEY", "")
	_, err = Load(missing)
	assert.ErrorContains(t, err, "TLS_CERT")
}

// Package config reads server settings from the environment, after loading
// an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr        string
	TLSCert     string
	TLSKey      string
	DatabaseURL string
	TokenKey    string
	DataDir     string
	LogLevel    string
	LogFormat   string
	RateLimit   float64 // requests per second per client
	RateBurst   int

	// TrustedProxies are IPs or CIDRs whose forwarding headers name the client.
	TrustedProxies []string
	// AllowedOrigins may call the API cross-origin with credentials.
	AllowedOrigins []string
}

// TLS reports whether both certificate and key are configured.
func (c Config) TLS() bool { return c.TLSCert != "" && c.TLSKey != "" }

// Load reads .env (if present) and the environment. Variables already set in
// the environment win over the file.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, name := range envFiles {
		if err := godotenv.Load(name); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", name, err)
		}
	}

	cfg := Config{
		Addr:        getEnv("ADDR", ":8080"),
		TLSCert:     os.Getenv("TLS_CERT"),
		TLSKey:      os.Getenv("TLS_KEY"),
		DatabaseURL: getEnv("DATABASE_URL", "sqlite:feedspeed.db"),
		TokenKey:    os.Getenv("TOKEN_KEY"),
		DataDir:     os.Getenv("DATA_DIR"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "json"),

		TrustedProxies: getList("TRUSTED_PROXIES"),
		AllowedOrigins: getList("ALLOWED_ORIGINS"),
	}
	var err error
	if cfg.RateLimit, err = strconv.ParseFloat(getEnv("RATE_LIMIT", "5"), 64); err != nil || cfg.RateLimit <= 0 {
		return Config{}, fmt.Errorf("RATE_LIMIT: invalid value %q", os.Getenv("RATE_LIMIT"))
	}
	if cfg.RateBurst, err = strconv.Atoi(getEnv("RATE_BURST", "10")); err != nil || cfg.RateBurst <= 0 {
		return Config{}, fmt.Errorf("RATE_BURST: invalid value %q", os.Getenv("RATE_BURST"))
	}
	if cfg.TokenKey == "" {
		return Config{}, errors.New("TOKEN_KEY environment variable is not set")
	}
	if (cfg.TLSCert == "") != (cfg.TLSKey == "") {
		return Config{}, errors.New("TLS_CERT and TLS_KEY must be set together")
	}
	return cfg, nil
}

// getList splits a comma-separated variable, dropping empty entries.
func getList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

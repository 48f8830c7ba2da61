package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAddr           = ":8080"
	defaultJWTSecret      = "change-me-jwt-secret"
	defaultJWTTTL         = "24h"
	defaultRequestTimeout = "10s"
	defaultSyncDebounce   = "300ms"
)

type Config struct {
	AppEnv      string
	Addr        string
	DatabaseURL string
	RedisAddr   string // empty disables cross-instance event fan-out
	JWTSecret   string
	JWTTTL      time.Duration

	// RequestTimeout bounds outbound calls from the booking flow; expired
	// requests surface as retryable errors, never silent retries.
	RequestTimeout time.Duration
	// SyncDebounce is how long a subscriber coalesces push events before one
	// re-fetch.
	SyncDebounce time.Duration
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:      strings.ToLower(getEnv("APP_ENV", "dev")),
		Addr:        getEnv("ADDR", defaultAddr),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		RedisAddr:   strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		JWTSecret:   getEnv("JWT_SECRET", defaultJWTSecret),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}
	if cfg.AppEnv != "dev" && cfg.JWTSecret == defaultJWTSecret {
		return nil, fmt.Errorf("JWT_SECRET must be set outside dev")
	}

	var err error
	if cfg.JWTTTL, err = parseDurationEnv("JWT_TTL", defaultJWTTTL); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = parseDurationEnv("REQUEST_TIMEOUT", defaultRequestTimeout); err != nil {
		return nil, err
	}
	if cfg.SyncDebounce, err = parseDurationEnv("SYNC_DEBOUNCE", defaultSyncDebounce); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseDurationEnv(key, fallback string) (time.Duration, error) {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, raw)
	}
	return d, nil
}

// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port             string
	DBPath           string        // SQLite path, used when DatabaseURL is empty
	DatabaseURL      string        // Postgres DSN, takes precedence over DBPath
	RedisAddr        string        // Redis session store; empty = in-memory sessions
	PollSchedule     string        // cron expression for the polling pass
	FetchTimeout     time.Duration // per-page fetch bound
	SessionTTL       time.Duration // guided-command session eviction; 0 = never
	SitesFile        string        // YAML selector table, optional
	CurrencyFallback string        // symbol used when a page carries no currency text
	TelegramToken    string        // empty disables the telegram transport
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		DBPath:           getEnv("DB_PATH", "./data/pricewatch.db"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		RedisAddr:        getEnv("REDIS_ADDR", ""),
		PollSchedule:     getEnv("POLL_SCHEDULE", "0 9,21 * * *"),
		FetchTimeout:     getEnvDuration("FETCH_TIMEOUT", 20*time.Second),
		SessionTTL:       getEnvDuration("SESSION_TTL", 0),
		SitesFile:        getEnv("SITES_FILE", ""),
		CurrencyFallback: getEnv("CURRENCY_FALLBACK", "$"),
		TelegramToken:    getEnv("TELEGRAM_TOKEN", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" && c.DatabaseURL == "" {
		return fmt.Errorf("one of DB_PATH or DATABASE_URL must be set")
	}
	if c.PollSchedule == "" {
		return fmt.Errorf("POLL_SCHEDULE cannot be empty")
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT must be > 0")
	}
	if c.SessionTTL < 0 {
		return fmt.Errorf("SESSION_TTL cannot be negative")
	}
	if c.CurrencyFallback == "" {
		return fmt.Errorf("CURRENCY_FALLBACK cannot be empty")
	}
	return nil
}

// UsesPostgres reports whether the Postgres watchlist backend is selected.
func (c *Config) UsesPostgres() bool {
	return c.DatabaseURL != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	// Bare numbers are accepted as seconds.
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}

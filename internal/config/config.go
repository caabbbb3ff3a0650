// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process configuration. OpenTelemetry settings are read by the
// otel adapter itself.
type Config struct {
	Env           string
	Port          string
	DatabasePath  string
	SLA           time.Duration
	SweepInterval time.Duration
}

// Load reads a .env file when one is present, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	sla, err := envDuration("CASCADE_SLA", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	interval, err := envDuration("CASCADE_SWEEP_INTERVAL", time.Minute)
	if err != nil {
		return nil, err
	}

	return &Config{
		Env:           envOrDefault("APP_ENV", "development"),
		Port:          envOrDefault("PORT", "8080"),
		DatabasePath:  envOrDefault("DATABASE_PATH", "leadcascade.db"),
		SLA:           sla,
		SweepInterval: interval,
	}, nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Logger builds the process logger: JSON in production, text with debug
// records everywhere else.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	if c.IsProduction() {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %s", key, v)
	}
	return d, nil
}

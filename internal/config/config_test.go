package config

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"APP_ENV", "PORT", "DATABASE_PATH", "CASCADE_SLA", "CASCADE_SWEEP_INTERVAL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Env != "development" {
		t.Errorf("Env = %q, want %q", cfg.Env, "development")
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.DatabasePath != "leadcascade.db" {
		t.Errorf("DatabasePath = %q, want %q", cfg.DatabasePath, "leadcascade.db")
	}
	if cfg.SLA != 24*time.Hour {
		t.Errorf("SLA = %v, want %v", cfg.SLA, 24*time.Hour)
	}
	if cfg.SweepInterval != time.Minute {
		t.Errorf("SweepInterval = %v, want %v", cfg.SweepInterval, time.Minute)
	}
}

func TestLoad_EnvSet(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_PATH", "/tmp/cascade.db")
	t.Setenv("CASCADE_SLA", "2h")
	t.Setenv("CASCADE_SWEEP_INTERVAL", "15s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !cfg.IsProduction() {
		t.Error("IsProduction() = false, want true")
	}
	if cfg.Port != "9000" {
		t.Errorf("Port = %q, want %q", cfg.Port, "9000")
	}
	if cfg.DatabasePath != "/tmp/cascade.db" {
		t.Errorf("DatabasePath = %q, want %q", cfg.DatabasePath, "/tmp/cascade.db")
	}
	if cfg.SLA != 2*time.Hour {
		t.Errorf("SLA = %v, want %v", cfg.SLA, 2*time.Hour)
	}
	if cfg.SweepInterval != 15*time.Second {
		t.Errorf("SweepInterval = %v, want %v", cfg.SweepInterval, 15*time.Second)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"CASCADE_SLA", "tomorrow"},
		{"CASCADE_SLA", "-1h"},
		{"CASCADE_SWEEP_INTERVAL", "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv("CASCADE_SLA", "")
			t.Setenv("CASCADE_SWEEP_INTERVAL", "")
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.key) {
				t.Errorf("error %q does not name %s", err, tt.key)
			}
		})
	}
}

func TestLogger_Format(t *testing.T) {
	var buf bytes.Buffer

	(&Config{Env: "production"}).Logger(&buf).Info("hello", "lead_ref", "L1")
	if !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("production log should be JSON, got %q", buf.String())
	}

	buf.Reset()
	(&Config{Env: "development"}).Logger(&buf).Debug("hello", "lead_ref", "L1")
	if !strings.Contains(buf.String(), "lead_ref=L1") {
		t.Errorf("development log should be text at debug level, got %q", buf.String())
	}
}

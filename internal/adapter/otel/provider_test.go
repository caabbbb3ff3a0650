package otel_test

import (
	"context"
	"strings"
	"testing"

	adapter "github.com/neomorfeo/leadcascade/internal/adapter/otel"
)

func TestSetup_Exporters(t *testing.T) {
	for _, exporter := range []string{"none", "stdout"} {
		t.Run(exporter, func(t *testing.T) {
			providers, err := adapter.Setup(context.Background(), adapter.Config{
				ServiceName: "leadcascade-test",
				Environment: "test",
				Exporter:    exporter,
			})
			if err != nil {
				t.Fatalf("Setup failed: %v", err)
			}

			if err := providers.Shutdown(context.Background()); err != nil {
				t.Fatalf("Shutdown failed: %v", err)
			}
		})
	}
}

func TestSetup_UnsupportedExporter(t *testing.T) {
	_, err := adapter.Setup(context.Background(), adapter.Config{Exporter: "jaeger"})
	if err == nil {
		t.Fatal("expected error for unsupported exporter")
	}
	if !strings.Contains(err.Error(), "jaeger") {
		t.Errorf("error %q does not name the exporter", err)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		for _, key := range []string{"OTEL_SERVICE_NAME", "OTEL_SERVICE_VERSION", "OTEL_ENVIRONMENT", "OTEL_EXPORTER"} {
			t.Setenv(key, "")
		}

		cfg := adapter.ConfigFromEnv()
		if cfg.ServiceName != "leadcascade" || cfg.Exporter != "none" || cfg.Environment != "development" {
			t.Errorf("ConfigFromEnv() = %+v", cfg)
		}
		if !cfg.Insecure {
			t.Error("development should talk plain HTTP to the collector")
		}
	})

	t.Run("production otlp", func(t *testing.T) {
		t.Setenv("OTEL_ENVIRONMENT", "production")
		t.Setenv("OTEL_EXPORTER", "otlp")

		cfg := adapter.ConfigFromEnv()
		if cfg.Exporter != "otlp" || cfg.Insecure {
			t.Errorf("ConfigFromEnv() = %+v, want otlp over TLS", cfg)
		}
	})
}

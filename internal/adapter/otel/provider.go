package otel

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Config selects where the service's spans and OTel metrics go. Prometheus
// counters are served separately on /metrics.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Exporter       string // "none", "stdout" or "otlp"
	Insecure       bool   // plain HTTP to the OTLP collector
}

// ConfigFromEnv reads the OTEL_* variables. Export is off unless OTEL_EXPORTER is set.
func ConfigFromEnv() Config {
	env := envOrDefault("OTEL_ENVIRONMENT", "development")
	return Config{
		ServiceName:    envOrDefault("OTEL_SERVICE_NAME", "leadcascade"),
		ServiceVersion: envOrDefault("OTEL_SERVICE_VERSION", "0.1.0"),
		Environment:    env,
		Exporter:       envOrDefault("OTEL_EXPORTER", "none"),
		Insecure:       env == "development",
	}
}

// Providers holds the shutdown hook of the registered providers.
type Providers struct {
	Shutdown func(ctx context.Context) error
}

// Setup registers global tracer and meter providers for cfg. Shutdown flushes
// whatever the exporters still hold.
func Setup(ctx context.Context, cfg Config) (*Providers, error) {
	spans, reader, err := exporters(ctx, cfg)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating otel resource: %w", err)
	}

	tpOpts := []trace.TracerProviderOption{trace.WithResource(res)}
	if spans != nil {
		tpOpts = append(tpOpts, trace.WithBatcher(spans))
	}
	mpOpts := []metric.Option{metric.WithResource(res)}
	if reader != nil {
		mpOpts = append(mpOpts, metric.WithReader(reader))
	}

	tp := trace.NewTracerProvider(tpOpts...)
	mp := metric.NewMeterProvider(mpOpts...)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Providers{Shutdown: func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}}, nil
}

// exporters builds the span exporter and metric reader for cfg.Exporter.
// Both are nil for "none".
func exporters(ctx context.Context, cfg Config) (trace.SpanExporter, metric.Reader, error) {
	switch cfg.Exporter {
	case "none":
		return nil, nil, nil

	case "stdout":
		spans, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, nil, fmt.Errorf("stdout trace exporter: %w", err)
		}
		metrics, err := stdoutmetric.New()
		if err != nil {
			return nil, nil, fmt.Errorf("stdout metric exporter: %w", err)
		}
		return spans, metric.NewPeriodicReader(metrics), nil

	case "otlp":
		var traceOpts []otlptracehttp.Option
		var metricOpts []otlpmetrichttp.Option
		if cfg.Insecure {
			traceOpts = append(traceOpts, otlptracehttp.WithInsecure())
			metricOpts = append(metricOpts, otlpmetrichttp.WithInsecure())
		}
		spans, err := otlptracehttp.New(ctx, traceOpts...)
		if err != nil {
			return nil, nil, fmt.Errorf("otlp trace exporter: %w", err)
		}
		metrics, err := otlpmetrichttp.New(ctx, metricOpts...)
		if err != nil {
			return nil, nil, fmt.Errorf("otlp metric exporter: %w", err)
		}
		return spans, metric.NewPeriodicReader(metrics), nil
	}

	return nil, nil, fmt.Errorf("unsupported exporter %q (use \"none\", \"stdout\" or \"otlp\")", cfg.Exporter)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/neomorfeo/leadcascade/internal/app"
	"github.com/neomorfeo/leadcascade/internal/domain"
)

// Metrics holds the cascade's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Sweeps        *prometheus.CounterVec
	SweepDuration prometheus.Histogram
	SweepRows     *prometheus.CounterVec
	Events        *prometheus.CounterVec
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Sweeps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cascade_sweeps_total",
			Help: "Expiration sweeps by result",
		}, []string{"result"}),
		SweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cascade_sweep_duration_seconds",
			Help:    "Wall time of one expiration sweep",
			Buckets: prometheus.DefBuckets,
		}),
		SweepRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cascade_sweep_rows_total",
			Help: "Expired assignments handled by sweeps, by outcome",
		}, []string{"outcome"}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cascade_events_total",
			Help: "Cascade events published, by type",
		}, []string{"event"}),
	}

	m.registry.MustRegister(m.Sweeps, m.SweepDuration, m.SweepRows, m.Events)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveSweep records one finished sweep.
func (m *Metrics) ObserveSweep(res app.SweepResult, err error, took time.Duration) {
	m.SweepDuration.Observe(took.Seconds())
	if err != nil {
		m.Sweeps.WithLabelValues("error").Inc()
		return
	}
	m.Sweeps.WithLabelValues("ok").Inc()
	m.SweepRows.WithLabelValues("escalated").Add(float64(res.Escalated))
	m.SweepRows.WithLabelValues("exhausted").Add(float64(res.Exhausted))
	m.SweepRows.WithLabelValues("skipped").Add(float64(res.Skipped))
	m.SweepRows.WithLabelValues("failed").Add(float64(res.Failed))
}

// CountingPublisher counts events on their way to the wrapped publisher.
type CountingPublisher struct {
	next   domain.EventPublisher
	events *prometheus.CounterVec
}

var _ domain.EventPublisher = (*CountingPublisher)(nil)

// Publisher wraps next so that every successfully published event is counted.
func (m *Metrics) Publisher(next domain.EventPublisher) *CountingPublisher {
	return &CountingPublisher{next: next, events: m.Events}
}

func (p *CountingPublisher) Publish(ctx context.Context, event domain.CascadeEvent, a domain.Assignment) error {
	if err := p.next.Publish(ctx, event, a); err != nil {
		return err
	}
	p.events.WithLabelValues(string(event)).Inc()
	return nil
}

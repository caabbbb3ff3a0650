package app

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Pinger reports whether a storage backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health tracks the sweep scheduler and the ledger for process-level health
// checks. A failed sweep keeps the service unhealthy until a sweep succeeds.
type Health struct {
	ledger Pinger

	mu        sync.RWMutex
	lastSweep time.Time
	lastErr   error
}

// NewHealth creates a tracker that pings ledger on every check.
func NewHealth(ledger Pinger) *Health {
	return &Health{ledger: ledger}
}

// ObserveSweep records the outcome of a scheduled sweep.
func (h *Health) ObserveSweep(_ SweepResult, err error, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastSweep = time.Now().UTC()
	h.lastErr = err
}

// LastSweep returns when the last sweep finished and its error, if any.
func (h *Health) LastSweep() (time.Time, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.lastSweep, h.lastErr
}

// Check returns an error when the ledger is unreachable or the last sweep failed.
func (h *Health) Check(ctx context.Context) error {
	if err := h.ledger.Ping(ctx); err != nil {
		return fmt.Errorf("ledger unreachable: %w", err)
	}
	if _, err := h.LastSweep(); err != nil {
		return fmt.Errorf("last sweep failed: %w", err)
	}
	return nil
}

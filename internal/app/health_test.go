package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/neomorfeo/leadcascade/internal/app"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestHealth_Check(t *testing.T) {
	ctx := context.Background()

	h := app.NewHealth(stubPinger{})
	if err := h.Check(ctx); err != nil {
		t.Fatalf("fresh tracker should be healthy: %v", err)
	}

	h.ObserveSweep(app.SweepResult{}, errors.New("database is locked"), time.Second)
	if err := h.Check(ctx); err == nil {
		t.Fatal("expected error after failed sweep")
	}
	if at, _ := h.LastSweep(); at.IsZero() {
		t.Error("LastSweep time should be recorded")
	}

	h.ObserveSweep(app.SweepResult{Escalated: 1}, nil, time.Second)
	if err := h.Check(ctx); err != nil {
		t.Errorf("expected recovery after successful sweep, got %v", err)
	}
}

func TestHealth_LedgerDown(t *testing.T) {
	h := app.NewHealth(stubPinger{err: errors.New("sql: database is closed")})
	if err := h.Check(context.Background()); err == nil {
		t.Fatal("expected error when ledger is unreachable")
	}
}

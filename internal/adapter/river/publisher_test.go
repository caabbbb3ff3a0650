package river_test

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	goriver "github.com/riverqueue/river"

	_ "modernc.org/sqlite"

	riveradapter "github.com/neomorfeo/leadcascade/internal/adapter/river"
	"github.com/neomorfeo/leadcascade/internal/app"
	"github.com/neomorfeo/leadcascade/internal/domain"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbPath := t.TempDir() + "/river_test.db"
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		t.Fatalf("setting WAL: %v", err)
	}

	return db
}

// countingSweeper records how often the scheduler swept.
type countingSweeper struct {
	mu    sync.Mutex
	calls int
}

func (s *countingSweeper) SweepExpired(_ context.Context, _ time.Time) (app.SweepResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return app.SweepResult{Escalated: 1}, nil
}

func (s *countingSweeper) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// startClient sets up and starts a River client, stopping it on cleanup.
func startClient(t *testing.T, db *sql.DB, cfg riveradapter.SchedulerConfig, kinds ...goriver.EventKind) (*riveradapter.Client, <-chan *goriver.Event) {
	t.Helper()
	ctx := context.Background()

	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	client, err := riveradapter.Setup(ctx, db, cfg)
	if err != nil {
		t.Fatalf("river setup: %v", err)
	}

	// Subscribe before starting so we don't miss events.
	events, cancel := client.Subscribe(kinds...)
	t.Cleanup(cancel)

	if err := client.Start(ctx); err != nil {
		t.Fatalf("river start: %v", err)
	}
	t.Cleanup(func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Stop(stopCtx); err != nil {
			t.Errorf("river stop: %v", err)
		}
	})

	return client, events
}

// waitForKind returns the first completed job of the given kind.
func waitForKind(t *testing.T, events <-chan *goriver.Event, kind string) *goriver.Event {
	t.Helper()
	timeout := time.After(10 * time.Second)
	for {
		select {
		case event := <-events:
			if event.Job.Kind == kind {
				return event
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %q job", kind)
			return nil
		}
	}
}

func TestPublisher_Publish_PreservesEventData(t *testing.T) {
	db := setupTestDB(t)
	client, events := startClient(t, db, riveradapter.SchedulerConfig{
		Interval: time.Hour,
		Sweeper:  &countingSweeper{},
	}, goriver.EventKindJobCompleted)

	pub := riveradapter.NewPublisher(client)
	a := domain.NewAssignment("a-42", "L1", "C9", 102, 2, time.Hour, time.Now())

	if err := pub.Publish(context.Background(), domain.CascadeEscalated, a); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	event := waitForKind(t, events, "cascade.event")
	argsStr := string(event.Job.EncodedArgs)
	for _, want := range []string{
		`"event":"cascade.escalated"`,
		`"assignment_id":"a-42"`,
		`"lead_ref":"L1"`,
		`"participant_id":102`,
		`"sequence":2`,
	} {
		if !strings.Contains(argsStr, want) {
			t.Errorf("encoded args missing %s, got: %s", want, argsStr)
		}
	}
}

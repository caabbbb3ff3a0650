package river

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riversqlite"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/riverqueue/river/rivertype"
)

// QueueSweep runs sweeps one at a time.
const QueueSweep = "cascade_sweep"

// DefaultSweepInterval is the scheduler cadence when none is configured.
const DefaultSweepInterval = time.Minute

// SweepJobArgs is the periodic job that drives the expiration sweep.
type SweepJobArgs struct{}

// Kind returns the unique job type identifier used by River's job routing.
func (SweepJobArgs) Kind() string { return "cascade.sweep" }

// InsertOpts makes a tick a no-op while an earlier sweep is still queued or
// running, and leaves retrying to the next tick.
func (SweepJobArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       QueueSweep,
		MaxAttempts: 1,
		UniqueOpts: river.UniqueOpts{
			ByState: []rivertype.JobState{
				rivertype.JobStateAvailable,
				rivertype.JobStatePending,
				rivertype.JobStateRetryable,
				rivertype.JobStateRunning,
				rivertype.JobStateScheduled,
			},
		},
	}
}

// SchedulerConfig configures the sweep scheduler.
type SchedulerConfig struct {
	Interval  time.Duration
	Sweeper   Sweeper
	Observers []SweepObserver
	Logger    *slog.Logger
}

// Setup creates a River client with the event and sweep workers registered,
// runs River's internal migrations and schedules the periodic sweep, which
// also fires once as soon as the client starts. The caller must call
// client.Start() to begin processing jobs and client.Stop() for graceful shutdown.
func Setup(ctx context.Context, db *sql.DB, cfg SchedulerConfig) (*Client, error) {
	if cfg.Sweeper == nil {
		return nil, fmt.Errorf("river setup: sweeper is required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultSweepInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	driver := riversqlite.New(db)

	// River's own tables (river_job, river_leader, ...) are versioned apart
	// from the application's goose migrations.
	migrator, err := rivermigrate.New(driver, nil)
	if err != nil {
		return nil, fmt.Errorf("creating river migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return nil, fmt.Errorf("running river migrations: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, &EventWorker{})
	river.AddWorker(workers, &SweepWorker{
		sweeper:   cfg.Sweeper,
		observers: cfg.Observers,
		logger:    cfg.Logger,
	})

	client, err := river.NewClient(driver, &river.Config{
		Logger: cfg.Logger,
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 2},
			QueueSweep:         {MaxWorkers: 1},
		},
		PeriodicJobs: []*river.PeriodicJob{
			river.NewPeriodicJob(
				river.PeriodicInterval(cfg.Interval),
				func() (river.JobArgs, *river.InsertOpts) { return SweepJobArgs{}, nil },
				&river.PeriodicJobOpts{RunOnStart: true},
			),
		},
		Workers: workers,
	})
	if err != nil {
		return nil, fmt.Errorf("creating river client: %w", err)
	}

	return client, nil
}

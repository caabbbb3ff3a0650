package river

import (
	"context"
	"log/slog"
	"time"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/leadcascade/internal/app"
)

// EventWorker consumes cascade events. Delivering notifications to the
// participants is handled elsewhere; here the event is only logged.
type EventWorker struct {
	river.WorkerDefaults[CascadeEventArgs]
}

// Work processes a single event job.
func (w *EventWorker) Work(ctx context.Context, job *river.Job[CascadeEventArgs]) error {
	slog.InfoContext(ctx, "processing cascade event",
		"event", job.Args.Event,
		"lead_ref", job.Args.LeadRef,
		"participant_id", job.Args.ParticipantID,
		"sequence", job.Args.Sequence,
		"job_id", job.ID,
		"attempt", job.Attempt,
	)
	return nil
}

// Sweeper runs one expiration sweep.
type Sweeper interface {
	SweepExpired(ctx context.Context, now time.Time) (app.SweepResult, error)
}

// SweeperFunc adapts a function to the Sweeper interface.
type SweeperFunc func(ctx context.Context, now time.Time) (app.SweepResult, error)

func (f SweeperFunc) SweepExpired(ctx context.Context, now time.Time) (app.SweepResult, error) {
	return f(ctx, now)
}

// SweepObserver is told about every finished sweep.
type SweepObserver interface {
	ObserveSweep(res app.SweepResult, err error, took time.Duration)
}

// SweepWorker runs the expiration sweep for each scheduler tick.
type SweepWorker struct {
	river.WorkerDefaults[SweepJobArgs]

	sweeper   Sweeper
	observers []SweepObserver
	logger    *slog.Logger
}

// Timeout disables River's job timeout: a sweep either finishes its batch or
// fails row by row, it is never cut off halfway.
func (w *SweepWorker) Timeout(*river.Job[SweepJobArgs]) time.Duration { return -1 }

// Work sweeps expired assignments as of now.
func (w *SweepWorker) Work(ctx context.Context, job *river.Job[SweepJobArgs]) error {
	start := time.Now()
	res, err := w.sweeper.SweepExpired(ctx, start.UTC())
	took := time.Since(start)

	for _, o := range w.observers {
		o.ObserveSweep(res, err, took)
	}

	if err != nil {
		w.logger.ErrorContext(ctx, "sweep failed", "job_id", job.ID, "error", err)
		return err
	}

	w.logger.DebugContext(ctx, "sweep completed",
		"job_id", job.ID,
		"escalated", res.Escalated,
		"exhausted", res.Exhausted,
		"skipped", res.Skipped,
		"failed", res.Failed,
		"took", took,
	)
	return nil
}

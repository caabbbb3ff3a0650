package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/neomorfeo/leadcascade/internal/domain"
)

// Engine runs the lead exclusivity cascade: it opens the first assignment of a
// lead, escalates expired assignments through the participant rotation, and
// closes cascades on outcome or cancellation.
//
// The engine keeps no state of its own. Every transition out of active goes
// through the ledger's guarded update, so concurrent callers touching the same
// lead cannot both win.
type Engine struct {
	ledger    domain.AssignmentLedger
	directory domain.ParticipantDirectory
	publisher domain.EventPublisher
	validator domain.TransitionValidator

	sla    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithSLA sets the exclusivity window of new assignments.
func WithSLA(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.sla = d
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the logger used for per-row sweep reporting.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an engine with the given adapters.
func NewEngine(ledger domain.AssignmentLedger, directory domain.ParticipantDirectory, publisher domain.EventPublisher, validator domain.TransitionValidator, opts ...Option) *Engine {
	e := &Engine{
		ledger:    ledger,
		directory: directory,
		publisher: publisher,
		validator: validator,
		sla:       domain.DefaultSLA,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SLA returns the window applied to new assignments.
func (e *Engine) SLA() time.Duration {
	return e.sla
}

// StartCascade assigns leadRef to the first eligible participant.
// It returns domain.ErrNoEligibleParticipants without writing anything when the
// directory is empty, and *domain.ActiveCascadeError when the lead is already held.
// A lead whose earlier cascade has closed is reopened at the next sequence, so
// its history stays contiguous.
func (e *Engine) StartCascade(ctx context.Context, leadRef, clientRef string) (domain.Assignment, error) {
	if _, err := e.ledger.GetActive(ctx, leadRef); err == nil {
		return domain.Assignment{}, &domain.ActiveCascadeError{LeadRef: leadRef}
	} else if !errors.Is(err, domain.ErrNoActiveAssignment) {
		return domain.Assignment{}, fmt.Errorf("checking active assignment: %w", err)
	}

	participants, err := e.directory.ListActive(ctx)
	if err != nil {
		return domain.Assignment{}, fmt.Errorf("reading participant directory: %w", err)
	}

	first, ok := domain.FirstParticipant(participants)
	if !ok {
		e.logger.WarnContext(ctx, "cascade not started: no eligible participants", "lead_ref", leadRef)
		return domain.Assignment{}, domain.ErrNoEligibleParticipants
	}

	id, err := generateID()
	if err != nil {
		return domain.Assignment{}, fmt.Errorf("generating assignment id: %w", err)
	}

	history, err := e.ledger.ListByLead(ctx, leadRef)
	if err != nil {
		return domain.Assignment{}, fmt.Errorf("reading lead history: %w", err)
	}
	sequence := 1
	if n := len(history); n > 0 {
		sequence = history[n-1].Sequence + 1
	}

	a := domain.NewAssignment(id, leadRef, clientRef, first.ID, sequence, e.sla, e.now())
	if err := e.ledger.Create(ctx, a); err != nil {
		var activeErr *domain.ActiveCascadeError
		if errors.As(err, &activeErr) || errors.Is(err, domain.ErrSequenceTaken) {
			return domain.Assignment{}, err
		}
		return domain.Assignment{}, fmt.Errorf("creating assignment: %w", err)
	}

	e.logger.InfoContext(ctx, "cascade started",
		"lead_ref", leadRef,
		"participant_id", a.ParticipantID,
		"sequence", a.Sequence,
		"expires_at", a.ExpiresAt,
	)
	e.publish(ctx, domain.CascadeStarted, a)

	return a, nil
}

// ReportOutcome finalizes the lead's active assignment on behalf of its holder.
// A report for a lead with nothing active yields domain.ErrNoActiveAssignment;
// a report from anyone but the holder yields *domain.ParticipantMismatchError.
func (e *Engine) ReportOutcome(ctx context.Context, leadRef string, participantID int64) (domain.Assignment, error) {
	active, err := e.ledger.GetActive(ctx, leadRef)
	if err != nil {
		return domain.Assignment{}, err
	}

	if active.ParticipantID != participantID {
		return domain.Assignment{}, &domain.ParticipantMismatchError{
			LeadRef:  leadRef,
			Reporter: participantID,
			Holder:   active.ParticipantID,
		}
	}

	final, err := e.closeActive(ctx, active, domain.EventFinalize, domain.ReasonOutcomeAchieved)
	if err != nil {
		return domain.Assignment{}, err
	}

	e.logger.InfoContext(ctx, "cascade finalized",
		"lead_ref", leadRef,
		"participant_id", participantID,
		"sequence", final.Sequence,
	)
	e.publish(ctx, domain.CascadeFinalized, final)

	return final, nil
}

// CancelCascade closes the lead's active assignment without an outcome.
func (e *Engine) CancelCascade(ctx context.Context, leadRef string) (domain.Assignment, error) {
	active, err := e.ledger.GetActive(ctx, leadRef)
	if err != nil {
		return domain.Assignment{}, err
	}

	closed, err := e.closeActive(ctx, active, domain.EventCancel, domain.ReasonCancelled)
	if err != nil {
		return domain.Assignment{}, err
	}

	e.logger.InfoContext(ctx, "cascade cancelled", "lead_ref", leadRef, "sequence", closed.Sequence)
	e.publish(ctx, domain.CascadeCancelled, closed)

	return closed, nil
}

// closeActive validates event against the row's status and applies the guarded
// close. Losing the guard to a concurrent sweep or report reads as "nothing active".
func (e *Engine) closeActive(ctx context.Context, active domain.Assignment, event domain.Event, reason domain.CloseReason) (domain.Assignment, error) {
	status, err := e.validator.Apply(ctx, active.Status, event)
	if err != nil {
		return domain.Assignment{}, err
	}

	closed := active.Close(status, reason, e.now())
	if err := e.ledger.Close(ctx, domain.ClosureOf(closed)); err != nil {
		if errors.Is(err, domain.ErrAssignmentClosed) {
			return domain.Assignment{}, domain.ErrNoActiveAssignment
		}
		return domain.Assignment{}, fmt.Errorf("closing assignment: %w", err)
	}
	return closed, nil
}

// ListActiveAssignments returns a participant's worklist, most urgent first.
func (e *Engine) ListActiveAssignments(ctx context.Context, participantID int64) ([]domain.Assignment, error) {
	return e.ledger.ListActiveByParticipant(ctx, participantID)
}

// History returns every assignment of a lead in sequence order.
func (e *Engine) History(ctx context.Context, leadRef string) ([]domain.Assignment, error) {
	return e.ledger.ListByLead(ctx, leadRef)
}

func (e *Engine) publish(ctx context.Context, event domain.CascadeEvent, a domain.Assignment) {
	if err := e.publisher.Publish(ctx, event, a); err != nil {
		e.logger.ErrorContext(ctx, "publishing cascade event",
			"event", string(event),
			"lead_ref", a.LeadRef,
			"assignment_id", a.ID,
			"error", err,
		)
	}
}

package domain

import (
	"context"
	"time"
)

// AssignmentLedger is the durable, append-only record of cascade assignments.
// Close and Escalate only act on rows that are still active and return
// ErrAssignmentClosed otherwise; this guard is what serializes concurrent
// sweeps and outcome reports for the same lead.
type AssignmentLedger interface {
	Create(ctx context.Context, a Assignment) error
	GetActive(ctx context.Context, leadRef string) (Assignment, error)
	ListExpired(ctx context.Context, now time.Time) ([]Assignment, error)
	ListActiveByParticipant(ctx context.Context, participantID int64) ([]Assignment, error)
	ListByLead(ctx context.Context, leadRef string) ([]Assignment, error)
	Close(ctx context.Context, c Closure) error
	// Escalate closes the expired row and inserts its successor atomically.
	Escalate(ctx context.Context, c Closure, next Assignment) error
}

// ParticipantDirectory supplies the participants eligible for rotation.
type ParticipantDirectory interface {
	ListActive(ctx context.Context) ([]Participant, error)
}

// EventPublisher defines the contract for emitting cascade events.
type EventPublisher interface {
	Publish(ctx context.Context, event CascadeEvent, a Assignment) error
}

// TransitionValidator checks an event against the assignment lifecycle and
// returns the destination status.
type TransitionValidator interface {
	Apply(ctx context.Context, current Status, event Event) (Status, error)
}

package domain

import "time"

// Status represents the lifecycle state of a cascade assignment.
type Status string

const (
	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
	StatusFinalized Status = "finalized"
)

// CloseReason records why an assignment left the active state.
type CloseReason string

const (
	ReasonNone                  CloseReason = "none"
	ReasonSLAExpired            CloseReason = "sla_expired"
	ReasonOutcomeAchieved       CloseReason = "outcome_achieved"
	ReasonParticipantsExhausted CloseReason = "participants_exhausted"
	ReasonCancelled             CloseReason = "cancelled"
)

// Event represents an action that moves an assignment out of the active state.
type Event string

const (
	EventExpire   Event = "expire"
	EventFinalize Event = "finalize"
	EventCancel   Event = "cancel"
)

// Transition defines a valid state change: an event moves an assignment from Src to Dst.
type Transition struct {
	Event Event
	Src   Status
	Dst   Status
}

// Transitions defines all valid state changes of a single assignment row.
// Expired and finalized are terminal; escalation creates a new row instead.
var Transitions = []Transition{
	{Event: EventExpire, Src: StatusActive, Dst: StatusExpired},
	{Event: EventFinalize, Src: StatusActive, Dst: StatusFinalized},
	{Event: EventCancel, Src: StatusActive, Dst: StatusFinalized},
}

// DefaultSLA is the exclusivity window applied when none is configured.
const DefaultSLA = 24 * time.Hour

// Assignment is one exclusivity window of a lead held by a single participant.
// A lead's assignments form an append-only trail ordered by Sequence.
type Assignment struct {
	ID            string
	LeadRef       string
	ClientRef     string
	ParticipantID int64
	Sequence      int
	Status        Status
	SLA           time.Duration
	StartedAt     time.Time
	ExpiresAt     time.Time
	ClosedAt      *time.Time
	CloseReason   CloseReason
}

// NewAssignment creates an active assignment whose window starts at now.
func NewAssignment(id, leadRef, clientRef string, participantID int64, sequence int, sla time.Duration, now time.Time) Assignment {
	started := now.UTC().Truncate(time.Microsecond)
	sla = sla.Truncate(time.Microsecond)
	return Assignment{
		ID:            id,
		LeadRef:       leadRef,
		ClientRef:     clientRef,
		ParticipantID: participantID,
		Sequence:      sequence,
		Status:        StatusActive,
		SLA:           sla,
		StartedAt:     started,
		ExpiresAt:     started.Add(sla),
		CloseReason:   ReasonNone,
	}
}

// Successor creates the next assignment of the same lead for participantID,
// keeping the SLA recorded on a.
func (a Assignment) Successor(id string, participantID int64, now time.Time) Assignment {
	return NewAssignment(id, a.LeadRef, a.ClientRef, participantID, a.Sequence+1, a.SLA, now)
}

// IsExpired reports whether the exclusivity window has elapsed at now.
func (a Assignment) IsExpired(now time.Time) bool {
	return !now.Before(a.ExpiresAt)
}

// Close returns a copy of a moved to status with the given reason.
func (a Assignment) Close(status Status, reason CloseReason, now time.Time) Assignment {
	closed := now.UTC().Truncate(time.Microsecond)
	a.Status = status
	a.CloseReason = reason
	a.ClosedAt = &closed
	return a
}

// Closure describes the guarded update that moves an active assignment out of
// the active state. Ledgers apply it only if the row is still active.
type Closure struct {
	AssignmentID string
	Status       Status
	Reason       CloseReason
	ClosedAt     time.Time
}

// ClosureOf builds the Closure that persists a closed copy of an assignment.
func ClosureOf(a Assignment) Closure {
	c := Closure{
		AssignmentID: a.ID,
		Status:       a.Status,
		Reason:       a.CloseReason,
	}
	if a.ClosedAt != nil {
		c.ClosedAt = *a.ClosedAt
	}
	return c
}

// CascadeEvent names a cascade-level occurrence announced to other systems.
type CascadeEvent string

const (
	CascadeStarted   CascadeEvent = "cascade.started"
	CascadeEscalated CascadeEvent = "cascade.escalated"
	CascadeFinalized CascadeEvent = "cascade.finalized"
	CascadeCancelled CascadeEvent = "cascade.cancelled"
	CascadeExhausted CascadeEvent = "cascade.exhausted"
)

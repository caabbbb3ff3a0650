package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for simple conditions without extra context.
var (
	ErrNoEligibleParticipants = errors.New("no eligible participants")
	ErrNoActiveAssignment     = errors.New("lead has no active assignment")
	// ErrAssignmentClosed means a guarded update found the row no longer active.
	ErrAssignmentClosed = errors.New("assignment is no longer active")
	// ErrSequenceTaken means another writer recorded the same step of a lead first.
	ErrSequenceTaken = errors.New("cascade step already recorded for lead")
)

// ActiveCascadeError is returned when a cascade is started for a lead that
// already has an active assignment.
type ActiveCascadeError struct {
	LeadRef string
}

func (e *ActiveCascadeError) Error() string {
	return fmt.Sprintf("lead %q already has an active assignment", e.LeadRef)
}

// ParticipantMismatchError is returned when an outcome is reported by someone
// other than the participant currently holding the lead.
type ParticipantMismatchError struct {
	LeadRef  string
	Reporter int64
	Holder   int64
}

func (e *ParticipantMismatchError) Error() string {
	return fmt.Sprintf("lead %q is held by participant %d, not %d", e.LeadRef, e.Holder, e.Reporter)
}

// TransitionError is returned when a state transition is not allowed.
type TransitionError struct {
	Event   Event
	Current Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("event %q is not valid from state %q", e.Event, e.Current)
}

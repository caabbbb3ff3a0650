package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/neomorfeo/leadcascade/internal/domain"
)

// SweepResult summarizes one expiration sweep.
type SweepResult struct {
	Escalated int // leads handed to the next participant
	Exhausted int // leads left without a holder because the directory was empty
	Skipped   int // rows closed by a concurrent report or sweep before this one got to them
	Failed    int // rows left untouched by an error; retried on the next sweep
}

// rowOutcome is the per-row result folded into a SweepResult.
type rowOutcome int

const (
	rowEscalated rowOutcome = iota
	rowExhausted
	rowSkipped
)

// SweepExpired escalates every active assignment whose window ended at or
// before now. Per-row failures are logged and counted, never returned; the
// row stays active and is picked up again by the next sweep. The error is
// non-nil only when the expired rows cannot be listed at all.
func (e *Engine) SweepExpired(ctx context.Context, now time.Time) (SweepResult, error) {
	var result SweepResult

	expired, err := e.ledger.ListExpired(ctx, now)
	if err != nil {
		return result, fmt.Errorf("listing expired assignments: %w", err)
	}

	for _, row := range expired {
		outcome, err := e.escalate(ctx, row, now)
		if err != nil {
			result.Failed++
			e.logger.ErrorContext(ctx, "escalating assignment",
				"assignment_id", row.ID,
				"lead_ref", row.LeadRef,
				"sequence", row.Sequence,
				"error", err,
			)
			continue
		}

		switch outcome {
		case rowEscalated:
			result.Escalated++
		case rowExhausted:
			result.Exhausted++
		case rowSkipped:
			result.Skipped++
		}
	}

	if len(expired) > 0 {
		e.logger.InfoContext(ctx, "sweep finished",
			"expired", len(expired),
			"escalated", result.Escalated,
			"exhausted", result.Exhausted,
			"skipped", result.Skipped,
			"failed", result.Failed,
		)
	}

	return result, nil
}

func (e *Engine) escalate(ctx context.Context, row domain.Assignment, now time.Time) (rowOutcome, error) {
	status, err := e.validator.Apply(ctx, row.Status, domain.EventExpire)
	if err != nil {
		return 0, err
	}
	closed := row.Close(status, domain.ReasonSLAExpired, now)
	closure := domain.ClosureOf(closed)

	participants, err := e.directory.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading participant directory: %w", err)
	}

	next, ok := domain.NextParticipant(participants, row.ParticipantID)
	if !ok {
		if err := e.ledger.Close(ctx, closure); err != nil {
			return guardOutcome(err)
		}
		e.logger.WarnContext(ctx, "cascade exhausted",
			"lead_ref", row.LeadRef,
			"sequence", row.Sequence,
			"reason", string(domain.ReasonParticipantsExhausted),
		)
		e.publish(ctx, domain.CascadeExhausted, closed)
		return rowExhausted, nil
	}

	id, err := generateID()
	if err != nil {
		return 0, fmt.Errorf("generating assignment id: %w", err)
	}
	successor := row.Successor(id, next.ID, now)

	if err := e.ledger.Escalate(ctx, closure, successor); err != nil {
		return guardOutcome(err)
	}

	e.logger.InfoContext(ctx, "cascade escalated",
		"lead_ref", row.LeadRef,
		"from_participant", row.ParticipantID,
		"to_participant", successor.ParticipantID,
		"sequence", successor.Sequence,
		"expires_at", successor.ExpiresAt,
	)
	e.publish(ctx, domain.CascadeEscalated, successor)
	return rowEscalated, nil
}

// guardOutcome turns a lost guarded update into a skip and passes other errors on.
func guardOutcome(err error) (rowOutcome, error) {
	if errors.Is(err, domain.ErrAssignmentClosed) {
		return rowSkipped, nil
	}
	return 0, err
}

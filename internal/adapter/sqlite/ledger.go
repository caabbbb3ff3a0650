package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/neomorfeo/leadcascade/internal/domain"
)

var _ domain.AssignmentLedger = (*Ledger)(nil)

// Ledger implements domain.AssignmentLedger on the cascade_assignments table.
type Ledger struct {
	db *sql.DB
}

// NewLedger wraps a migrated database connection.
func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

// DB returns the underlying database connection for use by other adapters (e.g., river).
func (l *Ledger) DB() *sql.DB {
	return l.db
}

// Ping reports whether the ledger storage is reachable.
func (l *Ledger) Ping(ctx context.Context) error {
	return l.db.PingContext(ctx)
}

const assignmentColumns = `id, lead_ref, client_ref, participant_id, sequence, status,
	sla_micros, started_at, expires_at, closed_at, close_reason`

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (l *Ledger) Create(ctx context.Context, a domain.Assignment) error {
	if err := insertAssignment(ctx, l.db, a); err != nil {
		switch {
		case isActiveViolation(err):
			return &domain.ActiveCascadeError{LeadRef: a.LeadRef}
		case isUniqueViolation(err):
			return fmt.Errorf("lead %q sequence %d: %w", a.LeadRef, a.Sequence, domain.ErrSequenceTaken)
		}
		return err
	}
	return nil
}

func insertAssignment(ctx context.Context, db execer, a domain.Assignment) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO cascade_assignments (`+assignmentColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, ?)`,
		a.ID, a.LeadRef, a.ClientRef, a.ParticipantID, a.Sequence, string(a.Status),
		a.SLA.Microseconds(),
		formatTime(a.StartedAt), formatTime(a.ExpiresAt),
		string(a.CloseReason),
	)
	if err != nil {
		return fmt.Errorf("inserting assignment: %w", err)
	}
	return nil
}

func (l *Ledger) GetActive(ctx context.Context, leadRef string) (domain.Assignment, error) {
	a, err := scanAssignment(l.db.QueryRowContext(ctx,
		`SELECT `+assignmentColumns+` FROM cascade_assignments
		 WHERE lead_ref = ? AND status = 'active'`, leadRef,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Assignment{}, domain.ErrNoActiveAssignment
	}
	return a, err
}

func (l *Ledger) ListExpired(ctx context.Context, now time.Time) ([]domain.Assignment, error) {
	return l.list(ctx,
		`SELECT `+assignmentColumns+` FROM cascade_assignments
		 WHERE status = 'active' AND expires_at <= ?
		 ORDER BY expires_at ASC, id ASC`, formatTime(now))
}

func (l *Ledger) ListActiveByParticipant(ctx context.Context, participantID int64) ([]domain.Assignment, error) {
	return l.list(ctx,
		`SELECT `+assignmentColumns+` FROM cascade_assignments
		 WHERE participant_id = ? AND status = 'active'
		 ORDER BY expires_at ASC, id ASC`, participantID)
}

func (l *Ledger) ListByLead(ctx context.Context, leadRef string) ([]domain.Assignment, error) {
	return l.list(ctx,
		`SELECT `+assignmentColumns+` FROM cascade_assignments
		 WHERE lead_ref = ?
		 ORDER BY sequence ASC`, leadRef)
}

func (l *Ledger) list(ctx context.Context, query string, args ...any) ([]domain.Assignment, error) {
	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing assignments: %w", err)
	}
	defer rows.Close()

	var out []domain.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (l *Ledger) Close(ctx context.Context, c domain.Closure) error {
	return closeAssignment(ctx, l.db, c)
}

// closeAssignment is the guarded update shared by finalization and escalation.
func closeAssignment(ctx context.Context, db execer, c domain.Closure) error {
	result, err := db.ExecContext(ctx,
		`UPDATE cascade_assignments SET status = ?, close_reason = ?, closed_at = ?
		 WHERE id = ? AND status = 'active'`,
		string(c.Status), string(c.Reason), formatTime(c.ClosedAt), c.AssignmentID,
	)
	if err != nil {
		return fmt.Errorf("closing assignment %s: %w", c.AssignmentID, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrAssignmentClosed
	}
	return nil
}

func (l *Ledger) Escalate(ctx context.Context, c domain.Closure, next domain.Assignment) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning escalation: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := closeAssignment(ctx, tx, c); err != nil {
		return err
	}
	if err := insertAssignment(ctx, tx, next); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing escalation: %w", err)
	}
	return nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanAssignment(s scanner) (domain.Assignment, error) {
	var (
		a                    domain.Assignment
		status, reason       string
		slaMicros            int64
		startedAt, expiresAt string
		closedAt             sql.NullString
	)

	err := s.Scan(&a.ID, &a.LeadRef, &a.ClientRef, &a.ParticipantID, &a.Sequence, &status,
		&slaMicros, &startedAt, &expiresAt, &closedAt, &reason)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Assignment{}, err
		}
		return domain.Assignment{}, fmt.Errorf("scanning assignment: %w", err)
	}

	a.Status = domain.Status(status)
	a.CloseReason = domain.CloseReason(reason)
	a.SLA = time.Duration(slaMicros) * time.Microsecond

	if a.StartedAt, err = parseTime(startedAt); err != nil {
		return domain.Assignment{}, err
	}
	if a.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return domain.Assignment{}, err
	}
	if closedAt.Valid {
		t, err := parseTime(closedAt.String)
		if err != nil {
			return domain.Assignment{}, err
		}
		a.ClosedAt = &t
	}

	return a, nil
}

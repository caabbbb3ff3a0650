package app_test

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/neomorfeo/leadcascade/internal/domain"
)

// --- Mocks ---

// memLedger keeps assignments in memory and applies the same active-row guard
// as the SQLite ledger.
type memLedger struct {
	mu      sync.Mutex
	rows    []domain.Assignment
	listErr error
	// closeErr fails Close/Escalate for the given assignment IDs.
	closeErr map[string]error
}

func newMemLedger() *memLedger {
	return &memLedger{closeErr: make(map[string]error)}
}

func (m *memLedger) Create(_ context.Context, a domain.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.activeLocked(a.LeadRef); ok {
		return &domain.ActiveCascadeError{LeadRef: a.LeadRef}
	}
	for _, r := range m.rows {
		if r.LeadRef == a.LeadRef && r.Sequence == a.Sequence {
			return domain.ErrSequenceTaken
		}
	}
	m.rows = append(m.rows, a)
	return nil
}

func (m *memLedger) activeLocked(leadRef string) (int, bool) {
	for i, r := range m.rows {
		if r.LeadRef == leadRef && r.Status == domain.StatusActive {
			return i, true
		}
	}
	return 0, false
}

func (m *memLedger) GetActive(_ context.Context, leadRef string) (domain.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i, ok := m.activeLocked(leadRef); ok {
		return m.rows[i], nil
	}
	return domain.Assignment{}, domain.ErrNoActiveAssignment
}

func (m *memLedger) ListExpired(_ context.Context, now time.Time) ([]domain.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []domain.Assignment
	for _, r := range m.rows {
		if r.Status == domain.StatusActive && r.IsExpired(now) {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b domain.Assignment) int { return a.ExpiresAt.Compare(b.ExpiresAt) })
	return out, nil
}

func (m *memLedger) ListActiveByParticipant(_ context.Context, participantID int64) ([]domain.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Assignment
	for _, r := range m.rows {
		if r.ParticipantID == participantID && r.Status == domain.StatusActive {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b domain.Assignment) int { return a.ExpiresAt.Compare(b.ExpiresAt) })
	return out, nil
}

func (m *memLedger) ListByLead(_ context.Context, leadRef string) ([]domain.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Assignment
	for _, r := range m.rows {
		if r.LeadRef == leadRef {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b domain.Assignment) int { return a.Sequence - b.Sequence })
	return out, nil
}

func (m *memLedger) Close(_ context.Context, c domain.Closure) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeLocked(c)
}

func (m *memLedger) closeLocked(c domain.Closure) error {
	if err := m.closeErr[c.AssignmentID]; err != nil {
		return err
	}
	for i, r := range m.rows {
		if r.ID != c.AssignmentID {
			continue
		}
		if r.Status != domain.StatusActive {
			return domain.ErrAssignmentClosed
		}
		closedAt := c.ClosedAt
		m.rows[i].Status = c.Status
		m.rows[i].CloseReason = c.Reason
		m.rows[i].ClosedAt = &closedAt
		return nil
	}
	return domain.ErrAssignmentClosed
}

func (m *memLedger) Escalate(_ context.Context, c domain.Closure, next domain.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.closeLocked(c); err != nil {
		return err
	}
	m.rows = append(m.rows, next)
	return nil
}

type staticDirectory struct {
	mu           sync.Mutex
	participants []domain.Participant
	err          error
}

func directoryOf(ids ...int64) *staticDirectory {
	d := &staticDirectory{}
	for _, id := range ids {
		d.participants = append(d.participants, domain.Participant{ID: id, Active: true})
	}
	return d
}

func (d *staticDirectory) ListActive(_ context.Context) ([]domain.Participant, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.participants), d.err
}

func (d *staticDirectory) set(ids ...int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.participants = nil
	for _, id := range ids {
		d.participants = append(d.participants, domain.Participant{ID: id, Active: true})
	}
}

type mockPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

type publishedEvent struct {
	event      domain.CascadeEvent
	assignment domain.Assignment
}

func (m *mockPublisher) Publish(_ context.Context, e domain.CascadeEvent, a domain.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, publishedEvent{event: e, assignment: a})
	return m.err
}

func (m *mockPublisher) kinds() []domain.CascadeEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.CascadeEvent, len(m.events))
	for i, e := range m.events {
		out[i] = e.event
	}
	return out
}

// tableValidator applies domain.Transitions without the FSM adapter.
type tableValidator struct{}

func (tableValidator) Apply(_ context.Context, current domain.Status, event domain.Event) (domain.Status, error) {
	for _, t := range domain.Transitions {
		if t.Event == event && t.Src == current {
			return t.Dst, nil
		}
	}
	return "", &domain.TransitionError{Event: event, Current: current}
}

// clock is a settable time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

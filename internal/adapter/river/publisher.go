package river

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/leadcascade/internal/domain"
)

var _ domain.EventPublisher = (*Publisher)(nil)

// CascadeEventArgs carries a cascade event to its asynchronous consumers.
// River stores it as JSON in the job table with a snapshot of the assignment,
// so the worker never has to read the ledger.
type CascadeEventArgs struct {
	Event         string    `json:"event"`
	AssignmentID  string    `json:"assignment_id"`
	LeadRef       string    `json:"lead_ref"`
	ClientRef     string    `json:"client_ref,omitempty"`
	ParticipantID int64     `json:"participant_id"`
	Sequence      int       `json:"sequence"`
	Status        string    `json:"status"`
	CloseReason   string    `json:"close_reason"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (CascadeEventArgs) Kind() string { return "cascade.event" }

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Publisher implements domain.EventPublisher by enqueuing River jobs.
type Publisher struct {
	client *Client
}

// NewPublisher creates a publisher backed by the given River client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// Publish enqueues a cascade event as an async job.
func (p *Publisher) Publish(ctx context.Context, event domain.CascadeEvent, a domain.Assignment) error {
	_, err := p.client.Insert(ctx, CascadeEventArgs{
		Event:         string(event),
		AssignmentID:  a.ID,
		LeadRef:       a.LeadRef,
		ClientRef:     a.ClientRef,
		ParticipantID: a.ParticipantID,
		Sequence:      a.Sequence,
		Status:        string(a.Status),
		CloseReason:   string(a.CloseReason),
		ExpiresAt:     a.ExpiresAt,
	}, nil)
	if err != nil {
		return fmt.Errorf("enqueuing cascade event job: %w", err)
	}
	return nil
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/neomorfeo/leadcascade/internal/domain"
)

var _ domain.ParticipantDirectory = (*Directory)(nil)

// Directory reads participants from the participants table. Every call hits
// the database so rotation always sees the current roster.
type Directory struct {
	db *sql.DB
}

// NewDirectory wraps a migrated database connection.
func NewDirectory(db *sql.DB) *Directory {
	return &Directory{db: db}
}

func (d *Directory) ListActive(ctx context.Context) ([]domain.Participant, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, name, active FROM participants WHERE active = 1 ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing participants: %w", err)
	}
	defer rows.Close()

	var out []domain.Participant
	for rows.Next() {
		var p domain.Participant
		if err := rows.Scan(&p.ID, &p.Name, &p.Active); err != nil {
			return nil, fmt.Errorf("scanning participant: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Upsert inserts or replaces a participant. It exists for seeding; the roster
// is normally maintained by the user directory.
func (d *Directory) Upsert(ctx context.Context, p domain.Participant) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO participants (id, name, active) VALUES (?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET name = excluded.name, active = excluded.active`,
		p.ID, p.Name, p.Active,
	)
	if err != nil {
		return fmt.Errorf("upserting participant %d: %w", p.ID, err)
	}
	return nil
}

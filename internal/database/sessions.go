package database

import (
	"context"
	"fmt"

	"github.com/tabwatch/tabwatch/internal/models"
)

// SyncedSessionRepository stores sessions forwarded by tracking devices
type SyncedSessionRepository struct {
	db *DB
}

// NewSyncedSessionRepository creates a new synced session repository
func NewSyncedSessionRepository(db *DB) *SyncedSessionRepository {
	return &SyncedSessionRepository{db: db}
}

// Insert stores a session. Idempotent on the session UUID, so a
// redelivered sync job writes nothing the second time.
func (r *SyncedSessionRepository) Insert(ctx context.Context, deviceID string, s *models.Session) error {
	query := `
		INSERT INTO synced_sessions (id, device_id, tab_id, url, domain, title, start_time, last_active, total_time_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query,
		s.ID,
		deviceID,
		s.TabID,
		s.URL,
		s.Domain,
		s.Title,
		s.StartTime,
		s.LastActive,
		s.TotalTime,
	)
	if err != nil {
		return fmt.Errorf("failed to insert synced session: %w", err)
	}

	return nil
}

// DomainTotal is one row of a per-domain rollup query
type DomainTotal struct {
	Domain    string
	TotalTime int64
}

// TopDomains returns the highest-time domains for a device
func (r *SyncedSessionRepository) TopDomains(ctx context.Context, deviceID string, limit int) ([]DomainTotal, error) {
	query := `
		SELECT domain, SUM(total_time_ms) AS total
		FROM synced_sessions
		WHERE device_id = $1
		GROUP BY domain
		ORDER BY total DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, deviceID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top domains: %w", err)
	}
	defer rows.Close()

	var totals []DomainTotal
	for rows.Next() {
		var dt DomainTotal
		if err := rows.Scan(&dt.Domain, &dt.TotalTime); err != nil {
			return nil, fmt.Errorf("failed to scan domain total: %w", err)
		}
		totals = append(totals, dt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read domain totals: %w", err)
	}

	return totals, nil
}

package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tabwatch/tabwatch/internal/models"
)

// DailySummaryRepository stores per-device day aggregates
type DailySummaryRepository struct {
	db *DB
}

// NewDailySummaryRepository creates a new daily summary repository
func NewDailySummaryRepository(db *DB) *DailySummaryRepository {
	return &DailySummaryRepository{db: db}
}

// Upsert writes a day's aggregate, replacing any earlier version of the
// same device/date pair. A day can be re-synced after late sessions, so
// last write wins.
func (r *DailySummaryRepository) Upsert(ctx context.Context, deviceID string, day *models.DailyStats) error {
	domainsJSON, err := json.Marshal(day.Domains)
	if err != nil {
		return fmt.Errorf("failed to marshal domains: %w", err)
	}

	query := `
		INSERT INTO daily_summaries (device_id, date, total_time_ms, session_count, domains, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (device_id, date) DO UPDATE SET
			total_time_ms = EXCLUDED.total_time_ms,
			session_count = EXCLUDED.session_count,
			domains = EXCLUDED.domains,
			updated_at = now()
	`

	_, err = r.db.ExecContext(ctx, query,
		deviceID,
		day.Date,
		day.TotalTime,
		day.SessionCount(),
		domainsJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert daily summary: %w", err)
	}

	return nil
}

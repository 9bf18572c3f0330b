package database

import (
	"context"

	"github.com/tabwatch/tabwatch/internal/models"
)

// SessionRepositoryInterface defines the session store operations the
// sync worker needs. The interface enables mock implementations in tests.
type SessionRepositoryInterface interface {
	Insert(ctx context.Context, deviceID string, s *models.Session) error
}

// SummaryRepositoryInterface defines the daily summary store operations
type SummaryRepositoryInterface interface {
	Upsert(ctx context.Context, deviceID string, day *models.DailyStats) error
}

// Ensure concrete types implement the interfaces
var (
	_ SessionRepositoryInterface = (*SyncedSessionRepository)(nil)
	_ SummaryRepositoryInterface = (*DailySummaryRepository)(nil)
)

package models

import "time"

// Settings is the persisted process-wide tracking configuration. It is
// loaded once at startup and mutated only by explicit toggles.
type Settings struct {
	TrackingEnabled bool `json:"tracking_enabled"`
}

// DefaultSettings returns settings for a fresh install: tracking on.
func DefaultSettings() *Settings {
	return &Settings{TrackingEnabled: true}
}

// SyncStatus is the display-only view of the sync forwarder's state.
// The core never depends on sync succeeding.
type SyncStatus struct {
	LastSyncTime time.Time `json:"last_sync_time"`
	IsOnline     bool      `json:"is_online"`
	PendingCount int       `json:"pending_count"`
}

// ExportSnapshot is the full persisted state plus the in-memory current
// session, returned by the export operation.
type ExportSnapshot struct {
	ExportedAt     time.Time       `json:"exported_at"`
	Settings       *Settings       `json:"settings"`
	DailyStats     *DailyStats     `json:"daily_stats"`
	HistoricalData *HistoricalData `json:"historical_data"`
	CurrentSession *Session        `json:"current_session,omitempty"`
}

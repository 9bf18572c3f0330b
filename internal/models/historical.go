package models

import "time"

// HistoricalSchemaVersion gates whether persisted historical data is
// trusted as-is. A mismatch discards the record and reinitializes it
// empty; there is deliberately no migration path.
const HistoricalSchemaVersion = 1

// WeeklyStats aggregates tracked time for one ISO week (Monday start).
type WeeklyStats struct {
	WeekStart string `json:"week_start"`
	TotalTime int64  `json:"total_time_ms"`
	// DailyBreakdown maps date key to that day's total milliseconds.
	DailyBreakdown map[string]int64 `json:"daily_breakdown"`
	// TopDomains maps domain to accumulated milliseconds for the week.
	TopDomains   map[string]int64 `json:"top_domains"`
	SessionCount int              `json:"session_count"`
}

// NewWeeklyStats creates an empty aggregate for the given week-start key.
func NewWeeklyStats(weekStart string) *WeeklyStats {
	return &WeeklyStats{
		WeekStart:      weekStart,
		DailyBreakdown: make(map[string]int64),
		TopDomains:     make(map[string]int64),
	}
}

// AllTimeTotals accumulates across the whole tracking lifetime.
type AllTimeTotals struct {
	TotalTime         int64            `json:"total_time_ms"`
	SessionCount      int              `json:"session_count"`
	FirstTrackingDate string           `json:"first_tracking_date,omitempty"`
	TopDomains        map[string]int64 `json:"top_domains"`
}

// HistoricalData is the process-wide durable rollup record.
type HistoricalData struct {
	SchemaVersion int       `json:"schema_version"`
	LastCleanup   time.Time `json:"last_cleanup"`
	// WeeklyStats maps week-start key to that week's rollup.
	WeeklyStats map[string]*WeeklyStats `json:"weekly_stats"`
	AllTime     AllTimeTotals           `json:"all_time"`
}

// NewHistoricalData creates an empty record at the current schema version.
func NewHistoricalData() *HistoricalData {
	return &HistoricalData{
		SchemaVersion: HistoricalSchemaVersion,
		WeeklyStats:   make(map[string]*WeeklyStats),
		AllTime:       AllTimeTotals{TopDomains: make(map[string]int64)},
	}
}

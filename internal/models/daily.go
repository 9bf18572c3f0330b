package models

import "time"

// DateKeyLayout is the calendar-day key format used for daily stats and
// weekly breakdowns. Lexicographic order matches chronological order.
const DateKeyLayout = "2006-01-02"

// DateKey returns the calendar-day key for t in t's location.
func DateKey(t time.Time) string {
	return t.Format(DateKeyLayout)
}

// DailyStats aggregates tracked time for one calendar date on one device.
// Invariant: TotalTime == sum(Domains) == sum over Sessions of TotalTime.
type DailyStats struct {
	Date string `json:"date"`
	// Domains maps domain to accumulated active milliseconds.
	Domains map[string]int64 `json:"domains"`
	// TotalTime is the sum across domains, in milliseconds.
	TotalTime int64      `json:"total_time_ms"`
	Sessions  []*Session `json:"sessions"`
}

// NewDailyStats creates an empty aggregate for the given date key.
func NewDailyStats(date string) *DailyStats {
	return &DailyStats{
		Date:     date,
		Domains:  make(map[string]int64),
		Sessions: []*Session{},
	}
}

// AddSession folds an ended session into the day. Zero-duration sessions
// still occupy a session-log slot so visit counts stay accurate.
func (d *DailyStats) AddSession(s *Session) {
	d.Domains[s.Domain] += s.TotalTime
	d.TotalTime += s.TotalTime
	d.Sessions = append(d.Sessions, s)
}

// SessionCount returns the number of sessions logged for the day.
func (d *DailyStats) SessionCount() int {
	return len(d.Sessions)
}

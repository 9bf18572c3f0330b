package models

import (
	"time"

	"github.com/google/uuid"
)

// Tab describes the browser tab a session candidate refers to.
// It is what the extension reports on tab lifecycle events.
type Tab struct {
	ID    int    `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title"`
}

// UnknownDomain is the sentinel domain recorded when a tracked URL
// cannot be parsed into a host.
const UnknownDomain = "unknown"

// Session is one continuous attention interval on a single (url, domain)
// pair. At most one session is current at any time; once ended a session
// is immutable and belongs to exactly one day's session log.
type Session struct {
	ID         uuid.UUID `json:"id"`
	TabID      int       `json:"tab_id"`
	URL        string    `json:"url"`
	Domain     string    `json:"domain"`
	Title      string    `json:"title"`
	StartTime  time.Time `json:"start_time"`
	LastActive time.Time `json:"last_active"`
	// TotalTime is accumulated active time in milliseconds.
	TotalTime int64 `json:"total_time_ms"`
	IsActive  bool  `json:"is_active"`
}

// NewSession creates a current session for the given tab, started at now.
func NewSession(tab Tab, domain string, now time.Time) *Session {
	return &Session{
		ID:         uuid.New(),
		TabID:      tab.ID,
		URL:        tab.URL,
		Domain:     domain,
		Title:      tab.Title,
		StartTime:  now,
		LastActive: now,
		TotalTime:  0,
		IsActive:   true,
	}
}

// Clone returns a copy of the session. Ended sessions are handed off to
// the daily log and the sync forwarder by value copy so later mutation
// of the current session can never reach them.
func (s *Session) Clone() *Session {
	c := *s
	return &c
}

package tracker

import "time"

// Config holds the tracking engine's timing policy.
type Config struct {
	// IdleThreshold is the fallback activity window: with no per-tab
	// activity status, an update gap at or above this counts as idle.
	IdleThreshold time.Duration

	// TickInterval is how often the current session is updated.
	TickInterval time.Duration

	// SaveInterval is how often the daily aggregate is flushed to the
	// persistence gateway. Bounds data loss on abnormal termination.
	SaveInterval time.Duration

	// CleanupInterval gates how often the retention pass may run.
	CleanupInterval time.Duration

	// RetentionWeeks is how many weeks of rollups survive cleanup.
	RetentionWeeks int
}

// DefaultConfig returns the stock timing policy.
func DefaultConfig() Config {
	return Config{
		IdleThreshold:   30 * time.Second,
		TickInterval:    5 * time.Second,
		SaveInterval:    10 * time.Second,
		CleanupInterval: 7 * 24 * time.Hour,
		RetentionWeeks:  12,
	}
}

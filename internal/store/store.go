package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// Persisted state keys. The current day's stats live under a single key;
// finished days only survive inside the historical rollup.
const (
	KeySettings       = "settings"
	KeyDailyStats     = "daily_stats"
	KeyHistoricalData = "historical_data"
)

// Gateway is the durable key-value store the tracking engine reads and
// writes through. Operations may fail with I/O errors and are not
// transactional across keys; callers performing multi-key updates must
// tolerate partial application. Single-writer access is assumed.
type Gateway interface {
	// Get returns the raw value for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key, JSON-encoded.
	Set(ctx context.Context, key string, value any) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error

	// ClearAll deletes every key owned by this gateway.
	ClearAll(ctx context.Context) error
}

// GetJSON loads key from g and unmarshals it into out. Returns false
// with no error when the key is absent.
func GetJSON(ctx context.Context, g Gateway, key string, out any) (bool, error) {
	raw, found, err := g.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

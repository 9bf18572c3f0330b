package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryGateway is an in-process Gateway used in tests and in
// deployments that run without Redis. State does not survive restarts.
type MemoryGateway struct {
	mu   sync.Mutex
	data map[string][]byte

	// FailNextSet makes the next Set return an error, for exercising
	// the dropped-periodic-save path in tests.
	FailNextSet bool
}

var _ Gateway = (*MemoryGateway)(nil)

// NewMemoryGateway creates an empty in-memory gateway.
func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{data: make(map[string][]byte)}
}

// Get returns the raw value for key and whether it was present.
func (g *MemoryGateway) Get(_ context.Context, key string) ([]byte, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	raw, ok := g.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(raw))
	copy(out, raw)
	return out, true, nil
}

// Set stores value under key, JSON-encoded.
func (g *MemoryGateway) Set(_ context.Context, key string, value any) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailNextSet {
		g.FailNextSet = false
		return fmt.Errorf("simulated write failure for %s", key)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	g.data[key] = raw
	return nil
}

// Remove deletes key.
func (g *MemoryGateway) Remove(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.data, key)
	return nil
}

// ClearAll deletes every stored key.
func (g *MemoryGateway) ClearAll(_ context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.data = make(map[string][]byte)
	return nil
}

// Len reports the number of stored keys. Test helper.
func (g *MemoryGateway) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.data)
}

// Package forwarder hands completed sessions and daily aggregates to the
// off-device sync pipeline. The tracking engine never depends on sync
// succeeding: ended sessions are folded into the local aggregates
// regardless of what happens here.
package forwarder

import (
	"context"

	"github.com/tabwatch/tabwatch/internal/models"
)

// Forwarder is the boundary the tracking engine sees. Enqueue is
// fire-and-forget and never blocks ending a session.
type Forwarder interface {
	// Enqueue buffers an ended session for off-device sync.
	Enqueue(session *models.Session)

	// EnqueueDailySummary buffers a finished day's aggregate.
	EnqueueDailySummary(day *models.DailyStats)

	// Status returns the display-only sync state.
	Status() models.SyncStatus

	// ForceSync flushes the pending buffer immediately.
	ForceSync(ctx context.Context) error
}

// Noop discards everything. Used when no sync backend is configured.
type Noop struct{}

var _ Forwarder = (*Noop)(nil)

func (Noop) Enqueue(*models.Session)                {}
func (Noop) EnqueueDailySummary(*models.DailyStats) {}
func (Noop) Status() models.SyncStatus              { return models.SyncStatus{} }
func (Noop) ForceSync(context.Context) error        { return nil }

package tracker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// cleanupCheckInterval is how often the retention gate is probed. The
// pass itself runs at most once per Config.CleanupInterval.
const cleanupCheckInterval = time.Hour

// Run drives the periodic work (session ticks, daily-stats flushes,
// retention cleanup) until ctx is cancelled, then performs the
// best-effort shutdown flush. The tick and save timers are independent
// and idempotent with respect to each other.
func (t *Tracker) Run(ctx context.Context) {
	tick := time.NewTicker(t.cfg.TickInterval)
	defer tick.Stop()
	save := time.NewTicker(t.cfg.SaveInterval)
	defer save.Stop()
	cleanup := time.NewTicker(cleanupCheckInterval)
	defer cleanup.Stop()

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			t.Shutdown(flushCtx)
			cancel()
			return
		case <-tick.C:
			t.UpdateCurrentSession()
		case <-save.C:
			if err := t.SaveDailyStats(ctx); err != nil {
				// Dropped; the next interval supersedes it.
				t.logger.Warn("periodic_save_failed", zap.Error(err))
			}
		case <-cleanup.C:
			if err := t.CleanupOldData(ctx); err != nil {
				t.logger.Warn("historical_cleanup_failed", zap.Error(err))
			}
		}
	}
}

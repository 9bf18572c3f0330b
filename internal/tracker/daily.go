package tracker

import (
	"context"

	"go.uber.org/zap"

	"github.com/tabwatch/tabwatch/internal/models"
	"github.com/tabwatch/tabwatch/internal/store"
)

// loadOrInitDailyLocked reads the persisted daily stats. A record for
// today is adopted as-is; a stale one is archived first and a fresh day
// initialized and persisted in its place.
func (t *Tracker) loadOrInitDailyLocked(ctx context.Context) {
	today := models.DateKey(t.now())

	var stored models.DailyStats
	found, err := store.GetJSON(ctx, t.gateway, store.KeyDailyStats, &stored)
	if err != nil {
		t.logger.Warn("daily_stats_load_failed", zap.Error(err))
	}

	if found && err == nil {
		if stored.Domains == nil {
			stored.Domains = make(map[string]int64)
		}
		if stored.Date == today {
			t.daily = &stored
			return
		}
		// Day rollover: fold the finished day into the rollups and hand
		// its aggregate to the sync pipeline.
		t.archiveDayLocked(&stored)
		t.fwd.EnqueueDailySummary(&stored)
		if err := t.gateway.Set(ctx, store.KeyHistoricalData, t.historical); err != nil {
			t.logger.Warn("historical_save_failed", zap.Error(err))
		}
		t.logger.Info("day_rolled_over",
			zap.String("archived_date", stored.Date),
			zap.Int64("archived_total_ms", stored.TotalTime),
			zap.String("new_date", today),
		)
	}

	t.daily = models.NewDailyStats(today)
	t.saveDailyLocked(ctx)
}

// SaveDailyStats flushes the in-memory day to the persistence gateway.
// Run on the save interval; a failed save is dropped and superseded by
// the next attempt. Also detects day rollover for long-running
// processes that cross midnight between startups.
func (t *Tracker) SaveDailyStats(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.daily == nil {
		return nil
	}
	if today := models.DateKey(t.now()); today != t.daily.Date {
		t.endCurrentSessionLocked()
		t.loadOrInitDailyLockedFromMemory(ctx, today)
	}
	return t.gateway.Set(ctx, store.KeyDailyStats, t.daily)
}

// loadOrInitDailyLockedFromMemory archives the in-memory day (already
// authoritative; no need to reread the gateway) and starts the new one.
func (t *Tracker) loadOrInitDailyLockedFromMemory(ctx context.Context, today string) {
	finished := t.daily
	t.archiveDayLocked(finished)
	t.fwd.EnqueueDailySummary(finished)
	if err := t.gateway.Set(ctx, store.KeyHistoricalData, t.historical); err != nil {
		t.logger.Warn("historical_save_failed", zap.Error(err))
	}
	t.logger.Info("day_rolled_over",
		zap.String("archived_date", finished.Date),
		zap.Int64("archived_total_ms", finished.TotalTime),
		zap.String("new_date", today),
	)
	t.daily = models.NewDailyStats(today)
}

// saveDailyLocked is the write-behind flush used after state changes; a
// failure is logged and superseded by the next periodic save.
func (t *Tracker) saveDailyLocked(ctx context.Context) {
	if t.daily == nil {
		return
	}
	if err := t.gateway.Set(ctx, store.KeyDailyStats, t.daily); err != nil {
		t.logger.Warn("daily_stats_save_failed", zap.Error(err))
	}
}

package tracker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tabwatch/tabwatch/internal/models"
	"github.com/tabwatch/tabwatch/internal/store"
)

// WeekKey returns the date key of the Monday starting the ISO week
// containing t. A Sunday maps six days back; every other day maps
// 1−weekday days forward (i.e. backward to Monday).
func WeekKey(t time.Time) string {
	wd := int(t.Weekday())
	offset := 1 - wd
	if wd == 0 {
		offset = -6
	}
	return models.DateKey(t.AddDate(0, 0, offset))
}

// loadOrInitHistoricalLocked loads the rollup record. An absent record,
// a load failure or a schema version mismatch all reinitialize empty;
// there is no migration path across schema versions.
func (t *Tracker) loadOrInitHistoricalLocked(ctx context.Context) {
	var stored models.HistoricalData
	found, err := store.GetJSON(ctx, t.gateway, store.KeyHistoricalData, &stored)
	if err != nil {
		t.logger.Warn("historical_load_failed", zap.Error(err))
	}

	if found && err == nil {
		if stored.SchemaVersion != models.HistoricalSchemaVersion {
			t.logger.Warn("historical_schema_mismatch",
				zap.Int("stored_version", stored.SchemaVersion),
				zap.Int("expected_version", models.HistoricalSchemaVersion),
			)
		} else {
			if stored.WeeklyStats == nil {
				stored.WeeklyStats = make(map[string]*models.WeeklyStats)
			}
			if stored.AllTime.TopDomains == nil {
				stored.AllTime.TopDomains = make(map[string]int64)
			}
			t.historical = &stored
			return
		}
	}

	t.historical = models.NewHistoricalData()
	if err := t.gateway.Set(ctx, store.KeyHistoricalData, t.historical); err != nil {
		t.logger.Warn("historical_save_failed", zap.Error(err))
	}
}

// archiveDayLocked folds a finished day into its weekly rollup and the
// all-time totals. Archiving an empty day is a no-op so first-run and
// untouched days never pollute the rollups. A day may be archived at
// most once: a date already present in its week's breakdown is skipped,
// since re-archiving would additively double the weekly and all-time
// sums while silently overwriting the breakdown.
func (t *Tracker) archiveDayLocked(day *models.DailyStats) {
	if day == nil || day.TotalTime == 0 {
		return
	}

	date, err := time.Parse(models.DateKeyLayout, day.Date)
	if err != nil {
		t.logger.Warn("archive_skipped_bad_date", zap.String("date", day.Date))
		return
	}

	week := WeekKey(date)
	ws, ok := t.historical.WeeklyStats[week]
	if !ok {
		ws = models.NewWeeklyStats(week)
		t.historical.WeeklyStats[week] = ws
	}

	if _, done := ws.DailyBreakdown[day.Date]; done {
		t.logger.Warn("day_already_archived",
			zap.String("date", day.Date),
			zap.String("week", week),
		)
		return
	}

	ws.TotalTime += day.TotalTime
	ws.DailyBreakdown[day.Date] = day.TotalTime
	ws.SessionCount += day.SessionCount()
	for domain, ms := range day.Domains {
		ws.TopDomains[domain] += ms
	}

	t.historical.AllTime.TotalTime += day.TotalTime
	t.historical.AllTime.SessionCount += day.SessionCount()
	for domain, ms := range day.Domains {
		t.historical.AllTime.TopDomains[domain] += ms
	}
	if t.historical.AllTime.FirstTrackingDate == "" {
		t.historical.AllTime.FirstTrackingDate = day.Date
	}

	t.logger.Debug("day_archived",
		zap.String("date", day.Date),
		zap.String("week", week),
		zap.Int64("total_ms", day.TotalTime),
	)
}

// CleanupOldData prunes weekly rollups older than the retention window.
// Gated to run at most once per cleanup interval; the last-cleanup
// timestamp advances whether or not anything was deleted.
func (t *Tracker) CleanupOldData(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cleanupOldDataLocked(ctx)
}

func (t *Tracker) cleanupOldDataLocked(ctx context.Context) error {
	now := t.now()
	if now.Sub(t.historical.LastCleanup) < t.cfg.CleanupInterval {
		return nil
	}

	cutoff := WeekKey(now.AddDate(0, 0, -7*t.cfg.RetentionWeeks))
	removed := 0
	for week := range t.historical.WeeklyStats {
		// Week keys are fixed-format dates; lexicographic order is
		// chronological order.
		if week < cutoff {
			delete(t.historical.WeeklyStats, week)
			removed++
		}
	}

	t.historical.LastCleanup = now
	if removed > 0 {
		t.logger.Info("historical_cleanup",
			zap.Int("weeks_removed", removed),
			zap.String("cutoff_week", cutoff),
		)
	}
	return t.gateway.Set(ctx, store.KeyHistoricalData, t.historical)
}

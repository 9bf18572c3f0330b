// Package tracker implements the tab-activity aggregation engine: it
// decides which (domain, time-interval) pairs count as active browsing
// time, accumulates them into daily totals and archives finished days
// into weekly and all-time rollups.
package tracker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tabwatch/tabwatch/internal/forwarder"
	"github.com/tabwatch/tabwatch/internal/models"
	"github.com/tabwatch/tabwatch/internal/store"
)

// Tracker owns the single current session, the day's aggregate and the
// historical rollups. All state is guarded by one mutex so no two
// sessions can ever be concurrently current. In-memory state is the
// source of truth; the persistence gateway is a write-behind and
// read-at-startup path.
type Tracker struct {
	cfg     Config
	gateway store.Gateway
	fwd     forwarder.Forwarder
	logger  *zap.Logger
	now     func() time.Time

	mu         sync.Mutex
	settings   *models.Settings
	daily      *models.DailyStats
	historical *models.HistoricalData
	current    *models.Session
	lastTab    *models.Tab
	activity   map[int]*models.ActivityStatus
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock injects a time source. Tests use this to drive the idle
// policy deterministically.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// New creates a tracker. Call Init before handling events.
func New(cfg Config, gateway store.Gateway, fwd forwarder.Forwarder, logger *zap.Logger, opts ...Option) *Tracker {
	t := &Tracker{
		cfg:      cfg,
		gateway:  gateway,
		fwd:      fwd,
		logger:   logger,
		now:      time.Now,
		activity: make(map[int]*models.ActivityStatus),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Init loads persisted state: settings, historical rollups and the
// current day (archiving a stale one). Load failures are logged and
// replaced with fresh state, so the tracker always comes up serving.
func (t *Tracker) Init(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.loadSettingsLocked(ctx)
	t.loadOrInitHistoricalLocked(ctx)
	t.loadOrInitDailyLocked(ctx)

	if err := t.cleanupOldDataLocked(ctx); err != nil {
		t.logger.Warn("historical_cleanup_failed", zap.Error(err))
	}

	t.logger.Info("tracker_initialized",
		zap.Bool("tracking_enabled", t.settings.TrackingEnabled),
		zap.String("date", t.daily.Date),
		zap.Int("weekly_rollups", len(t.historical.WeeklyStats)),
	)
}

// loadSettingsLocked loads persisted settings, falling back to defaults.
func (t *Tracker) loadSettingsLocked(ctx context.Context) {
	var s models.Settings
	found, err := store.GetJSON(ctx, t.gateway, store.KeySettings, &s)
	if err != nil {
		t.logger.Warn("settings_load_failed", zap.Error(err))
	}
	if !found || err != nil {
		t.settings = models.DefaultSettings()
		if err := t.gateway.Set(ctx, store.KeySettings, t.settings); err != nil {
			t.logger.Warn("settings_save_failed", zap.Error(err))
		}
		return
	}
	t.settings = &s
}

// TrackingEnabled reports whether tracking is currently on.
func (t *Tracker) TrackingEnabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.settings.TrackingEnabled
}

// ToggleTracking flips the tracking switch and persists it. Turning
// tracking off ends the current session; turning it back on starts a
// fresh session for the last known active tab.
func (t *Tracker) ToggleTracking(ctx context.Context) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.settings.TrackingEnabled = !t.settings.TrackingEnabled
	enabled := t.settings.TrackingEnabled

	if err := t.gateway.Set(ctx, store.KeySettings, t.settings); err != nil {
		return enabled, err
	}

	if !enabled {
		t.endCurrentSessionLocked()
		t.saveDailyLocked(ctx)
	} else if t.lastTab != nil {
		t.startTrackingLocked(*t.lastTab)
	}

	t.logger.Info("tracking_toggled", zap.Bool("enabled", enabled))
	return enabled, nil
}

// CurrentSession returns a copy of the current session with its elapsed
// time brought up to date, or nil when no session is current.
func (t *Tracker) CurrentSession() *models.Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return nil
	}
	t.updateCurrentSessionLocked()
	return t.current.Clone()
}

// DailyStats returns a copy of the day's aggregate.
func (t *Tracker) DailyStats() *models.DailyStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.daily == nil {
		return nil
	}
	return cloneDaily(t.daily)
}

// HistoricalData returns a copy of the durable rollup record.
func (t *Tracker) HistoricalData() *models.HistoricalData {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.historical == nil {
		return nil
	}
	return cloneHistorical(t.historical)
}

// WeeklyStats returns the rollup for the week weeksBack weeks before the
// current one (0 = this week), or nil when no data exists for it.
func (t *Tracker) WeeklyStats(weeksBack int) *models.WeeklyStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := WeekKey(t.now().AddDate(0, 0, -7*weeksBack))
	ws, ok := t.historical.WeeklyStats[key]
	if !ok {
		return nil
	}
	return cloneWeekly(ws)
}

// RecentWeeks returns up to count weekly rollups ending with the current
// week, oldest first, skipping weeks with no data.
func (t *Tracker) RecentWeeks(count int) []*models.WeeklyStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	out := make([]*models.WeeklyStats, 0, count)
	for i := count - 1; i >= 0; i-- {
		key := WeekKey(now.AddDate(0, 0, -7*i))
		if ws, ok := t.historical.WeeklyStats[key]; ok {
			out = append(out, cloneWeekly(ws))
		}
	}
	return out
}

// SyncStatus returns the forwarder's display-only state.
func (t *Tracker) SyncStatus() models.SyncStatus {
	return t.fwd.Status()
}

// ForceSync flushes the forwarder's pending buffer immediately.
func (t *Tracker) ForceSync(ctx context.Context) error {
	return t.fwd.ForceSync(ctx)
}

// Export returns the full persisted snapshot plus the current session.
func (t *Tracker) Export() *models.ExportSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	snap := &models.ExportSnapshot{
		ExportedAt:     t.now(),
		Settings:       &models.Settings{TrackingEnabled: t.settings.TrackingEnabled},
		DailyStats:     cloneDaily(t.daily),
		HistoricalData: cloneHistorical(t.historical),
	}
	if t.current != nil {
		t.updateCurrentSessionLocked()
		snap.CurrentSession = t.current.Clone()
	}
	return snap
}

// ClearData discards all tracked statistics. Settings survive; the day
// restarts empty and the historical record is reinitialized.
func (t *Tracker) ClearData(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.current = nil
	t.daily = models.NewDailyStats(models.DateKey(t.now()))
	t.historical = models.NewHistoricalData()

	if err := t.gateway.Remove(ctx, store.KeyDailyStats); err != nil {
		return err
	}
	if err := t.gateway.Remove(ctx, store.KeyHistoricalData); err != nil {
		return err
	}
	if err := t.gateway.Set(ctx, store.KeyDailyStats, t.daily); err != nil {
		return err
	}
	if err := t.gateway.Set(ctx, store.KeyHistoricalData, t.historical); err != nil {
		return err
	}

	t.logger.Info("tracking_data_cleared")
	return nil
}

// Shutdown performs the best-effort flush on suspend or process exit:
// end the current session and persist the day. Not guaranteed to
// complete; abrupt termination loses at most the last unflushed
// interval.
func (t *Tracker) Shutdown(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.endCurrentSessionLocked()
	t.saveDailyLocked(ctx)
	if err := t.gateway.Set(ctx, store.KeyHistoricalData, t.historical); err != nil {
		t.logger.Warn("historical_save_failed", zap.Error(err))
	}
	t.logger.Info("tracker_shutdown_complete")
}

func cloneDaily(d *models.DailyStats) *models.DailyStats {
	if d == nil {
		return nil
	}
	out := models.NewDailyStats(d.Date)
	out.TotalTime = d.TotalTime
	for k, v := range d.Domains {
		out.Domains[k] = v
	}
	out.Sessions = make([]*models.Session, len(d.Sessions))
	for i, s := range d.Sessions {
		out.Sessions[i] = s.Clone()
	}
	return out
}

func cloneWeekly(w *models.WeeklyStats) *models.WeeklyStats {
	out := models.NewWeeklyStats(w.WeekStart)
	out.TotalTime = w.TotalTime
	out.SessionCount = w.SessionCount
	for k, v := range w.DailyBreakdown {
		out.DailyBreakdown[k] = v
	}
	for k, v := range w.TopDomains {
		out.TopDomains[k] = v
	}
	return out
}

func cloneHistorical(h *models.HistoricalData) *models.HistoricalData {
	if h == nil {
		return nil
	}
	out := models.NewHistoricalData()
	out.SchemaVersion = h.SchemaVersion
	out.LastCleanup = h.LastCleanup
	out.AllTime = models.AllTimeTotals{
		TotalTime:         h.AllTime.TotalTime,
		SessionCount:      h.AllTime.SessionCount,
		FirstTrackingDate: h.AllTime.FirstTrackingDate,
		TopDomains:        make(map[string]int64, len(h.AllTime.TopDomains)),
	}
	for k, v := range h.AllTime.TopDomains {
		out.AllTime.TopDomains[k] = v
	}
	for k, w := range h.WeeklyStats {
		out.WeeklyStats[k] = cloneWeekly(w)
	}
	return out
}

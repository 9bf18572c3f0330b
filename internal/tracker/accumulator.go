package tracker

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tabwatch/tabwatch/internal/models"
)

// StartTracking makes tab the tracked tab. Preconditions: tracking
// enabled, non-zero tab id, trackable URL and an initialized day. A
// failed precondition is a deliberate decision not to track, logged at
// debug level and otherwise silent. Any current session is ended first,
// so no two sessions are ever concurrently current.
func (t *Tracker) StartTracking(ctx context.Context, tab models.Tab) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.startTrackingLocked(tab)
}

func (t *Tracker) startTrackingLocked(tab models.Tab) {
	if tab.ID == 0 || !IsTrackableURL(tab.URL) {
		t.logger.Debug("tracking_skipped",
			zap.Int("tab_id", tab.ID),
			zap.String("url", tab.URL),
			zap.String("reason", "missing id or untrackable url"),
		)
		return
	}

	// Remember the candidate even when tracking is off so toggling back
	// on can resume with the active tab.
	tabCopy := tab
	t.lastTab = &tabCopy

	if !t.settings.TrackingEnabled {
		t.logger.Debug("tracking_skipped", zap.String("reason", "tracking disabled"))
		return
	}
	if t.daily == nil {
		t.logger.Debug("tracking_skipped", zap.String("reason", "daily stats not initialized"))
		return
	}

	t.endCurrentSessionLocked()

	t.current = models.NewSession(tab, ExtractDomain(tab.URL), t.now())
	t.logger.Debug("session_started",
		zap.Int("tab_id", tab.ID),
		zap.String("domain", t.current.Domain),
	)
}

// EndCurrentSession finalizes the current session, folding its time into
// the day and forwarding a copy for sync. No-op when nothing is current.
func (t *Tracker) EndCurrentSession(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.endCurrentSessionLocked()
	t.saveDailyLocked(ctx)
}

func (t *Tracker) endCurrentSessionLocked() {
	if t.current == nil {
		return
	}

	// Final tick so the closing interval is accounted.
	t.updateCurrentSessionLocked()

	ended := t.current.Clone()
	ended.IsActive = false
	t.current = nil

	t.daily.AddSession(ended)
	t.fwd.Enqueue(ended.Clone())

	t.logger.Debug("session_ended",
		zap.String("domain", ended.Domain),
		zap.Int64("total_time_ms", ended.TotalTime),
		zap.Int64("day_total_ms", t.daily.TotalTime),
	)
}

// UpdateCurrentSession applies one accounting tick to the current
// session. Called periodically and on every activity signal.
func (t *Tracker) UpdateCurrentSession() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.updateCurrentSessionLocked()
}

// updateCurrentSessionLocked adds the elapsed wall-clock delta to the
// session iff the tab was active for it. The activity status entry for
// the tracked tab takes precedence; without one, any gap reaching the
// idle threshold counts as inactive. lastActive always advances, so an
// idle gap is never retroactively counted once activity resumes and a
// single accounting gap is bounded by the calling interval.
func (t *Tracker) updateCurrentSessionLocked() {
	if t.current == nil {
		return
	}

	now := t.now()
	elapsed := now.Sub(t.current.LastActive)
	if elapsed < 0 {
		elapsed = 0
	}

	wasActive := elapsed < t.cfg.IdleThreshold
	if st, ok := t.activity[t.current.TabID]; ok {
		wasActive = st.IsActive && st.IsVisible
	}

	if wasActive {
		t.current.TotalTime += elapsed.Milliseconds()
	}
	t.current.LastActive = now
}

// HandleActivitySignal applies a content-script liveness report for a
// tab. Unknown signal kinds are rejected with no state change. A signal
// for the tracked tab triggers an immediate accounting tick so callers
// see fresh elapsed time without waiting for the next periodic tick.
func (t *Tracker) HandleActivitySignal(tabID int, sig models.ActivitySignal) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.activity[tabID]
	if !ok {
		// A tab is presumed visible until its content script says
		// otherwise; a fresh entry must not mark the tab hidden.
		st = &models.ActivityStatus{TabID: tabID, IsVisible: true}
	}

	now := t.now()
	switch sig.Kind {
	case models.SignalActivity:
		active := true
		if sig.IsActive != nil {
			active = *sig.IsActive
		}
		st.IsActive = active
		st.LastActivity = now
	case models.SignalIdle:
		st.IsActive = false
	case models.SignalVisibility:
		visible := true
		if sig.IsVisible != nil {
			visible = *sig.IsVisible
		}
		st.IsVisible = visible
		if !visible {
			st.IsActive = false
		}
	default:
		return fmt.Errorf("unknown activity signal kind: %q", sig.Kind)
	}
	t.activity[tabID] = st

	if t.current != nil && t.current.TabID == tabID {
		t.updateCurrentSessionLocked()
	}
	return nil
}

// HandleTabActivated is the tab-switch event: the activated tab becomes
// the tracked tab.
func (t *Tracker) HandleTabActivated(ctx context.Context, tab models.Tab) {
	t.StartTracking(ctx, tab)
}

// HandleTabUpdated handles navigation inside a tab. Only the active tab
// matters; a URL change there rolls the session over to the new page.
func (t *Tracker) HandleTabUpdated(ctx context.Context, tab models.Tab, active bool) {
	if !active {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current != nil && t.current.TabID == tab.ID && t.current.URL == tab.URL {
		return
	}
	t.startTrackingLocked(tab)
}

// HandleTabRemoved ends the session if the closed tab was tracked and
// drops the tab's activity status.
func (t *Tracker) HandleTabRemoved(ctx context.Context, tabID int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.activity, tabID)
	if t.current != nil && t.current.TabID == tabID {
		t.endCurrentSessionLocked()
		t.saveDailyLocked(ctx)
	}
}

// HandleWindowFocusChanged ends the session on window blur and resumes
// tracking of the last known tab when focus returns.
func (t *Tracker) HandleWindowFocusChanged(ctx context.Context, focused bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !focused {
		t.endCurrentSessionLocked()
		t.saveDailyLocked(ctx)
		return
	}
	if t.current == nil && t.lastTab != nil {
		t.startTrackingLocked(*t.lastTab)
	}
}

// HandleSuspend is the host's process-suspend notification: a
// best-effort synchronous flush.
func (t *Tracker) HandleSuspend(ctx context.Context) {
	t.Shutdown(ctx)
}

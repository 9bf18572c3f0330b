package tracker

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/tabwatch/tabwatch/internal/models"
	"github.com/tabwatch/tabwatch/internal/store"
)

func TestWeekKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		date time.Time
		want string
	}{
		{"monday maps to itself", time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC), "2024-01-15"},
		{"tuesday maps back to monday", time.Date(2024, 1, 16, 23, 59, 0, 0, time.UTC), "2024-01-15"},
		{"sunday maps six days back", time.Date(2024, 1, 21, 0, 0, 0, 0, time.UTC), "2024-01-15"},
		{"saturday maps five days back", time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC), "2024-01-15"},
		{"across month boundary", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), "2024-01-29"},
		{"across year boundary", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "2024-01-01"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := WeekKey(tt.date); got != tt.want {
				t.Errorf("WeekKey(%s) = %q, want %q", tt.date.Format(models.DateKeyLayout), got, tt.want)
			}
		})
	}
}

func TestScenarioC_DayRolloverOnStartup(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	gateway := store.NewMemoryGateway()

	// A finished Monday persisted by a previous run.
	yesterday := models.NewDailyStats("2024-01-15")
	s := models.NewSession(webTab(1, "a.com"), "a.com", testStart)
	s.TotalTime = 3600000
	yesterday.AddSession(s)
	if err := gateway.Set(ctx, store.KeyDailyStats, yesterday); err != nil {
		t.Fatalf("seed daily stats: %v", err)
	}

	// First startup on Tuesday.
	clock := newFakeClock(time.Date(2024, 1, 16, 8, 0, 0, 0, time.UTC))
	fwd := &captureForwarder{}
	tr := New(DefaultConfig(), gateway, fwd, zap.NewNop(), WithClock(clock.Now))
	tr.Init(ctx)

	day := tr.DailyStats()
	if day.Date != "2024-01-16" {
		t.Errorf("Date = %q, want 2024-01-16", day.Date)
	}
	if day.TotalTime != 0 {
		t.Errorf("fresh day TotalTime = %d, want 0", day.TotalTime)
	}

	hist := tr.HistoricalData()
	ws, ok := hist.WeeklyStats["2024-01-15"]
	if !ok {
		t.Fatal("finished day not folded into its week")
	}
	if ws.TotalTime != 3600000 {
		t.Errorf("week TotalTime = %d, want 3600000", ws.TotalTime)
	}
	if ws.DailyBreakdown["2024-01-15"] != 3600000 {
		t.Errorf("DailyBreakdown[2024-01-15] = %d, want 3600000", ws.DailyBreakdown["2024-01-15"])
	}
	if hist.AllTime.TotalTime != 3600000 {
		t.Errorf("AllTime.TotalTime = %d, want 3600000", hist.AllTime.TotalTime)
	}
	if hist.AllTime.FirstTrackingDate != "2024-01-15" {
		t.Errorf("FirstTrackingDate = %q, want 2024-01-15", hist.AllTime.FirstTrackingDate)
	}

	// The finished day's aggregate went to the sync pipeline.
	fwd.mu.Lock()
	defer fwd.mu.Unlock()
	if len(fwd.days) != 1 || fwd.days[0].Date != "2024-01-15" {
		t.Errorf("forwarded summaries = %+v, want one for 2024-01-15", fwd.days)
	}
}

func TestSaveDailyStats_RollsOverAtMidnight(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	env.tracker.StartTracking(ctx, webTab(1, "a.com"))
	env.clock.Advance(10 * time.Second)
	env.tracker.UpdateCurrentSession()

	// Cross midnight between periodic saves.
	env.clock.SetDate(2024, time.January, 16)
	if err := env.tracker.SaveDailyStats(ctx); err != nil {
		t.Fatalf("SaveDailyStats: %v", err)
	}

	if env.tracker.CurrentSession() != nil {
		t.Error("rollover should end the running session")
	}
	if got := env.tracker.DailyStats().Date; got != "2024-01-16" {
		t.Errorf("Date = %q, want 2024-01-16", got)
	}
	hist := env.tracker.HistoricalData()
	if _, ok := hist.WeeklyStats["2024-01-15"]; !ok {
		t.Error("previous day not archived on rollover")
	}
}

func TestArchiveDay_EmptyDayIsNoOp(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	env.tracker.mu.Lock()
	env.tracker.archiveDayLocked(models.NewDailyStats("2024-01-14"))
	env.tracker.mu.Unlock()

	hist := env.tracker.HistoricalData()
	if len(hist.WeeklyStats) != 0 {
		t.Errorf("empty day created a weekly rollup: %+v", hist.WeeklyStats)
	}
	if hist.AllTime.TotalTime != 0 || hist.AllTime.FirstTrackingDate != "" {
		t.Errorf("empty day touched all-time totals: %+v", hist.AllTime)
	}
}

func TestArchiveDay_ArchivesAtMostOnce(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	day := models.NewDailyStats("2024-01-15")
	s := models.NewSession(webTab(1, "a.com"), "a.com", testStart)
	s.TotalTime = 1000
	day.AddSession(s)

	env.tracker.mu.Lock()
	env.tracker.archiveDayLocked(day)
	env.tracker.archiveDayLocked(day)
	env.tracker.mu.Unlock()

	hist := env.tracker.HistoricalData()
	ws := hist.WeeklyStats["2024-01-15"]
	if ws == nil {
		t.Fatal("day not archived")
	}
	if ws.TotalTime != 1000 {
		t.Errorf("week TotalTime = %d, want 1000 (no double count)", ws.TotalTime)
	}
	if hist.AllTime.TotalTime != 1000 {
		t.Errorf("AllTime.TotalTime = %d, want 1000 (no double count)", hist.AllTime.TotalTime)
	}
	if ws.SessionCount != 1 {
		t.Errorf("week SessionCount = %d, want 1", ws.SessionCount)
	}
}

func TestArchiveDay_BadDateKeySkipped(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	day := models.NewDailyStats("not-a-date")
	day.TotalTime = 500

	env.tracker.mu.Lock()
	env.tracker.archiveDayLocked(day)
	env.tracker.mu.Unlock()

	if hist := env.tracker.HistoricalData(); len(hist.WeeklyStats) != 0 {
		t.Errorf("malformed date produced a rollup: %+v", hist.WeeklyStats)
	}
}

func TestCleanupOldData_PrunesBeyondRetention(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	archive := func(date string, ms int64) {
		day := models.NewDailyStats(date)
		s := models.NewSession(webTab(1, "a.com"), "a.com", testStart)
		s.TotalTime = ms
		day.AddSession(s)
		env.tracker.mu.Lock()
		env.tracker.archiveDayLocked(day)
		env.tracker.mu.Unlock()
	}

	archive("2023-06-05", 1000) // far outside the window
	archive("2023-10-29", 1000) // sunday of week 2023-10-23, just outside
	archive("2023-10-30", 1000) // cutoff week itself, retained
	archive("2024-01-08", 1000) // recent

	// Startup already ran a pass; move past the gate interval. With the
	// clock at 2024-01-22 and 12 retained weeks the cutoff week is
	// 2023-10-30.
	env.clock.Advance(7 * 24 * time.Hour)
	if err := env.tracker.CleanupOldData(ctx); err != nil {
		t.Fatalf("CleanupOldData: %v", err)
	}

	hist := env.tracker.HistoricalData()
	for _, week := range []string{"2023-06-05", "2023-10-23"} {
		if _, ok := hist.WeeklyStats[week]; ok {
			t.Errorf("week %s should have been pruned", week)
		}
	}
	for _, week := range []string{"2023-10-30", "2024-01-08"} {
		if _, ok := hist.WeeklyStats[week]; !ok {
			t.Errorf("week %s should have been retained", week)
		}
	}

	// All-time totals are never pruned.
	if hist.AllTime.TotalTime != 4000 {
		t.Errorf("AllTime.TotalTime = %d, want 4000", hist.AllTime.TotalTime)
	}
	if hist.LastCleanup.IsZero() {
		t.Error("LastCleanup not advanced")
	}
}

func TestCleanupOldData_GatedByInterval(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	if err := env.tracker.CleanupOldData(ctx); err != nil {
		t.Fatalf("CleanupOldData: %v", err)
	}
	first := env.tracker.HistoricalData().LastCleanup

	// A week appearing after the first run, old enough to prune.
	day := models.NewDailyStats("2023-06-05")
	s := models.NewSession(webTab(1, "a.com"), "a.com", testStart)
	s.TotalTime = 1000
	day.AddSession(s)
	env.tracker.mu.Lock()
	env.tracker.archiveDayLocked(day)
	env.tracker.mu.Unlock()

	// Within the gate interval nothing runs.
	env.clock.Advance(time.Hour)
	if err := env.tracker.CleanupOldData(ctx); err != nil {
		t.Fatalf("CleanupOldData: %v", err)
	}
	hist := env.tracker.HistoricalData()
	if !hist.LastCleanup.Equal(first) {
		t.Error("gated run should not touch LastCleanup")
	}
	if _, ok := hist.WeeklyStats["2023-06-05"]; !ok {
		t.Error("gated run should not prune")
	}

	// Past the interval the pass runs again.
	env.clock.Advance(8 * 24 * time.Hour)
	if err := env.tracker.CleanupOldData(ctx); err != nil {
		t.Fatalf("CleanupOldData: %v", err)
	}
	hist = env.tracker.HistoricalData()
	if _, ok := hist.WeeklyStats["2023-06-05"]; ok {
		t.Error("stale week survived the second pass")
	}
	if !hist.LastCleanup.After(first) {
		t.Error("second pass should advance LastCleanup")
	}
}

func TestInit_SchemaMismatchReinitializes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	gateway := store.NewMemoryGateway()

	// A record written by an incompatible build.
	stale := models.NewHistoricalData()
	stale.SchemaVersion = models.HistoricalSchemaVersion + 1
	stale.WeeklyStats["2024-01-01"] = models.NewWeeklyStats("2024-01-01")
	stale.WeeklyStats["2024-01-01"].TotalTime = 12345
	if err := gateway.Set(ctx, store.KeyHistoricalData, stale); err != nil {
		t.Fatalf("seed historical data: %v", err)
	}

	clock := newFakeClock(testStart)
	tr := New(DefaultConfig(), gateway, &captureForwarder{}, zap.NewNop(), WithClock(clock.Now))
	tr.Init(ctx)

	hist := tr.HistoricalData()
	if hist.SchemaVersion != models.HistoricalSchemaVersion {
		t.Errorf("SchemaVersion = %d, want %d", hist.SchemaVersion, models.HistoricalSchemaVersion)
	}
	if len(hist.WeeklyStats) != 0 {
		t.Errorf("incompatible rollups should be discarded, got %+v", hist.WeeklyStats)
	}
}

func TestInit_AdoptsCompatibleHistoricalData(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	gateway := store.NewMemoryGateway()

	kept := models.NewHistoricalData()
	kept.WeeklyStats["2024-01-08"] = models.NewWeeklyStats("2024-01-08")
	kept.WeeklyStats["2024-01-08"].TotalTime = 777
	kept.AllTime.TotalTime = 777
	if err := gateway.Set(ctx, store.KeyHistoricalData, kept); err != nil {
		t.Fatalf("seed historical data: %v", err)
	}

	clock := newFakeClock(testStart)
	tr := New(DefaultConfig(), gateway, &captureForwarder{}, zap.NewNop(), WithClock(clock.Now))
	tr.Init(ctx)

	hist := tr.HistoricalData()
	if got := hist.WeeklyStats["2024-01-08"]; got == nil || got.TotalTime != 777 {
		t.Errorf("persisted rollup not adopted: %+v", got)
	}
	if hist.AllTime.TotalTime != 777 {
		t.Errorf("AllTime.TotalTime = %d, want 777", hist.AllTime.TotalTime)
	}
}

package models

// Action names one message kind of the extension <-> service contract.
// The set is closed: dispatch is exhaustive and anything outside it is
// answered with a failure response, never a crash.
type Action string

const (
	ActionGetDailyStats     Action = "GET_DAILY_STATS"
	ActionGetCurrentSession Action = "GET_CURRENT_SESSION"
	ActionGetTrackingStatus Action = "GET_TRACKING_STATUS"
	ActionToggleTracking    Action = "TOGGLE_TRACKING"
	ActionClearData         Action = "CLEAR_DATA"
	ActionExportData        Action = "EXPORT_DATA"
	ActionGetHistoricalData Action = "GET_HISTORICAL_DATA"
	ActionGetWeeklyStats    Action = "GET_WEEKLY_STATS"
	ActionGetRecentWeeks    Action = "GET_RECENT_WEEKS"
	ActionActivityUpdate    Action = "CONTENT_ACTIVITY_UPDATE"
	ActionGetSyncStatus     Action = "GET_SYNC_STATUS"
	ActionForceSync         Action = "FORCE_SYNC"
	ActionTabActivated      Action = "TAB_ACTIVATED"
	ActionTabUpdated        Action = "TAB_UPDATED"
	ActionTabRemoved        Action = "TAB_REMOVED"
	ActionWindowFocusChange Action = "WINDOW_FOCUS_CHANGED"
	ActionSuspend           Action = "SUSPEND"

	// Carried by the extension's message bus but handled elsewhere; the
	// service acknowledges them as unsupported instead of failing with
	// an unknown-action error.
	ActionAuthenticateGoogle Action = "AUTHENTICATE_GOOGLE"
	ActionSignOut            Action = "SIGN_OUT"
)

var knownActions = map[Action]struct{}{
	ActionGetDailyStats:     {},
	ActionGetCurrentSession: {},
	ActionGetTrackingStatus: {},
	ActionToggleTracking:    {},
	ActionClearData:         {},
	ActionExportData:        {},
	ActionGetHistoricalData: {},
	ActionGetWeeklyStats:    {},
	ActionGetRecentWeeks:    {},
	ActionActivityUpdate:    {},
	ActionGetSyncStatus:     {},
	ActionForceSync:         {},
	ActionTabActivated:      {},
	ActionTabUpdated:        {},
	ActionTabRemoved:        {},
	ActionWindowFocusChange: {},
	ActionSuspend:           {},

	ActionAuthenticateGoogle: {},
	ActionSignOut:            {},
}

// Known reports whether a belongs to the message contract.
func (a Action) Known() bool {
	_, ok := knownActions[a]
	return ok
}

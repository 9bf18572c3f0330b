package models

import "time"

// SignalKind is the kind of content-script activity signal.
type SignalKind string

const (
	SignalActivity   SignalKind = "activity"
	SignalIdle       SignalKind = "idle"
	SignalVisibility SignalKind = "visibility"
)

// ActivitySignal is a coarse-grained liveness report from the content
// script running inside a tab.
type ActivitySignal struct {
	Kind      SignalKind `json:"type" validate:"required,signal_kind"`
	Timestamp time.Time  `json:"timestamp"`
	// IsActive carries the activity payload for "activity" signals.
	// Defaults to true when omitted.
	IsActive *bool `json:"is_active,omitempty"`
	// IsVisible carries the visibility payload for "visibility" signals.
	IsVisible *bool `json:"is_visible,omitempty"`
}

// ActivityStatus is the transient per-tab liveness record. Only the entry
// for the currently tracked tab influences time accounting; entries for
// background tabs are retained but inert. Removed when the tab closes.
type ActivityStatus struct {
	TabID        int       `json:"tab_id"`
	IsActive     bool      `json:"is_active"`
	IsVisible    bool      `json:"is_visible"`
	LastActivity time.Time `json:"last_activity"`
}

package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/tabwatch/tabwatch/internal/models"
	"github.com/tabwatch/tabwatch/internal/tracker"
	"github.com/tabwatch/tabwatch/internal/validation"
)

// MessageHandler is the extension-facing message endpoint: one envelope
// route carrying the closed action set.
type MessageHandler struct {
	tracker *tracker.Tracker
	logger  *zap.Logger
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(t *tracker.Tracker, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{tracker: t, logger: logger}
}

// RegisterRoutes registers the message route on the given router
func (h *MessageHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/message", h.HandleMessage).Methods("POST")
}

// Envelope is the wire form of every message
type Envelope struct {
	Action  models.Action   `json:"action" validate:"required,message_action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

const (
	// DefaultRecentWeeksCount is how many weeks GET_RECENT_WEEKS returns
	// when the payload does not say
	DefaultRecentWeeksCount = 4
	// MaxRecentWeeksCount caps a GET_RECENT_WEEKS request
	MaxRecentWeeksCount = 52
)

type weeklyStatsPayload struct {
	WeeksBack int `json:"weeks_back" validate:"gte=0,lte=520"`
}

type recentWeeksPayload struct {
	Count int `json:"count" validate:"gte=0,lte=52"`
}

type activityUpdatePayload struct {
	TabID  int                   `json:"tab_id" validate:"required"`
	Signal models.ActivitySignal `json:"signal"`
}

type tabActivatedPayload struct {
	Tab models.Tab `json:"tab"`
}

type tabUpdatedPayload struct {
	Tab    models.Tab `json:"tab"`
	Active bool       `json:"active"`
}

type tabRemovedPayload struct {
	TabID int `json:"tab_id" validate:"required"`
}

type focusChangedPayload struct {
	Focused bool `json:"focused"`
}

// toggleResponse answers TOGGLE_TRACKING and GET_TRACKING_STATUS
type toggleResponse struct {
	TrackingEnabled bool `json:"tracking_enabled"`
}

// HandleMessage decodes the envelope and dispatches on the action.
// Unknown actions get a failure response; a malformed payload for a
// known action is a bad request.
func (h *MessageHandler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	var env Envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON in request body")
		return
	}
	if err := validation.Validate.Struct(&env); err != nil {
		h.logger.Debug("message_rejected",
			zap.String("action", string(env.Action)),
			zap.Error(err),
		)
		respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("unknown action: %s", env.Action))
		return
	}

	ctx := r.Context()

	switch env.Action {
	case models.ActionGetDailyStats:
		respondJSON(w, http.StatusOK, h.tracker.DailyStats())

	case models.ActionGetCurrentSession:
		respondJSON(w, http.StatusOK, h.tracker.CurrentSession())

	case models.ActionGetTrackingStatus:
		respondJSON(w, http.StatusOK, toggleResponse{TrackingEnabled: h.tracker.TrackingEnabled()})

	case models.ActionToggleTracking:
		enabled, err := h.tracker.ToggleTracking(ctx)
		if err != nil {
			respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to persist settings")
			return
		}
		respondJSON(w, http.StatusOK, toggleResponse{TrackingEnabled: enabled})

	case models.ActionClearData:
		if err := h.tracker.ClearData(ctx); err != nil {
			respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to clear data")
			return
		}
		respondJSON(w, http.StatusOK, map[string]bool{"cleared": true})

	case models.ActionExportData:
		respondJSON(w, http.StatusOK, h.tracker.Export())

	case models.ActionGetHistoricalData:
		respondJSON(w, http.StatusOK, h.tracker.HistoricalData())

	case models.ActionGetWeeklyStats:
		var p weeklyStatsPayload
		if !h.decodePayload(w, env, &p) {
			return
		}
		respondJSON(w, http.StatusOK, h.tracker.WeeklyStats(p.WeeksBack))

	case models.ActionGetRecentWeeks:
		var p recentWeeksPayload
		if !h.decodePayload(w, env, &p) {
			return
		}
		count := p.Count
		if count == 0 {
			count = DefaultRecentWeeksCount
		}
		if count > MaxRecentWeeksCount {
			count = MaxRecentWeeksCount
		}
		respondJSON(w, http.StatusOK, h.tracker.RecentWeeks(count))

	case models.ActionActivityUpdate:
		var p activityUpdatePayload
		if !h.decodePayload(w, env, &p) {
			return
		}
		if err := h.tracker.HandleActivitySignal(p.TabID, p.Signal); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		respondJSON(w, http.StatusOK, nil)

	case models.ActionGetSyncStatus:
		respondJSON(w, http.StatusOK, h.tracker.SyncStatus())

	case models.ActionForceSync:
		if err := h.tracker.ForceSync(ctx); err != nil {
			respondJSONError(w, http.StatusBadGateway, "Sync Failed", "Sync backend unreachable")
			return
		}
		respondJSON(w, http.StatusOK, h.tracker.SyncStatus())

	case models.ActionTabActivated:
		var p tabActivatedPayload
		if !h.decodePayload(w, env, &p) {
			return
		}
		p.Tab.Title = validation.SanitizeTitle(p.Tab.Title)
		h.tracker.HandleTabActivated(ctx, p.Tab)
		respondJSON(w, http.StatusOK, nil)

	case models.ActionTabUpdated:
		var p tabUpdatedPayload
		if !h.decodePayload(w, env, &p) {
			return
		}
		p.Tab.Title = validation.SanitizeTitle(p.Tab.Title)
		h.tracker.HandleTabUpdated(ctx, p.Tab, p.Active)
		respondJSON(w, http.StatusOK, nil)

	case models.ActionTabRemoved:
		var p tabRemovedPayload
		if !h.decodePayload(w, env, &p) {
			return
		}
		h.tracker.HandleTabRemoved(ctx, p.TabID)
		respondJSON(w, http.StatusOK, nil)

	case models.ActionWindowFocusChange:
		var p focusChangedPayload
		if !h.decodePayload(w, env, &p) {
			return
		}
		h.tracker.HandleWindowFocusChanged(ctx, p.Focused)
		respondJSON(w, http.StatusOK, nil)

	case models.ActionSuspend:
		h.tracker.HandleSuspend(ctx)
		respondJSON(w, http.StatusOK, nil)

	case models.ActionAuthenticateGoogle, models.ActionSignOut:
		respondJSONError(w, http.StatusNotImplemented, "Not Supported", fmt.Sprintf("action %s is not supported by this service", env.Action))

	default:
		// Unreachable while the validator and this switch agree on the
		// action set; kept so a new constant cannot fall through silently.
		respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("unknown action: %s", env.Action))
	}
}

// decodePayload unmarshals and validates the payload for actions that
// carry one. An absent payload decodes to the zero value so actions
// with all-optional fields work without it.
func (h *MessageHandler) decodePayload(w http.ResponseWriter, env Envelope, out any) bool {
	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, out); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid payload")
			return false
		}
	}
	if err := validation.Validate.Struct(out); err != nil {
		h.logger.Debug("payload_rejected",
			zap.String("action", string(env.Action)),
			zap.Error(err),
		)
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid payload")
		return false
	}
	return true
}

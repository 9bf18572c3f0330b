package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/tabwatch/tabwatch/internal/forwarder"
	"github.com/tabwatch/tabwatch/internal/models"
	"github.com/tabwatch/tabwatch/internal/store"
	"github.com/tabwatch/tabwatch/internal/tracker"
)

func newTestRouter(t *testing.T) (*mux.Router, *tracker.Tracker) {
	t.Helper()
	tr := tracker.New(tracker.DefaultConfig(), store.NewMemoryGateway(), forwarder.Noop{}, zap.NewNop())
	tr.Init(context.Background())

	r := mux.NewRouter()
	NewMessageHandler(tr, zap.NewNop()).RegisterRoutes(r)
	return r, tr
}

func postMessage(t *testing.T, r *mux.Router, action string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	env := map[string]any{"action": action}
	if payload != nil {
		env["payload"] = payload
	}
	body, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/message", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestHandleMessage_UnknownAction(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t)
	rec := postMessage(t, r, "OPEN_POD_BAY_DOORS", nil)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	resp := decodeResponse(t, rec)
	if resp["success"] != false {
		t.Errorf("success = %v, want false", resp["success"])
	}
}

func TestHandleMessage_InvalidJSON(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/message", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleMessage_TrackingLifecycle(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t)

	rec := postMessage(t, r, "GET_TRACKING_STATUS", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	data := decodeResponse(t, rec)["data"].(map[string]any)
	if data["tracking_enabled"] != true {
		t.Error("tracking should default to enabled")
	}

	rec = postMessage(t, r, "TOGGLE_TRACKING", nil)
	data = decodeResponse(t, rec)["data"].(map[string]any)
	if data["tracking_enabled"] != false {
		t.Error("toggle should disable tracking")
	}
}

func TestHandleMessage_TabEventsDriveDailyStats(t *testing.T) {
	t.Parallel()

	r, tr := newTestRouter(t)

	rec := postMessage(t, r, "TAB_ACTIVATED", map[string]any{
		"tab": map[string]any{"id": 1, "url": "https://example.com/page", "title": "Example\x00"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("TAB_ACTIVATED status = %d, body %s", rec.Code, rec.Body.String())
	}

	cur := tr.CurrentSession()
	if cur == nil || cur.Domain != "example.com" {
		t.Fatalf("current session = %+v, want example.com", cur)
	}
	if cur.Title != "Example" {
		t.Errorf("Title = %q, want control characters stripped", cur.Title)
	}

	rec = postMessage(t, r, "TAB_REMOVED", map[string]any{"tab_id": 1})
	if rec.Code != http.StatusOK {
		t.Fatalf("TAB_REMOVED status = %d", rec.Code)
	}
	if tr.CurrentSession() != nil {
		t.Error("session should end when its tab closes")
	}

	rec = postMessage(t, r, "GET_DAILY_STATS", nil)
	data := decodeResponse(t, rec)["data"].(map[string]any)
	if data["sessions"] == nil {
		t.Errorf("daily stats missing session log: %v", data)
	}
}

func TestHandleMessage_ActivityUpdate(t *testing.T) {
	t.Parallel()

	r, tr := newTestRouter(t)
	tr.StartTracking(context.Background(), models.Tab{ID: 1, URL: "https://a.com/"})

	rec := postMessage(t, r, "CONTENT_ACTIVITY_UPDATE", map[string]any{
		"tab_id": 1,
		"signal": map[string]any{"type": "activity"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	// Unknown signal kinds are rejected by payload validation.
	rec = postMessage(t, r, "CONTENT_ACTIVITY_UPDATE", map[string]any{
		"tab_id": 1,
		"signal": map[string]any{"type": "heartbeat"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	// Missing tab id is rejected.
	rec = postMessage(t, r, "CONTENT_ACTIVITY_UPDATE", map[string]any{
		"signal": map[string]any{"type": "idle"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleMessage_WeeklyQueries(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t)

	rec := postMessage(t, r, "GET_WEEKLY_STATS", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET_WEEKLY_STATS status = %d", rec.Code)
	}
	// No archived weeks yet: data is null, not an error.
	if data := decodeResponse(t, rec)["data"]; data != nil {
		t.Errorf("data = %v, want null", data)
	}

	rec = postMessage(t, r, "GET_RECENT_WEEKS", map[string]any{"count": 2})
	if rec.Code != http.StatusOK {
		t.Fatalf("GET_RECENT_WEEKS status = %d", rec.Code)
	}

	rec = postMessage(t, r, "GET_WEEKLY_STATS", map[string]any{"weeks_back": -1})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative weeks_back should be rejected, got %d", rec.Code)
	}
}

func TestHandleMessage_ExportAndClear(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t)

	rec := postMessage(t, r, "EXPORT_DATA", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("EXPORT_DATA status = %d", rec.Code)
	}
	data := decodeResponse(t, rec)["data"].(map[string]any)
	for _, key := range []string{"settings", "daily_stats", "historical_data", "exported_at"} {
		if _, ok := data[key]; !ok {
			t.Errorf("export snapshot missing %q", key)
		}
	}

	rec = postMessage(t, r, "CLEAR_DATA", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("CLEAR_DATA status = %d", rec.Code)
	}
}

func TestHandleMessage_AuthActionsUnsupported(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t)

	for _, action := range []string{"AUTHENTICATE_GOOGLE", "SIGN_OUT"} {
		rec := postMessage(t, r, action, nil)
		if rec.Code != http.StatusNotImplemented {
			t.Errorf("%s status = %d, want %d", action, rec.Code, http.StatusNotImplemented)
		}
		if resp := decodeResponse(t, rec); resp["success"] != false {
			t.Errorf("%s success = %v, want false", action, resp["success"])
		}
	}
}

func TestHandleMessage_SyncStatus(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t)

	rec := postMessage(t, r, "GET_SYNC_STATUS", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET_SYNC_STATUS status = %d", rec.Code)
	}
	rec = postMessage(t, r, "FORCE_SYNC", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("FORCE_SYNC status = %d", rec.Code)
	}
}

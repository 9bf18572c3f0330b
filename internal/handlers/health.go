package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/tabwatch/tabwatch/internal/queue"
	"github.com/tabwatch/tabwatch/internal/store"
)

// HealthChecker handles health check requests
type HealthChecker struct {
	gateway store.Gateway
	queue   queue.JobQueue
}

// NewHealthChecker creates a new health checker. The queue may be nil
// when the service runs without a sync backend.
func NewHealthChecker(gateway store.Gateway, q queue.JobQueue) *HealthChecker {
	return &HealthChecker{gateway: gateway, queue: q}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthCheck handles the /healthz endpoint
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("mode")

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	if mode == "extended" {
		checks := make(map[string]string)

		if err := h.checkStore(r.Context()); err != nil {
			response.Status = "unhealthy"
			checks["store"] = "unhealthy: " + err.Error()
		} else {
			checks["store"] = "healthy"
		}

		if h.queue != nil {
			if err := h.queue.HealthCheck(r.Context()); err != nil {
				response.Status = "unhealthy"
				checks["queue"] = "unhealthy: " + err.Error()
			} else {
				checks["queue"] = "healthy"
			}
		}

		response.Checks = checks

		statusCode := http.StatusOK
		if response.Status == "unhealthy" {
			statusCode = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		json.NewEncoder(w).Encode(response)
		return
	}

	// Basic mode - just return that the server is running
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// checkStore verifies the persistence gateway with a cheap read
func (h *HealthChecker) checkStore(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, _, err := h.gateway.Get(ctx, store.KeySettings)
	return err
}

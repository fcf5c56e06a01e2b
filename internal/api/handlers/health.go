package handlers

import (
	"net/http"
	"time"

	"github.com/marmos91/streambuf/pkg/accumulator"
)

// StatsSource reports registry statistics.
type StatsSource interface {
	Stats() accumulator.Stats
}

// HealthHandler handles health check endpoints.
//
// Health endpoints are unauthenticated and provide:
//   - Liveness probe: Is the server process running?
//   - Readiness probe: Is the registry ready to accept streams?
type HealthHandler struct {
	registry   StatsSource
	instanceID string
	startTime  time.Time
}

// NewHealthHandler creates a new health handler.
//
// registry may be nil, in which case readiness reports unhealthy.
func NewHealthHandler(registry StatsSource, instanceID string) *HealthHandler {
	return &HealthHandler{
		registry:   registry,
		instanceID: instanceID,
		startTime:  time.Now(),
	}
}

// Liveness handles GET /health - simple liveness probe.
//
// Returns 200 OK as long as the HTTP server is responsive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(h.startTime)
	WriteJSONOK(w, healthyResponse(map[string]any{
		"service":     "streambuf",
		"instance_id": h.instanceID,
		"started_at":  h.startTime.UTC().Format(time.RFC3339),
		"uptime":      uptime.Round(time.Second).String(),
		"uptime_sec":  int64(uptime.Seconds()),
	}))
}

// Readiness handles GET /health/ready - readiness probe.
// Returns 200 OK once the registry is attached.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.registry == nil {
		WriteJSON(w, http.StatusServiceUnavailable, unhealthyResponse("registry not initialized"))
		return
	}

	stats := h.registry.Stats()
	WriteJSONOK(w, healthyResponse(map[string]any{
		"active_users":    stats.ActiveUsers,
		"active_sessions": stats.ActiveSessions,
		"pool_idle":       stats.Pool.Idle,
	}))
}

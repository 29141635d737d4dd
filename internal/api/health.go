package api

import (
	"net/http"
	"time"

	"github.com/euangelion/plan-service/internal/api/respond"
)

// HealthHandler reports process health from an injected probe.
type HealthHandler struct {
	isHealthy func() bool
}

func NewHealthHandler(probe func() bool) *HealthHandler {
	if probe == nil {
		probe = func() bool { return true }
	}
	return &HealthHandler{isHealthy: probe}
}

// CheckHealth handles GET /api/health.
// Always returns 200; the body reports healthy/unhealthy. 500 indicates
// handler failure only.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	status := "unhealthy"
	if h.isHealthy() {
		status = "healthy"
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

package api

import (
	"net/http"
	"time"

	"github.com/linkgrove/searchsync/internal/api/respond"
	"github.com/linkgrove/searchsync/internal/health"
)

// HealthHandler reports the aggregated service health computed by the
// background checkers.
type HealthHandler struct {
	service *health.ServiceHealthChecker
	deps    []health.HealthChecker
}

func NewHealthHandler(service *health.ServiceHealthChecker, deps ...health.HealthChecker) *HealthHandler {
	return &HealthHandler{service: service, deps: deps}
}

// CheckHealth handles GET /api/health. Always 200; the body carries the
// verdict so load balancers and humans read the same signal.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	status := "unhealthy"
	if h.service.IsHealthy() {
		status = "healthy"
	}

	components := make(map[string]string, len(h.deps))
	for _, c := range h.deps {
		s := "unhealthy"
		if c.IsHealthy() {
			s = "healthy"
		}
		components[c.Name()] = s
	}

	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}

package handlers

import (
	"net/http"
	"time"

	"github.com/aryan-vats/tubescribe-backend/internal/metrics"
)

// Health reports liveness plus the reachability of Mongo and Redis.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true
	for name, ping := range map[string]Pinger{"mongodb": h.mongoPing, "redis": h.redisPing} {
		if ping == nil {
			continue
		}
		if err := ping(ctx); err != nil {
			checks[name] = "unreachable"
			healthy = false
		} else {
			checks[name] = "ok"
		}
	}

	status := http.StatusOK
	state := "healthy"
	if !healthy {
		status = http.StatusServiceUnavailable
		state = "degraded"
	}
	writeJSON(w, status, map[string]interface{}{
		"status": state,
		"checks": checks,
	})
}

// HealthMetrics returns a JSON snapshot of process vitals.
func (h *Handler) HealthMetrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, metrics.CollectSnapshot())
}

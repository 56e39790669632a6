package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/turtacn/EntityRisk-Intelligence/internal/application/orchestrator"
)

// readinessTimeout bounds the dependency probes of one readiness check.
const readinessTimeout = 5 * time.Second

// ReadinessChecker reports aggregate dependency health.
type ReadinessChecker interface {
	Health(ctx context.Context) (bool, []orchestrator.ComponentHealth)
}

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	checker ReadinessChecker
	version string
	startAt time.Time
}

// NewHealthHandler builds the probe handler. The checker may be nil, in
// which case readiness reports ready unconditionally.
func NewHealthHandler(checker ReadinessChecker, version string) *HealthHandler {
	return &HealthHandler{
		checker: checker,
		version: version,
		startAt: time.Now(),
	}
}

// LivenessResponse is the body of GET /healthz.
type LivenessResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// Liveness always answers 200 while the process is running.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, LivenessResponse{
		Status:  "alive",
		Version: h.version,
		Uptime:  time.Since(h.startAt).Truncate(time.Second).String(),
	})
}

// ReadinessResponse is the body of GET /readyz.
type ReadinessResponse struct {
	Status     string                         `json:"status"`
	Components []orchestrator.ComponentHealth `json:"components,omitempty"`
}

// Readiness probes every registered dependency and answers 503 when any
// probe fails.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.checker == nil {
		writeJSON(w, http.StatusOK, ReadinessResponse{Status: "ready"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	healthy, components := h.checker.Health(ctx)
	resp := ReadinessResponse{Status: "ready", Components: components}
	if !healthy {
		resp.Status = "not_ready"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/spherical/docconv/internal/worker"
)

// Pinger is implemented by dependencies that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	service string
	pool    *worker.Pool
	deps    map[string]Pinger
}

// NewHealthHandler creates a health handler. deps are checked by Ready.
func NewHealthHandler(service string, pool *worker.Pool, deps map[string]Pinger) *HealthHandler {
	return &HealthHandler{service: service, pool: pool, deps: deps}
}

// Health handles GET /health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, r, map[string]any{
		"status":  "healthy",
		"service": h.service,
		"workers": h.pool.Stats(),
	})
}

// Ready handles GET /ready.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]string, len(h.deps))
	ready := true
	for name, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			checks[name] = err.Error()
			ready = false
			continue
		}
		checks[name] = "ok"
	}

	if !ready {
		writeJSON(w, r, http.StatusServiceUnavailable, Envelope{
			Code:    http.StatusServiceUnavailable,
			Message: "not ready",
			Data:    checks,
		})
		return
	}
	writeSuccess(w, r, map[string]any{"status": "ready", "checks": checks})
}

// Package health provides liveness and readiness endpoints.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// Checker reports whether a dependency is healthy.
type Checker func(ctx context.Context) error

// Handler serves /healthz and /readyz endpoints. Liveness always succeeds
// while the process is running; readiness runs the registered dependency
// checks with a bounded timeout.
type Handler struct {
	mu       sync.RWMutex
	checkers map[string]Checker
	timeout  time.Duration
}

// NewHandler returns a Handler with a default per-check timeout of 2 seconds.
func NewHandler() *Handler {
	return &Handler{
		checkers: make(map[string]Checker),
		timeout:  2 * time.Second,
	}
}

// Register adds a named dependency check used by readiness probes.
func (h *Handler) Register(name string, c Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers[name] = c
}

type checkResult struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Liveness responds 200 as long as the process can serve HTTP.
func (h *Handler) Liveness(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Readiness runs all registered checks and responds 200 only if every
// dependency is healthy, 503 otherwise with per-check detail.
func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	checkers := make(map[string]Checker, len(h.checkers))
	for name, c := range h.checkers {
		checkers[name] = c
	}
	h.mu.RUnlock()

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	results := make(map[string]checkResult, len(checkers))
	healthy := true

	for name, check := range checkers {
		if err := check(ctx); err != nil {
			healthy = false
			results[name] = checkResult{Status: "unhealthy", Error: err.Error()}
		} else {
			results[name] = checkResult{Status: "ok"}
		}
	}

	status := http.StatusOK
	overall := "ok"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "unhealthy"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"status": overall,
		"checks": results,
	})
}

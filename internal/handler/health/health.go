// Package health reports whether the record store and event bus answer.
package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

// Checker verifies that an infrastructure dependency is reachable.
type Checker interface {
	Check(ctx context.Context) error
}

const (
	StatusOK       = "ok"
	StatusError    = "error"
	StatusDegraded = "degraded"
)

type Handler struct {
	checks  map[string]Checker
	logger  *slog.Logger
	timeout time.Duration
	demo    bool
}

// NewHandler checks every entry of checks on each request. An empty map
// reports demo mode: nothing external to check.
func NewHandler(logger *slog.Logger, checks map[string]Checker) *Handler {
	return &Handler{checks: checks, logger: logger, timeout: 3 * time.Second, demo: len(checks) == 0}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.check)
	return r
}

type Result struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
}

type Response struct {
	Status string            `json:"status"`
	Demo   bool              `json:"demo"`
	Checks map[string]Result `json:"checks"`
}

func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp := Response{Status: StatusOK, Demo: h.demo, Checks: make(map[string]Result, len(h.checks))}
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for name, c := range h.checks {
		wg.Go(func() {
			start := time.Now()
			err := c.Check(ctx)
			res := Result{Status: StatusOK, LatencyMS: time.Since(start).Milliseconds()}
			if err != nil {
				h.logger.Error("health check failed", "name", name, "error", err)
				res.Status = StatusError
			}
			mu.Lock()
			resp.Checks[name] = res
			if err != nil {
				resp.Status = StatusDegraded
			}
			mu.Unlock()
		})
	}
	wg.Wait()

	status := http.StatusOK
	if resp.Status != StatusOK {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

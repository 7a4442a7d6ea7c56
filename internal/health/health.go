// Package health provides HTTP liveness and readiness probes for the
// assistant's dependencies.
//
//   - /healthz — liveness; always returns 200 OK.
//   - /readyz  — readiness; 200 only when every registered [Checker]
//     passes.
//
// Responses are JSON objects with a top-level "status" field ("ok" or
// "fail") and a "checks" map with the result of each named checker.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/casamind/casamind/internal/devices"
	"github.com/casamind/casamind/internal/session"
)

// checkTimeout caps a single readiness check.
const checkTimeout = 5 * time.Second

// Checker is a named dependency probe. Check returns nil when the
// dependency is healthy.
type Checker struct {
	Name  string
	Check func(ctx context.Context) error
}

// Directory probes the IoT backend through the device directory. A
// readable, non-empty directory means the assistant can serve turns.
func Directory(cache *devices.Cache) Checker {
	return Checker{
		Name: "directory",
		Check: func(ctx context.Context) error {
			devs, err := cache.ListDevices(ctx)
			if err != nil {
				return err
			}
			if len(devs) == 0 {
				return errors.New("device directory is empty")
			}
			return nil
		},
	}
}

// Sessions probes the session store with a lookup of a key that cannot
// exist. ErrNotFound means the store answered; anything else is a failure.
func Sessions(store session.Store) Checker {
	return Checker{
		Name: "sessions",
		Check: func(ctx context.Context) error {
			_, err := store.Load(ctx, "healthcheck-probe")
			if err != nil && !errors.Is(err, session.ErrNotFound) {
				return err
			}
			return nil
		},
	}
}

type result struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Handler serves the probes. The checker list is fixed at construction
// time; the handler is safe for concurrent use.
type Handler struct {
	checkers []Checker
}

// New creates a Handler evaluating the given checkers, in order, on each
// /readyz request.
func New(checkers ...Checker) *Handler {
	c := make([]Checker, len(checkers))
	copy(c, checkers)
	return &Handler{checkers: c}
}

// Healthz always returns 200. A process that can serve HTTP is alive.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, result{Status: "ok"})
}

// Readyz returns 200 only when every registered checker passes.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string, len(h.checkers))
	allOK := true

	for _, c := range h.checkers {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		err := c.Check(ctx)
		cancel()

		if err != nil {
			checks[c.Name] = "fail: " + err.Error()
			allOK = false
		} else {
			checks[c.Name] = "ok"
		}
	}

	res := result{Status: "ok", Checks: checks}
	status := http.StatusOK
	if !allOK {
		res.Status = "fail"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, res)
}

// Register adds the /healthz and /readyz routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"status":"error"}`, http.StatusInternalServerError)
	}
}

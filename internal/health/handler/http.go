// Package handler serves the liveness endpoint used by load balancers and CI.
package handler

import (
	"context"
	"net/http"
	"time"

	"blog-platform/server/internal/server/middleware"
)

// Pinger reports whether the backing database is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler serves GET /health.
type Handler struct {
	db          Pinger
	environment string
	now         func() time.Time
}

// NewHandler returns the health handler. db may be nil; then the database
// check is skipped.
func NewHandler(db Pinger, environment string) *Handler {
	return &Handler{db: db, environment: environment, now: time.Now}
}

// WithClock overrides the handler clock. Test hook.
func (h *Handler) WithClock(now func() time.Time) *Handler {
	h.now = now
	return h
}

type healthResponse struct {
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	Environment string `json:"environment"`
}

// Check reports OK while the process is up and the database answers a ping.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:      "OK",
		Timestamp:   h.now().UTC().Format(time.RFC3339),
		Environment: h.environment,
	}
	if h.db != nil {
		if err := h.db.PingContext(r.Context()); err != nil {
			resp.Status = "DEGRADED"
			middleware.WriteJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}

package api

import (
	"context"
	"net/http"

	"github.com/taskhub/taskhub-api/internal/api/shared"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler reports service liveness, including database reachability.
type HealthHandler struct {
	db Pinger
}

// NewHealthHandler creates a HealthHandler checking the given database.
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Check handles GET /health.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.PingContext(r.Context()); err != nil {
			shared.RespondWithErrorAndLog(
				w, r, http.StatusServiceUnavailable, "Database unavailable", err)
			return
		}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/videohub/backend/internal/apperr"
)

// HealthHandler responds with service health information.
type HealthHandler struct {
	// Check pings the backing store; nil means always healthy.
	Check func(ctx context.Context) error
}

// Handle implements GET /healthz.
func (h HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.Check != nil {
		checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := h.Check(checkCtx); err != nil {
			respondError(ctx, w, apperr.Internal("store unavailable", err))
			return
		}
	}
	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "ok"}, "healthy")
}

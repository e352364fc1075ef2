package handler

import (
	"net/http"
	"time"
)

// handleHealth handles GET /api/health.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Container: h.container,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReady handles GET /api/ready. It reads the session key, so an
// unreachable store reports 503.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, _, err := h.voting.GetCurrentSession(r.Context()); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, HealthResponse{
		Status:    "ready",
		Container: h.container,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

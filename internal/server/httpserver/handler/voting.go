package handler

import (
	"net/http"

	"github.com/yndnr/quickvote-go/internal/core/domain"
	"github.com/yndnr/quickvote-go/internal/core/service"
	"github.com/yndnr/quickvote-go/internal/telemetry/logger"
)

// handleCurrentVoting handles GET /api/voting/current.
func (h *Handler) handleCurrentVoting(w http.ResponseWriter, r *http.Request) {
	session, found, err := h.voting.GetCurrentSession(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if !found {
		h.writeJSON(w, r, http.StatusOK, CurrentVotingResponse{Exists: false})
		return
	}
	h.writeJSON(w, r, http.StatusOK, CurrentVotingResponse{Exists: true, Voting: session})
}

// handleCreateVoting handles POST /api/voting/create.
func (h *Handler) handleCreateVoting(w http.ResponseWriter, r *http.Request) {
	var req CreateVotingRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	candidates := make([]domain.Candidate, 0, len(req.Candidates))
	for _, c := range req.Candidates {
		candidates = append(candidates, domain.Candidate{ID: c.ID, Name: c.Name})
	}

	session, err := h.voting.CreateSession(r.Context(), &service.CreateSessionRequest{
		Title:      req.Title,
		Candidates: candidates,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	logger.L(r.Context()).Info("voting session created",
		"session_id", session.ID,
		"candidates", len(session.Candidates),
	)
	h.writeJSON(w, r, http.StatusOK, VotingResponse{Success: true, Voting: session})
}

// handleStartVoting handles POST /api/voting/start.
func (h *Handler) handleStartVoting(w http.ResponseWriter, r *http.Request) {
	session, err := h.voting.StartSession(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	logger.L(r.Context()).Info("voting started", "session_id", session.ID)
	h.writeJSON(w, r, http.StatusOK, MessageResponse{Success: true, Message: "Voting started"})
}

// handleStopVoting handles POST /api/voting/stop.
func (h *Handler) handleStopVoting(w http.ResponseWriter, r *http.Request) {
	session, err := h.voting.StopSession(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	logger.L(r.Context()).Info("voting stopped", "session_id", session.ID)
	h.writeJSON(w, r, http.StatusOK, MessageResponse{Success: true, Message: "Voting stopped"})
}

// handleDeleteVoting handles DELETE /api/voting/delete.
func (h *Handler) handleDeleteVoting(w http.ResponseWriter, r *http.Request) {
	if err := h.voting.DeleteSession(r.Context()); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	logger.L(r.Context()).Info("voting session deleted")
	h.writeJSON(w, r, http.StatusOK, MessageResponse{Success: true, Message: "Voting deleted"})
}

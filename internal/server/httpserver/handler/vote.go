package handler

import (
	"net/http"

	"github.com/yndnr/quickvote-go/internal/core/domain"
	"github.com/yndnr/quickvote-go/internal/core/service"
	"github.com/yndnr/quickvote-go/internal/telemetry/logger"
)

// handleVote handles POST /api/vote.
func (h *Handler) handleVote(w http.ResponseWriter, r *http.Request) {
	var req VoteRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	_, err := h.voting.SubmitVote(r.Context(), &service.SubmitVoteRequest{
		Identity:    req.Email,
		CandidateID: req.CandidateID,
	})
	if err != nil {
		if h.rejects != nil {
			h.rejects.RecordRejectedVote(domain.GetErrorCode(err))
		}
		h.handleServiceError(w, r, err)
		return
	}
	logger.L(r.Context()).Debug("vote recorded",
		logger.Voter(req.Email), "candidate_id", req.CandidateID)

	h.writeJSON(w, r, http.StatusOK, MessageResponse{
		Success:   true,
		Message:   "Vote recorded",
		Container: h.container,
	})
}

// handleResults handles GET /api/results.
func (h *Handler) handleResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.voting.GetResults(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, ResultsResponse{Results: results, Container: h.container})
}

// handleDemoVotes handles GET /api/votes.
func (h *Handler) handleDemoVotes(w http.ResponseWriter, r *http.Request) {
	tally, err := h.voting.DemoTally(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, DemoVotesResponse{Votes: tally, Container: h.container})
}

// handleDemoVote handles POST /api/vote-demo.
func (h *Handler) handleDemoVote(w http.ResponseWriter, r *http.Request) {
	var req DemoVoteRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if _, err := h.voting.CastDemoVote(r.Context(), req.Option); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, MessageResponse{
		Success:   true,
		Message:   "Vote recorded",
		Container: h.container,
	})
}

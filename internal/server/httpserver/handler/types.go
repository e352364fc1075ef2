package handler

import (
	"time"

	"github.com/yndnr/quickvote-go/internal/core/domain"
)

// Response is the standard API response envelope.
// All JSON responses use this format (except /metrics which uses Prometheus format).
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"` // Additional error details
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, details any) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// HealthResponse is the response body for GET /api/health.
type HealthResponse struct {
	Status    string `json:"status"`
	Container string `json:"container"`
	Timestamp string `json:"timestamp"`
}

// CurrentVotingResponse is the response body for GET /api/voting/current.
type CurrentVotingResponse struct {
	Exists bool                  `json:"exists"`
	Voting *domain.VotingSession `json:"voting,omitempty"`
}

// CandidateRequest is one candidate of a create request.
type CandidateRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CreateVotingRequest is the request body for POST /api/voting/create.
type CreateVotingRequest struct {
	Title      string             `json:"title"`
	Candidates []CandidateRequest `json:"candidates"`
}

// VotingResponse is the response body for session creation.
type VotingResponse struct {
	Success bool                  `json:"success"`
	Voting  *domain.VotingSession `json:"voting"`
}

// MessageResponse acknowledges an admin operation or a vote.
type MessageResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Container string `json:"container,omitempty"`
}

// VoteRequest is the request body for POST /api/vote.
type VoteRequest struct {
	Email       string `json:"email"`
	CandidateID string `json:"candidate_id"`
}

// ResultsResponse is the response body for GET /api/results.
type ResultsResponse struct {
	*domain.Results
	Container string `json:"container"`
}

// DemoVotesResponse is the response body for GET /api/votes.
type DemoVotesResponse struct {
	Votes     map[string]int64 `json:"votes"`
	Container string           `json:"container"`
}

// DemoVoteRequest is the request body for POST /api/vote-demo.
type DemoVoteRequest struct {
	Option string `json:"option"`
}

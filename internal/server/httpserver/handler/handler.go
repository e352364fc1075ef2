package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/yndnr/quickvote-go/internal/core/domain"
	"github.com/yndnr/quickvote-go/internal/core/service"
	"github.com/yndnr/quickvote-go/internal/telemetry/logger"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// VotingService is the part of service.VotingService the endpoints use.
type VotingService interface {
	CreateSession(ctx context.Context, req *service.CreateSessionRequest) (*domain.VotingSession, error)
	StartSession(ctx context.Context) (*domain.VotingSession, error)
	StopSession(ctx context.Context) (*domain.VotingSession, error)
	DeleteSession(ctx context.Context) error
	GetCurrentSession(ctx context.Context) (*domain.VotingSession, bool, error)
	SubmitVote(ctx context.Context, req *service.SubmitVoteRequest) (*service.SubmitVoteResponse, error)
	GetResults(ctx context.Context) (*domain.Results, error)
	CastDemoVote(ctx context.Context, option string) (int64, error)
	DemoTally(ctx context.Context) (map[string]int64, error)
}

// RejectRecorder counts rejected vote submissions.
type RejectRecorder interface {
	RecordRejectedVote(code string)
}

// Config wires the handler.
type Config struct {
	Voting VotingService

	// Stream serves GET /api/results/stream. Nil leaves the route unset.
	Stream http.Handler

	// Metrics serves GET /metrics. Nil leaves the route unset.
	Metrics http.Handler

	// Rejects counts rejected votes. Optional.
	Rejects RejectRecorder

	// Admin wraps the session management endpoints. Nil leaves them open.
	Admin func(http.Handler) http.Handler

	// Static serves every path no API route claims. Optional.
	Static http.Handler

	ContainerID string
	Logger      *slog.Logger
}

// Handler routes requests to the voting endpoints.
type Handler struct {
	voting    VotingService
	rejects   RejectRecorder
	container string
	logger    *slog.Logger
	mux       *http.ServeMux
}

// New creates a Handler with every route registered.
func New(cfg Config) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	h := &Handler{
		voting:    cfg.Voting,
		rejects:   cfg.Rejects,
		container: cfg.ContainerID,
		logger:    cfg.Logger,
		mux:       http.NewServeMux(),
	}

	h.registerRoutes(cfg)
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes(cfg Config) {
	admin := cfg.Admin
	if admin == nil {
		admin = func(next http.Handler) http.Handler { return next }
	}

	// Probes
	h.mux.HandleFunc("GET /api/health", h.handleHealth)
	h.mux.HandleFunc("GET /api/ready", h.handleReady)

	// Session management
	h.mux.HandleFunc("GET /api/voting/current", h.handleCurrentVoting)
	h.mux.Handle("POST /api/voting/create", admin(http.HandlerFunc(h.handleCreateVoting)))
	h.mux.Handle("POST /api/voting/start", admin(http.HandlerFunc(h.handleStartVoting)))
	h.mux.Handle("POST /api/voting/stop", admin(http.HandlerFunc(h.handleStopVoting)))
	h.mux.Handle("DELETE /api/voting/delete", admin(http.HandlerFunc(h.handleDeleteVoting)))

	// Votes and results
	h.mux.HandleFunc("POST /api/vote", h.handleVote)
	h.mux.HandleFunc("GET /api/results", h.handleResults)
	if cfg.Stream != nil {
		h.mux.Handle("GET /api/results/stream", cfg.Stream)
	}

	// Legacy demo counters
	h.mux.HandleFunc("GET /api/votes", h.handleDemoVotes)
	h.mux.HandleFunc("POST /api/vote-demo", h.handleDemoVote)

	if cfg.Metrics != nil {
		h.mux.Handle("GET /metrics", cfg.Metrics)
	}

	// Unknown API paths get an envelope, not the UI.
	h.mux.HandleFunc("/api/", h.handleNotFound)
	if cfg.Static != nil {
		h.mux.Handle("/", cfg.Static)
	}
}

// writeJSON writes a JSON response with standard envelope format.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	requestID := logger.RequestIDFromContext(r.Context())
	response := NewResponse(requestID, data)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError writes an error response with standard envelope format.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	requestID := logger.RequestIDFromContext(r.Context())
	WriteError(w, status, NewErrorResponse(requestID, code, message, details))
}

// WriteError writes an error envelope. Middleware uses it so rejected
// requests look like handler errors.
func WriteError(w http.ResponseWriter, status int, resp *Response) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", resp.Code)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// handleServiceError converts service errors to HTTP responses.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.DomainError
	if errors.As(err, &de) {
		status := ErrorCodeToHTTPStatus(de.Code)
		if status >= http.StatusInternalServerError {
			logger.L(r.Context()).Error("request failed",
				"code", de.Code,
				"details", de.Details,
				"error", de.Cause,
			)
		}
		var details any
		if de.Details != "" {
			details = de.Details
		}
		h.writeError(w, r, status, de.Code, de.Message, details)
		return
	}

	// Generic internal error
	logger.L(r.Context()).Error("internal error", "error", err)
	h.writeError(w, r, http.StatusInternalServerError,
		domain.ErrInternalServer.Code, domain.ErrInternalServer.Message, nil)
}

// decodeJSON reads a bounded JSON body into dst.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeError(w, r, http.StatusBadRequest,
			domain.ErrBadRequest.Code, "invalid request body", err.Error())
		return false
	}
	return true
}

func (h *Handler) handleNotFound(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, r, http.StatusNotFound, "QV-SYS-4040", "route not found", r.URL.Path)
}

// ErrorCodeToHTTPStatus maps error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch {
	case strings.HasSuffix(code, "-4040"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "-4090"), strings.HasSuffix(code, "-4091"), strings.HasSuffix(code, "-4092"):
		return http.StatusConflict
	case strings.HasSuffix(code, "-4290"):
		return http.StatusTooManyRequests
	case strings.HasSuffix(code, "-4000"), strings.HasSuffix(code, "-4001"), strings.HasSuffix(code, "-4002"):
		return http.StatusBadRequest
	case strings.HasSuffix(code, "-4010"):
		return http.StatusUnauthorized
	case strings.HasSuffix(code, "-5030"):
		return http.StatusServiceUnavailable
	case strings.HasPrefix(code, "QV-ARG-"):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

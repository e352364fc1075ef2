package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/yndnr/quickvote-go/internal/server/httpserver/handler"
	"github.com/yndnr/quickvote-go/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Voting serves every session and vote endpoint.
	Voting handler.VotingService

	// Stream serves the live results WebSocket. Optional.
	Stream http.Handler

	// Metrics records requests and rejected votes and serves /metrics.
	// Nil disables all three.
	Metrics *metric.Registry

	// Logger for request logging.
	Logger *slog.Logger

	// ContainerID is reported by responses that carry a container field.
	ContainerID string

	// AdminPassword guards the session management endpoints.
	AdminPassword string

	// CORSAllowedOrigins is the list of allowed CORS origins (empty = allow all).
	CORSAllowedOrigins []string

	// RateLimit applies per-IP limiting when RPS is positive.
	RateLimit RateLimitConfig

	// StaticDir serves the web UI when set.
	StaticDir string
}

// NewRouter creates and configures the HTTP router with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	hcfg := handler.Config{
		Voting:      cfg.Voting,
		Stream:      cfg.Stream,
		Admin:       AdminAuth(cfg.AdminPassword, log),
		ContainerID: cfg.ContainerID,
		Logger:      log,
	}
	var recorder RequestRecorder
	if cfg.Metrics != nil {
		hcfg.Metrics = cfg.Metrics.Handler()
		hcfg.Rejects = cfg.Metrics
		recorder = cfg.Metrics
	}
	if cfg.StaticDir != "" {
		hcfg.Static = handler.Static(cfg.StaticDir)
	}
	h := handler.New(hcfg)

	// Order: Recover -> RequestID -> CORS -> RateLimit -> AccessLog -> Handler
	middlewares := []Middleware{
		Recover(log),
		RequestID(),
		CORS(cfg.CORSAllowedOrigins),
	}
	if cfg.RateLimit.RPS > 0 {
		middlewares = append(middlewares, RateLimit(cfg.RateLimit))
	}
	middlewares = append(middlewares, AccessLog(log, recorder))

	return Chain(h, middlewares...)
}

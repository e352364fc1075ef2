package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yndnr/quickvote-go/internal/core/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

// ResultsSource provides the current tally.
type ResultsSource interface {
	GetResults(ctx context.Context) (*domain.Results, error)
}

// Gauge tracks the subscriber count. prometheus.Gauge satisfies it.
type Gauge interface {
	Set(float64)
}

// Snapshot is the message sent to subscribers.
type Snapshot struct {
	Type      string           `json:"type"`
	Event     domain.EventType `json:"event,omitempty"`
	Results   *domain.Results  `json:"data"`
	Container string           `json:"container"`
}

// Hub fans results out to WebSocket subscribers.
type Hub struct {
	source    ResultsSource
	container string
	logger    *slog.Logger
	gauge     Gauge
	upgrader  websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}

	dirty     chan domain.EventType
	done      chan struct{}
	closeOnce sync.Once
}

// Option configures a Hub.
type Option func(*Hub)

// WithGauge reports the subscriber count to g.
func WithGauge(g Gauge) Option {
	return func(h *Hub) {
		h.gauge = g
	}
}

// WithAllowedOrigins restricts the Origin header of upgrade requests.
// "*" or an empty list accepts any origin.
func WithAllowedOrigins(origins []string) Option {
	return func(h *Hub) {
		h.upgrader.CheckOrigin = originChecker(origins)
	}
}

// NewHub creates a hub reading from source. Call Run to start delivery.
func NewHub(source ResultsSource, container string, logger *slog.Logger, opts ...Option) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{
		source:    source,
		container: container,
		logger:    logger.With("component", "stream"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(nil),
		},
		clients: make(map[*client]struct{}),
		dirty:   make(chan domain.EventType, 1),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// OnEvent marks the results dirty. It never blocks.
func (h *Hub) OnEvent(_ context.Context, ev domain.Event) {
	select {
	case h.dirty <- ev.Type:
	default:
	}
}

// Run delivers refreshed results until ctx is done or Close is called.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case ev := <-h.dirty:
			if h.Len() == 0 {
				continue
			}
			msg, err := h.snapshot(ctx, ev)
			if err != nil {
				h.logger.Warn("results refresh failed", "error", err)
				continue
			}
			h.broadcast(msg)
		case <-ctx.Done():
			h.Close()
			return
		case <-h.done:
			return
		}
	}
}

// ServeHTTP upgrades the request and streams results until the peer
// disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	if !h.register(c) {
		_ = conn.Close()
		return
	}

	if msg, err := h.snapshot(r.Context(), ""); err == nil {
		h.deliver(c, msg)
	} else {
		h.logger.Warn("initial results failed", "error", err)
	}

	go c.writePump()
	c.readPump()
	h.unregister(c)
}

// Len returns the number of subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every subscriber and stops Run.
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
		h.mu.Lock()
		for c := range h.clients {
			delete(h.clients, c)
			close(c.send)
		}
		h.mu.Unlock()
		h.setGauge(0)
	})
}

func (h *Hub) snapshot(ctx context.Context, ev domain.EventType) ([]byte, error) {
	results, err := h.source.GetResults(ctx)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Snapshot{
		Type:      "results",
		Event:     ev,
		Results:   results,
		Container: h.container,
	})
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	select {
	case <-h.done:
		return false
	default:
	}
	h.clients[c] = struct{}{}
	h.setGaugeLocked()
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		h.setGaugeLocked()
	}
}

// deliver queues msg for one subscriber if it is still registered.
func (h *Hub) deliver(c *client, msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		select {
		case c.send <- msg:
		default:
		}
	}
}

func (h *Hub) broadcast(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.logger.Info("dropping slow subscriber")
			delete(h.clients, c)
			close(c.send)
		}
	}
	h.setGaugeLocked()
}

func (h *Hub) setGaugeLocked() {
	h.setGauge(float64(len(h.clients)))
}

func (h *Hub) setGauge(v float64) {
	if h.gauge != nil {
		h.gauge.Set(v)
	}
}

func originChecker(origins []string) func(*http.Request) bool {
	if len(origins) == 0 {
		return func(*http.Request) bool { return true }
	}
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[origin]
		return ok
	}
}

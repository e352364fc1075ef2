package events

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/yndnr/quickvote-go/internal/core/domain"
)

var (
	// ErrClosed is returned when publishing after Close.
	ErrClosed = errors.New("events: publisher closed")

	// ErrQueueFull is recorded when an event is dropped because the
	// publish queue is full.
	ErrQueueFull = errors.New("events: queue full")

	// ErrUnavailable is returned while the broker is down and the next
	// reconnect attempt is not due yet.
	ErrUnavailable = errors.New("events: broker unavailable")
)

// Message is the JSON body of every published event.
type Message struct {
	domain.Event
	Container string `json:"container"`
}

// Recorder receives the outcome of every publish.
type Recorder interface {
	RecordPublish(err error)
}

// Config configures an AMQPPublisher.
type Config struct {
	URL      string
	Exchange string
	// TLS is used for amqps:// URLs; nil uses the system roots.
	TLS *tls.Config
	// Container is stamped on every message as AppId and "container".
	Container string
	// PublishTimeout bounds one publish. Default: 5s
	PublishTimeout time.Duration
	// DialTimeout bounds the TCP connect to the broker. Default: 5s
	DialTimeout time.Duration
	// RetryInterval is the minimum gap between reconnect attempts.
	// Default: 5s
	RetryInterval time.Duration
	// QueueSize is the number of events buffered for the publish worker.
	// Default: 256
	QueueSize int
}

// channel is the subset of *amqp.Channel the publisher uses.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

// dialer opens a connection and returns a fresh channel on it together
// with a function closing both.
type dialer func(cfg Config) (channel, func() error, error)

// AMQPPublisher publishes domain events to a fanout exchange.
//
// OnEvent only enqueues; one worker goroutine publishes and owns the
// reconnects, so a slow or unreachable broker never delays the caller.
// A broken channel is reopened at most once per RetryInterval.
type AMQPPublisher struct {
	cfg      Config
	dial     dialer
	logger   *slog.Logger
	recorder Recorder

	qmu     sync.RWMutex // guards sends on queue against Close
	queue   chan domain.Event
	stopped bool
	done    chan struct{}

	mu       sync.Mutex // serializes use of ch
	ch       channel
	closeFn  func() error
	closed   bool
	nextDial time.Time
}

// Option configures an AMQPPublisher.
type Option func(*AMQPPublisher)

// WithRecorder reports every publish outcome to r.
func WithRecorder(r Recorder) Option {
	return func(p *AMQPPublisher) {
		p.recorder = r
	}
}

func withDialer(d dialer) Option {
	return func(p *AMQPPublisher) {
		p.dial = d
	}
}

// NewAMQPPublisher connects to the broker, declares the exchange and starts
// the publish worker.
func NewAMQPPublisher(cfg Config, logger *slog.Logger, opts ...Option) (*AMQPPublisher, error) {
	if cfg.Exchange == "" {
		return nil, errors.New("events: exchange is required")
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 5 * time.Second
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 5 * time.Second
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &AMQPPublisher{
		cfg:    cfg,
		dial:   dialAMQP,
		logger: logger.With("component", "amqp", "exchange", cfg.Exchange),
		queue:  make(chan domain.Event, cfg.QueueSize),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.mu.Lock()
	err := p.connectLocked()
	p.mu.Unlock()
	if err != nil {
		return nil, err
	}
	p.logger.Info("amqp publisher connected")

	go p.run()
	return p, nil
}

// OnEvent queues ev for publishing and returns at once. When the queue is
// full the event is dropped; drops are logged and recorded, never returned.
func (p *AMQPPublisher) OnEvent(_ context.Context, ev domain.Event) {
	p.qmu.RLock()
	if p.stopped {
		p.qmu.RUnlock()
		return
	}
	select {
	case p.queue <- ev:
		p.qmu.RUnlock()
		return
	default:
	}
	p.qmu.RUnlock()
	p.report(ev, ErrQueueFull)
}

func (p *AMQPPublisher) run() {
	defer close(p.done)
	for ev := range p.queue {
		p.report(ev, p.Publish(context.Background(), ev))
	}
}

func (p *AMQPPublisher) report(ev domain.Event, err error) {
	if p.recorder != nil {
		p.recorder.RecordPublish(err)
	}
	if err != nil {
		p.logger.Warn("event publish failed",
			"event", string(ev.Type),
			"session_id", ev.SessionID,
			"error", err,
		)
	}
}

// Publish sends ev synchronously and reports the error. While the broker is
// down it returns ErrUnavailable until the next reconnect is due.
func (p *AMQPPublisher) Publish(ctx context.Context, ev domain.Event) error {
	body, err := json.Marshal(Message{Event: ev, Container: p.cfg.Container})
	if err != nil {
		return fmt.Errorf("events: encode: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	if p.ch == nil || p.ch.IsClosed() {
		if time.Now().Before(p.nextDial) {
			return ErrUnavailable
		}
		p.dropLocked()
		if err := p.connectLocked(); err != nil {
			p.nextDial = time.Now().Add(p.cfg.RetryInterval)
			return err
		}
		p.logger.Info("amqp channel reopened")
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.cfg.PublishTimeout)
	defer cancel()

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    ev.OccurredAt,
		Type:         string(ev.Type),
		AppId:        p.cfg.Container,
		Body:         body,
	}
	if err := p.ch.PublishWithContext(ctx, p.cfg.Exchange, "", false, false, msg); err != nil {
		return fmt.Errorf("events: publish %s: %w", ev.Type, err)
	}
	return nil
}

// Close stops accepting events, publishes what is queued, then closes the
// channel and the connection.
func (p *AMQPPublisher) Close() error {
	p.qmu.Lock()
	if !p.stopped {
		p.stopped = true
		close(p.queue)
	}
	p.qmu.Unlock()
	<-p.done

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	return p.dropLocked()
}

func (p *AMQPPublisher) connectLocked() error {
	ch, closeFn, err := p.dial(p.cfg)
	if err != nil {
		return fmt.Errorf("events: dial: %w", err)
	}
	if err := ch.ExchangeDeclare(p.cfg.Exchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		_ = closeFn()
		return fmt.Errorf("events: declare exchange %s: %w", p.cfg.Exchange, err)
	}
	p.ch = ch
	p.closeFn = closeFn
	return nil
}

func (p *AMQPPublisher) dropLocked() error {
	if p.closeFn == nil {
		return nil
	}
	err := p.closeFn()
	p.ch = nil
	p.closeFn = nil
	return err
}

func dialAMQP(cfg Config) (channel, func() error, error) {
	conn, err := amqp.DialConfig(cfg.URL, amqp.Config{
		Heartbeat:       10 * time.Second,
		Locale:          "en_US",
		TLSClientConfig: cfg.TLS,
		Dial:            amqp.DefaultDial(cfg.DialTimeout),
	})
	if err != nil {
		return nil, nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}

	closeFn := func() error {
		chErr := ch.Close()
		if errors.Is(chErr, amqp.ErrClosed) {
			chErr = nil
		}
		connErr := conn.Close()
		if errors.Is(connErr, amqp.ErrClosed) {
			connErr = nil
		}
		return errors.Join(chErr, connErr)
	}
	return ch, closeFn, nil
}

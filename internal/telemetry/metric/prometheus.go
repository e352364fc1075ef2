package metric

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yndnr/quickvote-go/internal/core/domain"
)

const namespace = "quickvote"

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	// Request metrics
	RequestsTotal   *prometheus.CounterVec   // method, route, status
	RequestDuration *prometheus.HistogramVec // method, route

	// Storage metrics
	StoreOps      *prometheus.CounterVec   // op, result
	StoreDuration *prometheus.HistogramVec // op

	// Voting metrics
	Events        *prometheus.CounterVec // type
	VotesRejected *prometheus.CounterVec // reason

	// Fan-out metrics
	StreamClients   prometheus.Gauge
	EventsPublished *prometheus.CounterVec // result

	BuildInfo *prometheus.GaugeVec // version, commit, go_version
}

// NewRegistry creates a registry with every application metric registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		registry: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code",
		}, []string{"method", "route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		StoreOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Key-value store operations by operation and result",
		}, []string{"op", "result"}),
		StoreDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Key-value store operation latency",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"op"}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "voting",
			Name:      "events_total",
			Help:      "Voting session transitions and recorded votes",
		}, []string{"type"}),
		VotesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "voting",
			Name:      "votes_rejected_total",
			Help:      "Rejected vote submissions by error code",
		}, []string{"reason"}),
		StreamClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "clients",
			Help:      "Connected live results subscribers",
		}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Voting events sent to the message broker by result",
		}, []string{"result"}),
		BuildInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "Always 1; labels carry the running build",
		}, []string{"version", "commit", "go_version"}),
	}

	reg.MustRegister(
		r.RequestsTotal,
		r.RequestDuration,
		r.StoreOps,
		r.StoreDuration,
		r.Events,
		r.VotesRejected,
		r.StreamClients,
		r.EventsPublished,
		r.BuildInfo,
	)
	return r
}

// Registerer exposes the underlying registry for components that own
// their own collectors (embedded engines).
func (r *Registry) Registerer() prometheus.Registerer {
	return r.registry
}

// Gatherer exposes the underlying registry for tests and exporters.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// OnEvent counts voting events. It satisfies service.EventListener.
func (r *Registry) OnEvent(_ context.Context, ev domain.Event) {
	r.Events.WithLabelValues(string(ev.Type)).Inc()
}

// RecordRequest records one served HTTP request.
func (r *Registry) RecordRequest(method, route string, status int, elapsed time.Duration) {
	r.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.RequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RecordStoreOp records one key-value store operation.
func (r *Registry) RecordStoreOp(op string, err error, elapsed time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.StoreOps.WithLabelValues(op, result).Inc()
	r.StoreDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// RecordRejectedVote counts a rejected submission by error code.
func (r *Registry) RecordRejectedVote(code string) {
	if code == "" {
		code = "unknown"
	}
	r.VotesRejected.WithLabelValues(code).Inc()
}

// RecordPublish counts one broker publish attempt.
func (r *Registry) RecordPublish(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.EventsPublished.WithLabelValues(result).Inc()
}

// SetBuildInfo publishes the running build as quickvote_build_info.
func (r *Registry) SetBuildInfo(version, commit, goVersion string) {
	r.BuildInfo.Reset()
	r.BuildInfo.WithLabelValues(version, commit, goVersion).Set(1)
}

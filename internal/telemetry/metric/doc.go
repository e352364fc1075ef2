// Package metric provides Prometheus metrics for QuickVote.
//
// Registry owns a private prometheus.Registry with the Go and process
// collectors plus the application metrics:
//
//   - HTTP request counts and latency by route
//   - key-value store operation counts and latency
//   - voting events (session transitions, recorded votes)
//   - rejected votes by reason
//   - live results subscribers and published events
//
// Handler serves the registry at /metrics.
package metric

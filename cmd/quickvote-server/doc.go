// Package main provides the entry point for quickvote-server.
//
// The server hosts a single voting session over HTTP:
//
//   - JSON API for session management, voting and results
//   - WebSocket stream of live results
//   - Prometheus metrics at /metrics
//   - Optional static front end
//
// State lives in the configured key-value backend (memory, redis, badger
// or bolt), so several replicas behind a load balancer share one session
// when they share a redis backend.
//
// Usage:
//
//	quickvote-server [flags]
//	quickvote-server --config /path/to/config.yaml
package main

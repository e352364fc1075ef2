// Package memory provides the in-process key-value backend for QuickVote.
//
// Values live in a sharded concurrent map. Single-key compound operations
// (IncrementAndGet, SetIfAbsent) run under the owning shard's lock, which
// makes them atomic across goroutines of one process. State is lost on
// restart and is not shared between instances; use the redis backend for
// load-balanced deployments.
package memory

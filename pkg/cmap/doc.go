// Package cmap provides a concurrent map sharded by key hash.
//
// Each shard owns its own RWMutex, so writers to different keys rarely
// contend. Single-key compound operations (SetIfAbsent, Compute) run under
// the shard lock and are atomic with respect to each other.
//
// Usage:
//
//	m := cmap.New[string, string]()
//	m.Set("votes:a", "0")
//	stored := m.SetIfAbsent("voter:x@y.com", "a")
//
// Iteration (Range, Keys) locks one shard at a time, so the view across
// shards is not a consistent snapshot.
package cmap

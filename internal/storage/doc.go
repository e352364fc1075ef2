// Package storage provides the key-value backends for QuickVote.
//
// Every backend implements service.KVStore and service.ConditionalSetter
// and passes the shared compatibility kit in storage/kvtest:
//
//   - memory: sharded in-process map (storage/memory)
//   - redis: shared store for multi-instance deployments
//   - badger: embedded LSM store
//   - bolt: embedded B+tree store
//
// Open selects a backend by Config.Engine. Instrument wraps any backend
// with Prometheus operation metrics.
package storage

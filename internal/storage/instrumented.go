package storage

import (
	"context"
	"time"

	"github.com/yndnr/quickvote-go/internal/telemetry/metric"
)

// Instrumented decorates a Store with per-operation metrics.
type Instrumented struct {
	inner   Store
	metrics *metric.Registry
}

// Instrument wraps store. A nil registry returns store unchanged.
func Instrument(store Store, metrics *metric.Registry) Store {
	if metrics == nil {
		return store
	}
	return &Instrumented{inner: store, metrics: metrics}
}

func (s *Instrumented) observe(op string, start time.Time, err error) {
	s.metrics.RecordStoreOp(op, err, time.Since(start))
}

// Get implements service.KVStore.
func (s *Instrumented) Get(ctx context.Context, key string) (v string, found bool, err error) {
	start := time.Now()
	defer func() { s.observe("get", start, err) }()
	return s.inner.Get(ctx, key)
}

// Set implements service.KVStore.
func (s *Instrumented) Set(ctx context.Context, key, value string) (err error) {
	start := time.Now()
	defer func() { s.observe("set", start, err) }()
	return s.inner.Set(ctx, key, value)
}

// Delete implements service.KVStore.
func (s *Instrumented) Delete(ctx context.Context, key string) (err error) {
	start := time.Now()
	defer func() { s.observe("delete", start, err) }()
	return s.inner.Delete(ctx, key)
}

// DeleteMany implements service.KVStore.
func (s *Instrumented) DeleteMany(ctx context.Context, keys []string) (err error) {
	start := time.Now()
	defer func() { s.observe("delete_many", start, err) }()
	return s.inner.DeleteMany(ctx, keys)
}

// IncrementAndGet implements service.KVStore.
func (s *Instrumented) IncrementAndGet(ctx context.Context, key string) (n int64, err error) {
	start := time.Now()
	defer func() { s.observe("incr", start, err) }()
	return s.inner.IncrementAndGet(ctx, key)
}

// ListKeys implements service.KVStore.
func (s *Instrumented) ListKeys(ctx context.Context, prefix string) (keys []string, err error) {
	start := time.Now()
	defer func() { s.observe("list_keys", start, err) }()
	return s.inner.ListKeys(ctx, prefix)
}

// SetIfAbsent implements service.ConditionalSetter.
func (s *Instrumented) SetIfAbsent(ctx context.Context, key, value string) (stored bool, err error) {
	start := time.Now()
	defer func() { s.observe("set_if_absent", start, err) }()
	return s.inner.SetIfAbsent(ctx, key, value)
}

// Close closes the wrapped store.
func (s *Instrumented) Close() error {
	return s.inner.Close()
}

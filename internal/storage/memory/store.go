package memory

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/yndnr/quickvote-go/pkg/cmap"
)

// Common errors
var (
	ErrClosed     = errors.New("memory store closed")
	ErrNotInteger = errors.New("value is not an integer")
)

// Store is an in-memory KVStore with set-if-absent.
type Store struct {
	items  *cmap.Map[string, string]
	closed atomic.Bool
}

// Option configures the Store.
type Option func(*config)

type config struct {
	shards int
}

// WithShardCount sets the number of map shards (power of two).
func WithShardCount(n int) Option {
	return func(c *config) {
		c.shards = n
	}
}

// New creates a new in-memory store.
func New(opts ...Option) *Store {
	cfg := config{shards: cmap.DefaultShardCount}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Store{items: cmap.NewWithShards[string, string](cfg.shards)}
}

// Get retrieves the value at key.
func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	if s.closed.Load() {
		return "", false, ErrClosed
	}
	v, ok := s.items.Get(key)
	return v, ok, nil
}

// Set stores value at key.
func (s *Store) Set(_ context.Context, key, value string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	s.items.Set(key, value)
	return nil
}

// Delete removes key.
func (s *Store) Delete(_ context.Context, key string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	s.items.Delete(key)
	return nil
}

// DeleteMany removes every key in keys.
func (s *Store) DeleteMany(_ context.Context, keys []string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	s.items.DeleteMany(keys)
	return nil
}

// IncrementAndGet atomically increments the integer at key.
func (s *Store) IncrementAndGet(_ context.Context, key string) (int64, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}

	var n int64
	_, err := s.items.Compute(key, func(old string, exists bool) (string, error) {
		if exists {
			v, err := strconv.ParseInt(old, 10, 64)
			if err != nil {
				return "", ErrNotInteger
			}
			n = v
		}
		n++
		return strconv.FormatInt(n, 10), nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// ListKeys returns every key starting with prefix.
func (s *Store) ListKeys(_ context.Context, prefix string) ([]string, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	return s.items.KeysFunc(func(k string) bool {
		return strings.HasPrefix(k, prefix)
	}), nil
}

// SetIfAbsent stores value unless key exists.
func (s *Store) SetIfAbsent(_ context.Context, key, value string) (bool, error) {
	if s.closed.Load() {
		return false, ErrClosed
	}
	return s.items.SetIfAbsent(key, value), nil
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	return s.items.Count()
}

// Close releases the contents. Further calls fail with ErrClosed.
func (s *Store) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		s.items.Clear()
	}
	return nil
}

package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	bolt "go.etcd.io/bbolt"
)

var boltBucket = []byte("quickvote")

// BoltStore implements Store on bbolt. bbolt admits one writer at a time,
// so every Update transaction is a serialized read-modify-write.
type BoltStore struct {
	db     *bolt.DB
	logger *slog.Logger
	closed atomic.Bool
}

// NewBoltStore opens (or creates) the database file at path.
func NewBoltStore(path string, logger *slog.Logger) (*BoltStore, error) {
	if path == "" {
		return nil, fmt.Errorf("bolt: path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("bolt: create dir: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("bolt: open db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("bolt: create bucket: %w", err)
	}

	logger.Info("bolt store opened", "path", path)
	return &BoltStore{db: db, logger: logger}, nil
}

// Get retrieves the value at key.
func (s *BoltStore) Get(_ context.Context, key string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		// Returned slices are only valid inside the transaction.
		if v := tx.Bucket(boltBucket).Get([]byte(key)); v != nil {
			value, found = string(v), true
		}
		return nil
	})
	if err != nil {
		return "", false, s.wrap(err)
	}
	return value, found, nil
}

// Set stores value at key.
func (s *BoltStore) Set(_ context.Context, key, value string) error {
	return s.wrap(s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Put([]byte(key), []byte(value))
	}))
}

// Delete removes key.
func (s *BoltStore) Delete(_ context.Context, key string) error {
	return s.wrap(s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Delete([]byte(key))
	}))
}

// DeleteMany removes every key in keys in one transaction.
func (s *BoltStore) DeleteMany(_ context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.wrap(s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(boltBucket)
		for _, k := range keys {
			if err := b.Delete([]byte(k)); err != nil {
				return err
			}
		}
		return nil
	}))
}

// IncrementAndGet atomically increments the integer at key.
func (s *BoltStore) IncrementAndGet(_ context.Context, key string) (int64, error) {
	var n int64
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(boltBucket)
		var err error
		if n, err = parseCounter(b.Get([]byte(key))); err != nil {
			return err
		}
		n++
		return b.Put([]byte(key), []byte(strconv.FormatInt(n, 10)))
	})
	if err != nil {
		return 0, s.wrap(err)
	}
	return n, nil
}

// SetIfAbsent stores value unless key exists.
func (s *BoltStore) SetIfAbsent(_ context.Context, key, value string) (bool, error) {
	stored := false
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(boltBucket)
		if b.Get([]byte(key)) != nil {
			return nil
		}
		stored = true
		return b.Put([]byte(key), []byte(value))
	})
	if err != nil {
		return false, s.wrap(err)
	}
	return stored, nil
}

// ListKeys returns every key starting with prefix.
func (s *BoltStore) ListKeys(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	p := []byte(prefix)
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(boltBucket).Cursor()
		for k, _ := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, _ = c.Next() {
			keys = append(keys, string(k))
		}
		return nil
	})
	if err != nil {
		return nil, s.wrap(err)
	}
	return keys, nil
}

// Close closes the database file.
func (s *BoltStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("bolt: close db: %w", err)
	}
	s.logger.Info("bolt store closed")
	return nil
}

// RegisterMetrics registers bbolt freelist and transaction metrics.
// Returns the store for method chaining.
func (s *BoltStore) RegisterMetrics(registry prometheus.Registerer) *BoltStore {
	registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "quickvote",
			Subsystem: "bolt",
			Name:      "free_pages",
			Help:      "Pages on the bbolt freelist",
		}, func() float64 {
			return float64(s.db.Stats().FreePageN)
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "quickvote",
			Subsystem: "bolt",
			Name:      "read_txns_total",
			Help:      "Read transactions started on the bbolt database",
		}, func() float64 {
			return float64(s.db.Stats().TxN)
		}),
	)
	return s
}

func (s *BoltStore) wrap(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, bolt.ErrDatabaseNotOpen) || s.closed.Load() {
		return fmt.Errorf("bolt: %w", ErrClosed)
	}
	return fmt.Errorf("bolt: %w", err)
}

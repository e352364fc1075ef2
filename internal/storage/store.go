package storage

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"time"

	"github.com/yndnr/quickvote-go/internal/core/service"
	"github.com/yndnr/quickvote-go/internal/storage/memory"
)

// Common errors
var (
	ErrClosed        = errors.New("kv store closed")
	ErrNotInteger    = errors.New("value is not an integer")
	ErrUnknownEngine = errors.New("unknown storage engine")
)

// Engine names accepted by Config.Engine.
const (
	EngineMemory = "memory"
	EngineRedis  = "redis"
	EngineBadger = "badger"
	EngineBolt   = "bolt"
)

// Store is a closable backend offering the full voting contract.
type Store interface {
	service.KVStore
	service.ConditionalSetter
	io.Closer
}

// Config selects and configures a backend.
type Config struct {
	// Engine is one of "memory", "redis", "badger", "bolt".
	// Default: "memory"
	Engine string

	// DataDir is the directory of the embedded engines.
	DataDir string

	Redis  RedisConfig
	Badger BadgerConfig
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
	PoolSize    int // 0 uses the client default
}

// BadgerConfig contains Badger tuning parameters.
type BadgerConfig struct {
	// GCInterval is the interval between value log GC runs.
	// Default: 10m
	GCInterval time.Duration

	// GCThreshold is the GC discard ratio (0.0-1.0).
	// Default: 0.5
	GCThreshold float64

	// CacheSize is the block cache size in bytes.
	// Default: 64MB
	CacheSize int64

	// SyncWrites fsyncs every write.
	SyncWrites bool

	// InMemory keeps everything in RAM; DataDir is ignored.
	InMemory bool
}

// DefaultConfig returns the default storage configuration.
func DefaultConfig() Config {
	return Config{
		Engine:  EngineMemory,
		DataDir: "data",
		Redis: RedisConfig{
			Addr:        "localhost:6379",
			DialTimeout: 5 * time.Second,
		},
		Badger: DefaultBadgerConfig(),
	}
}

// DefaultBadgerConfig returns the default Badger configuration.
func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{
		GCInterval:  10 * time.Minute,
		GCThreshold: 0.5,
		CacheSize:   64 << 20,
	}
}

// Open creates the backend named by cfg.Engine.
func Open(cfg Config, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("engine", cfg.Engine)

	switch cfg.Engine {
	case "", EngineMemory:
		return memory.New(), nil
	case EngineRedis:
		return NewRedisStore(cfg.Redis, logger)
	case EngineBadger:
		return NewBadgerStore(filepath.Join(cfg.DataDir, "badger"), cfg.Badger, logger)
	case EngineBolt:
		return NewBoltStore(filepath.Join(cfg.DataDir, "quickvote.db"), logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, cfg.Engine)
	}
}

// parseCounter decodes an integer value; a missing value is zero.
func parseCounter(raw []byte) (int64, error) {
	if raw == nil {
		return 0, nil
	}
	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNotInteger, raw)
	}
	return n, nil
}

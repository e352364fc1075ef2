package config

import (
	"os"
	"time"

	"github.com/yndnr/quickvote-go/internal/storage"
)

// Default configuration values.
const (
	DefaultHTTPAddr        = "0.0.0.0:5000"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 10 * time.Second

	DefaultRateLimitRPS   = 50
	DefaultRateLimitBurst = 100

	DefaultAdminPassword = "admin123"

	DefaultEngine           = storage.EngineMemory
	DefaultDataDir          = "data"
	DefaultRedisAddr        = "localhost:6379"
	DefaultRedisDialTimeout = 5 * time.Second
	DefaultBadgerGCInterval = 10 * time.Minute

	DefaultAMQPExchange = "quickvote.events"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:               DefaultHTTPAddr,
				CORSAllowedOrigins: []string{"*"},
				RateLimit: RateLimitConfig{
					Enabled: false,
					RPS:     DefaultRateLimitRPS,
					Burst:   DefaultRateLimitBurst,
				},
				ReadTimeout:  DefaultReadTimeout,
				WriteTimeout: DefaultWriteTimeout,
			},
			ContainerID:     defaultContainerID(),
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Admin: AdminSection{
			Password: DefaultAdminPassword,
		},
		Storage: StorageSection{
			Engine:  DefaultEngine,
			DataDir: DefaultDataDir,
			Redis: StorageRedis{
				Addr:        DefaultRedisAddr,
				DialTimeout: DefaultRedisDialTimeout,
			},
			Badger: StorageBadger{
				GCInterval: DefaultBadgerGCInterval,
			},
		},
		Events: EventsSection{
			AMQP: AMQPConfig{
				Exchange: DefaultAMQPExchange,
			},
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Metrics: MetricsSection{
			Enabled: true,
		},
	}
}

// DefaultMap returns Default as dotted koanf keys. Every key listed here
// can also be set through a QUICKVOTE_* variable.
func DefaultMap() map[string]any {
	d := Default()
	return map[string]any{
		"server.http.addr":                 d.Server.HTTP.Addr,
		"server.http.tls_cert_file":        d.Server.HTTP.TLSCertFile,
		"server.http.tls_key_file":         d.Server.HTTP.TLSKeyFile,
		"server.http.cors_allowed_origins": d.Server.HTTP.CORSAllowedOrigins,
		"server.http.rate_limit.enabled":   d.Server.HTTP.RateLimit.Enabled,
		"server.http.rate_limit.rps":       d.Server.HTTP.RateLimit.RPS,
		"server.http.rate_limit.burst":     d.Server.HTTP.RateLimit.Burst,
		"server.http.read_timeout":         d.Server.HTTP.ReadTimeout,
		"server.http.write_timeout":        d.Server.HTTP.WriteTimeout,
		"server.http.static_dir":           d.Server.HTTP.StaticDir,
		"server.container_id":              d.Server.ContainerID,
		"server.shutdown_timeout":          d.Server.ShutdownTimeout,
		"admin.password":                   d.Admin.Password,
		"storage.engine":                   d.Storage.Engine,
		"storage.data_dir":                 d.Storage.DataDir,
		"storage.redis.addr":               d.Storage.Redis.Addr,
		"storage.redis.password":           d.Storage.Redis.Password,
		"storage.redis.db":                 d.Storage.Redis.DB,
		"storage.redis.dial_timeout":       d.Storage.Redis.DialTimeout,
		"storage.redis.pool_size":          d.Storage.Redis.PoolSize,
		"storage.badger.gc_interval":       d.Storage.Badger.GCInterval,
		"storage.badger.sync_writes":       d.Storage.Badger.SyncWrites,
		"storage.badger.in_memory":         d.Storage.Badger.InMemory,
		"events.amqp.url":                  d.Events.AMQP.URL,
		"events.amqp.exchange":             d.Events.AMQP.Exchange,
		"events.amqp.ca_file":              d.Events.AMQP.CAFile,
		"log.level":                        d.Log.Level,
		"log.format":                       d.Log.Format,
		"log.show_identities":              d.Log.ShowIdentities,
		"metrics.enabled":                  d.Metrics.Enabled,
	}
}

// ToStorage maps the storage section onto the backend configuration.
func (c *ServerConfig) ToStorage() storage.Config {
	sc := storage.DefaultConfig()
	sc.Engine = c.Storage.Engine
	sc.DataDir = c.Storage.DataDir
	sc.Redis = storage.RedisConfig{
		Addr:        c.Storage.Redis.Addr,
		Password:    c.Storage.Redis.Password,
		DB:          c.Storage.Redis.DB,
		DialTimeout: c.Storage.Redis.DialTimeout,
		PoolSize:    c.Storage.Redis.PoolSize,
	}
	if c.Storage.Badger.GCInterval > 0 {
		sc.Badger.GCInterval = c.Storage.Badger.GCInterval
	}
	sc.Badger.SyncWrites = c.Storage.Badger.SyncWrites
	sc.Badger.InMemory = c.Storage.Badger.InMemory
	return sc
}

func defaultContainerID() string {
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	return "unknown"
}

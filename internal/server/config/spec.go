package config

import "time"

// ServerConfig is the root configuration for quickvote-server.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server"`
	Admin   AdminSection   `koanf:"admin"`
	Storage StorageSection `koanf:"storage"`
	Events  EventsSection  `koanf:"events"`
	Log     LogSection     `koanf:"log"`
	Metrics MetricsSection `koanf:"metrics"`
}

// ServerSection configures the request layer.
type ServerSection struct {
	HTTP HTTPConfig `koanf:"http"`

	// ContainerID is reported in responses so load-balancer distribution
	// is visible to clients. Defaults to the hostname.
	ContainerID string `koanf:"container_id"`

	// ShutdownTimeout bounds the graceful shutdown of every component.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr        string `koanf:"addr"`
	TLSCertFile string `koanf:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file"`

	// CORSAllowedOrigins lists the origins allowed by CORS. "*" allows any.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	RateLimit RateLimitConfig `koanf:"rate_limit"`

	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// StaticDir, when set, is served at / with index.html as the fallback
	// for unknown paths.
	StaticDir string `koanf:"static_dir"`
}

// TLSEnabled reports whether both TLS files are configured.
func (c HTTPConfig) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// RateLimitConfig configures the per-IP token bucket.
type RateLimitConfig struct {
	Enabled bool    `koanf:"enabled"`
	RPS     float64 `koanf:"rps"`
	Burst   int     `koanf:"burst"`
}

// AdminSection configures the session management endpoints.
type AdminSection struct {
	// Password is compared against the X-Admin-Password header.
	Password string `koanf:"password"`
}

// StorageSection selects the key-value backend.
type StorageSection struct {
	Engine  string        `koanf:"engine"`
	DataDir string        `koanf:"data_dir"`
	Redis   StorageRedis  `koanf:"redis"`
	Badger  StorageBadger `koanf:"badger"`
}

// StorageRedis configures the redis backend.
type StorageRedis struct {
	Addr        string        `koanf:"addr"`
	Password    string        `koanf:"password"`
	DB          int           `koanf:"db"`
	DialTimeout time.Duration `koanf:"dial_timeout"`
	PoolSize    int           `koanf:"pool_size"`
}

// StorageBadger tunes the badger backend.
type StorageBadger struct {
	GCInterval time.Duration `koanf:"gc_interval"`
	SyncWrites bool          `koanf:"sync_writes"`
	InMemory   bool          `koanf:"in_memory"`
}

// EventsSection configures vote event publishing.
type EventsSection struct {
	AMQP AMQPConfig `koanf:"amqp"`
}

// AMQPConfig configures the AMQP publisher. An empty URL disables it.
type AMQPConfig struct {
	URL      string `koanf:"url"`
	Exchange string `koanf:"exchange"`
	// CAFile adds a CA to the system roots for amqps:// URLs.
	CAFile string `koanf:"ca_file"`
}

// Enabled reports whether events are published.
func (c AMQPConfig) Enabled() bool {
	return c.URL != ""
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	// ShowIdentities logs voter e-mail addresses unmasked.
	ShowIdentities bool `koanf:"show_identities"`
}

// MetricsSection configures the Prometheus endpoint.
type MetricsSection struct {
	Enabled bool `koanf:"enabled"`
}

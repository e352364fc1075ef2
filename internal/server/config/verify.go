package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"

	"github.com/yndnr/quickvote-go/internal/storage"
)

// Verify validates the configuration and reports every problem at once.
func Verify(cfg *ServerConfig) error {
	var errs []error
	errs = append(errs, verifyServer(&cfg.Server)...)
	errs = append(errs, verifyStorage(&cfg.Storage)...)
	errs = append(errs, verifyEvents(&cfg.Events)...)
	errs = append(errs, verifyLog(&cfg.Log)...)

	if cfg.Admin.Password == "" {
		errs = append(errs, errors.New("admin.password is required"))
	}
	return errors.Join(errs...)
}

func verifyServer(cfg *ServerSection) []error {
	var errs []error

	if _, _, err := net.SplitHostPort(cfg.HTTP.Addr); err != nil {
		errs = append(errs, fmt.Errorf("server.http.addr %q: %w", cfg.HTTP.Addr, err))
	}

	if (cfg.HTTP.TLSCertFile == "") != (cfg.HTTP.TLSKeyFile == "") {
		errs = append(errs, errors.New("server.http.tls_cert_file and tls_key_file must be set together"))
	}
	for _, f := range []string{cfg.HTTP.TLSCertFile, cfg.HTTP.TLSKeyFile} {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); err != nil {
			errs = append(errs, fmt.Errorf("tls file: %w", err))
		}
	}

	if dir := cfg.HTTP.StaticDir; dir != "" {
		if fi, err := os.Stat(dir); err != nil {
			errs = append(errs, fmt.Errorf("server.http.static_dir: %w", err))
		} else if !fi.IsDir() {
			errs = append(errs, fmt.Errorf("server.http.static_dir %q is not a directory", dir))
		}
	}

	if rl := cfg.HTTP.RateLimit; rl.Enabled {
		if rl.RPS <= 0 {
			errs = append(errs, errors.New("server.http.rate_limit.rps must be positive"))
		}
		if rl.Burst < 1 {
			errs = append(errs, errors.New("server.http.rate_limit.burst must be at least 1"))
		}
	}

	if strings.TrimSpace(cfg.ContainerID) == "" {
		errs = append(errs, errors.New("server.container_id is required"))
	}
	if cfg.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must be positive"))
	}
	return errs
}

func verifyStorage(cfg *StorageSection) []error {
	var errs []error

	switch cfg.Engine {
	case storage.EngineMemory:
	case storage.EngineRedis:
		if cfg.Redis.Addr == "" {
			errs = append(errs, errors.New("storage.redis.addr is required for the redis engine"))
		}
		if cfg.Redis.DB < 0 {
			errs = append(errs, errors.New("storage.redis.db must not be negative"))
		}
	case storage.EngineBadger, storage.EngineBolt:
		if cfg.Engine == storage.EngineBadger && cfg.Badger.InMemory {
			break
		}
		if cfg.DataDir == "" {
			errs = append(errs, fmt.Errorf("storage.data_dir is required for the %s engine", cfg.Engine))
			break
		}
		if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
			errs = append(errs, fmt.Errorf("cannot create data directory: %w", err))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.engine %q: %w", cfg.Engine, storage.ErrUnknownEngine))
	}
	return errs
}

func verifyEvents(cfg *EventsSection) []error {
	if !cfg.AMQP.Enabled() {
		return nil
	}

	var errs []error
	u, err := url.Parse(cfg.AMQP.URL)
	if err != nil {
		errs = append(errs, fmt.Errorf("events.amqp.url: %w", err))
	} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
		errs = append(errs, fmt.Errorf("events.amqp.url: unsupported scheme %q", u.Scheme))
	}
	if cfg.AMQP.Exchange == "" {
		errs = append(errs, errors.New("events.amqp.exchange is required when events.amqp.url is set"))
	}
	return errs
}

func verifyLog(cfg *LogSection) []error {
	var errs []error
	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Level))
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not one of json, text", cfg.Format))
	}
	return errs
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/yndnr/quickvote-go/internal/core/domain"
	"github.com/yndnr/quickvote-go/internal/core/service"
	"github.com/yndnr/quickvote-go/internal/events"
	"github.com/yndnr/quickvote-go/internal/infra/buildinfo"
	"github.com/yndnr/quickvote-go/internal/infra/confloader"
	"github.com/yndnr/quickvote-go/internal/infra/shutdown"
	"github.com/yndnr/quickvote-go/internal/infra/tlsroots"
	"github.com/yndnr/quickvote-go/internal/server/config"
	"github.com/yndnr/quickvote-go/internal/server/httpserver"
	"github.com/yndnr/quickvote-go/internal/server/stream"
	"github.com/yndnr/quickvote-go/internal/storage"
	"github.com/yndnr/quickvote-go/internal/telemetry/logger"
	"github.com/yndnr/quickvote-go/internal/telemetry/metric"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("quickvote-server " + buildinfo.String())
		return nil
	}

	// Load configuration
	loader := config.NewLoader(*configFile)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := config.Verify(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:          cfg.Log.Level,
		Format:         cfg.Log.Format,
		Output:         os.Stdout,
		ShowIdentities: cfg.Log.ShowIdentities,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)
	slogLogger := log.Slog()

	info := buildinfo.Get()
	log.Info("starting quickvote-server",
		"version", info.Version,
		"commit", info.Commit,
		"container", cfg.Server.ContainerID,
		"config", *configFile)
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	var metrics *metric.Registry
	if cfg.Metrics.Enabled {
		metrics = metric.NewRegistry()
		metrics.SetBuildInfo(info.Version, info.Commit, info.GoVersion)
	}

	shutdownHandler := shutdown.NewHandler(cfg.Server.ShutdownTimeout, slogLogger)

	// Hooks run in reverse order, so the store registered first closes last.
	store, err := initStorage(cfg, metrics, slogLogger)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	shutdownHandler.OnShutdown("storage", func(context.Context) error {
		return store.Close()
	})

	listeners := service.Listeners{}
	if metrics != nil {
		listeners = append(listeners, metrics)
	}
	if cfg.Events.AMQP.Enabled() {
		publisher, err := initPublisher(cfg, metrics, slogLogger)
		if err != nil {
			shutdownHandler.Shutdown()
			return fmt.Errorf("init events: %w", err)
		}
		listeners = append(listeners, publisher)
		shutdownHandler.OnShutdown("events", func(context.Context) error {
			return publisher.Close()
		})
	}

	// The hub reads results from the service and the service notifies the
	// hub, so the hub is reached through a closure.
	var hub *stream.Hub
	listeners = append(listeners, service.ListenerFunc(func(ctx context.Context, ev domain.Event) {
		hub.OnEvent(ctx, ev)
	}))
	svc := service.NewVotingService(store, service.WithListener(listeners))

	hubOpts := []stream.Option{stream.WithAllowedOrigins(cfg.Server.HTTP.CORSAllowedOrigins)}
	if metrics != nil {
		hubOpts = append(hubOpts, stream.WithGauge(metrics.StreamClients))
	}
	hub = stream.NewHub(svc, cfg.Server.ContainerID, slogLogger, hubOpts...)

	hubCtx, stopHub := context.WithCancel(context.Background())
	go hub.Run(hubCtx)
	shutdownHandler.OnShutdown("stream", func(context.Context) error {
		stopHub()
		hub.Close()
		return nil
	})

	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Voting:             svc,
		Stream:             hub,
		Metrics:            metrics,
		Logger:             slogLogger,
		ContainerID:        cfg.Server.ContainerID,
		AdminPassword:      cfg.Admin.Password,
		CORSAllowedOrigins: cfg.Server.HTTP.CORSAllowedOrigins,
		RateLimit:          rateLimit(cfg.Server.HTTP.RateLimit),
		StaticDir:          cfg.Server.HTTP.StaticDir,
	})

	// Config file and certificate watcher
	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(slogLogger))
	if err != nil {
		shutdownHandler.Shutdown()
		return fmt.Errorf("init watcher: %w", err)
	}
	shutdownHandler.OnShutdown("watcher", func(context.Context) error {
		return watcher.Stop()
	})
	if path := loader.FilePath(); path != "" {
		if err := watchConfig(watcher, loader, path, log); err != nil {
			log.Warn("config reload disabled", "error", err)
		}
	}

	serverOpts := []httpserver.Option{
		httpserver.WithTimeouts(cfg.Server.HTTP.ReadTimeout, cfg.Server.HTTP.WriteTimeout),
	}
	if cfg.Server.HTTP.TLSEnabled() {
		kp, err := tlsroots.LoadKeyPair(cfg.Server.HTTP.TLSCertFile, cfg.Server.HTTP.TLSKeyFile, slogLogger)
		if err != nil {
			shutdownHandler.Shutdown()
			return fmt.Errorf("load tls key pair: %w", err)
		}
		if err := kp.WatchWith(watcher); err != nil {
			log.Warn("certificate reload disabled", "error", err)
		}
		serverOpts = append(serverOpts, httpserver.WithKeyPair(kp))
	}
	watcher.StartAsync()

	httpServer := httpserver.New(cfg.Server.HTTP.Addr, router, serverOpts...)
	shutdownHandler.OnShutdown("http", func(ctx context.Context) error {
		return httpServer.Shutdown(ctx)
	})

	serveErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening",
			"addr", cfg.Server.HTTP.Addr,
			"tls", httpServer.TLSEnabled(),
			"engine", cfg.Storage.Engine)
		serveErr <- httpServer.ListenAndServe()
	}()

	// Stop on a signal or when the listener fails.
	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)
	go func() {
		if err := <-serveErr; err != nil {
			log.Error("HTTP server error", "error", err)
			cancel(fmt.Errorf("http server: %w", err))
		}
	}()

	log.Info("server started, press Ctrl+C to stop")
	if err := shutdownHandler.Wait(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}
	if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) {
		return cause
	}

	log.Info("server stopped gracefully")
	return nil
}

// initStorage opens the configured backend, instrumented when metrics are on.
func initStorage(cfg *config.ServerConfig, metrics *metric.Registry, log *slog.Logger) (storage.Store, error) {
	store, err := storage.Open(cfg.ToStorage(), log)
	if err != nil {
		return nil, err
	}
	if metrics == nil {
		return store, nil
	}

	switch s := store.(type) {
	case *storage.BadgerStore:
		s.RegisterMetrics(metrics.Registerer())
	case *storage.BoltStore:
		s.RegisterMetrics(metrics.Registerer())
	}
	return storage.Instrument(store, metrics), nil
}

// initPublisher connects the AMQP event publisher.
func initPublisher(cfg *config.ServerConfig, metrics *metric.Registry, log *slog.Logger) (*events.AMQPPublisher, error) {
	ecfg := events.Config{
		URL:       cfg.Events.AMQP.URL,
		Exchange:  cfg.Events.AMQP.Exchange,
		Container: cfg.Server.ContainerID,
	}
	if cfg.Events.AMQP.CAFile != "" {
		tlsCfg, err := tlsroots.ClientTLSConfigFromFile(cfg.Events.AMQP.CAFile)
		if err != nil {
			return nil, err
		}
		ecfg.TLS = tlsCfg
	}

	var opts []events.Option
	if metrics != nil {
		opts = append(opts, events.WithRecorder(metrics))
	}
	return events.NewAMQPPublisher(ecfg, log, opts...)
}

// watchConfig reapplies log.level whenever the config file changes. Other
// settings need a restart.
func watchConfig(w *confloader.Watcher, loader *config.Loader, path string, log logger.Logger) error {
	if err := w.Watch(path); err != nil {
		return err
	}
	w.OnChange(func(changed string) {
		if !confloader.SamePath(changed, path) {
			return
		}
		cfg, err := loader.Load()
		if err == nil {
			err = config.Verify(cfg)
		}
		if err != nil {
			log.Warn("config reload rejected", "path", path, "error", err)
			return
		}
		if logger.SetLevel(cfg.Log.Level) {
			log.Info("log level changed", "level", cfg.Log.Level)
		}
	})
	return nil
}

func rateLimit(c config.RateLimitConfig) httpserver.RateLimitConfig {
	if !c.Enabled {
		return httpserver.RateLimitConfig{}
	}
	return httpserver.RateLimitConfig{RPS: c.RPS, Burst: c.Burst}
}

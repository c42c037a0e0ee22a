package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/citadel-app/citadel/internal/api"
	"github.com/citadel-app/citadel/internal/app/progression"
	"github.com/citadel-app/citadel/internal/domain"
	"github.com/citadel-app/citadel/internal/health"
	"github.com/citadel-app/citadel/internal/infra/kvredis"
	"github.com/citadel-app/citadel/internal/infra/showapi"
	"github.com/citadel-app/citadel/internal/infra/sqlite"
)

// Store is a key-value backend the daemon owns and closes.
type Store interface {
	domain.KVStore
	Close() error
}

// Daemon is the core Citadel runtime. It wires together all services.
type Daemon struct {
	Config   Config
	Logger   *zap.Logger
	Store    Store
	Provider *showapi.Client
	Engine   *progression.Engine
	Hub      *api.EventHub
	Health   *health.Checker
	Server   *api.Server
	lock     *Lock
	cancel   context.CancelFunc
}

// New creates and initializes a Daemon with all services wired.
func New(ctx context.Context) (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := NewLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}
	return NewWithConfig(ctx, cfg, logger)
}

// NewWithConfig creates a Daemon with the given configuration and loads the
// persisted progress record. The daemon holds the process lock in
// CitadelHome until Close; while another live process holds it, NewWithConfig
// returns a *LockedError.
func NewWithConfig(ctx context.Context, cfg Config, logger *zap.Logger) (*Daemon, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	lock, err := AcquireLock(CitadelHome())
	if err != nil {
		return nil, err
	}
	store, ping, err := openStore(ctx, cfg.Storage, logger)
	if err != nil {
		lock.Release()
		return nil, err
	}

	provider := showapi.New(cfg.Provider.BaseURL, parseDuration(cfg.Provider.Timeout, 10*time.Second), store, logger)

	eng := progression.New(store, cfg.Progression.Engine(), logger)
	eng.SetQuotes(showapi.Quotes())
	hub := api.NewEventHub(cfg.API.CORSOrigins, logger)
	eng.SetNotifier(progression.Notifiers{progression.NewLogNotifier(logger), hub})

	if err := eng.Load(ctx); err != nil {
		store.Close()
		lock.Release()
		return nil, fmt.Errorf("load progress: %w", err)
	}

	d := &Daemon{
		Config:   cfg,
		Logger:   logger,
		Store:    store,
		Provider: provider,
		Engine:   eng,
		Hub:      hub,
		lock:     lock,
	}

	d.Health = health.NewChecker(health.DefaultInterval, logger,
		health.Check{Name: "storage", CheckFn: ping},
		health.DirCheck("data_dir", CitadelHome()),
		health.Check{
			Name: "show_data",
			CheckFn: func(ctx context.Context) error {
				if !eng.Snapshot().WorldLoaded {
					return domain.ErrWorldNotLoaded
				}
				return nil
			},
			RecoverFn: d.LoadWorld,
		},
	)

	srv := api.NewServer(eng, hub, logger)
	srv.SetCORSOrigins(cfg.API.CORSOrigins)
	srv.SetQuizQuestions(cfg.Progression.QuizQuestions)
	srv.SetHealth(d.Health)
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}
	d.Server = srv

	return d, nil
}

// openStore opens the configured key-value backend and returns a ping
// function for health checks.
func openStore(ctx context.Context, cfg StorageConfig, logger *zap.Logger) (Store, func(context.Context) error, error) {
	switch cfg.Driver {
	case "redis":
		s, err := kvredis.Open(ctx, cfg.RedisURL, cfg.KeyPrefix, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("open redis: %w", err)
		}
		return s, s.Ping, nil
	default:
		db, err := sqlite.Open(CitadelHome())
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		return db, func(context.Context) error { return db.Ping() }, nil
	}
}

// LoadWorld fetches the show data and installs it in the engine.
func (d *Daemon) LoadWorld(ctx context.Context) error {
	out, err := d.Engine.LoadWorld(ctx, d.Provider)
	if err != nil {
		return err
	}
	if len(out.Regions) > 0 {
		d.Logger.Info("regions opened by stored discoveries", zap.Int("count", len(out.Regions)))
	}
	return nil
}

// Serve starts the HTTP server and blocks until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	// Show data loads in the background so the API answers right away. The
	// first health round waits for it, so a load in flight is not retried.
	go func() {
		if err := d.LoadWorld(ctx); err != nil {
			d.Logger.Warn("show data unavailable, retrying on next health round", zap.Error(err))
		}
		d.Health.Run(ctx)
	}()

	ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	addr := ln.Addr().String()
	if err := d.lock.SetAddr("http://" + addr); err != nil {
		ln.Close()
		return err
	}

	httpServer := &http.Server{
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		d.Hub.Close()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	d.Logger.Info("citadel serving",
		zap.String("addr", "http://"+addr),
		zap.String("storage", d.Config.Storage.Driver),
		zap.Bool("metrics", d.Config.Telemetry.Prometheus))

	if err := httpServer.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.Hub != nil {
		d.Hub.Close()
	}
	if d.Store != nil {
		_ = d.Store.Close()
	}
	if d.lock != nil {
		_ = d.lock.Release()
	}
	if d.Logger != nil {
		_ = d.Logger.Sync()
	}
}

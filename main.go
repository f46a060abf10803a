package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/icco/marquee/handlers"
	"github.com/icco/marquee/lib/catalog"
	"github.com/icco/marquee/lib/config"
	"github.com/icco/marquee/lib/db"
	"github.com/icco/marquee/lib/details"
	"github.com/icco/marquee/lib/health"
	"github.com/icco/marquee/lib/lock"
	"github.com/icco/marquee/lib/logging"
	"github.com/icco/marquee/lib/storage"
	"github.com/icco/marquee/lib/tmdb"
	"github.com/icco/marquee/lib/watchlist"
	"github.com/spf13/afero"
)

const lockTimeout = 5 * time.Second

type App struct {
	cfg      config.Config
	logger   *slog.Logger
	lock     *lock.FileLock
	storage  backend
	sessions *handlers.Sessions
	router   *chi.Mux
}

// backend is the opened watchlist storage. probe and close are nil for
// backends without a connection to check or release.
type backend struct {
	store storage.Storage
	probe health.Probe
	close func() error
}

func NewApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	fl := lock.NewFileLock(cfg.Storage.LockDir, logger.With(slog.String("component", "lock")))
	if err := fl.TryLock(ctx, watchlist.StorageKey, lockTimeout); err != nil {
		return nil, fmt.Errorf("failed to lock watchlist storage: %w", err)
	}

	b, err := openStorage(cfg.Storage, logger)
	if err != nil {
		_ = fl.Unlock(watchlist.StorageKey)
		return nil, err
	}

	store := watchlist.New(ctx, b.store, logger.With(slog.String("component", "watchlist")))

	client := tmdb.NewClient(cfg.TMDB.APIKey, logger.With(slog.String("component", "tmdb")),
		tmdb.WithBaseURL(cfg.TMDB.BaseURL),
		tmdb.WithTimeout(cfg.TMDB.Timeout),
	)

	catalogLogger := logger.With(slog.String("component", "catalog"))
	sessions := handlers.NewSessions(cfg.Catalog.MaxSessions, cfg.Catalog.SessionTTL, func() *catalog.Orchestrator {
		return catalog.New(client, catalogLogger, catalog.WithDebounce(cfg.Catalog.SearchDebounce))
	}, catalogLogger)

	router := handlers.NewRouter(handlers.Deps{
		Sessions:  sessions,
		Details:   details.New(client, logger.With(slog.String("component", "details")), cfg.Details.CacheSize, cfg.Details.CacheTTL),
		Watchlist: store,
		Health:    health.Check(cfg.Storage.Backend, b.probe, store.Len),
		Wait:      cfg.Server.RequestTimeout,
	})

	return &App{
		cfg:      cfg,
		logger:   logger,
		lock:     fl,
		storage:  b,
		sessions: sessions,
		router:   router,
	}, nil
}

// openStorage builds the configured watchlist backend.
func openStorage(cfg config.StorageConfig, logger *slog.Logger) (backend, error) {
	switch cfg.Backend {
	case config.BackendFile:
		fs, err := storage.NewFileStorage(afero.NewOsFs(), cfg.Dir)
		if err != nil {
			return backend{}, fmt.Errorf("failed to open storage dir: %w", err)
		}
		logger.Info("Using file storage", slog.String("dir", cfg.Dir))
		return backend{store: fs}, nil
	default:
		gormDB, err := db.Open(cfg.DBPath, logger)
		if err != nil {
			return backend{}, err
		}
		logger.Info("Using sqlite storage", slog.String("path", cfg.DBPath))
		return backend{
			store: db.NewRecordStore(gormDB),
			probe: health.PingDB(gormDB),
			close: func() error { return db.Close(gormDB) },
		}, nil
	}
}

func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + a.cfg.Server.Port,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Starting server", slog.String("port", a.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

func (a *App) Close() {
	a.sessions.Close()
	if a.storage.close != nil {
		if err := a.storage.close(); err != nil {
			a.logger.Error("Failed to close storage", slog.Any("error", err))
		}
		a.storage.close = nil
	}
	if err := a.lock.Unlock(watchlist.StorageKey); err != nil {
		a.logger.Error("Failed to release storage lock", slog.Any("error", err))
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to start", slog.Any("error", err))
		os.Exit(1)
	}
	defer app.Close()

	if err := app.Run(ctx); err != nil {
		logger.Error("Server error", slog.Any("error", err))
		app.Close()
		os.Exit(1)
	}
}

// Package main implements the tasksync daemon: an offline-first
// synchronization engine for a task list. It keeps a local cache and
// outbox in Postgres, reconciles them with the authoritative task
// server whenever connectivity allows, and exposes a local control API
// for surrounding UI code.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/phrazzld/tasksync/internal/api"
	"github.com/phrazzld/tasksync/internal/config"
	"github.com/phrazzld/tasksync/internal/connectivity"
	"github.com/phrazzld/tasksync/internal/events"
	"github.com/phrazzld/tasksync/internal/platform/logger"
	"github.com/phrazzld/tasksync/internal/platform/postgres"
	"github.com/phrazzld/tasksync/internal/remote"
	"github.com/phrazzld/tasksync/internal/service"
	syncengine "github.com/phrazzld/tasksync/internal/sync"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("tasksync daemon failed: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger := logger.Setup(cfg.Server)
	appLogger.Info("configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("remote", cfg.Remote.BaseURL))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := setupDatabase(ctx, cfg, appLogger)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			appLogger.Error("failed to close database", slog.String("error", err.Error()))
		}
	}()

	cache := postgres.NewPostgresTaskCache(db, appLogger)
	outbox := postgres.NewPostgresOutbox(db, appLogger)
	idmap := postgres.NewPostgresIDMap(db, appLogger)

	session := remote.NewSession()
	if cfg.Remote.Token != "" {
		session.SetToken(cfg.Remote.Token)
	}

	client, err := remote.NewHTTPClient(cfg.Remote.BaseURL, cfg.Remote.Timeout, session, appLogger)
	if err != nil {
		return fmt.Errorf("failed to create remote client: %w", err)
	}

	prober := connectivity.NewProber(client.Ping, cfg.Sync.ProbeInterval, appLogger)
	go prober.Run(ctx)

	emitter := events.NewInMemoryEventEmitter(appLogger)
	recorder := events.NewLastEventRecorder()
	emitter.RegisterHandler(recorder)

	engine, err := syncengine.NewEngine(cache, outbox, idmap, client, prober, emitter, appLogger)
	if err != nil {
		return fmt.Errorf("failed to create sync engine: %w", err)
	}
	go engine.Run(ctx)

	// Warm the in-memory snapshot; offline startup serves the cache.
	if _, err := engine.LoadInitial(ctx); err != nil {
		appLogger.Warn("initial load failed, starting with empty task list",
			slog.String("error", err.Error()))
	}

	tasks, err := service.NewTaskService(cache, outbox, engine, appLogger)
	if err != nil {
		return fmt.Errorf("failed to create task service: %w", err)
	}

	router := api.NewRouter(
		api.NewTaskHandler(tasks, appLogger),
		api.NewSyncHandler(engine, outbox, recorder, appLogger),
		appLogger,
	)

	return serveHTTP(ctx, cfg, router, appLogger)
}

// setupDatabase opens the local store, configures the pool, verifies
// connectivity, and applies pending migrations.
func setupDatabase(ctx context.Context, cfg *config.Config, appLogger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := postgres.Migrate(ctx, db, appLogger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	appLogger.Info("database connection established")
	return db, nil
}

// serveHTTP runs the control API until the context is cancelled, then
// shuts it down gracefully.
func serveHTTP(ctx context.Context, cfg *config.Config, handler http.Handler, appLogger *slog.Logger) error {
	server := &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port),
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		appLogger.Info("control API listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("control API failed: %w", err)
	case <-ctx.Done():
		appLogger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("control API shutdown failed: %w", err)
	}

	appLogger.Info("shutdown complete")
	return nil
}

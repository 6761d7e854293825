package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/pverel/imageforge-api/internal/config"
	"github.com/pverel/imageforge-api/internal/download"
	"github.com/pverel/imageforge-api/internal/generation"
	"github.com/pverel/imageforge-api/internal/platform/grok"
	"github.com/pverel/imageforge-api/internal/platform/postgres"
	"github.com/pverel/imageforge-api/internal/store"
	"github.com/pverel/imageforge-api/internal/task"
	"github.com/pverel/imageforge-api/internal/ws"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	taskStore  store.TaskStore
	imageStore store.ImageStore

	generator generation.Generator
	artifacts *download.Saver
	hub       *ws.Hub

	taskService *task.Service
}

// newApplication creates a new application instance with all dependencies
// initialized and the worker pool started.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	app.taskStore = postgres.NewPostgresTaskStore(db)
	app.imageStore = postgres.NewPostgresImageStore(db)

	app.artifacts = download.NewSaver(
		cfg.Storage.OutputDir,
		nil,
		logger.With("component", "downloader"),
	)
	app.generator = grok.NewClient(
		cfg.Storage.OutputDir,
		logger.With("component", "generator"),
	)

	app.hub = ws.NewHub(logger.With("component", "ws_hub"))

	app.taskService = task.NewService(
		app.taskStore,
		app.imageStore,
		app.generator,
		app.hub,
		cfg.Generation,
		task.Config{WorkerCount: cfg.Generation.ClampedMaxConcurrent()},
		logger.With("component", "task_service"),
	)

	// Recovery runs inside Start, before any worker picks up new work.
	if err := app.taskService.Start(); err != nil {
		return nil, fmt.Errorf("failed to start task service: %w", err)
	}

	logger.Info("application initialized")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.taskService != nil {
		app.taskService.Stop()
	}

	if app.hub != nil {
		app.hub.Close()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}

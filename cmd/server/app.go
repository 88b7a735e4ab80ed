package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/people-api/internal/api"
	"github.com/phrazzld/people-api/internal/api/middleware"
	"github.com/phrazzld/people-api/internal/config"
	"github.com/phrazzld/people-api/internal/events"
	"github.com/phrazzld/people-api/internal/service"
	"github.com/phrazzld/people-api/internal/store"
)

// application holds the shared dependencies of the server and releases them
// on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	// db is nil for the memory store.
	db    *sql.DB
	store store.PersonStore

	eventEmitter *events.InMemoryEventEmitter
	repository   *service.PersonRepository
	metrics      *middleware.Metrics
}

// newApplication wires the repository, event emitter and metrics over an
// already opened store.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB, st store.PersonStore) *application {
	app := &application{
		config:  cfg,
		logger:  logger,
		db:      db,
		store:   st,
		metrics: middleware.NewMetrics(),
	}

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.eventEmitter.RegisterHandler(events.NewLoggingHandler(logger))

	app.repository = service.NewPersonRepository(st, logger, service.WithEmitter(app.eventEmitter))

	logger.Info("Application initialized successfully",
		slog.String("storage_driver", cfg.Storage.Driver))
	return app
}

// setupRouter builds the HTTP handler for the application.
func (app *application) setupRouter() http.Handler {
	handler := api.NewPersonHandler(app.repository, api.NewLinkBuilder(app.config.Server.BaseURL), app.logger)
	return api.NewRouter(api.RouterConfig{
		Handler: handler,
		Metrics: app.metrics,
		Logger:  app.logger,
	})
}

// Run serves HTTP until ctx is cancelled or the process receives SIGINT or
// SIGTERM.
func (app *application) Run(ctx context.Context) error {
	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", slog.String("error", err.Error()))
		}
	}

	app.logger.Info("Application shutdown completed")
}

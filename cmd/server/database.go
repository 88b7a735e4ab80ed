package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/people-api/internal/config"
	"github.com/phrazzld/people-api/internal/platform/memory"
	"github.com/phrazzld/people-api/internal/platform/migrations"
	"github.com/phrazzld/people-api/internal/platform/postgres"
	"github.com/phrazzld/people-api/internal/platform/sqlite"
	"github.com/phrazzld/people-api/internal/store"
)

// setupStore opens the configured storage backend and brings its schema up
// to date. The returned *sql.DB is nil for the memory driver.
func setupStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.PersonStore, *sql.DB, error) {
	if cfg.Storage.Driver == config.DriverMemory {
		logger.Info("Using in-memory person store")
		return memory.NewPersonStore(logger), nil, nil
	}

	db, src, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	if err := migrations.Apply(ctx, db, src, logger); err != nil {
		closeDB(db, logger)
		return nil, nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		return sqlite.NewPersonStore(db, logger), db, nil
	default:
		return postgres.NewPostgresPersonStore(db, logger), db, nil
	}
}

// openDatabase connects to the SQL backend selected by cfg and returns the
// migrations that belong to it.
func openDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sql.DB, migrations.Source, error) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.Storage.SQLitePath, logger)
		if err != nil {
			return nil, migrations.Source{}, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		logger.Info("Database connection established",
			slog.String("driver", config.DriverSQLite),
			slog.String("path", cfg.Storage.SQLitePath))
		return db, sqlite.Migrations(), nil

	case config.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.Database.URL, logger)
		if err != nil {
			return nil, migrations.Source{}, fmt.Errorf("failed to open postgres database: %w", err)
		}
		logger.Info("Database connection established",
			slog.String("driver", config.DriverPostgres),
			slog.String("url", maskDatabaseURL(cfg.Database.URL)))
		return db, postgres.Migrations(), nil

	default:
		return nil, migrations.Source{}, fmt.Errorf("storage driver %q has no database", cfg.Storage.Driver)
	}
}

func closeDB(db *sql.DB, logger *slog.Logger) {
	if err := db.Close(); err != nil {
		logger.Error("Error closing database connection", slog.String("error", err.Error()))
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/phrazzld/people-api/internal/config"
	"github.com/phrazzld/people-api/internal/platform/migrations"
)

// ErrNoMigrations is returned when a migration command is run against the
// memory store.
var ErrNoMigrations = errors.New("the memory storage driver has no migrations")

// handleMigrations runs a single goose command against the configured
// database and returns.
func handleMigrations(ctx context.Context, cfg *config.Config, command string, logger *slog.Logger) error {
	if cfg.Storage.Driver == config.DriverMemory {
		return ErrNoMigrations
	}

	logger.Info("Executing migrations",
		slog.String("command", command),
		slog.String("driver", cfg.Storage.Driver))

	db, src, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeDB(db, logger)

	if err := migrations.Run(ctx, db, src, command, logger); err != nil {
		return fmt.Errorf("migration %s failed: %w", command, err)
	}

	logger.Info("Migrations completed successfully", slog.String("command", command))
	return nil
}

// maskDatabaseURL masks the password in a database URL for safe logging.
func maskDatabaseURL(dbURL string) string {
	parsedURL, err := url.Parse(dbURL)
	if err != nil {
		return "invalid-url"
	}

	if parsedURL.User != nil {
		if _, hasPassword := parsedURL.User.Password(); hasPassword {
			parsedURL.User = url.UserPassword(parsedURL.User.Username(), "****")
		}
		return parsedURL.String()
	}

	return dbURL
}

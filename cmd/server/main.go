// Package main implements the entry point for the people API server, which
// exposes the person repository as a HAL REST resource.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"

	"github.com/phrazzld/people-api/internal/config"
	"github.com/phrazzld/people-api/internal/platform/logger"
	"github.com/phrazzld/people-api/internal/platform/otel"
)

// main parses flags and either runs a migration command or starts the
// HTTP server.
func main() {
	migrateCmd := flag.String("migrate", "",
		"Run a database migration command and exit: up, down, status, version or reset")
	verbose := flag.Bool("verbose", false, "Log at debug level regardless of configuration")
	flag.Parse()

	if err := run(context.Background(), *migrateCmd, *verbose); err != nil {
		log.Fatalf("people-api: %v", err)
	}
}

// run loads configuration and sets up logging, then dispatches to the
// migration runner or the server.
func run(ctx context.Context, migrateCmd string, verbose bool) error {
	cfg, err := loadAppConfig(verbose)
	if err != nil {
		return err
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	if migrateCmd != "" {
		return handleMigrations(ctx, cfg, migrateCmd, l)
	}

	shutdownTracing, err := otel.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			l.Error("failed to shut down tracing", slog.String("error", err.Error()))
		}
	}()

	st, db, err := setupStore(ctx, cfg, l)
	if err != nil {
		return err
	}

	app := newApplication(cfg, l, db, st)
	return app.Run(ctx)
}

// loadAppConfig loads the configuration. verbose forces debug logging.
func loadAppConfig(verbose bool) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if verbose {
		cfg.Server.LogLevel = "debug"
	}
	return cfg, nil
}

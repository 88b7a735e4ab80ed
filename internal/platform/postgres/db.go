package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver

	"github.com/phrazzld/people-api/internal/platform/migrations"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// DriverName is the database/sql driver registered by pgx.
const DriverName = "pgx"

const pingTimeout = 5 * time.Second

// Migrations returns the goose source for the PostgreSQL schema.
func Migrations() migrations.Source {
	sub, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		// ALLOW-PANIC: the embedded directory is fixed at build time
		panic(fmt.Sprintf("postgres migrations: %v", err))
	}
	return migrations.Source{Dialect: "postgres", FS: sub}
}

// Open establishes a connection pool to databaseURL and verifies it with a ping.
func Open(ctx context.Context, databaseURL string, logger *slog.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open(DriverName, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established")
	return db, nil
}

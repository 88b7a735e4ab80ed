package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/phrazzld/people-api/internal/platform/migrations"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

const pingTimeout = 5 * time.Second

// Migrations returns the goose source for the SQLite schema.
func Migrations() migrations.Source {
	sub, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		// ALLOW-PANIC: the embedded directory is fixed at build time
		panic(fmt.Sprintf("sqlite migrations: %v", err))
	}
	return migrations.Source{Dialect: "sqlite3", FS: sub}
}

// Open opens the database at path. SQLite serialises writers, so the pool is
// limited to one connection and waiting writers retry for up to five seconds.
func Open(ctx context.Context, path string, logger *slog.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	if _, err := db.ExecContext(pingCtx, "PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to configure sqlite database: %w", err)
	}

	logger.Info("sqlite database opened", slog.String("path", path))
	return db, nil
}

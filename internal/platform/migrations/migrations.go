// Package migrations applies the embedded goose migrations of a storage
// backend and implements the -migrate commands of the server binary.
package migrations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
)

// Supported commands.
const (
	CommandUp      = "up"
	CommandDown    = "down"
	CommandStatus  = "status"
	CommandVersion = "version"
	CommandReset   = "reset"
)

// TableName is the goose version table.
const TableName = "schema_migrations"

// ErrUnknownCommand is returned for a command Run does not support.
var ErrUnknownCommand = errors.New("unknown migration command")

// goose keeps its dialect, base FS and logger in package state.
var gooseMu sync.Mutex

// Source pairs a goose dialect name with the migrations written for it.
// FS holds the .sql files at its root.
type Source struct {
	Dialect string
	FS      fs.FS
}

// Apply runs every pending migration.
func Apply(ctx context.Context, db *sql.DB, src Source, log *slog.Logger) error {
	return Run(ctx, db, src, CommandUp, log)
}

// Run executes command against db. Every log line of one run shares a
// correlation ID.
func Run(ctx context.Context, db *sql.DB, src Source, command string, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(
		slog.String("correlation_id", uuid.New().String()),
		slog.String("component", "migrations"),
		slog.String("command", command),
		slog.String("dialect", src.Dialect),
	)

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetLogger(&slogGooseLogger{log: log})
	goose.SetTableName(TableName)
	goose.SetBaseFS(src.FS)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect(src.Dialect); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	start := time.Now()
	log.Info("starting migration command")

	var err error
	switch command {
	case CommandUp:
		err = goose.UpContext(ctx, db, ".")
	case CommandDown:
		err = goose.DownContext(ctx, db, ".")
	case CommandReset:
		err = goose.ResetContext(ctx, db, ".")
	case CommandStatus:
		err = goose.StatusContext(ctx, db, ".")
	case CommandVersion:
		var version int64
		version, err = goose.GetDBVersionContext(ctx, db)
		if err == nil {
			log.Info("database version", slog.Int64("version", version))
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, command)
	}
	if err != nil {
		log.Error("migration command failed", slog.String("error", err.Error()))
		return fmt.Errorf("migration %s failed: %w", command, err)
	}

	log.Info("migration command finished", slog.Int64("duration_ms", time.Since(start).Milliseconds()))
	return nil
}

// slogGooseLogger adapts the goose logger interface to slog.
type slogGooseLogger struct {
	log *slog.Logger
}

// Printf forwards goose progress messages at INFO.
func (l *slogGooseLogger) Printf(format string, v ...any) {
	l.log.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Fatalf logs at ERROR without exiting; the error is returned to the caller.
func (l *slogGooseLogger) Fatalf(format string, v ...any) {
	l.log.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

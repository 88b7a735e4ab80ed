package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/people-api/internal/platform/logger"
)

// DBTX abstracts the database access layer. It is implemented by both
// *sql.DB and *sql.Tx, so SQL stores work with either.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxFn is a function that executes within a database transaction.
type TxFn func(ctx context.Context, tx *sql.Tx) error

// RunInTransaction executes fn within a transaction. The transaction is
// committed when fn returns nil and rolled back otherwise, including when
// fn panics.
func RunInTransaction(ctx context.Context, db *sql.DB, fn TxFn) error {
	return RunInTransactionWithOptions(ctx, db, nil, fn)
}

// RunInTransactionWithOptions is RunInTransaction with explicit isolation
// and read-only settings. A nil opts uses the driver defaults.
func RunInTransactionWithOptions(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn TxFn) (err error) {
	log := logger.FromContext(ctx)

	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		log.Error("failed to begin transaction", slog.String("error", err.Error()))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error("failed to roll back transaction after panic",
					slog.String("error", rbErr.Error()),
					slog.Any("panic", p))
			}
			// ALLOW-PANIC: propagating caught panic from transaction
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error("failed to roll back transaction",
				slog.String("rollback_error", rbErr.Error()),
				slog.String("original_error", err.Error()))
			return fmt.Errorf("error rolling back transaction: %v (original error: %w)", rbErr, err)
		}
		log.Debug("rolled back transaction due to error", slog.String("error", err.Error()))
		return err
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit transaction", slog.String("error", err.Error()))
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ReadInTransaction runs fn so that every statement it issues sees the same
// data. When db is a *sql.DB, fn runs in a new transaction begun with opts
// and the transaction is committed afterwards. Any other DBTX, typically a
// caller's *sql.Tx, is passed to fn as is.
func ReadInTransaction(ctx context.Context, db DBTX, opts *sql.TxOptions, fn func(ctx context.Context, q DBTX) error) error {
	sqlDB, ok := db.(*sql.DB)
	if !ok {
		return fn(ctx, db)
	}
	return RunInTransactionWithOptions(ctx, sqlDB, opts, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, tx)
	})
}

package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/phrazzld/people-api/internal/store"
)

// PostgreSQL error codes
const (
	// stringTooLongCode is raised when a value exceeds a VARCHAR limit
	stringTooLongCode = "22001"

	// undefinedTableCode is raised when the schema has not been migrated
	undefinedTableCode = "42P01"
)

// ErrSchemaMissing is returned when the people table does not exist.
var ErrSchemaMissing = errors.New("database schema missing, run migrations")

// MapError maps a database error to an appropriate store error, wrapping the
// original so the cause stays available to errors.As.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %w", store.ErrPersonNotFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case stringTooLongCode:
			return fmt.Errorf("%w: value too long: %w", store.ErrInvalidEntity, err)
		case undefinedTableCode:
			return fmt.Errorf("%w: %w", ErrSchemaMissing, err)
		}
	}

	return err
}

// CheckRowsAffected returns store.ErrPersonNotFound when an UPDATE or DELETE
// touched no rows.
func CheckRowsAffected(result sql.Result) error {
	if result == nil {
		return fmt.Errorf("nil result provided to CheckRowsAffected")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return store.ErrPersonNotFound
	}
	return nil
}

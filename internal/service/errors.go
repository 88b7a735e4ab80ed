package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/people-api/internal/store"
)

// Common service errors - sentinel errors used across service implementations.
// Callers check for them with errors.Is; the API layer maps them to HTTP
// status codes.
var (
	// ErrFinderNotFound indicates that no finder is registered under the
	// requested name. It is a not-found error, mapped to 404.
	ErrFinderNotFound = fmt.Errorf("%w: finder", store.ErrNotFound)

	// ErrInvalidFinder is returned when a finder definition is unusable.
	ErrInvalidFinder = errors.New("invalid finder")
)

// RepositoryError wraps errors from the person repository with context.
type RepositoryError struct {
	// Operation is the operation that failed (e.g., "create", "search")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for RepositoryError.
func (e *RepositoryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("person repository %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("person repository %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// NewRepositoryError creates a new RepositoryError.
// Not-found errors are returned unwrapped since callers only need the
// sentinel.
func NewRepositoryError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, store.ErrPersonNotFound):
		return store.ErrPersonNotFound
	case errors.Is(err, ErrFinderNotFound):
		return ErrFinderNotFound
	}

	return &RepositoryError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

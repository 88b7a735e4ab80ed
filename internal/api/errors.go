package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/phrazzld/people-api/internal/api/shared"
	"github.com/phrazzld/people-api/internal/domain"
	"github.com/phrazzld/people-api/internal/service"
	"github.com/phrazzld/people-api/internal/store"
)

var (
	// ErrMalformedBody is returned when a request body is empty, is not
	// JSON, or has a field of the wrong type.
	ErrMalformedBody = errors.New("malformed request body")

	// ErrInvalidPaging is returned for an unparseable page, size or sort
	// parameter.
	ErrInvalidPaging = errors.New("invalid paging parameter")

	// ErrInvalidPersonID is returned when the {id} path segment is not a
	// positive integer. No person can have such an ID, so it is a not-found.
	ErrInvalidPersonID = fmt.Errorf("%w: invalid person id", store.ErrNotFound)
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Bad request errors
	case errors.Is(err, ErrMalformedBody),
		errors.Is(err, ErrInvalidPaging),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, store.ErrInvalidQuery),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var verr *domain.ValidationError
	switch {
	case errors.Is(err, service.ErrFinderNotFound):
		return "Search method not found"

	case errors.Is(err, store.ErrNotFound):
		return "Person not found"

	case errors.Is(err, ErrMalformedBody):
		return "Invalid request body"

	case errors.Is(err, ErrInvalidPaging), errors.Is(err, store.ErrInvalidQuery):
		return "Invalid paging parameters"

	case errors.As(err, &verr):
		return fmt.Sprintf("Invalid %s: %s", verr.Field, verr.Message)

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the error response for err. An empty message falls
// back to GetSafeErrorMessage.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, message string) {
	if message == "" {
		message = GetSafeErrorMessage(err)
	}
	shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), message, err)
}

// Package apperr defines the error taxonomy shared by the storage, upstream
// and HTTP layers.
package apperr

import (
	"errors"
	"net/http"
)

var (
	// ErrNotFound is returned when a district or record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUpstreamUnavailable marks a failed call to the government data API.
	// It is recovered by the orchestrator and never reaches HTTP callers.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrStorage marks a failure of the persistence layer.
	ErrStorage = errors.New("storage error")
	// ErrValidation marks malformed request parameters.
	ErrValidation = errors.New("validation error")
)

// HTTPStatus maps an error to the status code returned at the HTTP edge.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

package store

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/smithy-go"
)

var (
	// ErrValidation is returned when an entity violates its schema, either
	// before a write or while decoding a stored item.
	ErrValidation = errors.New("podroom: validation failed")

	// ErrConflict is returned when a conditional write fails: a create hit an
	// existing key, or an update targeted a missing item.
	ErrConflict = errors.New("podroom: conditional write failed")

	// ErrNotFound is returned when a lookup finds nothing.
	ErrNotFound = errors.New("podroom: entity not found")

	// ErrDependencyMissing is returned when the parent Room or Playlist does
	// not exist at child creation time.
	ErrDependencyMissing = errors.New("podroom: parent entity not found")

	// ErrTransport is returned when the DynamoDB call itself fails.
	ErrTransport = errors.New("podroom: store request failed")

	// ErrBackupFailed is returned by Backup. Callers treat it as non-fatal.
	ErrBackupFailed = errors.New("podroom: backup failed")

	// ErrTableNotReady is returned when the table does not become ACTIVE
	// within the configured number of polls.
	ErrTableNotReady = errors.New("podroom: table not ready")
)

// transportError wraps an SDK error so that it matches both ErrTransport and
// the original error.
func transportError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrTransport, op, err)
}

// validationError wraps a decode or validation failure.
func validationError(what string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrValidation, what, err)
}

// apiErrorCode returns the service error code of an SDK error, if any.
func apiErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

// StatusCode classifies err into a coarse HTTP status for RPC callers.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrDependencyMissing):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrTableNotReady):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

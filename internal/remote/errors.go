package remote

import (
	"errors"
	"fmt"
)

// Common remote client errors.
var (
	// ErrUnavailable is returned when the remote service cannot be
	// reached at all (connection refused, DNS failure, timeout).
	ErrUnavailable = errors.New("remote service unavailable")

	// ErrTaskNotFound is returned when the server reports that the
	// addressed task does not exist.
	ErrTaskNotFound = errors.New("remote task not found")

	// ErrUnauthorized is returned when the server rejects the session
	// credentials.
	ErrUnauthorized = errors.New("remote request unauthorized")
)

// APIError captures a non-success HTTP response from the task service.
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface for APIError.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("remote service returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("remote service returned %d", e.StatusCode)
}

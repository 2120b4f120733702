package sync

import (
	"errors"
	"fmt"
)

// Engine-level errors surfaced to callers.
var (
	// ErrSyncUnavailable is returned when a reconciliation pass aborts
	// because the server snapshot could not be fetched. Local state and
	// the outbox are left untouched.
	ErrSyncUnavailable = errors.New("sync unavailable")

	// ErrTasksUnavailable is returned when an initial load fails both
	// remotely and from the local cache. The UI should show an
	// empty or error state.
	ErrTasksUnavailable = errors.New("tasks unavailable")
)

// SyncError is a custom error type for engine errors with operation context.
type SyncError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for SyncError.
func (e *SyncError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sync %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("sync %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *SyncError) Unwrap() error {
	return e.Err
}

// NewSyncError creates a new SyncError.
func NewSyncError(operation, message string, err error) *SyncError {
	return &SyncError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

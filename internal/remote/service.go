// Package remote implements the client for the authoritative task
// service. The sync engine consumes it through the TaskService
// interface; the HTTP implementation lives in this package alongside
// the session token handling.
package remote

import (
	"context"

	"github.com/phrazzld/tasksync/internal/domain"
)

// TaskService defines the contract with the authoritative server's task
// collection. Every method suspends on the network; callers pass a
// context to bound or cancel the call.
// Version: 1.0
type TaskService interface {
	// ListTasks retrieves the full current task collection.
	ListTasks(ctx context.Context) ([]domain.RawTask, error)

	// CreateTask creates a task server-side and returns the
	// server-assigned record. The payload's ClientID doubles as an
	// idempotency key so a retried create for an already-accepted task
	// can be recognized by the server.
	CreateTask(ctx context.Context, payload domain.TaskPayload) (domain.RawTask, error)

	// UpdateTask modifies the task with the given authoritative ID and
	// returns the updated record.
	UpdateTask(ctx context.Context, serverID string, payload domain.TaskPayload) (domain.RawTask, error)

	// DeleteTask removes the task with the given authoritative ID.
	DeleteTask(ctx context.Context, serverID string) error
}

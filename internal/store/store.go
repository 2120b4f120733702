package store

import (
	"context"
	"database/sql"

	"github.com/phrazzld/tasksync/internal/domain"
)

// DBTX is an interface that abstracts the database access layer.
// It is implemented by both *sql.DB and *sql.Tx, allowing our code
// to work with either a database connection or a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TaskCache defines the interface for the local task cache: the single
// source of truth for rendering between reconciliation passes.
// Version: 1.0
type TaskCache interface {
	// GetAll returns every cached task in stable storage order.
	GetAll(ctx context.Context) ([]domain.Task, error)

	// Put upserts a task, keyed by its server ID when present and its
	// client ID otherwise (see domain.Task.Key).
	Put(ctx context.Context, task domain.Task) error

	// Remove deletes the task stored under the given key.
	// Removing an absent key is not an error.
	Remove(ctx context.Context, id string) error

	// ReplaceAll atomically replaces the entire cache contents with the
	// given tasks. Used at the end of a successful reconciliation pass
	// to converge local state to server truth.
	ReplaceAll(ctx context.Context, tasks []domain.Task) error
}

// Outbox defines the interface for the pending-mutation log. The sync
// engine treats it as the append-only record of client-originated
// intent that has not yet been confirmed durable on the server.
// Version: 1.0
type Outbox interface {
	// Enqueue appends a new entry to the log.
	Enqueue(ctx context.Context, entry domain.OutboxEntry) error

	// List returns all pending entries in enqueue order. The engine
	// applies its own stable sort by timestamp on top of this, so ties
	// keep their enqueue order.
	List(ctx context.Context) ([]domain.OutboxEntry, error)

	// Remove deletes an entry once its server call has been confirmed
	// successful or determined unnecessary.
	Remove(ctx context.Context, entryID string) error
}

// IDMap defines the interface for the client-to-server identifier
// mapping table. A mapping is written exactly once, when the server
// confirms a create, and read by every later update or delete for the
// same client ID.
// Version: 1.0
type IDMap interface {
	// Set records clientID -> serverID. Setting the same pair again is
	// a no-op; setting a different serverID for an existing clientID
	// returns ErrMappingConflict and leaves the stored value unchanged.
	Set(ctx context.Context, clientID, serverID string) error

	// Get resolves a client ID to its server ID.
	// Returns ErrMappingNotFound if no mapping exists, which signals
	// that the task was never successfully created server-side.
	Get(ctx context.Context, clientID string) (string, error)
}

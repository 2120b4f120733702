package events

import (
	"context"
	"time"
)

// EventType identifies a sync lifecycle event.
type EventType string

// Possible event types
const (
	// EventSyncStarted is emitted when a reconciliation pass begins.
	EventSyncStarted EventType = "sync_started"

	// EventSyncCompleted is emitted when a reconciliation pass finishes,
	// including passes with isolated per-entry failures.
	EventSyncCompleted EventType = "sync_completed"

	// EventSyncFailed is emitted when a reconciliation pass aborts
	// because the server snapshot could not be fetched.
	EventSyncFailed EventType = "sync_failed"

	// EventOnlineChanged is emitted when the connectivity state flips.
	EventOnlineChanged EventType = "online_changed"
)

// SyncEvent describes one occurrence in the engine's lifecycle. It is
// what surrounding UI code observes to refresh itself without polling.
type SyncEvent struct {
	// Type indicates what happened.
	Type EventType `json:"type"`

	// Online is the connectivity state at the time of the event.
	Online bool `json:"online"`

	// Applied counts outbox entries confirmed by the server this pass.
	Applied int `json:"applied,omitempty"`

	// Uploaded counts local-only tasks created server-side this pass.
	Uploaded int `json:"uploaded,omitempty"`

	// Failed counts entries and uploads whose server call failed and
	// will be retried next pass.
	Failed int `json:"failed,omitempty"`

	// Error carries the abort reason for EventSyncFailed.
	Error string `json:"error,omitempty"`

	// OccurredAt is the timestamp when the event was created.
	OccurredAt time.Time `json:"occurred_at"`
}

// NewSyncEvent creates a SyncEvent of the given type, stamped with the
// current time.
func NewSyncEvent(eventType EventType, online bool) SyncEvent {
	return SyncEvent{
		Type:       eventType,
		Online:     online,
		OccurredAt: time.Now().UTC(),
	}
}

// EventHandler defines an interface for components that can handle events.
// Handlers are responsible for processing events and taking appropriate actions.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event SyncEvent) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows the engine to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event SyncEvent) error
}

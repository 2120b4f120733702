package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status represents the completion state of a task.
type Status string

// Possible task status values
const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// DefaultTitle is the placeholder used for tasks ingested without a title.
const DefaultTitle = "Untitled task"

// Task-specific validation errors
var (
	// ErrTaskClientIDEmpty is returned when a task has no client identifier.
	// Every task held locally must carry one, even before the server has
	// assigned an authoritative ID.
	ErrTaskClientIDEmpty = errors.New("task client ID cannot be empty")

	// ErrTaskTitleEmpty is returned when a task's title is empty.
	ErrTaskTitleEmpty = errors.New("task title cannot be empty")
)

// Task represents a single to-do item. ID is the authoritative
// server-assigned identifier and stays empty until the server has
// confirmed the task. ClientID is assigned locally at creation time and
// never changes; for tasks that originated on the server it equals ID.
type Task struct {
	ID          string    `json:"id,omitempty"`
	ClientID    string    `json:"clientId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
	Deleted     bool      `json:"deleted,omitempty"`
}

// NewTask creates a new local-only Task with a freshly generated client
// identifier and pending status. Returns an error if validation fails.
func NewTask(title, description string) (*Task, error) {
	task := &Task{
		ClientID:    uuid.NewString(),
		Title:       title,
		Description: description,
		Status:      StatusPending,
		CreatedAt:   time.Now().UTC(),
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.ClientID == "" {
		return ErrTaskClientIDEmpty
	}

	if t.Title == "" {
		return ErrTaskTitleEmpty
	}

	if !t.Status.Valid() {
		return ErrInvalidStatus
	}

	return nil
}

// Key returns the identifier the local cache stores the task under:
// the server ID when known, the client ID otherwise.
func (t *Task) Key() string {
	if t.ID != "" {
		return t.ID
	}
	return t.ClientID
}

// Payload returns the mutable fields of the task as a TaskPayload,
// suitable for enqueueing or sending to the server.
func (t *Task) Payload() TaskPayload {
	return TaskPayload{
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
	}
}

// Valid reports whether s is one of the recognized status values.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// ParseStatus normalizes a raw status string into a Status. Unrecognized
// values fall back to StatusPending rather than failing, so that records
// from older clients or lenient servers still ingest cleanly.
func ParseStatus(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending":
		return StatusPending
	case "in_progress", "inprogress", "in progress":
		return StatusInProgress
	case "completed", "complete", "done":
		return StatusCompleted
	default:
		return StatusPending
	}
}

// TaskPayload carries the mutable task fields of a create or update
// mutation. ClientID doubles as an idempotency key on create so the
// server can recognize a retried create for a task it already accepted.
type TaskPayload struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      Status `json:"status"`
	ClientID    string `json:"clientId,omitempty"`
}

// Empty reports whether the payload carries no data, as is the case for
// delete entries.
func (p TaskPayload) Empty() bool {
	return p.Title == "" && p.Description == "" && p.Status == "" && p.ClientID == ""
}

// Package api provides the local control HTTP API of the sync daemon.
// Surrounding UI code uses it to read the task list, mutate tasks
// locally, observe connectivity, and trigger reconciliation on demand.
package api

import (
	"time"

	"github.com/phrazzld/tasksync/internal/domain"
)

// TaskResponse represents a task in API responses.
type TaskResponse struct {
	ID          string     `json:"id,omitempty"`
	ClientID    string     `json:"client_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

// CreateTaskRequest represents the request body for creating a task.
type CreateTaskRequest struct {
	Title       string `json:"title"       validate:"required,max=500"`
	Description string `json:"description" validate:"max=5000"`
	Status      string `json:"status"      validate:"omitempty,oneof=pending in_progress completed"`
}

// UpdateTaskRequest represents the request body for updating a task.
// Omitted fields keep their current value.
type UpdateTaskRequest struct {
	Title       string `json:"title"       validate:"max=500"`
	Description string `json:"description" validate:"max=5000"`
	Status      string `json:"status"      validate:"omitempty,oneof=pending in_progress completed"`
}

// StatusResponse reports daemon state for UI status displays.
type StatusResponse struct {
	Online    bool       `json:"online"`
	Pending   int        `json:"pending"`
	LastEvent *EventInfo `json:"last_event,omitempty"`
}

// EventInfo is the wire form of the most recent sync lifecycle event.
type EventInfo struct {
	Type       string    `json:"type"`
	Applied    int       `json:"applied,omitempty"`
	Uploaded   int       `json:"uploaded,omitempty"`
	Failed     int       `json:"failed,omitempty"`
	Error      string    `json:"error,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func taskToResponse(task domain.Task) TaskResponse {
	resp := TaskResponse{
		ID:          task.ID,
		ClientID:    task.ClientID,
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
	}
	if !task.CreatedAt.IsZero() {
		createdAt := task.CreatedAt
		resp.CreatedAt = &createdAt
	}
	return resp
}

func tasksToResponse(tasks []domain.Task) []TaskResponse {
	responses := make([]TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		responses = append(responses, taskToResponse(task))
	}
	return responses
}

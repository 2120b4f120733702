package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/phrazzld/tasksync/internal/api/shared"
	"github.com/phrazzld/tasksync/internal/domain"
	"github.com/phrazzld/tasksync/internal/platform/logger"
	"github.com/phrazzld/tasksync/internal/service"
)

// TaskHandler handles task-related HTTP requests.
type TaskHandler struct {
	tasks  *service.TaskService
	logger *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(tasks *service.TaskService, logger *slog.Logger) *TaskHandler {
	if tasks == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("task service cannot be nil for TaskHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &TaskHandler{
		tasks:  tasks,
		logger: logger.With(slog.String("component", "task_handler")),
	}
}

// ListTasks handles GET /tasks requests. It serves the local cache, the
// single source of truth for rendering.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	tasks, err := h.tasks.List(r.Context())
	if err != nil {
		log.Error("failed to list tasks", slog.String("error", err.Error()))
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to list tasks", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, tasksToResponse(tasks))
}

// CreateTask handles POST /tasks requests. The task is created locally
// and queued for upload; the response carries the client-assigned
// identifier, not yet a server one.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req CreateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	task, err := h.tasks.Create(r.Context(), req.Title, req.Description, domain.Status(req.Status))
	if err != nil {
		if errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrTaskTitleEmpty) || errors.Is(err, domain.ErrInvalidStatus) {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to create task", err)
		return
	}

	log.Debug("task created", slog.String("client_id", task.ClientID))
	shared.RespondWithJSON(w, r, http.StatusCreated, taskToResponse(task))
}

// UpdateTask handles PUT /tasks/{id} requests. The id path parameter
// accepts either the server identifier or the client identifier.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	key := chi.URLParam(r, "id")
	if key == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Task identifier is required")
		return
	}

	var req UpdateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	task, err := h.tasks.Update(r.Context(), key, domain.TaskPayload{
		Title:       req.Title,
		Description: req.Description,
		Status:      domain.Status(req.Status),
	})
	if err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Task not found")
			return
		}
		if errors.Is(err, domain.ErrInvalidStatus) {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid status")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to update task", err)
		return
	}

	log.Debug("task updated", slog.String("client_id", task.ClientID))
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// DeleteTask handles DELETE /tasks/{id} requests.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	key := chi.URLParam(r, "id")
	if key == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Task identifier is required")
		return
	}

	if err := h.tasks.Delete(r.Context(), key); err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Task not found")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to delete task", err)
		return
	}

	log.Debug("task deleted", slog.String("key", key))
	w.WriteHeader(http.StatusNoContent)
}

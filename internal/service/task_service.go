// Package service implements the user-action side of the task list:
// mutations are applied to the local cache immediately and recorded in
// the outbox, so they survive offline periods and reach the server on
// the next reconciliation pass.
package service

import (
	"context"
	"log/slog"

	"github.com/phrazzld/tasksync/internal/domain"
	"github.com/phrazzld/tasksync/internal/store"
)

// Reconciler is the subset of the sync engine the task service needs:
// enough to nudge a pass after a mutation when the server is reachable.
type Reconciler interface {
	// Reconcile runs (or coalesces into) a reconciliation pass.
	Reconcile(ctx context.Context) error

	// Online reports the current connectivity state.
	Online() bool
}

// TaskService handles task mutations originating from the user. Every
// mutation is local-first: the cache and outbox are updated before any
// network traffic, and the reconciler is nudged asynchronously when
// connectivity allows.
type TaskService struct {
	cache      store.TaskCache
	outbox     store.Outbox
	reconciler Reconciler
	logger     *slog.Logger
}

// NewTaskService creates a new TaskService.
// It returns an error if any of the required dependencies are nil.
func NewTaskService(
	cache store.TaskCache,
	outbox store.Outbox,
	reconciler Reconciler,
	logger *slog.Logger,
) (*TaskService, error) {
	if cache == nil {
		return nil, domain.NewValidationError("cache", "cannot be nil", domain.ErrValidation)
	}
	if outbox == nil {
		return nil, domain.NewValidationError("outbox", "cannot be nil", domain.ErrValidation)
	}
	if reconciler == nil {
		return nil, domain.NewValidationError("reconciler", "cannot be nil", domain.ErrValidation)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &TaskService{
		cache:      cache,
		outbox:     outbox,
		reconciler: reconciler,
		logger:     logger.With(slog.String("component", "task_service")),
	}, nil
}

// List returns every task in the local cache.
func (s *TaskService) List(ctx context.Context) ([]domain.Task, error) {
	tasks, err := s.cache.GetAll(ctx)
	if err != nil {
		return nil, NewTaskServiceError("list", "cannot read local cache", err)
	}
	return tasks, nil
}

// Create creates a task locally and queues its upload.
func (s *TaskService) Create(ctx context.Context, title, description string, status domain.Status) (domain.Task, error) {
	task, err := domain.NewTask(title, description)
	if err != nil {
		return domain.Task{}, NewTaskServiceError("create", "invalid task", err)
	}
	if status != "" {
		if !status.Valid() {
			return domain.Task{}, NewTaskServiceError("create", "invalid status", domain.ErrInvalidStatus)
		}
		task.Status = status
	}

	if err := s.cache.Put(ctx, *task); err != nil {
		return domain.Task{}, NewTaskServiceError("create", "cannot cache task", err)
	}

	if err := s.enqueue(ctx, domain.OpCreate, task.ClientID, task.Payload()); err != nil {
		return domain.Task{}, err
	}

	s.logger.Info("task created locally", slog.String("client_id", task.ClientID))
	s.nudge(ctx)
	return *task, nil
}

// Update applies a payload to the task stored under the given key and
// queues the change. Empty payload fields keep their current value.
func (s *TaskService) Update(ctx context.Context, key string, payload domain.TaskPayload) (domain.Task, error) {
	task, err := s.find(ctx, key)
	if err != nil {
		return domain.Task{}, err
	}

	if payload.Title != "" {
		task.Title = payload.Title
	}
	if payload.Description != "" {
		task.Description = payload.Description
	}
	if payload.Status != "" {
		if !payload.Status.Valid() {
			return domain.Task{}, NewTaskServiceError("update", "invalid status", domain.ErrInvalidStatus)
		}
		task.Status = payload.Status
	}

	if err := s.cache.Put(ctx, task); err != nil {
		return domain.Task{}, NewTaskServiceError("update", "cannot cache task", err)
	}

	if err := s.enqueue(ctx, domain.OpUpdate, task.ClientID, task.Payload()); err != nil {
		return domain.Task{}, err
	}

	s.logger.Info("task updated locally", slog.String("client_id", task.ClientID))
	s.nudge(ctx)
	return task, nil
}

// Delete removes the task stored under the given key and queues the
// server-side delete.
func (s *TaskService) Delete(ctx context.Context, key string) error {
	task, err := s.find(ctx, key)
	if err != nil {
		return err
	}

	if err := s.cache.Remove(ctx, task.Key()); err != nil {
		return NewTaskServiceError("delete", "cannot remove task from cache", err)
	}

	if err := s.enqueue(ctx, domain.OpDelete, task.ClientID, domain.TaskPayload{}); err != nil {
		return err
	}

	s.logger.Info("task deleted locally", slog.String("client_id", task.ClientID))
	s.nudge(ctx)
	return nil
}

// find looks a task up by its cache key, accepting either the server ID
// or the client ID.
func (s *TaskService) find(ctx context.Context, key string) (domain.Task, error) {
	tasks, err := s.cache.GetAll(ctx)
	if err != nil {
		return domain.Task{}, NewTaskServiceError("find", "cannot read local cache", err)
	}
	for _, task := range tasks {
		if task.Key() == key || task.ClientID == key || task.ID == key {
			return task, nil
		}
	}
	return domain.Task{}, NewTaskServiceError("find", "no task under key "+key, ErrTaskNotFound)
}

func (s *TaskService) enqueue(ctx context.Context, op domain.Op, clientID string, payload domain.TaskPayload) error {
	entry, err := domain.NewOutboxEntry(op, clientID, payload)
	if err != nil {
		return NewTaskServiceError(string(op), "invalid outbox entry", err)
	}
	if err := s.outbox.Enqueue(ctx, *entry); err != nil {
		return NewTaskServiceError(string(op), "cannot enqueue mutation", err)
	}
	return nil
}

// nudge triggers a reconciliation pass in the background when the
// server is reachable. The pass is detached from the request context so
// a client disconnect does not abandon it mid-flight.
func (s *TaskService) nudge(ctx context.Context) {
	if !s.reconciler.Online() {
		return
	}
	go func() {
		if err := s.reconciler.Reconcile(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("post-mutation reconciliation failed",
				slog.String("error", err.Error()))
		}
	}()
}

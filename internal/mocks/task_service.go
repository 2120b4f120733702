// Package mocks provides hand-written test doubles for external
// collaborators.
package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/phrazzld/tasksync/internal/domain"
	"github.com/phrazzld/tasksync/internal/remote"
)

// MockTaskService implements remote.TaskService for testing. By default
// it behaves like a small in-memory task server: creates assign
// sequential identifiers, updates and deletes address stored records,
// and ListTasks returns the current state. Every call is appended to
// Calls for assertions, and each method can be overridden with a
// custom function.
type MockTaskService struct {
	mu     sync.Mutex
	nextID int
	state  map[string]domain.RawTask
	order  []string

	// Calls records each invocation as "op" or "op id".
	Calls []string

	// Custom behavior functions
	ListTasksFn  func(ctx context.Context) ([]domain.RawTask, error)
	CreateTaskFn func(ctx context.Context, payload domain.TaskPayload) (domain.RawTask, error)
	UpdateTaskFn func(ctx context.Context, serverID string, payload domain.TaskPayload) (domain.RawTask, error)
	DeleteTaskFn func(ctx context.Context, serverID string) error
}

// NewMockTaskService creates an empty mock task server.
func NewMockTaskService() *MockTaskService {
	return &MockTaskService{
		state: make(map[string]domain.RawTask),
	}
}

// Ensure MockTaskService implements the remote.TaskService interface
var _ remote.TaskService = (*MockTaskService)(nil)

// Seed stores a task server-side without recording a call, for
// arranging test fixtures.
func (m *MockTaskService) Seed(raw domain.RawTask) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(raw)
}

// ServerTasks returns the current server-side state in insertion order.
func (m *MockTaskService) ServerTasks() []domain.RawTask {
	m.mu.Lock()
	defer m.mu.Unlock()
	tasks := make([]domain.RawTask, 0, len(m.order))
	for _, id := range m.order {
		tasks = append(tasks, m.state[id])
	}
	return tasks
}

// CallsFor returns the recorded calls whose op matches.
func (m *MockTaskService) CallsFor(op string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []string
	for _, call := range m.Calls {
		if len(call) >= len(op) && call[:len(op)] == op {
			matched = append(matched, call)
		}
	}
	return matched
}

// ListTasks implements remote.TaskService.ListTasks
func (m *MockTaskService) ListTasks(ctx context.Context) ([]domain.RawTask, error) {
	m.record("list")
	if m.ListTasksFn != nil {
		return m.ListTasksFn(ctx)
	}
	return m.ServerTasks(), nil
}

// CreateTask implements remote.TaskService.CreateTask
func (m *MockTaskService) CreateTask(ctx context.Context, payload domain.TaskPayload) (domain.RawTask, error) {
	m.record("create " + payload.ClientID)
	if m.CreateTaskFn != nil {
		return m.CreateTaskFn(ctx, payload)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	raw := domain.RawTask{
		ID:          fmt.Sprintf("s%d", m.nextID),
		ClientID:    payload.ClientID,
		Title:       payload.Title,
		Description: payload.Description,
		Status:      string(payload.Status),
	}
	m.put(raw)
	return raw, nil
}

// UpdateTask implements remote.TaskService.UpdateTask
func (m *MockTaskService) UpdateTask(ctx context.Context, serverID string, payload domain.TaskPayload) (domain.RawTask, error) {
	m.record("update " + serverID)
	if m.UpdateTaskFn != nil {
		return m.UpdateTaskFn(ctx, serverID, payload)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.state[serverID]
	if !ok {
		return domain.RawTask{}, remote.ErrTaskNotFound
	}
	raw.Title = payload.Title
	raw.Description = payload.Description
	raw.Status = string(payload.Status)
	m.state[serverID] = raw
	return raw, nil
}

// DeleteTask implements remote.TaskService.DeleteTask
func (m *MockTaskService) DeleteTask(ctx context.Context, serverID string) error {
	m.record("delete " + serverID)
	if m.DeleteTaskFn != nil {
		return m.DeleteTaskFn(ctx, serverID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state[serverID]; !ok {
		return remote.ErrTaskNotFound
	}
	delete(m.state, serverID)
	for i, id := range m.order {
		if id == serverID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// put stores a record. Callers must hold the lock.
func (m *MockTaskService) put(raw domain.RawTask) {
	if _, exists := m.state[raw.ID]; !exists {
		m.order = append(m.order, raw.ID)
	}
	m.state[raw.ID] = raw
}

func (m *MockTaskService) record(call string) {
	m.mu.Lock()
	m.Calls = append(m.Calls, call)
	m.mu.Unlock()
}

// Package memory provides in-memory implementations of the store
// interfaces, used to back the engine in tests.
package memory

import (
	"context"
	"sync"

	"github.com/phrazzld/tasksync/internal/domain"
	"github.com/phrazzld/tasksync/internal/store"
)

// TaskCache is an in-memory implementation of store.TaskCache.
// Insertion order is preserved so GetAll is deterministic.
type TaskCache struct {
	mu    sync.RWMutex
	tasks map[string]domain.Task
	order []string
}

// NewTaskCache creates an empty in-memory task cache.
func NewTaskCache() *TaskCache {
	return &TaskCache{
		tasks: make(map[string]domain.Task),
	}
}

// Ensure TaskCache implements store.TaskCache interface
var _ store.TaskCache = (*TaskCache)(nil)

// GetAll implements store.TaskCache.GetAll
func (c *TaskCache) GetAll(ctx context.Context) ([]domain.Task, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tasks := make([]domain.Task, 0, len(c.order))
	for _, key := range c.order {
		tasks = append(tasks, c.tasks[key])
	}
	return tasks, nil
}

// Put implements store.TaskCache.Put
func (c *TaskCache) Put(ctx context.Context, task domain.Task) error {
	if task.ClientID == "" {
		return store.NewStoreError("task", "put", "missing client ID", store.ErrInvalidEntity)
	}

	key := task.Key()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.tasks[key]; !exists {
		// A task keyed by client ID may be re-put under its server ID
		// after a successful create; drop the stale entry.
		if key != task.ClientID {
			if _, old := c.tasks[task.ClientID]; old {
				delete(c.tasks, task.ClientID)
				c.dropKey(task.ClientID)
			}
		}
		c.order = append(c.order, key)
	}
	c.tasks[key] = task
	return nil
}

// Remove implements store.TaskCache.Remove
func (c *TaskCache) Remove(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.tasks[id]; !ok {
		return nil
	}
	delete(c.tasks, id)
	c.dropKey(id)
	return nil
}

// ReplaceAll implements store.TaskCache.ReplaceAll
func (c *TaskCache) ReplaceAll(ctx context.Context, tasks []domain.Task) error {
	next := make(map[string]domain.Task, len(tasks))
	order := make([]string, 0, len(tasks))
	for _, task := range tasks {
		key := task.Key()
		if _, exists := next[key]; !exists {
			order = append(order, key)
		}
		next[key] = task
	}

	c.mu.Lock()
	c.tasks = next
	c.order = order
	c.mu.Unlock()
	return nil
}

// dropKey removes a key from the insertion-order slice. Callers must
// hold the write lock.
func (c *TaskCache) dropKey(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

package memory

import (
	"context"
	"sync"

	"github.com/phrazzld/tasksync/internal/store"
)

// IDMap is an in-memory implementation of store.IDMap. Mappings are
// write-once: a second Set with the same value is a no-op, a second Set
// with a different value is rejected.
type IDMap struct {
	mu       sync.RWMutex
	mappings map[string]string
}

// NewIDMap creates an empty in-memory identifier mapping table.
func NewIDMap() *IDMap {
	return &IDMap{
		mappings: make(map[string]string),
	}
}

// Ensure IDMap implements store.IDMap interface
var _ store.IDMap = (*IDMap)(nil)

// Set implements store.IDMap.Set
func (m *IDMap) Set(ctx context.Context, clientID, serverID string) error {
	if clientID == "" || serverID == "" {
		return store.NewStoreError("identifier mapping", "set", "empty identifier", store.ErrInvalidEntity)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.mappings[clientID]; ok {
		if existing != serverID {
			return store.ErrMappingConflict
		}
		return nil
	}
	m.mappings[clientID] = serverID
	return nil
}

// Get implements store.IDMap.Get
func (m *IDMap) Get(ctx context.Context, clientID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	serverID, ok := m.mappings[clientID]
	if !ok {
		return "", store.ErrMappingNotFound
	}
	return serverID, nil
}

package memory

import (
	"context"
	"sync"

	"github.com/phrazzld/tasksync/internal/domain"
	"github.com/phrazzld/tasksync/internal/store"
)

// Outbox is an in-memory implementation of store.Outbox. Entries are
// kept in enqueue order, which the engine relies on for stable tie
// breaking when it sorts by timestamp.
type Outbox struct {
	mu      sync.RWMutex
	entries []domain.OutboxEntry
}

// NewOutbox creates an empty in-memory outbox.
func NewOutbox() *Outbox {
	return &Outbox{}
}

// Ensure Outbox implements store.Outbox interface
var _ store.Outbox = (*Outbox)(nil)

// Enqueue implements store.Outbox.Enqueue
func (o *Outbox) Enqueue(ctx context.Context, entry domain.OutboxEntry) error {
	if err := entry.Validate(); err != nil {
		return store.NewStoreError("outbox entry", "enqueue", "validation failed", err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	for _, existing := range o.entries {
		if existing.ID == entry.ID {
			return store.ErrDuplicate
		}
	}
	o.entries = append(o.entries, entry)
	return nil
}

// List implements store.Outbox.List
func (o *Outbox) List(ctx context.Context) ([]domain.OutboxEntry, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	entries := make([]domain.OutboxEntry, len(o.entries))
	copy(entries, o.entries)
	return entries, nil
}

// Remove implements store.Outbox.Remove
func (o *Outbox) Remove(ctx context.Context, entryID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	for i, entry := range o.entries {
		if entry.ID == entryID {
			o.entries = append(o.entries[:i], o.entries[i+1:]...)
			return nil
		}
	}
	return store.ErrEntryNotFound
}

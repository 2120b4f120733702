package events

import (
	"context"
	"sync"
)

// LastEventRecorder is an EventHandler that remembers the most recent
// event of each type group it cares about. The control API reads it to
// answer status queries without subscribing to the live stream.
type LastEventRecorder struct {
	mu   sync.RWMutex
	last *SyncEvent
}

// NewLastEventRecorder creates an empty recorder.
func NewLastEventRecorder() *LastEventRecorder {
	return &LastEventRecorder{}
}

// Ensure LastEventRecorder implements the EventHandler interface
var _ EventHandler = (*LastEventRecorder)(nil)

// HandleEvent implements EventHandler by recording the event.
func (r *LastEventRecorder) HandleEvent(ctx context.Context, event SyncEvent) error {
	r.mu.Lock()
	r.last = &event
	r.mu.Unlock()
	return nil
}

// Last returns the most recently recorded event, or false when none has
// occurred yet.
func (r *LastEventRecorder) Last() (SyncEvent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.last == nil {
		return SyncEvent{}, false
	}
	return *r.last, true
}

package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingHandler captures every event it receives and optionally fails.
type recordingHandler struct {
	events []SyncEvent
	err    error
}

func (h *recordingHandler) HandleEvent(ctx context.Context, event SyncEvent) error {
	h.events = append(h.events, event)
	return h.err
}

func TestEmitEventDispatchesToAllHandlers(t *testing.T) {
	t.Parallel()
	emitter := NewInMemoryEventEmitter(nil)

	first := &recordingHandler{}
	second := &recordingHandler{}
	emitter.RegisterHandler(first)
	emitter.RegisterHandler(second)

	event := NewSyncEvent(EventSyncCompleted, true)
	require.NoError(t, emitter.EmitEvent(context.Background(), event))

	require.Len(t, first.events, 1)
	require.Len(t, second.events, 1)
	assert.Equal(t, EventSyncCompleted, first.events[0].Type)
	assert.True(t, first.events[0].Online)
	assert.False(t, first.events[0].OccurredAt.IsZero())
}

func TestEmitEventContinuesPastFailingHandler(t *testing.T) {
	t.Parallel()
	emitter := NewInMemoryEventEmitter(nil)

	failure := errors.New("handler broke")
	failing := &recordingHandler{err: failure}
	healthy := &recordingHandler{}
	emitter.RegisterHandler(failing)
	emitter.RegisterHandler(healthy)

	err := emitter.EmitEvent(context.Background(), NewSyncEvent(EventSyncFailed, false))
	assert.ErrorIs(t, err, failure, "first handler error should be returned")
	assert.Len(t, healthy.events, 1, "later handlers still receive the event")
}

func TestEmitEventWithNoHandlers(t *testing.T) {
	t.Parallel()
	emitter := NewInMemoryEventEmitter(nil)
	assert.NoError(t, emitter.EmitEvent(context.Background(), NewSyncEvent(EventOnlineChanged, true)))
}

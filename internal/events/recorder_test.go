package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLastEventRecorder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	recorder := NewLastEventRecorder()

	_, ok := recorder.Last()
	assert.False(t, ok)

	require.NoError(t, recorder.HandleEvent(ctx, NewSyncEvent(EventSyncStarted, true)))

	completed := NewSyncEvent(EventSyncCompleted, true)
	completed.Applied = 2
	require.NoError(t, recorder.HandleEvent(ctx, completed))

	last, ok := recorder.Last()
	require.True(t, ok)
	assert.Equal(t, EventSyncCompleted, last.Type)
	assert.Equal(t, 2, last.Applied)
}

func TestLastEventRecorderThroughEmitter(t *testing.T) {
	t.Parallel()

	emitter := NewInMemoryEventEmitter(nil)
	recorder := NewLastEventRecorder()
	emitter.RegisterHandler(recorder)

	require.NoError(t, emitter.EmitEvent(context.Background(), NewSyncEvent(EventOnlineChanged, false)))

	last, ok := recorder.Last()
	require.True(t, ok)
	assert.Equal(t, EventOnlineChanged, last.Type)
	assert.False(t, last.Online)
}

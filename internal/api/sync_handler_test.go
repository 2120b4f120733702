package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/tasksync/internal/domain"
	"github.com/phrazzld/tasksync/internal/events"
	syncengine "github.com/phrazzld/tasksync/internal/sync"
)

func TestStatusReportsOnlineAndPending(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	ts.controller.online = true

	entry, err := domain.NewOutboxEntry(domain.OpCreate, "c1", domain.TaskPayload{Title: "Buy milk"})
	require.NoError(t, err)
	require.NoError(t, ts.outbox.Enqueue(context.Background(), *entry))

	resp := ts.do(t, http.MethodGet, "/status", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	status := decodeBody[StatusResponse](t, resp)
	assert.True(t, status.Online)
	assert.Equal(t, 1, status.Pending)
	assert.Nil(t, status.LastEvent)
}

func TestStatusIncludesLastEvent(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	event := events.NewSyncEvent(events.EventSyncCompleted, true)
	event.Applied = 3
	event.OccurredAt = time.Now().UTC()
	require.NoError(t, ts.recorder.HandleEvent(context.Background(), event))

	resp := ts.do(t, http.MethodGet, "/status", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	status := decodeBody[StatusResponse](t, resp)
	require.NotNil(t, status.LastEvent)
	assert.Equal(t, string(events.EventSyncCompleted), status.LastEvent.Type)
	assert.Equal(t, 3, status.LastEvent.Applied)
}

func TestReconcileEndpoint(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPost, "/reconcile", nil)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, 1, ts.controller.calls)
}

func TestReconcileEndpointUnavailable(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	ts.controller.reconcileErr = syncengine.NewSyncError("fetch", "cannot fetch server snapshot", syncengine.ErrSyncUnavailable)

	resp := ts.do(t, http.MethodPost, "/reconcile", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/tasksync/internal/domain"
	"github.com/phrazzld/tasksync/internal/platform/memory"
)

// stubReconciler records Reconcile calls without doing any work.
type stubReconciler struct {
	mu     sync.Mutex
	online bool
	calls  int
	seen   chan struct{}
}

func newStubReconciler(online bool) *stubReconciler {
	return &stubReconciler{online: online, seen: make(chan struct{}, 8)}
}

func (r *stubReconciler) Reconcile(ctx context.Context) error {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	r.seen <- struct{}{}
	return nil
}

func (r *stubReconciler) Online() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.online
}

func (r *stubReconciler) waitForCall(t *testing.T) {
	t.Helper()
	select {
	case <-r.seen:
	case <-time.After(2 * time.Second):
		t.Fatal("reconciler was not nudged")
	}
}

func newService(t *testing.T, online bool) (*TaskService, *memory.TaskCache, *memory.Outbox, *stubReconciler) {
	t.Helper()

	cache := memory.NewTaskCache()
	outbox := memory.NewOutbox()
	reconciler := newStubReconciler(online)

	svc, err := NewTaskService(cache, outbox, reconciler, nil)
	require.NoError(t, err)
	return svc, cache, outbox, reconciler
}

func TestCreateCachesAndQueues(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, cache, outbox, reconciler := newService(t, true)

	task, err := svc.Create(ctx, "Buy milk", "two liters", domain.StatusPending)
	require.NoError(t, err)
	assert.NotEmpty(t, task.ClientID)
	assert.Empty(t, task.ID)

	cached, err := cache.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.Equal(t, task, cached[0])

	entries, err := outbox.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.OpCreate, entries[0].Op)
	assert.Equal(t, task.ClientID, entries[0].ClientID)
	assert.Equal(t, "Buy milk", entries[0].Payload.Title)

	reconciler.waitForCall(t)
}

func TestCreateRejectsEmptyTitle(t *testing.T) {
	t.Parallel()
	svc, _, outbox, _ := newService(t, true)

	_, err := svc.Create(context.Background(), "", "", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTaskTitleEmpty)

	entries, listErr := outbox.List(context.Background())
	require.NoError(t, listErr)
	assert.Empty(t, entries)
}

func TestCreateOfflineSkipsNudge(t *testing.T) {
	t.Parallel()
	svc, _, _, reconciler := newService(t, false)

	_, err := svc.Create(context.Background(), "Buy milk", "", "")
	require.NoError(t, err)

	select {
	case <-reconciler.seen:
		t.Fatal("reconciler nudged while offline")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUpdateMergesPayload(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, cache, outbox, _ := newService(t, false)

	task, err := svc.Create(ctx, "Buy milk", "two liters", "")
	require.NoError(t, err)

	updated, err := svc.Update(ctx, task.ClientID, domain.TaskPayload{Status: domain.StatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", updated.Title)
	assert.Equal(t, "two liters", updated.Description)
	assert.Equal(t, domain.StatusCompleted, updated.Status)

	cached, err := cache.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.Equal(t, domain.StatusCompleted, cached[0].Status)

	entries, err := outbox.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.OpUpdate, entries[1].Op)
	assert.Equal(t, "Buy milk", entries[1].Payload.Title)
}

func TestUpdateByServerID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, cache, _, _ := newService(t, false)

	require.NoError(t, cache.Put(ctx, domain.Task{
		ID:       "s1",
		ClientID: "c1",
		Title:    "Server task",
		Status:   domain.StatusPending,
	}))

	updated, err := svc.Update(ctx, "s1", domain.TaskPayload{Title: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, "c1", updated.ClientID)
}

func TestUpdateUnknownKey(t *testing.T) {
	t.Parallel()
	svc, _, _, _ := newService(t, false)

	_, err := svc.Update(context.Background(), "missing", domain.TaskPayload{Title: "x"})
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestDeleteRemovesAndQueues(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, cache, outbox, _ := newService(t, false)

	task, err := svc.Create(ctx, "Buy milk", "", "")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, task.ClientID))

	cached, err := cache.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, cached)

	entries, err := outbox.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.OpDelete, entries[1].Op)
	assert.True(t, entries[1].Payload.Empty())
}

func TestNewTaskServiceValidatesDependencies(t *testing.T) {
	t.Parallel()

	cache := memory.NewTaskCache()
	outbox := memory.NewOutbox()
	reconciler := newStubReconciler(true)

	_, err := NewTaskService(nil, outbox, reconciler, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = NewTaskService(cache, nil, reconciler, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = NewTaskService(cache, outbox, nil, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

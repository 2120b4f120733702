package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/tasksync/internal/domain"
)

func newTestClient(t *testing.T, handler http.Handler) (*HTTPClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewHTTPClient(server.URL, 5*time.Second, nil, nil)
	require.NoError(t, err)
	return client, server
}

func TestListTasksDecodesAliasedIdentifiers(t *testing.T) {
	t.Parallel()
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/tasks", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"_id": "s1", "clienteId": "c1", "title": "Buy milk", "status": "Pending"},
			{"id": "s2", "title": "Call Sam", "status": "completed", "deleted": 1}
		]`))
	}))

	raws, err := client.ListTasks(context.Background())
	require.NoError(t, err)
	require.Len(t, raws, 2)

	first := raws[0].Normalize()
	assert.Equal(t, "s1", first.ID)
	assert.Equal(t, "c1", first.ClientID)
	assert.Equal(t, domain.StatusPending, first.Status)

	second := raws[1].Normalize()
	assert.Equal(t, "s2", second.ID)
	assert.Equal(t, "s2", second.ClientID)
	assert.Equal(t, domain.StatusCompleted, second.Status)
	assert.True(t, second.Deleted)
}

func TestCreateTaskSendsIdempotencyKey(t *testing.T) {
	t.Parallel()
	var gotKey string
	var gotPayload domain.TaskPayload

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		gotKey = r.Header.Get("X-Idempotency-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "s1", "clientId": "c1", "title": "Buy milk", "status": "pending"}`))
	}))

	payload := domain.TaskPayload{Title: "Buy milk", Status: domain.StatusPending, ClientID: "c1"}
	raw, err := client.CreateTask(context.Background(), payload)
	require.NoError(t, err)

	assert.Equal(t, "c1", gotKey, "create should carry the client ID as idempotency key")
	assert.Equal(t, payload, gotPayload)
	assert.Equal(t, "s1", raw.Normalize().ID)
}

func TestUpdateAndDeleteAddressByServerID(t *testing.T) {
	t.Parallel()
	var paths []string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodPut {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id": "s1", "title": "updated", "status": "completed"}`))
		}
	}))

	_, err := client.UpdateTask(context.Background(), "s1", domain.TaskPayload{Title: "updated", Status: domain.StatusCompleted})
	require.NoError(t, err)

	require.NoError(t, client.DeleteTask(context.Background(), "s1"))

	assert.Equal(t, []string{"PUT /tasks/s1", "DELETE /tasks/s1"}, paths)
}

func TestClientMapsErrorStatuses(t *testing.T) {
	t.Parallel()
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/tasks/missing":
			w.WriteHeader(http.StatusNotFound)
		case "/tasks/forbidden":
			w.WriteHeader(http.StatusUnauthorized)
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))

	err := client.DeleteTask(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTaskNotFound)

	err = client.DeleteTask(context.Background(), "forbidden")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = client.ListTasks(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "boom", apiErr.Message)
}

func TestClientReportsUnreachableService(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close() // deliberately unreachable

	client, err := NewHTTPClient(server.URL, time.Second, nil, nil)
	require.NoError(t, err)

	_, err = client.ListTasks(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestSessionTokenAttachedToRequests(t *testing.T) {
	t.Parallel()
	var gotAuth string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[]`))
	})
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	session := NewSession()
	session.SetToken("opaque-token")

	client, err := NewHTTPClient(server.URL, time.Second, session, nil)
	require.NoError(t, err)

	_, err = client.ListTasks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer opaque-token", gotAuth)

	// A context token overrides the session.
	ctx := WithToken(context.Background(), "request-token")
	_, err = client.ListTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bearer request-token", gotAuth)

	// After logout nothing is attached.
	session.Clear()
	_, err = client.ListTasks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

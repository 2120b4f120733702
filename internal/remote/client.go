package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/phrazzld/tasksync/internal/domain"
	"github.com/phrazzld/tasksync/internal/platform/logger"
)

// idempotencyKeyHeader carries the client-generated correlation
// identifier on create requests so the server can ignore a retried
// create whose first response was lost.
const idempotencyKeyHeader = "X-Idempotency-Key"

// HTTPClient is the HTTP implementation of the TaskService interface.
type HTTPClient struct {
	baseURL    *url.URL
	httpClient *http.Client
	session    *Session
	logger     *slog.Logger
}

// NewHTTPClient creates a task service client for the given base URL.
// If session is nil an empty session is used; if logger is nil a
// default logger is used.
func NewHTTPClient(baseURL string, timeout time.Duration, session *Session, logger *slog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	if session == nil {
		session = NewSession()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &HTTPClient{
		baseURL:    parsed,
		httpClient: &http.Client{Timeout: timeout},
		session:    session,
		logger:     logger.With(slog.String("component", "remote_client")),
	}, nil
}

// Ensure HTTPClient implements the TaskService interface
var _ TaskService = (*HTTPClient)(nil)

// ListTasks implements TaskService.ListTasks
func (c *HTTPClient) ListTasks(ctx context.Context) ([]domain.RawTask, error) {
	var raws []domain.RawTask
	if err := c.do(ctx, http.MethodGet, "tasks", nil, "", &raws); err != nil {
		return nil, err
	}
	return raws, nil
}

// CreateTask implements TaskService.CreateTask
func (c *HTTPClient) CreateTask(ctx context.Context, payload domain.TaskPayload) (domain.RawTask, error) {
	var raw domain.RawTask
	if err := c.do(ctx, http.MethodPost, "tasks", &payload, payload.ClientID, &raw); err != nil {
		return domain.RawTask{}, err
	}
	return raw, nil
}

// UpdateTask implements TaskService.UpdateTask
func (c *HTTPClient) UpdateTask(ctx context.Context, serverID string, payload domain.TaskPayload) (domain.RawTask, error) {
	var raw domain.RawTask
	path := "tasks/" + url.PathEscape(serverID)
	if err := c.do(ctx, http.MethodPut, path, &payload, "", &raw); err != nil {
		return domain.RawTask{}, err
	}
	return raw, nil
}

// DeleteTask implements TaskService.DeleteTask
func (c *HTTPClient) DeleteTask(ctx context.Context, serverID string) error {
	path := "tasks/" + url.PathEscape(serverID)
	return c.do(ctx, http.MethodDelete, path, nil, "", nil)
}

// Ping probes reachability of the task service without mutating
// anything. Used by the connectivity prober.
func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodHead, "tasks", nil, "", nil)
}

// do builds, sends and decodes a single request. body and out may be
// nil. idempotencyKey, when non-empty, is attached as a header.
func (c *HTTPClient) do(ctx context.Context, method, path string, body any, idempotencyKey string, out any) error {
	log := logger.FromContextOrDefault(ctx, c.logger)

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	target := c.baseURL.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, method, target.String(), reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		req.Header.Set(idempotencyKeyHeader, idempotencyKey)
	}
	c.attachToken(ctx, req, log)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The caller only needs to know the service was unreachable;
		// the transport detail goes to the log.
		log.Debug("remote request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Debug("failed to close response body", slog.String("error", err.Error()))
		}
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrTaskNotFound
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		message, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{StatusCode: resp.StatusCode, Message: string(bytes.TrimSpace(message))}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// attachToken resolves the session credential for this request: an
// explicit context token wins over the shared session. A session token
// already known to be expired is not sent.
func (c *HTTPClient) attachToken(ctx context.Context, req *http.Request, log *slog.Logger) {
	if token, ok := TokenFromContext(ctx); ok {
		req.Header.Set("Authorization", "Bearer "+token)
		return
	}

	token, ok := c.session.Token()
	if !ok {
		return
	}
	if c.session.Expired(time.Now()) {
		log.Warn("session token expired, sending request unauthenticated")
		return
	}
	req.Header.Set("Authorization", "Bearer "+token)
}

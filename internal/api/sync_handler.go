package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/phrazzld/tasksync/internal/api/shared"
	"github.com/phrazzld/tasksync/internal/events"
	"github.com/phrazzld/tasksync/internal/platform/logger"
	"github.com/phrazzld/tasksync/internal/store"
	syncengine "github.com/phrazzld/tasksync/internal/sync"
)

// SyncController is the subset of the sync engine the control API
// exposes.
type SyncController interface {
	// Reconcile runs (or coalesces into) a reconciliation pass.
	Reconcile(ctx context.Context) error

	// Online reports the current connectivity state.
	Online() bool
}

// SyncHandler handles sync control requests: daemon status and
// on-demand reconciliation.
type SyncHandler struct {
	engine   SyncController
	outbox   store.Outbox
	recorder *events.LastEventRecorder
	logger   *slog.Logger
}

// NewSyncHandler creates a new SyncHandler. The recorder is optional;
// without it status responses omit the last event.
func NewSyncHandler(
	engine SyncController,
	outbox store.Outbox,
	recorder *events.LastEventRecorder,
	logger *slog.Logger,
) *SyncHandler {
	if engine == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("engine cannot be nil for SyncHandler")
	}
	if outbox == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("outbox cannot be nil for SyncHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &SyncHandler{
		engine:   engine,
		outbox:   outbox,
		recorder: recorder,
		logger:   logger.With(slog.String("component", "sync_handler")),
	}
}

// Status handles GET /status requests.
func (h *SyncHandler) Status(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	entries, err := h.outbox.List(r.Context())
	if err != nil {
		log.Error("failed to count pending entries", slog.String("error", err.Error()))
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to read outbox", err)
		return
	}

	resp := StatusResponse{
		Online:  h.engine.Online(),
		Pending: len(entries),
	}
	if h.recorder != nil {
		if event, ok := h.recorder.Last(); ok {
			resp.LastEvent = &EventInfo{
				Type:       string(event.Type),
				Applied:    event.Applied,
				Uploaded:   event.Uploaded,
				Failed:     event.Failed,
				Error:      event.Error,
				OccurredAt: event.OccurredAt,
			}
		}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// Reconcile handles POST /reconcile requests. A pass that coalesces
// into an already-running one still answers 202; the caller observes
// the outcome via GET /status.
func (h *SyncHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	if err := h.engine.Reconcile(r.Context()); err != nil {
		if errors.Is(err, syncengine.ErrSyncUnavailable) {
			shared.RespondWithError(w, r, http.StatusServiceUnavailable, "Sync unavailable")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Reconciliation failed", err)
		return
	}

	log.Debug("reconciliation pass completed via control API")
	w.WriteHeader(http.StatusAccepted)
}

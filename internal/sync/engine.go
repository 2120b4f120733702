// Package sync implements the reconciliation engine: the orchestration
// of outbox drain, local-only upload and cache convergence that brings
// local task state and server state into agreement while preserving
// every still-unconfirmed local mutation.
package sync

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	gosync "sync"
	"time"

	"github.com/phrazzld/tasksync/internal/connectivity"
	"github.com/phrazzld/tasksync/internal/domain"
	"github.com/phrazzld/tasksync/internal/events"
	"github.com/phrazzld/tasksync/internal/platform/logger"
	"github.com/phrazzld/tasksync/internal/remote"
	"github.com/phrazzld/tasksync/internal/store"
)

// Engine coordinates the local task cache, the outbox, the identifier
// mapping table and the remote task service. One Engine owns one local
// store; no other writer touches the stores while a pass runs.
type Engine struct {
	cache   store.TaskCache
	outbox  store.Outbox
	idmap   store.IDMap
	remote  remote.TaskService
	signal  connectivity.Signal
	emitter events.EventEmitter
	logger  *slog.Logger

	// Single-flight guard with coalescing: a pass requested while one
	// is running sets rerun, and the running call executes exactly one
	// more pass before returning.
	mu      gosync.Mutex
	running bool
	rerun   bool

	// In-memory snapshot served to UI readers between passes.
	snapMu gosync.RWMutex
	tasks  []domain.Task
}

// NewEngine creates a reconciliation engine.
// It returns an error if any of the required dependencies are nil.
// The emitter is optional; when nil, lifecycle events are discarded.
func NewEngine(
	cache store.TaskCache,
	outbox store.Outbox,
	idmap store.IDMap,
	taskService remote.TaskService,
	signal connectivity.Signal,
	emitter events.EventEmitter,
	logger *slog.Logger,
) (*Engine, error) {
	if cache == nil {
		return nil, domain.NewValidationError("cache", "cannot be nil", domain.ErrValidation)
	}
	if outbox == nil {
		return nil, domain.NewValidationError("outbox", "cannot be nil", domain.ErrValidation)
	}
	if idmap == nil {
		return nil, domain.NewValidationError("idmap", "cannot be nil", domain.ErrValidation)
	}
	if taskService == nil {
		return nil, domain.NewValidationError("taskService", "cannot be nil", domain.ErrValidation)
	}
	if signal == nil {
		return nil, domain.NewValidationError("signal", "cannot be nil", domain.ErrValidation)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		cache:   cache,
		outbox:  outbox,
		idmap:   idmap,
		remote:  taskService,
		signal:  signal,
		emitter: emitter,
		logger:  logger.With(slog.String("component", "sync_engine")),
	}, nil
}

// Online reports the current connectivity state.
func (e *Engine) Online() bool {
	return e.signal.Online()
}

// Tasks returns the most recently loaded task list for rendering.
func (e *Engine) Tasks() []domain.Task {
	e.snapMu.RLock()
	defer e.snapMu.RUnlock()
	tasks := make([]domain.Task, len(e.tasks))
	copy(tasks, e.tasks)
	return tasks
}

func (e *Engine) setSnapshot(tasks []domain.Task) {
	e.snapMu.Lock()
	e.tasks = tasks
	e.snapMu.Unlock()
}

// LoadInitial loads the task list for first render: from the server
// when reachable, from the local cache otherwise. A successful server
// load also converges the cache. Cancelling ctx mid-load leaves the
// cache exactly as it was. Returns ErrTasksUnavailable when neither
// source can serve.
func (e *Engine) LoadInitial(ctx context.Context) ([]domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, e.logger)

	if e.signal.Online() {
		raws, err := e.remote.ListTasks(ctx)
		if ctx.Err() != nil {
			// Cancelled: report it without mutating anything.
			return nil, ctx.Err()
		}
		if err == nil {
			tasks := domain.NormalizeAll(raws)
			if cacheErr := e.cache.ReplaceAll(ctx, tasks); cacheErr != nil {
				// The server answered; a cache write failure must not
				// block rendering. The next pass converges again.
				log.Warn("failed to cache initial server load",
					slog.String("error", cacheErr.Error()))
			}
			e.setSnapshot(tasks)
			log.Info("initial load from server", slog.Int("count", len(tasks)))
			return tasks, nil
		}
		log.Warn("initial server load failed, falling back to cache",
			slog.String("error", err.Error()))
	}

	tasks, err := e.cache.GetAll(ctx)
	if err != nil {
		log.Error("initial load failed from both server and cache",
			slog.String("error", err.Error()))
		return nil, NewSyncError("load", "no source available", errors.Join(ErrTasksUnavailable, err))
	}

	e.setSnapshot(tasks)
	log.Info("initial load from cache", slog.Int("count", len(tasks)))
	return tasks, nil
}

// Reconcile runs a reconciliation pass. Calls are single-flight per
// engine: a call that arrives while a pass is running does not start a
// second pass; it marks the running call to execute exactly one more
// pass after the current one finishes, then returns immediately. It is
// therefore safe to call from the connectivity watcher and from UI
// code at the same time.
//
// The returned error is non-nil only when the (final) pass aborted
// because the server snapshot could not be fetched; isolated per-entry
// failures are logged, counted on the emitted event, and retried on
// the next pass.
func (e *Engine) Reconcile(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.rerun = true
		e.mu.Unlock()
		return nil
	}
	e.running = true
	e.mu.Unlock()

	var err error
	for {
		err = e.runPass(ctx)

		e.mu.Lock()
		if e.rerun && ctx.Err() == nil {
			e.rerun = false
			e.mu.Unlock()
			continue
		}
		e.rerun = false
		e.running = false
		e.mu.Unlock()
		return err
	}
}

// Run watches the connectivity signal until ctx is cancelled. Every
// transition is published as an online_changed event; an
// offline-to-online transition additionally triggers a reconciliation
// pass, so mutations queued while offline reach the server without the
// host doing anything.
func (e *Engine) Run(ctx context.Context) {
	log := logger.FromContextOrDefault(ctx, e.logger)
	transitions := e.signal.Subscribe()
	defer e.signal.Unsubscribe(transitions)

	for {
		select {
		case <-ctx.Done():
			return
		case online, ok := <-transitions:
			if !ok {
				return
			}
			log.Info("connectivity changed", slog.Bool("online", online))
			e.emit(ctx, events.NewSyncEvent(events.EventOnlineChanged, online))
			if online {
				if err := e.Reconcile(ctx); err != nil {
					log.Warn("reconciliation after reconnect failed",
						slog.String("error", err.Error()))
				}
			}
		}
	}
}

// runPass executes one full pass and emits lifecycle events.
func (e *Engine) runPass(ctx context.Context) error {
	log := logger.FromContextOrDefault(ctx, e.logger)
	e.emit(ctx, events.NewSyncEvent(events.EventSyncStarted, e.signal.Online()))

	res, err := e.reconcileOnce(ctx)
	if err != nil {
		log.Warn("reconciliation pass aborted", slog.String("error", err.Error()))
		event := events.NewSyncEvent(events.EventSyncFailed, e.signal.Online())
		event.Error = err.Error()
		e.emit(ctx, event)
		return err
	}

	log.Info("reconciliation pass completed",
		slog.Int("applied", res.Applied),
		slog.Int("uploaded", res.Uploaded),
		slog.Int("dropped", res.Dropped),
		slog.Int("failed", res.Failed),
		slog.Duration("duration", res.Duration))

	event := events.NewSyncEvent(events.EventSyncCompleted, e.signal.Online())
	event.Applied = res.Applied
	event.Uploaded = res.Uploaded
	event.Failed = res.Failed
	e.emit(ctx, event)
	return nil
}

// reconcileOnce is one linear pass: fetch, load, drain, upload,
// converge. Only the first fetch aborts the pass; every later failure
// is isolated and retried on the next pass.
func (e *Engine) reconcileOnce(ctx context.Context) (*Result, error) {
	log := logger.FromContextOrDefault(ctx, e.logger)
	start := time.Now()
	res := &Result{}

	// Step 1: fetch the server snapshot. The only abort point; the
	// outbox and cache stay untouched on failure.
	raws, err := e.remote.ListTasks(ctx)
	if err != nil {
		return nil, NewSyncError("fetch", "cannot fetch server snapshot", errors.Join(ErrSyncUnavailable, err))
	}
	serverTasks := domain.NormalizeAll(raws)

	serverIDs := make(map[string]struct{}, len(serverTasks))
	serverClientIDs := make(map[string]struct{}, len(serverTasks))
	for _, task := range serverTasks {
		if task.ID != "" {
			serverIDs[task.ID] = struct{}{}
		}
		serverClientIDs[task.ClientID] = struct{}{}
	}

	// Step 2: load the local snapshot. A cache read failure is not the
	// abort point: the drain can still run, only the local-only upload
	// step has nothing to work on.
	local, err := e.cache.GetAll(ctx)
	if err != nil {
		res.fail("load", "local snapshot", err)
		local = nil
	}

	// Step 3: drain the outbox in timestamp order. The stable sort
	// keeps enqueue order for equal timestamps.
	entries, err := e.outbox.List(ctx)
	if err != nil {
		res.fail("drain", "outbox list", err)
	} else {
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].TS < entries[j].TS
		})
		for _, entry := range entries {
			e.applyEntry(ctx, entry, res)
		}
	}

	// Step 4: upload local-only tasks, i.e. tasks with neither a
	// resolved server identifier nor a presence in the server snapshot.
	for _, task := range local {
		if e.isKnownToServer(ctx, task, serverIDs, serverClientIDs, res) {
			continue
		}
		e.uploadLocalOnly(ctx, task, res)
	}

	// Step 5: converge. Whatever the server reports now is
	// authoritative for rendering. Records the server soft-deleted are
	// excluded from the cache. A failure here is isolated: all entry
	// removals above are already durable, and the stale cache heals on
	// the next pass.
	raws, err = e.remote.ListTasks(ctx)
	if err != nil {
		res.fail("converge", "server refetch", err)
	} else {
		fresh := make([]domain.Task, 0, len(raws))
		for _, task := range domain.NormalizeAll(raws) {
			if task.Deleted {
				continue
			}
			fresh = append(fresh, task)
		}
		if err := e.cache.ReplaceAll(ctx, fresh); err != nil {
			res.fail("converge", "cache replace", err)
		} else {
			e.setSnapshot(fresh)
		}
	}

	res.Duration = time.Since(start)
	if !res.Clean() {
		log.Warn("reconciliation pass completed with isolated failures",
			slog.Int("failed", res.Failed))
	}
	return res, nil
}

// applyEntry replays one outbox entry against the server. Failures are
// recorded on res and leave the entry queued for the next pass.
func (e *Engine) applyEntry(ctx context.Context, entry domain.OutboxEntry, res *Result) {
	log := logger.FromContextOrDefault(ctx, e.logger).With(
		slog.String("entry_id", entry.ID),
		slog.String("op", string(entry.Op)),
		slog.String("client_id", entry.ClientID),
	)

	switch entry.Op {
	case domain.OpCreate:
		payload := entry.Payload
		payload.ClientID = entry.ClientID
		raw, err := e.remote.CreateTask(ctx, payload)
		if err != nil {
			log.Warn("create failed, entry retained", slog.String("error", err.Error()))
			res.fail("apply", "create "+entry.ClientID, err)
			return
		}
		task := e.adoptServerTask(raw, entry.ClientID)
		e.recordMapping(ctx, entry.ClientID, task.ID, log)
		e.cachePut(ctx, task, log)
		e.removeEntry(ctx, entry.ID, log)
		res.Applied++

	case domain.OpUpdate:
		serverID, ok := e.resolveMapping(ctx, entry, res, log)
		if !ok {
			return
		}
		raw, err := e.remote.UpdateTask(ctx, serverID, entry.Payload)
		if err != nil {
			log.Warn("update failed, entry retained", slog.String("error", err.Error()))
			res.fail("apply", "update "+entry.ClientID, err)
			return
		}
		e.cachePut(ctx, e.adoptServerTask(raw, entry.ClientID), log)
		e.removeEntry(ctx, entry.ID, log)
		res.Applied++

	case domain.OpDelete:
		serverID, ok := e.resolveMapping(ctx, entry, res, log)
		if !ok {
			return
		}
		if err := e.remote.DeleteTask(ctx, serverID); err != nil {
			log.Warn("delete failed, entry retained", slog.String("error", err.Error()))
			res.fail("apply", "delete "+entry.ClientID, err)
			return
		}
		if err := e.cache.Remove(ctx, serverID); err != nil {
			log.Warn("failed to remove task from cache", slog.String("error", err.Error()))
		}
		e.removeEntry(ctx, entry.ID, log)
		res.Applied++

	default:
		// Enqueue validates ops, so this only happens with a corrupted
		// log. Keeping the entry would wedge the outbox forever.
		log.Warn("unknown op in outbox, entry discarded")
		e.removeEntry(ctx, entry.ID, log)
		res.Dropped++
	}
}

// resolveMapping resolves the server ID for an update/delete entry.
// An absent mapping means the task was never created server-side: the
// entry is discarded without a network call, per policy. Returns false
// when the caller should stop processing this entry.
func (e *Engine) resolveMapping(ctx context.Context, entry domain.OutboxEntry, res *Result, log *slog.Logger) (string, bool) {
	serverID, err := e.idmap.Get(ctx, entry.ClientID)
	if err != nil {
		if errors.Is(err, store.ErrMappingNotFound) {
			log.Info("no server mapping for entry, dropping it")
			e.removeEntry(ctx, entry.ID, log)
			res.Dropped++
			return "", false
		}
		log.Warn("mapping lookup failed, entry retained", slog.String("error", err.Error()))
		res.fail("apply", string(entry.Op)+" "+entry.ClientID, err)
		return "", false
	}
	return serverID, true
}

// isKnownToServer reports whether the task already has a server-side
// representation, either through a recorded mapping or by appearing in
// the server snapshot.
func (e *Engine) isKnownToServer(ctx context.Context, task domain.Task, serverIDs, serverClientIDs map[string]struct{}, res *Result) bool {
	if task.ID != "" {
		if _, ok := serverIDs[task.ID]; ok {
			return true
		}
	}
	if _, ok := serverClientIDs[task.ClientID]; ok {
		return true
	}

	_, err := e.idmap.Get(ctx, task.ClientID)
	if err == nil {
		return true
	}
	if !errors.Is(err, store.ErrMappingNotFound) {
		// Cannot tell; uploading on a broken mapping read risks a
		// duplicate create, so skip this task until the next pass.
		res.fail("upload", "mapping lookup "+task.ClientID, err)
		return true
	}
	return false
}

// uploadLocalOnly creates one local-only task server-side. Same effect
// as a successful outbox create.
func (e *Engine) uploadLocalOnly(ctx context.Context, task domain.Task, res *Result) {
	log := logger.FromContextOrDefault(ctx, e.logger).With(
		slog.String("client_id", task.ClientID),
	)

	payload := task.Payload()
	payload.ClientID = task.ClientID
	raw, err := e.remote.CreateTask(ctx, payload)
	if err != nil {
		log.Warn("local-only upload failed, task stays local", slog.String("error", err.Error()))
		res.fail("upload", "create "+task.ClientID, err)
		return
	}

	confirmed := e.adoptServerTask(raw, task.ClientID)
	e.recordMapping(ctx, task.ClientID, confirmed.ID, log)
	e.cachePut(ctx, confirmed, log)
	res.Uploaded++
	log.Info("local-only task uploaded", slog.String("server_id", confirmed.ID))
}

// adoptServerTask normalizes a server response and pins it to the
// client ID the mutation was tracked under; servers are not required to
// echo the correlation identifier back.
func (e *Engine) adoptServerTask(raw domain.RawTask, clientID string) domain.Task {
	task := raw.Normalize()
	if clientID != "" {
		task.ClientID = clientID
	}
	return task
}

// recordMapping stores clientID -> serverID. A conflicting existing
// mapping wins; it is logged, never overwritten.
func (e *Engine) recordMapping(ctx context.Context, clientID, serverID string, log *slog.Logger) {
	if serverID == "" {
		log.Warn("server response carried no ID, mapping not recorded")
		return
	}
	if err := e.idmap.Set(ctx, clientID, serverID); err != nil {
		if errors.Is(err, store.ErrMappingConflict) {
			log.Warn("mapping already recorded with a different server ID, keeping the original",
				slog.String("server_id", serverID))
			return
		}
		log.Warn("failed to record identifier mapping", slog.String("error", err.Error()))
	}
}

func (e *Engine) cachePut(ctx context.Context, task domain.Task, log *slog.Logger) {
	if err := e.cache.Put(ctx, task); err != nil {
		// The converge step repairs the cache; the mutation itself is
		// already durable server-side.
		log.Warn("failed to upsert task into cache", slog.String("error", err.Error()))
	}
}

func (e *Engine) removeEntry(ctx context.Context, entryID string, log *slog.Logger) {
	if err := e.outbox.Remove(ctx, entryID); err != nil {
		log.Warn("failed to remove outbox entry", slog.String("error", err.Error()))
	}
}

func (e *Engine) emit(ctx context.Context, event events.SyncEvent) {
	if e.emitter == nil {
		return
	}
	if err := e.emitter.EmitEvent(ctx, event); err != nil {
		e.logger.Warn("failed to emit sync event",
			slog.String("event_type", string(event.Type)),
			slog.String("error", err.Error()))
	}
}

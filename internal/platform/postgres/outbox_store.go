package postgres

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/phrazzld/tasksync/internal/domain"
	"github.com/phrazzld/tasksync/internal/platform/logger"
	"github.com/phrazzld/tasksync/internal/store"
)

// PostgresOutbox implements the store.Outbox interface
// using a PostgreSQL database as the storage backend.
type PostgresOutbox struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresOutbox creates a new PostgreSQL implementation of the Outbox interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresOutbox(db store.DBTX, logger *slog.Logger) *PostgresOutbox {
	// Validate inputs
	if db == nil {
		panic("db cannot be nil")
	}

	// Use provided logger or create default
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresOutbox{
		db:     db,
		logger: logger.With(slog.String("component", "outbox")),
	}
}

// Ensure PostgresOutbox implements store.Outbox interface
var _ store.Outbox = (*PostgresOutbox)(nil)

// Enqueue implements store.Outbox.Enqueue
// Returns store.ErrDuplicate if an entry with the same ID already exists.
func (o *PostgresOutbox) Enqueue(ctx context.Context, entry domain.OutboxEntry) error {
	log := logger.FromContextOrDefault(ctx, o.logger)

	if err := entry.Validate(); err != nil {
		log.Warn("outbox entry validation failed during enqueue",
			slog.String("error", err.Error()),
			slog.String("entry_id", entry.ID))
		return store.NewStoreError("outbox entry", "enqueue", "validation failed", err)
	}

	payload, err := json.Marshal(entry.Payload)
	if err != nil {
		return store.NewStoreError("outbox entry", "enqueue", "payload encoding failed", err)
	}

	query := `
		INSERT INTO outbox_entries (id, op, client_id, payload, ts)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = o.db.ExecContext(ctx, query,
		entry.ID,
		string(entry.Op),
		entry.ClientID,
		payload,
		entry.TS,
	)

	if err != nil {
		if isUniqueViolation(err) {
			log.Warn("duplicate outbox entry",
				slog.String("entry_id", entry.ID))
			return store.ErrDuplicate
		}
		log.Error("failed to enqueue outbox entry",
			slog.String("error", err.Error()),
			slog.String("entry_id", entry.ID),
			slog.String("op", string(entry.Op)))
		return err
	}

	log.Info("outbox entry enqueued",
		slog.String("entry_id", entry.ID),
		slog.String("op", string(entry.Op)),
		slog.String("client_id", entry.ClientID))
	return nil
}

// List implements store.Outbox.List
// Entries come back in enqueue order; the engine applies its own stable
// sort by timestamp on top.
func (o *PostgresOutbox) List(ctx context.Context) ([]domain.OutboxEntry, error) {
	log := logger.FromContextOrDefault(ctx, o.logger)

	query := `
		SELECT id, op, client_id, payload, ts
		FROM outbox_entries
		ORDER BY position ASC
	`

	rows, err := o.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to query outbox entries",
			slog.String("error", err.Error()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var entries []domain.OutboxEntry
	for rows.Next() {
		var entry domain.OutboxEntry
		var op string
		var payload []byte

		if err := rows.Scan(&entry.ID, &op, &entry.ClientID, &payload, &entry.TS); err != nil {
			log.Error("failed to scan outbox entry row",
				slog.String("error", err.Error()))
			return nil, err
		}

		entry.Op = domain.Op(op)
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &entry.Payload); err != nil {
				log.Error("failed to decode outbox entry payload",
					slog.String("error", err.Error()),
					slog.String("entry_id", entry.ID))
				return nil, err
			}
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning outbox entry rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	if entries == nil {
		entries = []domain.OutboxEntry{}
	}

	log.Debug("listed outbox entries", slog.Int("count", len(entries)))
	return entries, nil
}

// Remove implements store.Outbox.Remove
// Returns store.ErrEntryNotFound if the entry does not exist.
func (o *PostgresOutbox) Remove(ctx context.Context, entryID string) error {
	log := logger.FromContextOrDefault(ctx, o.logger)

	result, err := o.db.ExecContext(ctx,
		`DELETE FROM outbox_entries WHERE id = $1`, entryID)
	if err != nil {
		log.Error("failed to remove outbox entry",
			slog.String("error", err.Error()),
			slog.String("entry_id", entryID))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("entry_id", entryID))
		return err
	}

	if rowsAffected == 0 {
		log.Debug("outbox entry not found for removal",
			slog.String("entry_id", entryID))
		return store.ErrEntryNotFound
	}

	log.Debug("outbox entry removed", slog.String("entry_id", entryID))
	return nil
}

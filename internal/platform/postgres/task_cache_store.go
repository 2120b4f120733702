package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/phrazzld/tasksync/internal/domain"
	"github.com/phrazzld/tasksync/internal/platform/logger"
	"github.com/phrazzld/tasksync/internal/store"
)

// PostgresTaskCache implements the store.TaskCache interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskCache struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresTaskCache creates a new PostgreSQL implementation of the TaskCache interface.
// It accepts a database connection that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresTaskCache(db *sql.DB, logger *slog.Logger) *PostgresTaskCache {
	// Validate inputs
	if db == nil {
		panic("db cannot be nil")
	}

	// Use provided logger or create default
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskCache{
		db:     db,
		logger: logger.With(slog.String("component", "task_cache")),
	}
}

// Ensure PostgresTaskCache implements store.TaskCache interface
var _ store.TaskCache = (*PostgresTaskCache)(nil)

// GetAll implements store.TaskCache.GetAll
// It returns every cached task in insertion order.
func (c *PostgresTaskCache) GetAll(ctx context.Context) ([]domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, c.logger)

	query := `
		SELECT server_id, client_id, title, description, status, created_at, deleted
		FROM cached_tasks
		ORDER BY position ASC
	`

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to query cached tasks",
			slog.String("error", err.Error()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var tasks []domain.Task
	for rows.Next() {
		var task domain.Task
		var serverID, description sql.NullString
		var status string
		var createdAt sql.NullTime

		if err := rows.Scan(&serverID, &task.ClientID, &task.Title, &description, &status, &createdAt, &task.Deleted); err != nil {
			log.Error("failed to scan cached task row",
				slog.String("error", err.Error()))
			return nil, err
		}

		task.ID = serverID.String
		task.Description = description.String
		task.Status = domain.Status(status)
		if createdAt.Valid {
			task.CreatedAt = createdAt.Time
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning cached task rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	if tasks == nil {
		tasks = []domain.Task{}
	}

	log.Debug("loaded cached tasks", slog.Int("count", len(tasks)))
	return tasks, nil
}

// Put implements store.TaskCache.Put
// It upserts the task under its server ID when one is known and its
// client ID otherwise. A stale client-keyed row left over from before
// the server confirmed the create is removed in the same transaction.
func (c *PostgresTaskCache) Put(ctx context.Context, task domain.Task) error {
	log := logger.FromContextOrDefault(ctx, c.logger)

	if task.ClientID == "" {
		return store.NewStoreError("task", "put", "missing client ID", store.ErrInvalidEntity)
	}

	key := task.Key()

	err := store.RunInTransaction(ctx, c.db, func(ctx context.Context, tx *sql.Tx) error {
		if key != task.ClientID {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM cached_tasks WHERE id = $1`, task.ClientID); err != nil {
				return err
			}
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO cached_tasks (id, server_id, client_id, title, description, status, created_at, deleted)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO UPDATE
			SET server_id = EXCLUDED.server_id,
			    client_id = EXCLUDED.client_id,
			    title = EXCLUDED.title,
			    description = EXCLUDED.description,
			    status = EXCLUDED.status,
			    created_at = EXCLUDED.created_at,
			    deleted = EXCLUDED.deleted
		`,
			key,
			nullString(task.ID),
			task.ClientID,
			task.Title,
			nullString(task.Description),
			string(task.Status),
			nullTime(task.CreatedAt),
			task.Deleted,
		)
		return err
	})

	if err != nil {
		log.Error("failed to put cached task",
			slog.String("error", err.Error()),
			slog.String("key", key))
		return err
	}

	log.Debug("cached task stored", slog.String("key", key))
	return nil
}

// Remove implements store.TaskCache.Remove
// Removing an absent key is not an error.
func (c *PostgresTaskCache) Remove(ctx context.Context, id string) error {
	log := logger.FromContextOrDefault(ctx, c.logger)

	_, err := c.db.ExecContext(ctx, `DELETE FROM cached_tasks WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to remove cached task",
			slog.String("error", err.Error()),
			slog.String("key", id))
		return err
	}

	log.Debug("cached task removed", slog.String("key", id))
	return nil
}

// ReplaceAll implements store.TaskCache.ReplaceAll
// The wipe and reload happen in a single transaction so readers never
// observe a half-replaced cache.
func (c *PostgresTaskCache) ReplaceAll(ctx context.Context, tasks []domain.Task) error {
	log := logger.FromContextOrDefault(ctx, c.logger)

	err := store.RunInTransaction(ctx, c.db, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM cached_tasks`); err != nil {
			return err
		}

		for _, task := range tasks {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO cached_tasks (id, server_id, client_id, title, description, status, created_at, deleted)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				ON CONFLICT (id) DO NOTHING
			`,
				task.Key(),
				nullString(task.ID),
				task.ClientID,
				task.Title,
				nullString(task.Description),
				string(task.Status),
				nullTime(task.CreatedAt),
				task.Deleted,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		log.Error("failed to replace cached tasks",
			slog.String("error", err.Error()),
			slog.Int("count", len(tasks)))
		return err
	}

	log.Info("cache converged to server snapshot", slog.Int("count", len(tasks)))
	return nil
}

// nullString maps an empty string to SQL NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// nullTime maps the zero time to SQL NULL.
func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

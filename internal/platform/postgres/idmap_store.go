package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/phrazzld/tasksync/internal/platform/logger"
	"github.com/phrazzld/tasksync/internal/store"
)

// PostgresIDMap implements the store.IDMap interface
// using a PostgreSQL database as the storage backend.
type PostgresIDMap struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresIDMap creates a new PostgreSQL implementation of the IDMap interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresIDMap(db store.DBTX, logger *slog.Logger) *PostgresIDMap {
	// Validate inputs
	if db == nil {
		panic("db cannot be nil")
	}

	// Use provided logger or create default
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresIDMap{
		db:     db,
		logger: logger.With(slog.String("component", "idmap")),
	}
}

// Ensure PostgresIDMap implements store.IDMap interface
var _ store.IDMap = (*PostgresIDMap)(nil)

// Set implements store.IDMap.Set
// Mappings are write-once: the insert does nothing on conflict, and a
// conflicting value for an existing client ID is reported as
// store.ErrMappingConflict without touching the stored value.
func (m *PostgresIDMap) Set(ctx context.Context, clientID, serverID string) error {
	log := logger.FromContextOrDefault(ctx, m.logger)

	if clientID == "" || serverID == "" {
		return store.NewStoreError("identifier mapping", "set", "empty identifier", store.ErrInvalidEntity)
	}

	query := `
		INSERT INTO id_mappings (client_id, server_id)
		VALUES ($1, $2)
		ON CONFLICT (client_id) DO NOTHING
	`
	result, err := m.db.ExecContext(ctx, query, clientID, serverID)
	if err != nil {
		log.Error("failed to set identifier mapping",
			slog.String("error", err.Error()),
			slog.String("client_id", clientID),
			slog.String("server_id", serverID))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("client_id", clientID))
		return err
	}

	if rowsAffected == 0 {
		// The mapping already existed; only a different value is an error.
		existing, err := m.Get(ctx, clientID)
		if err != nil {
			return err
		}
		if existing != serverID {
			log.Warn("conflicting identifier mapping rejected",
				slog.String("client_id", clientID),
				slog.String("existing_server_id", existing),
				slog.String("rejected_server_id", serverID))
			return store.ErrMappingConflict
		}
		return nil
	}

	log.Info("identifier mapping recorded",
		slog.String("client_id", clientID),
		slog.String("server_id", serverID))
	return nil
}

// Get implements store.IDMap.Get
// Returns store.ErrMappingNotFound if no mapping exists.
func (m *PostgresIDMap) Get(ctx context.Context, clientID string) (string, error) {
	log := logger.FromContextOrDefault(ctx, m.logger)

	var serverID string
	err := m.db.QueryRowContext(ctx,
		`SELECT server_id FROM id_mappings WHERE client_id = $1`, clientID,
	).Scan(&serverID)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("identifier mapping not found",
				slog.String("client_id", clientID))
			return "", store.ErrMappingNotFound
		}
		log.Error("failed to get identifier mapping",
			slog.String("error", err.Error()),
			slog.String("client_id", clientID))
		return "", err
	}

	return serverID, nil
}

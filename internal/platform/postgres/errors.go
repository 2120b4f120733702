package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes
const (
	uniqueViolationCode     = "23505" // unique constraint violation
	foreignKeyViolationCode = "23503" // foreign key violation
)

// isUniqueViolation checks if the given error is a PostgreSQL unique
// constraint violation, such as inserting an outbox entry whose ID is
// already present.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return true
	}
	return false
}

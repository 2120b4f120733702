// Package postgres provides PostgreSQL-backed implementations of the
// store interfaces, plus the embedded goose migrations that manage the
// local schema.
package postgres

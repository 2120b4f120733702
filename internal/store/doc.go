// Package store defines the persistence interfaces consumed by the sync
// engine: the local task cache, the pending-mutation outbox and the
// client-to-server identifier mapping table. Implementations live in
// internal/platform/postgres (durable) and internal/platform/memory
// (tests).
package store

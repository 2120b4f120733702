// Package domain defines the core business entities of the sync engine:
// tasks, outbox entries and the normalization rules that turn loosely
// shaped wire records into well-formed tasks.
package domain

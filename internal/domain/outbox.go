package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Op identifies the kind of mutation an outbox entry carries.
type Op string

// Possible outbox operations
const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Outbox-specific validation errors
var (
	ErrOutboxEntryIDEmpty       = errors.New("outbox entry ID cannot be empty")
	ErrOutboxEntryClientIDEmpty = errors.New("outbox entry client ID cannot be empty")
)

// OutboxEntry is a pending mutation intent: a user action performed
// locally that has not yet been confirmed durable on the server. TS is
// assigned at enqueue time and is the ordering key for replay; entries
// for the same ClientID must reach the server in non-decreasing TS
// order or updates can land out of order and creates can duplicate.
type OutboxEntry struct {
	ID       string      `json:"id"`
	Op       Op          `json:"op"`
	ClientID string      `json:"clientId"`
	Payload  TaskPayload `json:"data,omitempty"`
	TS       int64       `json:"ts"`
}

// NewOutboxEntry creates an outbox entry for the given operation and
// client ID, stamping it with the current time in unix milliseconds.
// The payload is ignored for delete operations.
// Returns an error if validation fails.
func NewOutboxEntry(op Op, clientID string, payload TaskPayload) (*OutboxEntry, error) {
	if op == OpDelete {
		payload = TaskPayload{}
	}

	entry := &OutboxEntry{
		ID:       uuid.NewString(),
		Op:       op,
		ClientID: clientID,
		Payload:  payload,
		TS:       time.Now().UnixMilli(),
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	return entry, nil
}

// Validate checks if the OutboxEntry has valid data.
// Returns an error if any field fails validation.
func (e *OutboxEntry) Validate() error {
	if e.ID == "" {
		return ErrOutboxEntryIDEmpty
	}

	if e.ClientID == "" {
		return ErrOutboxEntryClientIDEmpty
	}

	if !e.Op.Valid() {
		return ErrInvalidOp
	}

	return nil
}

// Valid reports whether op is one of the recognized operations.
func (op Op) Valid() bool {
	switch op {
	case OpCreate, OpUpdate, OpDelete:
		return true
	}
	return false
}

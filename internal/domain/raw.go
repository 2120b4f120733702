package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RawTask is the wire shape of a task record as returned by the remote
// service or read back from storage written by older clients. Field
// naming drifted over the history of the service, so the same logical
// identifier may arrive as "clienteId", "_id" or "id"; Normalize
// resolves the aliasing. The deleted flag has been observed as a bool,
// a number and a string across server versions, hence the loose typing.
type RawTask struct {
	ID          string    `json:"id,omitempty"`
	AltID       string    `json:"_id,omitempty"`
	ClienteID   string    `json:"clienteId,omitempty"`
	ClientID    string    `json:"clientId,omitempty"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
	Deleted     any       `json:"deleted,omitempty"`
}

// Normalize converts a raw record into a well-formed Task.
//
// The server identifier comes from "_id" or "id". The client identifier
// falls back through clienteId, clientId, the server identifier, and
// finally a freshly generated value, so every normalized Task carries a
// non-empty ClientID. A missing title becomes DefaultTitle and an
// unrecognized status becomes StatusPending.
func (r RawTask) Normalize() Task {
	serverID := r.AltID
	if serverID == "" {
		serverID = r.ID
	}

	clientID := r.ClienteID
	if clientID == "" {
		clientID = r.ClientID
	}
	if clientID == "" {
		clientID = serverID
	}
	if clientID == "" {
		clientID = uuid.NewString()
	}

	title := strings.TrimSpace(r.Title)
	if title == "" {
		title = DefaultTitle
	}

	return Task{
		ID:          serverID,
		ClientID:    clientID,
		Title:       title,
		Description: r.Description,
		Status:      ParseStatus(r.Status),
		CreatedAt:   r.CreatedAt,
		Deleted:     coerceBool(r.Deleted),
	}
}

// NormalizeAll normalizes a server snapshot in order.
func NormalizeAll(raws []RawTask) []Task {
	tasks := make([]Task, 0, len(raws))
	for _, r := range raws {
		tasks = append(tasks, r.Normalize())
	}
	return tasks
}

// coerceBool interprets the loosely-typed deleted flag. JSON numbers
// decode as float64 through the any type.
func coerceBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case float64:
		return val != 0
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(val))
		return err == nil && b
	default:
		return false
	}
}

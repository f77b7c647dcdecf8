package audit

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Entry represents an audit log entry. Before and After hold JSON snapshots
// of the entity around the recorded action.
type Entry struct {
	ID          string
	OrgID       string
	ActorID     string
	ActionType  string
	EntityType  string
	EntityID    string
	Description string
	Before      json.RawMessage
	After       json.RawMessage
	IP          string
	CreatedAt   time.Time
}

// Logger writes audit entries.
type Logger interface {
	Append(ctx context.Context, entry Entry) error
}

// NewID generates a random audit id.
func NewID() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return "audit-" + hex.EncodeToString(buf)
}

// Snapshot marshals a value for the Before/After fields, swallowing marshal
// failures: a broken snapshot must not block the audited action.
func Snapshot(value any) json.RawMessage {
	if value == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil
	}
	return data
}

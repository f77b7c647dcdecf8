package audit

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Repository writes audit logs.
type Repository struct {
	q execer
}

// NewRepository constructs an audit repository.
func NewRepository(db *sql.DB) *Repository {
	if db == nil {
		return nil
	}
	return &Repository{q: db}
}

// NewTxRepository constructs a repository bound to a transaction so the
// audit row commits or rolls back with the action it records.
func NewTxRepository(tx *sql.Tx) *Repository {
	if tx == nil {
		return nil
	}
	return &Repository{q: tx}
}

// Append writes an audit entry.
func (r *Repository) Append(ctx context.Context, entry Entry) error {
	if r == nil || r.q == nil {
		return errors.New("audit repo: nil db")
	}
	if entry.ID == "" {
		entry.ID = NewID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := r.q.ExecContext(ctx, `
INSERT INTO audit_logs (
	id, org_id, actor_id, action_type, entity_type, entity_id,
	description, before, after, ip, created_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
)`, entry.ID, entry.OrgID, entry.ActorID, entry.ActionType, entry.EntityType, entry.EntityID,
		entry.Description, nullJSON(entry.Before), nullJSON(entry.After), entry.IP, entry.CreatedAt)
	return err
}

func nullJSON(data []byte) any {
	if len(data) == 0 {
		return nil
	}
	return data
}

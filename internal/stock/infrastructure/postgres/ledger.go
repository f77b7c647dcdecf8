package postgres

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"time"

	stock "fleet-waybill/internal/stock/domain"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Ledger appends movements to stock_movements.
type Ledger struct {
	q execer
}

// NewLedger constructs a ledger over a database handle.
func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{q: db}
}

// NewTxLedger constructs a ledger bound to a transaction.
func NewTxLedger(tx *sql.Tx) *Ledger {
	return &Ledger{q: tx}
}

// AppendDepletion inserts one expense movement. The (source_type, source_id,
// stock_item_id) unique key makes re-posting the same document idempotent
// within a transaction.
func (l *Ledger) AppendDepletion(ctx context.Context, depletion stock.Depletion) error {
	if l == nil || l.q == nil {
		return errors.New("stock ledger: nil db")
	}
	if depletion.StockItemID == "" {
		return stock.ErrMissingStockItem
	}
	if depletion.Quantity <= 0 {
		return stock.ErrNonPositiveQuantity
	}
	occurredAt := depletion.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}
	_, err := l.q.ExecContext(ctx, `
INSERT INTO stock_movements (
	id, org_id, stock_item_id, movement_type, quantity,
	source_type, source_id, actor_id, note, occurred_at
) VALUES ($1,$2,$3,'expense',$4,$5,$6,$7,$8,$9)
ON CONFLICT (source_type, source_id, stock_item_id) DO NOTHING`,
		newMovementID(), depletion.OrgID, depletion.StockItemID, depletion.Quantity,
		depletion.SourceType, depletion.SourceID, depletion.ActorID, depletion.Note, occurredAt)
	return err
}

func newMovementID() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return "mov-" + hex.EncodeToString(buf)
}

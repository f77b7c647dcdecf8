// Package stock exposes the fuel stock ledger consumed by document posting.
// Ledger rows are immutable movements: a posting appends them, a reversal
// appends compensating rows, nothing is updated in place.
package stock

import (
	"context"
	"errors"
	"time"
)

// Depletion is one stock-decreasing ledger movement.
type Depletion struct {
	OrgID       string
	StockItemID string
	Quantity    float64
	SourceType  string
	SourceID    string
	ActorID     string
	Note        string
	OccurredAt  time.Time
}

var (
	// ErrNonPositiveQuantity is returned for a zero or negative depletion.
	ErrNonPositiveQuantity = errors.New("stock: non-positive quantity")
	// ErrMissingStockItem is returned when the movement names no item.
	ErrMissingStockItem = errors.New("stock: missing stock item")
)

// Ledger appends stock movements. Implementations bound to a transaction
// make the append part of the caller's unit of work.
type Ledger interface {
	AppendDepletion(ctx context.Context, depletion Depletion) error
}

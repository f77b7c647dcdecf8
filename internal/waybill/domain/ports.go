package waybill

import (
	"context"
	"time"

	"fleet-waybill/internal/audit"
	blanks "fleet-waybill/internal/blanks/domain"
	stock "fleet-waybill/internal/stock/domain"
)

// ListFilter narrows waybill listings.
type ListFilter struct {
	VehicleID string
	DriverID  string
	Status    Status
	DateFrom  time.Time
	DateTo    time.Time
}

// Reader serves queries outside any unit of work.
type Reader interface {
	// Get loads a waybill with its segments and fuel lines, or ErrNotFound.
	Get(ctx context.Context, orgID, id string) (*Waybill, error)
	List(ctx context.Context, orgID string, filter ListFilter) ([]Waybill, error)
}

// TxRepository mutates waybills inside a unit of work.
type TxRepository interface {
	// GetForUpdate loads and locks the aggregate row so concurrent status
	// transitions on the same waybill serialize.
	GetForUpdate(ctx context.Context, orgID, id string) (*Waybill, error)
	Insert(ctx context.Context, wb *Waybill) error
	Update(ctx context.Context, wb *Waybill) error
	// ReplaceSegments deletes all existing route segments and inserts the
	// given set; a stored segment list is always the complete route.
	ReplaceSegments(ctx context.Context, waybillID string, segments []RouteSegment) error
	// ReplaceFuelLines deletes and reinserts the fuel lines as one set.
	ReplaceFuelLines(ctx context.Context, waybillID string, lines []FuelLine) error
	UpdateStatus(ctx context.Context, wb *Waybill) error
	Delete(ctx context.Context, orgID, id string) error
}

// Tx bundles the collaborators bound to one atomic unit of work. Everything
// reached through it commits or rolls back together.
type Tx interface {
	Waybills() TxRepository
	Ledger() stock.Ledger
	Blanks() blanks.Registry
	Audit() audit.Logger
}

// UnitOfWork runs fn inside a single all-or-nothing transaction. Any error
// from fn rolls back every effect applied through the Tx.
type UnitOfWork interface {
	Run(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

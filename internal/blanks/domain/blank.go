// Package blanks tracks pre-printed, serially numbered waybill forms.
// A blank is reserved for exactly one waybill and later marked used, or
// returned to the pool when the waybill never reaches posting.
package blanks

import (
	"context"
	"errors"
	"strconv"
	"time"
)

// BlankStatus is the state of one serial form.
type BlankStatus string

const (
	StatusAvailable BlankStatus = "available"
	StatusReserved  BlankStatus = "reserved"
	StatusUsed      BlankStatus = "used"
	StatusReturned  BlankStatus = "returned"
)

// Blank is one serial paper form.
type Blank struct {
	ID           string
	OrgID        string
	Series       string
	Number       int
	DriverID     string
	DepartmentID string
	Status       BlankStatus
	ReservedFor  string
	ReservedAt   time.Time
	UsedAt       time.Time
	CreatedAt    time.Time
}

// FullNumber renders the printable series+number form.
func (b Blank) FullNumber() string {
	if b.Series == "" {
		return strconv.Itoa(b.Number)
	}
	return b.Series + "-" + strconv.Itoa(b.Number)
}

var (
	// ErrNoBlanksAvailable is returned when the driver's pool is empty.
	ErrNoBlanksAvailable = errors.New("blanks: no blanks available")
	// ErrBlankNotFound is returned for an unknown blank id.
	ErrBlankNotFound = errors.New("blanks: not found")
	// ErrBlankNotAvailable is returned when reserving a blank that is not
	// in the available pool.
	ErrBlankNotAvailable = errors.New("blanks: blank is not available")
	// ErrBlankNotReserved is returned when releasing or consuming a blank
	// that is not in the reserved state.
	ErrBlankNotReserved = errors.New("blanks: blank is not reserved")
)

// Registry reserves, releases and consumes blanks. Implementations bound to
// a transaction make the reservation part of the caller's unit of work.
type Registry interface {
	// ReserveNext reserves the lowest available number for the driver,
	// falling back to the department pool. Returns ErrNoBlanksAvailable
	// when no form can be reserved.
	ReserveNext(ctx context.Context, orgID, driverID, departmentID string) (*Blank, error)
	// ReserveSpecific reserves one explicitly chosen blank.
	ReserveSpecific(ctx context.Context, orgID, blankID, driverID, departmentID string) (*Blank, error)
	// Release returns a reserved blank to the pool.
	Release(ctx context.Context, orgID, blankID string) error
	// MarkUsed consumes a reserved blank permanently.
	MarkUsed(ctx context.Context, blankID string) error
}

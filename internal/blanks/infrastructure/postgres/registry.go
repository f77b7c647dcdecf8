package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	blanks "fleet-waybill/internal/blanks/domain"
)

// querier is satisfied by *sql.DB and *sql.Tx so the registry can join a
// caller-owned transaction.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Registry persists blank reservations in waybill_blanks.
type Registry struct {
	q querier
}

// NewRegistry constructs a registry over a database handle.
func NewRegistry(db *sql.DB) *Registry {
	return &Registry{q: db}
}

// NewTxRegistry constructs a registry bound to a transaction.
func NewTxRegistry(tx *sql.Tx) *Registry {
	return &Registry{q: tx}
}

// ReserveNext reserves the lowest available number for the driver, falling
// back to the department pool. Row locking keeps two concurrent reservations
// from picking the same form.
func (r *Registry) ReserveNext(ctx context.Context, orgID, driverID, departmentID string) (*blanks.Blank, error) {
	if r == nil || r.q == nil {
		return nil, errors.New("blank registry: nil db")
	}
	row := r.q.QueryRowContext(ctx, `
SELECT id, org_id, series, number, driver_id, department_id, status, created_at
FROM waybill_blanks
WHERE org_id = $1 AND status = $2
	AND (driver_id = $3 OR (driver_id IS NULL AND department_id = $4) OR (driver_id IS NULL AND department_id IS NULL))
ORDER BY (driver_id IS NULL), series ASC, number ASC
LIMIT 1
FOR UPDATE SKIP LOCKED`, orgID, blanks.StatusAvailable, driverID, departmentID)
	blank, err := scanBlank(row)
	if err != nil {
		return nil, err
	}
	if blank == nil {
		return nil, blanks.ErrNoBlanksAvailable
	}
	return r.reserve(ctx, blank, driverID, departmentID)
}

// ReserveSpecific reserves one explicitly chosen blank.
func (r *Registry) ReserveSpecific(ctx context.Context, orgID, blankID, driverID, departmentID string) (*blanks.Blank, error) {
	if r == nil || r.q == nil {
		return nil, errors.New("blank registry: nil db")
	}
	row := r.q.QueryRowContext(ctx, `
SELECT id, org_id, series, number, driver_id, department_id, status, created_at
FROM waybill_blanks
WHERE org_id = $1 AND id = $2
LIMIT 1
FOR UPDATE`, orgID, blankID)
	blank, err := scanBlank(row)
	if err != nil {
		return nil, err
	}
	if blank == nil {
		return nil, blanks.ErrBlankNotFound
	}
	if blank.Status != blanks.StatusAvailable {
		return nil, blanks.ErrBlankNotAvailable
	}
	return r.reserve(ctx, blank, driverID, departmentID)
}

func (r *Registry) reserve(ctx context.Context, blank *blanks.Blank, driverID, departmentID string) (*blanks.Blank, error) {
	now := time.Now().UTC()
	_, err := r.q.ExecContext(ctx, `
UPDATE waybill_blanks
SET status = $1, driver_id = $2, department_id = $3, reserved_at = $4
WHERE id = $5`, blanks.StatusReserved, driverID, nullString(departmentID), now, blank.ID)
	if err != nil {
		return nil, err
	}
	blank.Status = blanks.StatusReserved
	blank.DriverID = driverID
	blank.DepartmentID = departmentID
	blank.ReservedAt = now
	return blank, nil
}

// Release returns a reserved blank to the pool.
func (r *Registry) Release(ctx context.Context, orgID, blankID string) error {
	if r == nil || r.q == nil {
		return errors.New("blank registry: nil db")
	}
	result, err := r.q.ExecContext(ctx, `
UPDATE waybill_blanks
SET status = $1, reserved_at = NULL
WHERE org_id = $2 AND id = $3 AND status = $4`, blanks.StatusAvailable, orgID, blankID, blanks.StatusReserved)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return blanks.ErrBlankNotReserved
	}
	return nil
}

// MarkUsed consumes a reserved blank permanently.
func (r *Registry) MarkUsed(ctx context.Context, blankID string) error {
	if r == nil || r.q == nil {
		return errors.New("blank registry: nil db")
	}
	result, err := r.q.ExecContext(ctx, `
UPDATE waybill_blanks
SET status = $1, used_at = $2
WHERE id = $3 AND status = $4`, blanks.StatusUsed, time.Now().UTC(), blankID, blanks.StatusReserved)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return blanks.ErrBlankNotReserved
	}
	return nil
}

func scanBlank(row *sql.Row) (*blanks.Blank, error) {
	var b blanks.Blank
	var driver, department sql.NullString
	err := row.Scan(&b.ID, &b.OrgID, &b.Series, &b.Number, &driver, &department, &b.Status, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if driver.Valid {
		b.DriverID = driver.String
	}
	if department.Valid {
		b.DepartmentID = department.String
	}
	b.CreatedAt = b.CreatedAt.UTC()
	return &b, nil
}

func nullString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

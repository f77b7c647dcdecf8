// Package postgres persists waybill aggregates and provides the
// transactional unit of work that document posting runs in.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	waybill "fleet-waybill/internal/waybill/domain"
)

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const selectWaybill = `
SELECT id, org_id, number, vehicle_id, driver_id, department_id, trip_date,
	odometer_start, odometer_end, city_driving, warming, mountain_driving,
	calc_method, status, blank_id,
	created_by, updated_by, posted_by, created_at, updated_at, posted_at
FROM waybills`

// Repository reads and writes waybill rows. Bound to *sql.DB it serves
// queries; bound to *sql.Tx it participates in a unit of work.
type Repository struct {
	q querier
}

// NewRepository constructs a repository over a database handle.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{q: db}
}

// NewTxRepository constructs a repository bound to a transaction.
func NewTxRepository(tx *sql.Tx) *Repository {
	return &Repository{q: tx}
}

// Get loads a waybill with its segments and fuel lines.
func (r *Repository) Get(ctx context.Context, orgID, id string) (*waybill.Waybill, error) {
	if r == nil || r.q == nil {
		return nil, errors.New("waybill repo: nil db")
	}
	row := r.q.QueryRowContext(ctx, selectWaybill+`
WHERE org_id = $1 AND id = $2
LIMIT 1`, orgID, id)
	wb, err := scanWaybill(row)
	if err != nil {
		return nil, err
	}
	if wb == nil {
		return nil, waybill.ErrNotFound
	}
	if err := r.loadChildren(ctx, wb); err != nil {
		return nil, err
	}
	return wb, nil
}

// GetForUpdate loads and locks the aggregate row so concurrent status
// transitions on the same waybill serialize.
func (r *Repository) GetForUpdate(ctx context.Context, orgID, id string) (*waybill.Waybill, error) {
	if r == nil || r.q == nil {
		return nil, errors.New("waybill repo: nil db")
	}
	row := r.q.QueryRowContext(ctx, selectWaybill+`
WHERE org_id = $1 AND id = $2
LIMIT 1
FOR UPDATE`, orgID, id)
	wb, err := scanWaybill(row)
	if err != nil {
		return nil, err
	}
	if wb == nil {
		return nil, waybill.ErrNotFound
	}
	if err := r.loadChildren(ctx, wb); err != nil {
		return nil, err
	}
	return wb, nil
}

// List returns waybills matching the filter, children not loaded.
func (r *Repository) List(ctx context.Context, orgID string, filter waybill.ListFilter) ([]waybill.Waybill, error) {
	if r == nil || r.q == nil {
		return nil, errors.New("waybill repo: nil db")
	}
	query := selectWaybill + `
WHERE org_id = $1`
	args := []any{orgID}
	if filter.VehicleID != "" {
		args = append(args, filter.VehicleID)
		query += ` AND vehicle_id = $` + itoa(len(args))
	}
	if filter.DriverID != "" {
		args = append(args, filter.DriverID)
		query += ` AND driver_id = $` + itoa(len(args))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` AND status = $` + itoa(len(args))
	}
	if !filter.DateFrom.IsZero() {
		args = append(args, filter.DateFrom)
		query += ` AND trip_date >= $` + itoa(len(args))
	}
	if !filter.DateTo.IsZero() {
		args = append(args, filter.DateTo)
		query += ` AND trip_date <= $` + itoa(len(args))
	}
	query += `
ORDER BY trip_date DESC, number DESC`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []waybill.Waybill
	for rows.Next() {
		wb, err := scanWaybill(rows)
		if err != nil {
			return nil, err
		}
		if wb != nil {
			result = append(result, *wb)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Insert writes the aggregate row.
func (r *Repository) Insert(ctx context.Context, wb *waybill.Waybill) error {
	if r == nil || r.q == nil {
		return errors.New("waybill repo: nil db")
	}
	if wb == nil {
		return waybill.ErrNilAggregate
	}
	_, err := r.q.ExecContext(ctx, `
INSERT INTO waybills (
	id, org_id, number, vehicle_id, driver_id, department_id, trip_date,
	odometer_start, odometer_end, city_driving, warming, mountain_driving,
	calc_method, status, blank_id, created_by, updated_by, created_at, updated_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19
)`,
		wb.ID, wb.OrgID, wb.Number, wb.VehicleID, wb.DriverID, nullString(wb.DepartmentID), wb.TripDate,
		nullFloat(wb.OdometerStart), nullFloat(wb.OdometerEnd), wb.CityDriving, wb.Warming, wb.MountainDriving,
		wb.CalcMethod, wb.Status, nullString(wb.BlankID), wb.CreatedBy, wb.UpdatedBy, wb.CreatedAt, wb.UpdatedAt)
	return err
}

// Update rewrites the mutable aggregate columns.
func (r *Repository) Update(ctx context.Context, wb *waybill.Waybill) error {
	if r == nil || r.q == nil {
		return errors.New("waybill repo: nil db")
	}
	if wb == nil {
		return waybill.ErrNilAggregate
	}
	_, err := r.q.ExecContext(ctx, `
UPDATE waybills
SET trip_date = $1, odometer_start = $2, odometer_end = $3,
	city_driving = $4, warming = $5, mountain_driving = $6,
	calc_method = $7, updated_by = $8, updated_at = $9
WHERE org_id = $10 AND id = $11`,
		wb.TripDate, nullFloat(wb.OdometerStart), nullFloat(wb.OdometerEnd),
		wb.CityDriving, wb.Warming, wb.MountainDriving,
		wb.CalcMethod, wb.UpdatedBy, wb.UpdatedAt, wb.OrgID, wb.ID)
	return err
}

// UpdateStatus writes the status and actor/timestamp metadata.
func (r *Repository) UpdateStatus(ctx context.Context, wb *waybill.Waybill) error {
	if r == nil || r.q == nil {
		return errors.New("waybill repo: nil db")
	}
	if wb == nil {
		return waybill.ErrNilAggregate
	}
	_, err := r.q.ExecContext(ctx, `
UPDATE waybills
SET status = $1, updated_by = $2, updated_at = $3, posted_by = $4, posted_at = $5
WHERE org_id = $6 AND id = $7`,
		wb.Status, wb.UpdatedBy, wb.UpdatedAt, nullString(wb.PostedBy), nullTime(wb.PostedAt), wb.OrgID, wb.ID)
	return err
}

// ReplaceSegments deletes all route segments and inserts the given set. The
// stored list is always the complete intended route.
func (r *Repository) ReplaceSegments(ctx context.Context, waybillID string, segments []waybill.RouteSegment) error {
	if r == nil || r.q == nil {
		return errors.New("waybill repo: nil db")
	}
	if _, err := r.q.ExecContext(ctx, `DELETE FROM waybill_route_segments WHERE waybill_id = $1`, waybillID); err != nil {
		return err
	}
	for _, seg := range segments {
		_, err := r.q.ExecContext(ctx, `
INSERT INTO waybill_route_segments (
	waybill_id, position, description, distance_km, city_driving, warming, mountain_driving
) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			waybillID, seg.Position, seg.Description, seg.DistanceKm, seg.CityDriving, seg.Warming, seg.MountainDriving)
		if err != nil {
			return err
		}
	}
	return nil
}

// ReplaceFuelLines deletes all fuel lines and inserts the given set.
func (r *Repository) ReplaceFuelLines(ctx context.Context, waybillID string, lines []waybill.FuelLine) error {
	if r == nil || r.q == nil {
		return errors.New("waybill repo: nil db")
	}
	if _, err := r.q.ExecContext(ctx, `DELETE FROM waybill_fuel_lines WHERE waybill_id = $1`, waybillID); err != nil {
		return err
	}
	for _, line := range lines {
		_, err := r.q.ExecContext(ctx, `
INSERT INTO waybill_fuel_lines (
	waybill_id, stock_item_id, fuel_start, fuel_received, fuel_consumed, fuel_end, fuel_planned
) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			waybillID, line.StockItemID, nullFloat(line.FuelStart), nullFloat(line.FuelReceived),
			nullFloat(line.FuelConsumed), nullFloat(line.FuelEnd), nullFloat(line.FuelPlanned))
		if err != nil {
			return err
		}
	}
	return nil
}

// Delete removes the aggregate; child rows cascade.
func (r *Repository) Delete(ctx context.Context, orgID, id string) error {
	if r == nil || r.q == nil {
		return errors.New("waybill repo: nil db")
	}
	result, err := r.q.ExecContext(ctx, `DELETE FROM waybills WHERE org_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return waybill.ErrNotFound
	}
	return nil
}

func (r *Repository) loadChildren(ctx context.Context, wb *waybill.Waybill) error {
	rows, err := r.q.QueryContext(ctx, `
SELECT waybill_id, position, description, distance_km, city_driving, warming, mountain_driving
FROM waybill_route_segments
WHERE waybill_id = $1
ORDER BY position ASC`, wb.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var seg waybill.RouteSegment
		if err := rows.Scan(&seg.WaybillID, &seg.Position, &seg.Description, &seg.DistanceKm, &seg.CityDriving, &seg.Warming, &seg.MountainDriving); err != nil {
			return err
		}
		wb.Segments = append(wb.Segments, seg)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	lineRows, err := r.q.QueryContext(ctx, `
SELECT waybill_id, stock_item_id, fuel_start, fuel_received, fuel_consumed, fuel_end, fuel_planned
FROM waybill_fuel_lines
WHERE waybill_id = $1
ORDER BY stock_item_id ASC`, wb.ID)
	if err != nil {
		return err
	}
	defer lineRows.Close()
	for lineRows.Next() {
		var line waybill.FuelLine
		var start, received, consumed, end, planned sql.NullFloat64
		if err := lineRows.Scan(&line.WaybillID, &line.StockItemID, &start, &received, &consumed, &end, &planned); err != nil {
			return err
		}
		line.FuelStart = floatPtr(start)
		line.FuelReceived = floatPtr(received)
		line.FuelConsumed = floatPtr(consumed)
		line.FuelEnd = floatPtr(end)
		line.FuelPlanned = floatPtr(planned)
		wb.FuelLines = append(wb.FuelLines, line)
	}
	return lineRows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWaybill(row rowScanner) (*waybill.Waybill, error) {
	var wb waybill.Waybill
	var department, blankID, postedBy sql.NullString
	var odoStart, odoEnd sql.NullFloat64
	var postedAt sql.NullTime
	err := row.Scan(
		&wb.ID,
		&wb.OrgID,
		&wb.Number,
		&wb.VehicleID,
		&wb.DriverID,
		&department,
		&wb.TripDate,
		&odoStart,
		&odoEnd,
		&wb.CityDriving,
		&wb.Warming,
		&wb.MountainDriving,
		&wb.CalcMethod,
		&wb.Status,
		&blankID,
		&wb.CreatedBy,
		&wb.UpdatedBy,
		&postedBy,
		&wb.CreatedAt,
		&wb.UpdatedAt,
		&postedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if department.Valid {
		wb.DepartmentID = department.String
	}
	if blankID.Valid {
		wb.BlankID = blankID.String
	}
	if postedBy.Valid {
		wb.PostedBy = postedBy.String
	}
	if postedAt.Valid {
		wb.PostedAt = postedAt.Time.UTC()
	}
	wb.OdometerStart = floatPtr(odoStart)
	wb.OdometerEnd = floatPtr(odoEnd)
	wb.TripDate = wb.TripDate.UTC()
	wb.CreatedAt = wb.CreatedAt.UTC()
	wb.UpdatedAt = wb.UpdatedAt.UTC()
	return &wb, nil
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	value := v.Float64
	return &value
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

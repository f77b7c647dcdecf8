package postgres

import (
	"context"
	"database/sql"
	"errors"

	masterdata "fleet-waybill/internal/masterdata/domain"
)

// DriverRepository reads drivers.
type DriverRepository struct {
	db *sql.DB
}

// NewDriverRepository constructs a repository.
func NewDriverRepository(db *sql.DB) *DriverRepository {
	return &DriverRepository{db: db}
}

// Get loads one driver scoped to an org.
func (r *DriverRepository) Get(ctx context.Context, orgID, id string) (*masterdata.Driver, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("driver repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, org_id, full_name, personnel_code, department_id, license_number, active, created_at
FROM drivers
WHERE org_id = $1 AND id = $2
LIMIT 1`, orgID, id)

	var d masterdata.Driver
	var department, license sql.NullString
	err := row.Scan(&d.ID, &d.OrgID, &d.FullName, &d.PersonnelCode, &department, &license, &d.Active, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if department.Valid {
		d.DepartmentID = department.String
	}
	if license.Valid {
		d.LicenseNumber = license.String
	}
	d.CreatedAt = d.CreatedAt.UTC()
	return &d, nil
}

// ListActive lists active drivers for an org.
func (r *DriverRepository) ListActive(ctx context.Context, orgID string) ([]masterdata.Driver, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("driver repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, org_id, full_name, personnel_code, department_id, license_number, active, created_at
FROM drivers
WHERE org_id = $1 AND active
ORDER BY full_name ASC`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []masterdata.Driver
	for rows.Next() {
		var d masterdata.Driver
		var department, license sql.NullString
		if err := rows.Scan(&d.ID, &d.OrgID, &d.FullName, &d.PersonnelCode, &department, &license, &d.Active, &d.CreatedAt); err != nil {
			return nil, err
		}
		if department.Valid {
			d.DepartmentID = department.String
		}
		if license.Valid {
			d.LicenseNumber = license.String
		}
		d.CreatedAt = d.CreatedAt.UTC()
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

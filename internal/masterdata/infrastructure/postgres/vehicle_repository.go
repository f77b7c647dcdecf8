package postgres

import (
	"context"
	"database/sql"
	"errors"

	masterdata "fleet-waybill/internal/masterdata/domain"
)

// VehicleRepository reads vehicles and their fuel norms.
type VehicleRepository struct {
	db *sql.DB
}

// NewVehicleRepository constructs a repository.
func NewVehicleRepository(db *sql.DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

// Get loads one vehicle scoped to an org.
func (r *VehicleRepository) Get(ctx context.Context, orgID, id string) (*masterdata.Vehicle, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("vehicle repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, org_id, plate_number, model, department_id,
	summer_rate, winter_rate, city_increase, warming_increase, mountain_increase,
	tank_capacity, active, created_at, updated_at
FROM vehicles
WHERE org_id = $1 AND id = $2
LIMIT 1`, orgID, id)
	return scanVehicle(row)
}

// ListActive lists active vehicles for an org.
func (r *VehicleRepository) ListActive(ctx context.Context, orgID string) ([]masterdata.Vehicle, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("vehicle repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, org_id, plate_number, model, department_id,
	summer_rate, winter_rate, city_increase, warming_increase, mountain_increase,
	tank_capacity, active, created_at, updated_at
FROM vehicles
WHERE org_id = $1 AND active
ORDER BY plate_number ASC`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []masterdata.Vehicle
	for rows.Next() {
		vehicle, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		if vehicle != nil {
			result = append(result, *vehicle)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVehicle(row rowScanner) (*masterdata.Vehicle, error) {
	var v masterdata.Vehicle
	var summer, winter, tank sql.NullFloat64
	var department sql.NullString
	err := row.Scan(
		&v.ID,
		&v.OrgID,
		&v.PlateNumber,
		&v.Model,
		&department,
		&summer,
		&winter,
		&v.CityIncrease,
		&v.WarmingIncrease,
		&v.MountainIncrease,
		&tank,
		&v.Active,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if department.Valid {
		v.DepartmentID = department.String
	}
	if summer.Valid {
		v.SummerRate = &summer.Float64
	}
	if winter.Valid {
		v.WinterRate = &winter.Float64
	}
	if tank.Valid {
		v.TankCapacity = &tank.Float64
	}
	v.CreatedAt = v.CreatedAt.UTC()
	v.UpdatedAt = v.UpdatedAt.UTC()
	return &v, nil
}

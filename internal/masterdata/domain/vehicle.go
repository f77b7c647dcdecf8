// Package masterdata holds fleet reference entities: vehicles, drivers and
// departments.
package masterdata

import "time"

// Vehicle is a fleet vehicle with its fuel consumption norms.
type Vehicle struct {
	ID           string
	OrgID        string
	PlateNumber  string
	Model        string
	DepartmentID string

	// Rates are liters per 100 km; either may be absent.
	SummerRate *float64
	WinterRate *float64

	// Additive rate increases as fractions (0.10 = +10%).
	CityIncrease     float64
	WarmingIncrease  float64
	MountainIncrease float64

	TankCapacity *float64
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Driver is a person allowed to carry waybills.
type Driver struct {
	ID            string
	OrgID         string
	FullName      string
	PersonnelCode string
	DepartmentID  string
	LicenseNumber string
	Active        bool
	CreatedAt     time.Time
}

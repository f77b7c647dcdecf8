// Package waybill holds the trip-document aggregate, its fuel accounting
// rules and its status lifecycle.
package waybill

import "time"

// Waybill is the aggregate root for one vehicle trip document.
type Waybill struct {
	ID           string
	OrgID        string
	Number       string
	VehicleID    string
	DriverID     string
	DepartmentID string
	TripDate     time.Time

	OdometerStart *float64
	OdometerEnd   *float64

	CityDriving     bool
	Warming         bool
	MountainDriving bool

	CalcMethod CalcMethod
	Status     Status

	// BlankID references the reserved serial document number, empty when the
	// waybill was created without a blank.
	BlankID string

	Segments  []RouteSegment
	FuelLines []FuelLine

	CreatedBy string
	UpdatedBy string
	PostedBy  string
	CreatedAt time.Time
	UpdatedAt time.Time
	PostedAt  time.Time
}

// RouteSegment is one leg of the trip. Segment order matters only for
// display; consumption totals are order independent.
type RouteSegment struct {
	WaybillID       string
	Position        int
	Description     string
	DistanceKm      float64
	CityDriving     bool
	Warming         bool
	MountainDriving bool
}

// FuelLine is one fuel-tank ledger line attached to the waybill. Lines are
// replaced as a whole set together with the waybill mutation, never patched
// field by field.
type FuelLine struct {
	WaybillID    string
	StockItemID  string
	FuelStart    *float64
	FuelReceived *float64
	FuelConsumed *float64
	FuelEnd      *float64
	FuelPlanned  *float64
}

// Consumed returns the consumed quantity treating nil as zero.
func (l FuelLine) Consumed() float64 {
	if l.FuelConsumed == nil {
		return 0
	}
	return *l.FuelConsumed
}

// Planned returns the planned quantity treating nil as zero.
func (l FuelLine) Planned() float64 {
	if l.FuelPlanned == nil {
		return 0
	}
	return *l.FuelPlanned
}

// RateProfile carries the per-vehicle consumption norms. Rates are liters
// per 100 km; the increase fields are additive fractions (0.10 = +10%).
type RateProfile struct {
	SummerRate *float64
	WinterRate *float64

	CityIncrease     float64
	WarmingIncrease  float64
	MountainIncrease float64
}

// DriveFlags marks the trip conditions that switch on rate increases.
type DriveFlags struct {
	CityDriving     bool
	Warming         bool
	MountainDriving bool
}

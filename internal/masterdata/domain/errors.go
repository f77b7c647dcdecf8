package masterdata

import "errors"

var (
	// ErrVehicleNotFound is returned when a vehicle does not exist.
	ErrVehicleNotFound = errors.New("masterdata: vehicle not found")
	// ErrDriverNotFound is returned when a driver does not exist.
	ErrDriverNotFound = errors.New("masterdata: driver not found")
)

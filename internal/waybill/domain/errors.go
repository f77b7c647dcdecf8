package waybill

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a waybill does not exist.
	ErrNotFound = errors.New("waybill: not found")
	// ErrNilAggregate is returned when persisting a nil aggregate.
	ErrNilAggregate = errors.New("waybill: nil aggregate")
	// ErrPostedImmutable is returned on mutation of a posted waybill.
	ErrPostedImmutable = errors.New("waybill: posted waybill is immutable")
)

// Validation error codes. Codes are stable identifiers for the HTTP layer;
// the message carries the human-readable detail.
const (
	CodeOdometerInvalid      = "ODOMETER_INVALID"
	CodeFuelBalanceInvalid   = "FUEL_BALANCE_INVALID"
	CodeRoutesRequired       = "ROUTES_REQUIRED_FOR_METHOD"
	CodeOdometerRequired     = "ODOMETER_REQUIRED_FOR_METHOD"
	CodeUnknownCalcMethod    = "UNKNOWN_CALC_METHOD"
	CodeUnknownStatus        = "UNKNOWN_STATUS"
	CodeVehicleRequired      = "VEHICLE_REQUIRED"
	CodeDriverRequired       = "DRIVER_REQUIRED"
	CodeSegmentDistanceError = "SEGMENT_DISTANCE_INVALID"
	CodeNotEditable          = "WAYBILL_NOT_EDITABLE"
)

// ValidationError reports recoverable input problems. The caller corrects
// the request and retries; nothing is retried automatically.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return "waybill: " + e.Code + ": " + e.Message
}

// NewValidationError builds a coded validation error.
func NewValidationError(code, format string, args ...any) *ValidationError {
	return &ValidationError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// StateTransitionError reports an illegal status change.
type StateTransitionError struct {
	From Status
	To   Status
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("waybill: transition %s -> %s is not allowed", e.From, e.To)
}

// AuthorizationError reports a transition that needs an override the caller
// does not carry, typically a consumption overage beyond the threshold.
type AuthorizationError struct {
	Message     string
	StockItemID string
	Consumed    float64
	Planned     float64
}

func (e *AuthorizationError) Error() string {
	return "waybill: " + e.Message
}

// ResourceExhaustionError reports that no document number could be reserved.
type ResourceExhaustionError struct {
	Message string
}

func (e *ResourceExhaustionError) Error() string {
	return "waybill: " + e.Message
}

// DependencyFailure wraps a collaborator failure inside a unit of work; the
// enclosing transaction must roll back entirely.
type DependencyFailure struct {
	Dependency string
	Err        error
}

func (e *DependencyFailure) Error() string {
	return fmt.Sprintf("waybill: %s failed: %v", e.Dependency, e.Err)
}

func (e *DependencyFailure) Unwrap() error {
	return e.Err
}

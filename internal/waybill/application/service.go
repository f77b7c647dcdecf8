// Package application orchestrates the waybill document lifecycle over the
// injected persistence and collaborator ports.
package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"fleet-waybill/internal/audit"
	"fleet-waybill/internal/auth"
	blanks "fleet-waybill/internal/blanks/domain"
	masterdata "fleet-waybill/internal/masterdata/domain"
	"fleet-waybill/internal/observability/metrics"
	"fleet-waybill/internal/season"
	stock "fleet-waybill/internal/stock/domain"
	waybill "fleet-waybill/internal/waybill/domain"
)

// VehicleReader resolves vehicles and their rate profiles.
type VehicleReader interface {
	Get(ctx context.Context, orgID, id string) (*masterdata.Vehicle, error)
}

// DriverReader resolves drivers.
type DriverReader interface {
	Get(ctx context.Context, orgID, id string) (*masterdata.Driver, error)
}

// Service handles waybill workflows.
type Service struct {
	uow      waybill.UnitOfWork
	reader   waybill.Reader
	vehicles VehicleReader
	drivers  DriverReader
	seasons  season.SettingsProvider
	cfg      Config
	logger   *log.Logger
}

// NewService constructs a service.
func NewService(uow waybill.UnitOfWork, reader waybill.Reader, vehicles VehicleReader, drivers DriverReader, seasons season.SettingsProvider, cfg Config, logger *log.Logger) (*Service, error) {
	if uow == nil {
		return nil, errors.New("waybill service: nil unit of work")
	}
	if reader == nil {
		return nil, errors.New("waybill service: nil reader")
	}
	if vehicles == nil || drivers == nil {
		return nil, errors.New("waybill service: nil masterdata reader")
	}
	if cfg.OverageThreshold <= 0 {
		cfg.OverageThreshold = 0.10
	}
	if cfg.BalanceTolerance <= 0 {
		cfg.BalanceTolerance = waybill.BalanceTolerance
	}
	return &Service{uow: uow, reader: reader, vehicles: vehicles, drivers: drivers, seasons: seasons, cfg: cfg, logger: logger}, nil
}

// SegmentInput is one requested route leg.
type SegmentInput struct {
	Description     string
	DistanceKm      float64
	CityDriving     bool
	Warming         bool
	MountainDriving bool
}

// FuelLineInput is one requested fuel-tank line.
type FuelLineInput struct {
	StockItemID  string
	FuelStart    *float64
	FuelReceived *float64
	FuelConsumed *float64
	FuelEnd      *float64
}

// CreateRequest creates a new draft waybill.
type CreateRequest struct {
	VehicleID     string
	DriverID      string
	TripDate      time.Time
	OdometerStart *float64
	OdometerEnd   *float64

	CityDriving     bool
	Warming         bool
	MountainDriving bool

	CalcMethod string
	// BlankID picks a specific form; empty reserves the next available
	// number for the driver.
	BlankID string

	Segments  []SegmentInput
	FuelLines []FuelLineInput
}

// UpdateRequest mutates a draft waybill. Nil pointer fields keep the stored
// value; non-nil Segments/FuelLines replace the stored sets as a whole.
type UpdateRequest struct {
	ID string

	TripDate      *time.Time
	OdometerStart *float64
	OdometerEnd   *float64

	CityDriving     *bool
	Warming         *bool
	MountainDriving *bool

	CalcMethod *string

	Segments  *[]SegmentInput
	FuelLines *[]FuelLineInput
}

// Create validates the request, reserves a blank and persists the aggregate
// with its segments and fuel lines as one unit. Reservation failure aborts
// creation with no partial state.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*waybill.Waybill, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveCreate(result, time.Since(start))
	}()

	orgID := auth.OrgIDFromContext(ctx)
	if orgID == "" {
		result = metrics.ResultError
		return nil, errors.New("waybill service: missing org in context")
	}
	actorID := auth.SubjectFromContext(ctx)

	if req.VehicleID == "" {
		result = metrics.ResultError
		return nil, waybill.NewValidationError(waybill.CodeVehicleRequired, "vehicle is required")
	}
	if req.DriverID == "" {
		result = metrics.ResultError
		return nil, waybill.NewValidationError(waybill.CodeDriverRequired, "driver is required")
	}
	method, ok := waybill.NormalizeCalcMethod(req.CalcMethod)
	if !ok {
		result = metrics.ResultError
		return nil, waybill.NewValidationError(waybill.CodeUnknownCalcMethod, "unknown calculation method %q", req.CalcMethod)
	}
	segments := buildSegments("", req.Segments)
	if err := validateDocument(method, req.OdometerStart, req.OdometerEnd, segments); err != nil {
		result = metrics.ResultError
		return nil, err
	}

	vehicle, err := s.vehicles.Get(ctx, orgID, req.VehicleID)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	if vehicle == nil {
		result = metrics.ResultError
		return nil, masterdata.ErrVehicleNotFound
	}
	// Pin the actual driver record; the blank pool and the printed form
	// follow the driver's department.
	driver, err := s.drivers.Get(ctx, orgID, req.DriverID)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	if driver == nil {
		result = metrics.ResultError
		return nil, masterdata.ErrDriverNotFound
	}

	now := time.Now().UTC()
	wb := &waybill.Waybill{
		ID:              newWaybillID(),
		OrgID:           orgID,
		VehicleID:       vehicle.ID,
		DriverID:        driver.ID,
		DepartmentID:    driver.DepartmentID,
		TripDate:        req.TripDate,
		OdometerStart:   req.OdometerStart,
		OdometerEnd:     req.OdometerEnd,
		CityDriving:     req.CityDriving,
		Warming:         req.Warming,
		MountainDriving: req.MountainDriving,
		CalcMethod:      method,
		Status:          waybill.StatusDraft,
		Segments:        segments,
		CreatedBy:       actorID,
		UpdatedBy:       actorID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for i := range wb.Segments {
		wb.Segments[i].WaybillID = wb.ID
	}

	planned := s.plannedFuel(ctx, orgID, vehicle, wb)
	wb.FuelLines = buildFuelLines(wb.ID, req.FuelLines, planned)

	err = s.uow.Run(ctx, func(ctx context.Context, tx waybill.Tx) error {
		blank, err := s.reserveBlank(ctx, tx.Blanks(), orgID, req.BlankID, driver)
		if err != nil {
			return err
		}
		wb.BlankID = blank.ID
		wb.Number = blank.FullNumber()

		if err := tx.Waybills().Insert(ctx, wb); err != nil {
			return err
		}
		if err := tx.Waybills().ReplaceSegments(ctx, wb.ID, wb.Segments); err != nil {
			return err
		}
		if err := tx.Waybills().ReplaceFuelLines(ctx, wb.ID, wb.FuelLines); err != nil {
			return err
		}
		return tx.Audit().Append(ctx, audit.Entry{
			OrgID:       orgID,
			ActorID:     actorID,
			ActionType:  "waybill.create",
			EntityType:  "waybill",
			EntityID:    wb.ID,
			Description: fmt.Sprintf("waybill %s created for vehicle %s", wb.Number, vehicle.PlateNumber),
			After:       audit.Snapshot(wb),
		})
	})
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	return wb, nil
}

// Update re-validates the merged document, recomputes planned fuel and
// replaces the segment and fuel-line sets that the request carries.
func (s *Service) Update(ctx context.Context, req UpdateRequest) (*waybill.Waybill, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveUpdate(result, time.Since(start))
	}()

	orgID := auth.OrgIDFromContext(ctx)
	if orgID == "" {
		result = metrics.ResultError
		return nil, errors.New("waybill service: missing org in context")
	}
	actorID := auth.SubjectFromContext(ctx)

	var updated *waybill.Waybill
	err := s.uow.Run(ctx, func(ctx context.Context, tx waybill.Tx) error {
		wb, err := tx.Waybills().GetForUpdate(ctx, orgID, req.ID)
		if err != nil {
			return err
		}
		if wb.Status == waybill.StatusPosted {
			return waybill.ErrPostedImmutable
		}
		if wb.Status != waybill.StatusDraft {
			return waybill.NewValidationError(waybill.CodeNotEditable, "waybill in status %s cannot be edited", wb.Status)
		}
		before := audit.Snapshot(wb)

		if req.TripDate != nil {
			wb.TripDate = *req.TripDate
		}
		if req.OdometerStart != nil {
			wb.OdometerStart = req.OdometerStart
		}
		if req.OdometerEnd != nil {
			wb.OdometerEnd = req.OdometerEnd
		}
		if req.CityDriving != nil {
			wb.CityDriving = *req.CityDriving
		}
		if req.Warming != nil {
			wb.Warming = *req.Warming
		}
		if req.MountainDriving != nil {
			wb.MountainDriving = *req.MountainDriving
		}
		if req.CalcMethod != nil {
			method, ok := waybill.NormalizeCalcMethod(*req.CalcMethod)
			if !ok {
				return waybill.NewValidationError(waybill.CodeUnknownCalcMethod, "unknown calculation method %q", *req.CalcMethod)
			}
			wb.CalcMethod = method
		}
		if req.Segments != nil {
			wb.Segments = buildSegments(wb.ID, *req.Segments)
		}

		if err := validateDocument(wb.CalcMethod, wb.OdometerStart, wb.OdometerEnd, wb.Segments); err != nil {
			return err
		}

		vehicle, err := s.vehicles.Get(ctx, orgID, wb.VehicleID)
		if err != nil {
			return err
		}
		if vehicle == nil {
			return masterdata.ErrVehicleNotFound
		}
		planned := s.plannedFuel(ctx, orgID, vehicle, wb)
		if req.FuelLines != nil {
			wb.FuelLines = buildFuelLines(wb.ID, *req.FuelLines, planned)
		} else {
			applyPlanned(wb.FuelLines, planned)
		}

		wb.UpdatedBy = actorID
		wb.UpdatedAt = time.Now().UTC()

		if err := tx.Waybills().Update(ctx, wb); err != nil {
			return err
		}
		if err := tx.Waybills().ReplaceSegments(ctx, wb.ID, wb.Segments); err != nil {
			return err
		}
		if err := tx.Waybills().ReplaceFuelLines(ctx, wb.ID, wb.FuelLines); err != nil {
			return err
		}
		if err := tx.Audit().Append(ctx, audit.Entry{
			OrgID:       orgID,
			ActorID:     actorID,
			ActionType:  "waybill.update",
			EntityType:  "waybill",
			EntityID:    wb.ID,
			Description: fmt.Sprintf("waybill %s updated", wb.Number),
			Before:      before,
			After:       audit.Snapshot(wb),
		}); err != nil {
			return err
		}
		updated = wb
		return nil
	})
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	return updated, nil
}

// ChangeStatus moves the waybill through its lifecycle. A transition into
// POSTED applies stock depletion, consumes the blank, updates the status and
// records the audit trail as one all-or-nothing unit of work.
func (s *Service) ChangeStatus(ctx context.Context, id string, target waybill.Status) (*waybill.Waybill, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveTransition(string(target), result, time.Since(start))
	}()

	orgID := auth.OrgIDFromContext(ctx)
	if orgID == "" {
		result = metrics.ResultError
		return nil, errors.New("waybill service: missing org in context")
	}
	actorID := auth.SubjectFromContext(ctx)
	role := auth.RoleFromContext(ctx)

	var changed *waybill.Waybill
	err := s.uow.Run(ctx, func(ctx context.Context, tx waybill.Tx) error {
		wb, err := tx.Waybills().GetForUpdate(ctx, orgID, id)
		if err != nil {
			return err
		}
		from := wb.Status
		if err := waybill.CheckTransition(from, target); err != nil {
			return err
		}

		var overrides []waybill.FuelLine
		if target == waybill.StatusPosted || target == waybill.StatusSubmitted {
			if check := waybill.ValidateOdometer(wb.OdometerStart, wb.OdometerEnd); !check.IsValid {
				return waybill.NewValidationError(waybill.CodeOdometerInvalid, "%s", check.Error)
			}
		}
		if target == waybill.StatusPosted {
			overrides, err = s.gatePosting(wb, role)
			if err != nil {
				return err
			}
			for _, line := range wb.FuelLines {
				if line.Consumed() <= 0 {
					continue
				}
				depletion := stock.Depletion{
					OrgID:       orgID,
					StockItemID: line.StockItemID,
					Quantity:    line.Consumed(),
					SourceType:  "waybill",
					SourceID:    wb.ID,
					ActorID:     actorID,
					Note:        fmt.Sprintf("fuel consumed by waybill %s", wb.Number),
				}
				if err := tx.Ledger().AppendDepletion(ctx, depletion); err != nil {
					return &waybill.DependencyFailure{Dependency: "stock ledger", Err: err}
				}
			}
			if wb.BlankID != "" {
				if err := tx.Blanks().MarkUsed(ctx, wb.BlankID); err != nil {
					return &waybill.DependencyFailure{Dependency: "blank registry", Err: err}
				}
			}
			wb.PostedBy = actorID
			wb.PostedAt = time.Now().UTC()
		}

		wb.Status = target
		wb.UpdatedBy = actorID
		wb.UpdatedAt = time.Now().UTC()
		if err := tx.Waybills().UpdateStatus(ctx, wb); err != nil {
			return err
		}

		if err := tx.Audit().Append(ctx, audit.Entry{
			OrgID:       orgID,
			ActorID:     actorID,
			ActionType:  "waybill.status",
			EntityType:  "waybill",
			EntityID:    wb.ID,
			Description: fmt.Sprintf("waybill %s moved %s -> %s", wb.Number, from, target),
		}); err != nil {
			return &waybill.DependencyFailure{Dependency: "audit log", Err: err}
		}
		// Overridden overages are recorded as explicit exceptions, never
		// silently allowed.
		for _, line := range overrides {
			if err := tx.Audit().Append(ctx, audit.Entry{
				OrgID:       orgID,
				ActorID:     actorID,
				ActionType:  "waybill.overage_override",
				EntityType:  "waybill",
				EntityID:    wb.ID,
				Description: fmt.Sprintf("consumption overage on stock item %s: consumed %.2f, planned %.2f", line.StockItemID, line.Consumed(), line.Planned()),
			}); err != nil {
				return &waybill.DependencyFailure{Dependency: "audit log", Err: err}
			}
			metrics.IncOverageOverride()
		}
		changed = wb
		return nil
	})
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	return changed, nil
}

// Delete removes a non-posted waybill, returning a reserved blank to the
// pool first. A release failure is logged and counted, not escalated; the
// blank stays reserved for manual reconciliation.
func (s *Service) Delete(ctx context.Context, id string) error {
	orgID := auth.OrgIDFromContext(ctx)
	if orgID == "" {
		return errors.New("waybill service: missing org in context")
	}
	actorID := auth.SubjectFromContext(ctx)

	return s.uow.Run(ctx, func(ctx context.Context, tx waybill.Tx) error {
		wb, err := tx.Waybills().GetForUpdate(ctx, orgID, id)
		if err != nil {
			return err
		}
		if wb.Status == waybill.StatusPosted {
			return waybill.ErrPostedImmutable
		}
		if wb.BlankID != "" {
			if err := tx.Blanks().Release(ctx, orgID, wb.BlankID); err != nil {
				if s.logger != nil {
					s.logger.Printf("blank release failed for waybill %s blank %s: %v", wb.ID, wb.BlankID, err)
				}
				metrics.IncBlankReleaseFailure()
			}
		}
		if err := tx.Waybills().Delete(ctx, orgID, id); err != nil {
			return err
		}
		return tx.Audit().Append(ctx, audit.Entry{
			OrgID:       orgID,
			ActorID:     actorID,
			ActionType:  "waybill.delete",
			EntityType:  "waybill",
			EntityID:    wb.ID,
			Description: fmt.Sprintf("waybill %s deleted", wb.Number),
			Before:      audit.Snapshot(wb),
		})
	})
}

// Get returns a waybill with its segments and fuel lines.
func (s *Service) Get(ctx context.Context, id string) (*waybill.Waybill, error) {
	orgID := auth.OrgIDFromContext(ctx)
	if orgID == "" {
		return nil, errors.New("waybill service: missing org in context")
	}
	return s.reader.Get(ctx, orgID, id)
}

// List returns waybills matching the filter.
func (s *Service) List(ctx context.Context, filter waybill.ListFilter) ([]waybill.Waybill, error) {
	orgID := auth.OrgIDFromContext(ctx)
	if orgID == "" {
		return nil, errors.New("waybill service: missing org in context")
	}
	return s.reader.List(ctx, orgID, filter)
}

// gatePosting evaluates the consumption-overage policy for every fuel line.
// Lines beyond the threshold refuse the transition unless the caller's role
// carries the override; overridden lines are returned for audit recording.
func (s *Service) gatePosting(wb *waybill.Waybill, role auth.Role) ([]waybill.FuelLine, error) {
	var overrides []waybill.FuelLine
	for _, line := range wb.FuelLines {
		check := waybill.ValidateFuelBalance(line.FuelStart, line.FuelReceived, line.FuelConsumed, line.FuelEnd, s.cfg.BalanceTolerance)
		if !check.IsValid {
			return nil, waybill.NewValidationError(waybill.CodeFuelBalanceInvalid, "%s", check.Error)
		}
		planned := line.Planned()
		consumed := line.Consumed()
		if planned <= 0 || consumed <= planned*(1+s.cfg.OverageThreshold) {
			continue
		}
		if !auth.CanOverrideOverage(role) {
			return nil, &waybill.AuthorizationError{
				Message:     fmt.Sprintf("consumption %.2f exceeds planned %.2f beyond the %.0f%% threshold", consumed, planned, s.cfg.OverageThreshold*100),
				StockItemID: line.StockItemID,
				Consumed:    consumed,
				Planned:     planned,
			}
		}
		overrides = append(overrides, line)
	}
	return overrides, nil
}

func (s *Service) reserveBlank(ctx context.Context, registry blanks.Registry, orgID, blankID string, driver *masterdata.Driver) (*blanks.Blank, error) {
	var blank *blanks.Blank
	var err error
	if blankID != "" {
		blank, err = registry.ReserveSpecific(ctx, orgID, blankID, driver.ID, driver.DepartmentID)
	} else {
		blank, err = registry.ReserveNext(ctx, orgID, driver.ID, driver.DepartmentID)
	}
	if err != nil {
		if errors.Is(err, blanks.ErrNoBlanksAvailable) {
			return nil, &waybill.ResourceExhaustionError{Message: "no waybill blanks available for driver " + driver.ID}
		}
		return nil, &waybill.DependencyFailure{Dependency: "blank registry", Err: err}
	}
	return blank, nil
}

// plannedFuel derives the expected consumption through the season classifier
// and the calculation-method dispatcher.
func (s *Service) plannedFuel(ctx context.Context, orgID string, vehicle *masterdata.Vehicle, wb *waybill.Waybill) float64 {
	policy := s.seasonPolicy(ctx, orgID)
	isWinter := season.IsWinter(wb.TripDate, policy)
	profile := rateProfile(vehicle)
	return waybill.PlannedFuelByMethod(waybill.PlannedFuelInput{
		Method:             wb.CalcMethod,
		BaseRate:           waybill.SeasonRate(profile, isWinter),
		OdometerDistanceKm: waybill.DistanceKm(wb.OdometerStart, wb.OdometerEnd),
		Segments:           wb.Segments,
		Profile:            profile,
	})
}

func (s *Service) seasonPolicy(ctx context.Context, orgID string) *season.Policy {
	if s.seasons != nil {
		policy, err := s.seasons.GetSeasonPolicy(ctx, orgID)
		if err != nil {
			if s.logger != nil {
				s.logger.Printf("season policy lookup failed for org %s: %v", orgID, err)
			}
		} else if policy != nil {
			return policy
		}
	}
	return s.cfg.DefaultSeasonPolicy()
}

func validateDocument(method waybill.CalcMethod, odometerStart, odometerEnd *float64, segments []waybill.RouteSegment) error {
	if check := waybill.ValidateOdometer(odometerStart, odometerEnd); !check.IsValid {
		return waybill.NewValidationError(waybill.CodeOdometerInvalid, "%s", check.Error)
	}
	for _, seg := range segments {
		if seg.DistanceKm < 0 {
			return waybill.NewValidationError(waybill.CodeSegmentDistanceError, "segment %d has negative distance", seg.Position)
		}
	}
	switch method {
	case waybill.MethodSegments:
		if len(segments) == 0 {
			return waybill.NewValidationError(waybill.CodeRoutesRequired, "method %s requires route segments", method)
		}
	case waybill.MethodMixed:
		if len(segments) == 0 {
			return waybill.NewValidationError(waybill.CodeRoutesRequired, "method %s requires route segments", method)
		}
		if odometerStart == nil || odometerEnd == nil {
			return waybill.NewValidationError(waybill.CodeOdometerRequired, "method %s requires odometer readings", method)
		}
	case waybill.MethodBoiler:
		if odometerStart == nil || odometerEnd == nil {
			return waybill.NewValidationError(waybill.CodeOdometerRequired, "method %s requires odometer readings", method)
		}
	}
	return nil
}

func buildSegments(waybillID string, inputs []SegmentInput) []waybill.RouteSegment {
	segments := make([]waybill.RouteSegment, 0, len(inputs))
	for i, in := range inputs {
		segments = append(segments, waybill.RouteSegment{
			WaybillID:       waybillID,
			Position:        i + 1,
			Description:     in.Description,
			DistanceKm:      in.DistanceKm,
			CityDriving:     in.CityDriving,
			Warming:         in.Warming,
			MountainDriving: in.MountainDriving,
		})
	}
	return segments
}

// buildFuelLines attaches the derived planned figure to the primary tank
// line; secondary tanks carry no plan of their own.
func buildFuelLines(waybillID string, inputs []FuelLineInput, planned float64) []waybill.FuelLine {
	lines := make([]waybill.FuelLine, 0, len(inputs))
	for _, in := range inputs {
		line := waybill.FuelLine{
			WaybillID:    waybillID,
			StockItemID:  in.StockItemID,
			FuelStart:    in.FuelStart,
			FuelReceived: in.FuelReceived,
			FuelConsumed: in.FuelConsumed,
			FuelEnd:      in.FuelEnd,
		}
		if in.FuelEnd == nil && (in.FuelStart != nil || in.FuelReceived != nil || in.FuelConsumed != nil) {
			end := waybill.FuelEnd(in.FuelStart, in.FuelReceived, in.FuelConsumed)
			line.FuelEnd = &end
		}
		lines = append(lines, line)
	}
	applyPlanned(lines, planned)
	return lines
}

func applyPlanned(lines []waybill.FuelLine, planned float64) {
	for i := range lines {
		if i == 0 && planned > 0 {
			p := planned
			lines[i].FuelPlanned = &p
		} else {
			lines[i].FuelPlanned = nil
		}
	}
}

func rateProfile(vehicle *masterdata.Vehicle) *waybill.RateProfile {
	if vehicle == nil {
		return nil
	}
	return &waybill.RateProfile{
		SummerRate:       vehicle.SummerRate,
		WinterRate:       vehicle.WinterRate,
		CityIncrease:     vehicle.CityIncrease,
		WarmingIncrease:  vehicle.WarmingIncrease,
		MountainIncrease: vehicle.MountainIncrease,
	}
}

func newWaybillID() string {
	buf := make([]byte, 12)
	_, _ = rand.Read(buf)
	return "wb-" + hex.EncodeToString(buf)
}

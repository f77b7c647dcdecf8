package application

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"fleet-waybill/internal/auth"
	blanks "fleet-waybill/internal/blanks/domain"
	masterdata "fleet-waybill/internal/masterdata/domain"
	"fleet-waybill/internal/season"
	waybill "fleet-waybill/internal/waybill/domain"
	"fleet-waybill/internal/waybill/infrastructure/memory"
)

const (
	testOrg     = "org-1"
	testVehicle = "veh-1"
	testDriver  = "drv-1"
)

func fp(v float64) *float64 { return &v }

type vehicleStub struct {
	vehicle masterdata.Vehicle
}

func (s *vehicleStub) Get(ctx context.Context, orgID, id string) (*masterdata.Vehicle, error) {
	if orgID != s.vehicle.OrgID || id != s.vehicle.ID {
		return nil, masterdata.ErrVehicleNotFound
	}
	v := s.vehicle
	return &v, nil
}

type driverStub struct {
	driver masterdata.Driver
}

func (s *driverStub) Get(ctx context.Context, orgID, id string) (*masterdata.Driver, error) {
	if orgID != s.driver.OrgID || id != s.driver.ID {
		return nil, masterdata.ErrDriverNotFound
	}
	d := s.driver
	return &d, nil
}

type seasonStub struct {
	policy *season.Policy
	err    error
}

func (s *seasonStub) GetSeasonPolicy(ctx context.Context, orgID string) (*season.Policy, error) {
	return s.policy, s.err
}

func newTestService(t *testing.T, store *memory.Store) *Service {
	t.Helper()
	vehicles := &vehicleStub{vehicle: masterdata.Vehicle{
		ID:           testVehicle,
		OrgID:        testOrg,
		PlateNumber:  "A123BC",
		SummerRate:   fp(10),
		WinterRate:   fp(12),
		CityIncrease: 0.20,
		Active:       true,
	}}
	drivers := &driverStub{driver: masterdata.Driver{
		ID:           testDriver,
		OrgID:        testOrg,
		FullName:     "Test Driver",
		DepartmentID: "dep-1",
		Active:       true,
	}}
	seasons := &seasonStub{policy: &season.Policy{
		Kind:        season.PolicyRecurring,
		SummerMonth: time.April,
		SummerDay:   1,
		WinterMonth: time.November,
		WinterDay:   1,
	}}
	cfg := Config{OverageThreshold: 0.10, BalanceTolerance: waybill.BalanceTolerance}
	svc, err := NewService(store, store, vehicles, drivers, seasons, cfg, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func dispatcherCtx() context.Context {
	return auth.WithIdentity(context.Background(), testOrg, auth.RoleDispatcher, "user-1")
}

func adminCtx() context.Context {
	return auth.WithIdentity(context.Background(), testOrg, auth.RoleAdmin, "admin-1")
}

func seedBlank(store *memory.Store, id string, number int) {
	store.AddBlank(blanks.Blank{
		ID:     id,
		OrgID:  testOrg,
		Series: "AB",
		Number: number,
		Status: blanks.StatusAvailable,
	})
}

// summerCreateRequest builds a valid draft request for a July trip.
func summerCreateRequest() CreateRequest {
	return CreateRequest{
		VehicleID:     testVehicle,
		DriverID:      testDriver,
		TripDate:      time.Date(2024, time.July, 10, 0, 0, 0, 0, time.UTC),
		OdometerStart: fp(1000),
		OdometerEnd:   fp(1500),
		CalcMethod:    string(waybill.MethodBoiler),
		FuelLines: []FuelLineInput{
			{StockItemID: "diesel", FuelStart: fp(80), FuelReceived: fp(20), FuelConsumed: fp(50)},
		},
	}
}

func TestCreateReservesBlankAndComputesPlan(t *testing.T) {
	store := memory.NewStore()
	seedBlank(store, "blank-1", 101)
	svc := newTestService(t, store)

	wb, err := svc.Create(dispatcherCtx(), summerCreateRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if wb.Status != waybill.StatusDraft {
		t.Fatalf("status: got %s, want %s", wb.Status, waybill.StatusDraft)
	}
	if wb.Number != "AB-101" {
		t.Fatalf("number: got %q, want AB-101", wb.Number)
	}
	blank, ok := store.Blank("blank-1")
	if !ok || blank.Status != blanks.StatusReserved {
		t.Fatalf("blank not reserved: %+v", blank)
	}
	// 500 km at the 10 l/100km summer rate.
	if len(wb.FuelLines) != 1 || wb.FuelLines[0].FuelPlanned == nil {
		t.Fatalf("fuel line missing plan: %+v", wb.FuelLines)
	}
	if got := *wb.FuelLines[0].FuelPlanned; got != 50 {
		t.Fatalf("planned: got %v, want 50", got)
	}
	// Derived fuel end: 80 + 20 - 50.
	if end := wb.FuelLines[0].FuelEnd; end == nil || *end != 50 {
		t.Fatalf("derived fuel end: got %v, want 50", end)
	}

	stored, err := svc.Get(dispatcherCtx(), wb.ID)
	if err != nil {
		t.Fatalf("get after create: %v", err)
	}
	if stored.BlankID != "blank-1" {
		t.Fatalf("stored blank id: got %q", stored.BlankID)
	}
}

func TestCreateUsesWinterRate(t *testing.T) {
	store := memory.NewStore()
	seedBlank(store, "blank-1", 101)
	svc := newTestService(t, store)

	req := summerCreateRequest()
	req.TripDate = time.Date(2024, time.December, 10, 0, 0, 0, 0, time.UTC)
	wb, err := svc.Create(dispatcherCtx(), req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// 500 km at the 12 l/100km winter rate.
	if got := *wb.FuelLines[0].FuelPlanned; got != 60 {
		t.Fatalf("planned: got %v, want 60", got)
	}
}

func TestCreateNoBlanksLeavesNoPartialState(t *testing.T) {
	store := memory.NewStore()
	svc := newTestService(t, store)

	_, err := svc.Create(dispatcherCtx(), summerCreateRequest())
	var exhaustion *waybill.ResourceExhaustionError
	if !errors.As(err, &exhaustion) {
		t.Fatalf("got %v, want ResourceExhaustionError", err)
	}
	list, err := svc.List(dispatcherCtx(), waybill.ListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("waybill persisted despite failed reservation: %d", len(list))
	}
}

func TestCreateValidation(t *testing.T) {
	store := memory.NewStore()
	seedBlank(store, "blank-1", 101)
	svc := newTestService(t, store)

	req := summerCreateRequest()
	req.CalcMethod = string(waybill.MethodSegments)
	req.Segments = nil
	_, err := svc.Create(dispatcherCtx(), req)
	var validation *waybill.ValidationError
	if !errors.As(err, &validation) || validation.Code != waybill.CodeRoutesRequired {
		t.Fatalf("got %v, want %s", err, waybill.CodeRoutesRequired)
	}

	req = summerCreateRequest()
	req.OdometerStart = fp(1500)
	req.OdometerEnd = fp(1000)
	_, err = svc.Create(dispatcherCtx(), req)
	if !errors.As(err, &validation) || validation.Code != waybill.CodeOdometerInvalid {
		t.Fatalf("got %v, want %s", err, waybill.CodeOdometerInvalid)
	}

	req = summerCreateRequest()
	req.DriverID = ""
	_, err = svc.Create(dispatcherCtx(), req)
	if !errors.As(err, &validation) || validation.Code != waybill.CodeDriverRequired {
		t.Fatalf("got %v, want %s", err, waybill.CodeDriverRequired)
	}
}

func TestUpdateReplacesSegments(t *testing.T) {
	store := memory.NewStore()
	seedBlank(store, "blank-1", 101)
	svc := newTestService(t, store)

	req := summerCreateRequest()
	req.CalcMethod = string(waybill.MethodSegments)
	req.Segments = []SegmentInput{
		{Description: "garage to site", DistanceKm: 30},
		{Description: "site to garage", DistanceKm: 30},
	}
	wb, err := svc.Create(dispatcherCtx(), req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	replacement := []SegmentInput{
		{Description: "garage to depot", DistanceKm: 50, CityDriving: true},
	}
	updated, err := svc.Update(dispatcherCtx(), UpdateRequest{ID: wb.ID, Segments: &replacement})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(updated.Segments) != 1 {
		t.Fatalf("segments not replaced: %d", len(updated.Segments))
	}
	if updated.Segments[0].Position != 1 || updated.Segments[0].Description != "garage to depot" {
		t.Fatalf("segment: %+v", updated.Segments[0])
	}
	// 50 km city at 10 l/100km with +20%: plan recomputed to 6.
	if updated.FuelLines[0].FuelPlanned == nil || *updated.FuelLines[0].FuelPlanned != 6 {
		t.Fatalf("plan after update: %v", updated.FuelLines[0].FuelPlanned)
	}

	stored, err := svc.Get(dispatcherCtx(), wb.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(stored.Segments) != 1 {
		t.Fatalf("stored segments: %d", len(stored.Segments))
	}
}

func TestUpdateRejectsNonDraft(t *testing.T) {
	store := memory.NewStore()
	seedBlank(store, "blank-1", 101)
	svc := newTestService(t, store)

	wb, err := svc.Create(dispatcherCtx(), summerCreateRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.ChangeStatus(dispatcherCtx(), wb.ID, waybill.StatusSubmitted); err != nil {
		t.Fatalf("submit: %v", err)
	}

	_, err = svc.Update(dispatcherCtx(), UpdateRequest{ID: wb.ID, OdometerEnd: fp(1600)})
	var validation *waybill.ValidationError
	if !errors.As(err, &validation) || validation.Code != waybill.CodeNotEditable {
		t.Fatalf("got %v, want %s", err, waybill.CodeNotEditable)
	}
}

func TestPostingAppliesSideEffects(t *testing.T) {
	store := memory.NewStore()
	seedBlank(store, "blank-1", 101)
	svc := newTestService(t, store)

	wb, err := svc.Create(dispatcherCtx(), summerCreateRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.ChangeStatus(dispatcherCtx(), wb.ID, waybill.StatusSubmitted); err != nil {
		t.Fatalf("submit: %v", err)
	}
	posted, err := svc.ChangeStatus(dispatcherCtx(), wb.ID, waybill.StatusPosted)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if posted.Status != waybill.StatusPosted {
		t.Fatalf("status: %s", posted.Status)
	}
	if posted.PostedBy != "user-1" || posted.PostedAt.IsZero() {
		t.Fatalf("posting stamp missing: by %q at %v", posted.PostedBy, posted.PostedAt)
	}

	depletions := store.Depletions()
	if len(depletions) != 1 {
		t.Fatalf("depletions: got %d, want 1", len(depletions))
	}
	if depletions[0].StockItemID != "diesel" || depletions[0].Quantity != 50 {
		t.Fatalf("depletion: %+v", depletions[0])
	}
	if depletions[0].SourceType != "waybill" || depletions[0].SourceID != wb.ID {
		t.Fatalf("depletion source: %+v", depletions[0])
	}

	blank, _ := store.Blank("blank-1")
	if blank.Status != blanks.StatusUsed {
		t.Fatalf("blank status: %s", blank.Status)
	}
}

func TestPostingSkipsZeroConsumptionLines(t *testing.T) {
	store := memory.NewStore()
	seedBlank(store, "blank-1", 101)
	svc := newTestService(t, store)

	req := summerCreateRequest()
	req.FuelLines = append(req.FuelLines, FuelLineInput{StockItemID: "adblue", FuelStart: fp(10), FuelEnd: fp(10)})
	wb, err := svc.Create(dispatcherCtx(), req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.ChangeStatus(dispatcherCtx(), wb.ID, waybill.StatusSubmitted); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.ChangeStatus(dispatcherCtx(), wb.ID, waybill.StatusPosted); err != nil {
		t.Fatalf("post: %v", err)
	}
	depletions := store.Depletions()
	if len(depletions) != 1 {
		t.Fatalf("depletions: got %d, want 1 (zero-consumption line skipped)", len(depletions))
	}
}

func TestDraftCannotBePostedDirectly(t *testing.T) {
	store := memory.NewStore()
	seedBlank(store, "blank-1", 101)
	svc := newTestService(t, store)

	wb, err := svc.Create(dispatcherCtx(), summerCreateRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err = svc.ChangeStatus(dispatcherCtx(), wb.ID, waybill.StatusPosted)
	var transition *waybill.StateTransitionError
	if !errors.As(err, &transition) {
		t.Fatalf("got %v, want StateTransitionError", err)
	}
	if transition.From != waybill.StatusDraft || transition.To != waybill.StatusPosted {
		t.Fatalf("transition error: %s -> %s", transition.From, transition.To)
	}
	if len(store.Depletions()) != 0 {
		t.Fatal("depletion recorded for refused transition")
	}
}

func TestPostingRejectsFuelBalanceMismatch(t *testing.T) {
	store := memory.NewStore()
	seedBlank(store, "blank-1", 101)
	svc := newTestService(t, store)

	req := summerCreateRequest()
	// Recorded end disagrees with start + received - consumed by 10 liters.
	req.FuelLines = []FuelLineInput{
		{StockItemID: "diesel", FuelStart: fp(80), FuelReceived: fp(20), FuelConsumed: fp(50), FuelEnd: fp(60)},
	}
	wb, err := svc.Create(dispatcherCtx(), req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.ChangeStatus(dispatcherCtx(), wb.ID, waybill.StatusSubmitted); err != nil {
		t.Fatalf("submit: %v", err)
	}
	_, err = svc.ChangeStatus(dispatcherCtx(), wb.ID, waybill.StatusPosted)
	var validation *waybill.ValidationError
	if !errors.As(err, &validation) || validation.Code != waybill.CodeFuelBalanceInvalid {
		t.Fatalf("got %v, want %s", err, waybill.CodeFuelBalanceInvalid)
	}
}

func TestOverageNeedsAdmin(t *testing.T) {
	store := memory.NewStore()
	seedBlank(store, "blank-1", 101)
	svc := newTestService(t, store)

	// Plan is 50 liters for 500 km; 60 consumed is 20% over, beyond the
	// 10% threshold.
	req := summerCreateRequest()
	req.FuelLines = []FuelLineInput{
		{StockItemID: "diesel", FuelStart: fp(80), FuelReceived: fp(30), FuelConsumed: fp(60)},
	}
	wb, err := svc.Create(dispatcherCtx(), req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.ChangeStatus(dispatcherCtx(), wb.ID, waybill.StatusSubmitted); err != nil {
		t.Fatalf("submit: %v", err)
	}

	_, err = svc.ChangeStatus(dispatcherCtx(), wb.ID, waybill.StatusPosted)
	var authz *waybill.AuthorizationError
	if !errors.As(err, &authz) {
		t.Fatalf("got %v, want AuthorizationError", err)
	}
	if authz.StockItemID != "diesel" || authz.Consumed != 60 || authz.Planned != 50 {
		t.Fatalf("overage detail: %+v", authz)
	}
	if len(store.Depletions()) != 0 {
		t.Fatal("depletion recorded for refused posting")
	}

	// The admin override posts the document and leaves an explicit
	// exception entry in the audit trail.
	posted, err := svc.ChangeStatus(adminCtx(), wb.ID, waybill.StatusPosted)
	if err != nil {
		t.Fatalf("admin post: %v", err)
	}
	if posted.Status != waybill.StatusPosted {
		t.Fatalf("status: %s", posted.Status)
	}
	overrides := 0
	for _, entry := range store.AuditEntries() {
		if entry.ActionType == "waybill.overage_override" {
			overrides++
		}
	}
	if overrides != 1 {
		t.Fatalf("override audit entries: got %d, want 1", overrides)
	}
}

func TestOverageWithinThresholdPosts(t *testing.T) {
	store := memory.NewStore()
	seedBlank(store, "blank-1", 101)
	svc := newTestService(t, store)

	// 54 consumed against a 50 plan is within the 10% threshold.
	req := summerCreateRequest()
	req.FuelLines = []FuelLineInput{
		{StockItemID: "diesel", FuelStart: fp(80), FuelReceived: fp(30), FuelConsumed: fp(54)},
	}
	wb, err := svc.Create(dispatcherCtx(), req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.ChangeStatus(dispatcherCtx(), wb.ID, waybill.StatusSubmitted); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.ChangeStatus(dispatcherCtx(), wb.ID, waybill.StatusPosted); err != nil {
		t.Fatalf("post: %v", err)
	}
}

func TestLedgerFailureRollsBackPosting(t *testing.T) {
	store := memory.NewStore()
	seedBlank(store, "blank-1", 101)
	svc := newTestService(t, store)

	wb, err := svc.Create(dispatcherCtx(), summerCreateRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.ChangeStatus(dispatcherCtx(), wb.ID, waybill.StatusSubmitted); err != nil {
		t.Fatalf("submit: %v", err)
	}

	store.LedgerErr = errors.New("ledger down")
	_, err = svc.ChangeStatus(dispatcherCtx(), wb.ID, waybill.StatusPosted)
	var dependency *waybill.DependencyFailure
	if !errors.As(err, &dependency) {
		t.Fatalf("got %v, want DependencyFailure", err)
	}
	if dependency.Dependency != "stock ledger" {
		t.Fatalf("dependency: %q", dependency.Dependency)
	}

	stored, err := svc.Get(dispatcherCtx(), wb.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != waybill.StatusSubmitted {
		t.Fatalf("status after rollback: %s", stored.Status)
	}
	blank, _ := store.Blank("blank-1")
	if blank.Status != blanks.StatusReserved {
		t.Fatalf("blank after rollback: %s", blank.Status)
	}
	if len(store.Depletions()) != 0 {
		t.Fatal("depletion survived rollback")
	}

	// Clearing the fault lets the same transition succeed.
	store.LedgerErr = nil
	if _, err := svc.ChangeStatus(dispatcherCtx(), wb.ID, waybill.StatusPosted); err != nil {
		t.Fatalf("post after recovery: %v", err)
	}
}

func TestDeleteReleasesBlank(t *testing.T) {
	store := memory.NewStore()
	seedBlank(store, "blank-1", 101)
	svc := newTestService(t, store)

	wb, err := svc.Create(dispatcherCtx(), summerCreateRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(dispatcherCtx(), wb.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(dispatcherCtx(), wb.ID); !errors.Is(err, waybill.ErrNotFound) {
		t.Fatalf("get after delete: %v", err)
	}
	blank, _ := store.Blank("blank-1")
	if blank.Status != blanks.StatusAvailable {
		t.Fatalf("blank not released: %s", blank.Status)
	}
}

func TestDeleteProceedsWhenReleaseFails(t *testing.T) {
	store := memory.NewStore()
	seedBlank(store, "blank-1", 101)
	svc := newTestService(t, store)

	wb, err := svc.Create(dispatcherCtx(), summerCreateRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	store.BlanksErr = errors.New("registry down")
	if err := svc.Delete(dispatcherCtx(), wb.ID); err != nil {
		t.Fatalf("delete with failing release: %v", err)
	}
	store.BlanksErr = nil
	if _, err := svc.Get(dispatcherCtx(), wb.ID); !errors.Is(err, waybill.ErrNotFound) {
		t.Fatalf("waybill survived delete: %v", err)
	}
}

func TestDeleteRejectsPosted(t *testing.T) {
	store := memory.NewStore()
	seedBlank(store, "blank-1", 101)
	svc := newTestService(t, store)

	wb, err := svc.Create(dispatcherCtx(), summerCreateRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.ChangeStatus(dispatcherCtx(), wb.ID, waybill.StatusSubmitted); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.ChangeStatus(dispatcherCtx(), wb.ID, waybill.StatusPosted); err != nil {
		t.Fatalf("post: %v", err)
	}
	if err := svc.Delete(dispatcherCtx(), wb.ID); !errors.Is(err, waybill.ErrPostedImmutable) {
		t.Fatalf("delete posted: %v", err)
	}
}

func TestListFilters(t *testing.T) {
	store := memory.NewStore()
	seedBlank(store, "blank-1", 101)
	seedBlank(store, "blank-2", 102)
	svc := newTestService(t, store)

	first, err := svc.Create(dispatcherCtx(), summerCreateRequest())
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	req := summerCreateRequest()
	req.TripDate = time.Date(2024, time.August, 1, 0, 0, 0, 0, time.UTC)
	second, err := svc.Create(dispatcherCtx(), req)
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if _, err := svc.ChangeStatus(dispatcherCtx(), second.ID, waybill.StatusSubmitted); err != nil {
		t.Fatalf("submit second: %v", err)
	}

	all, err := svc.List(dispatcherCtx(), waybill.ListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("list all: %d", len(all))
	}
	if all[0].ID != second.ID {
		t.Fatalf("ordering: newest trip first expected, got %s", all[0].ID)
	}

	drafts, err := svc.List(dispatcherCtx(), waybill.ListFilter{Status: waybill.StatusDraft})
	if err != nil {
		t.Fatalf("list drafts: %v", err)
	}
	if len(drafts) != 1 || drafts[0].ID != first.ID {
		t.Fatalf("draft filter: %+v", drafts)
	}

	july, err := svc.List(dispatcherCtx(), waybill.ListFilter{
		DateFrom: time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC),
		DateTo:   time.Date(2024, time.July, 31, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("list july: %v", err)
	}
	if len(july) != 1 || july[0].ID != first.ID {
		t.Fatalf("date filter: %+v", july)
	}
}

func TestAuditTrail(t *testing.T) {
	store := memory.NewStore()
	seedBlank(store, "blank-1", 101)
	svc := newTestService(t, store)

	wb, err := svc.Create(dispatcherCtx(), summerCreateRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.ChangeStatus(dispatcherCtx(), wb.ID, waybill.StatusSubmitted); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.ChangeStatus(dispatcherCtx(), wb.ID, waybill.StatusPosted); err != nil {
		t.Fatalf("post: %v", err)
	}

	var actions []string
	for _, entry := range store.AuditEntries() {
		if entry.EntityID != wb.ID {
			continue
		}
		actions = append(actions, entry.ActionType)
	}
	want := []string{"waybill.create", "waybill.status", "waybill.status"}
	if len(actions) != len(want) {
		t.Fatalf("audit actions: got %v, want %v", actions, want)
	}
	for i := range want {
		if actions[i] != want[i] {
			t.Fatalf("audit actions: got %v, want %v", actions, want)
		}
	}
}

func TestMissingOrgContext(t *testing.T) {
	store := memory.NewStore()
	svc := newTestService(t, store)
	if _, err := svc.Create(context.Background(), summerCreateRequest()); err == nil {
		t.Fatal("create without org context accepted")
	}
	if _, err := svc.List(context.Background(), waybill.ListFilter{}); err == nil {
		t.Fatal("list without org context accepted")
	}
}

package interfaces

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"fleet-waybill/internal/auth"
	blanks "fleet-waybill/internal/blanks/domain"
	masterdata "fleet-waybill/internal/masterdata/domain"
	"fleet-waybill/internal/season"
	waybillapp "fleet-waybill/internal/waybill/application"
	waybill "fleet-waybill/internal/waybill/domain"
	"fleet-waybill/internal/waybill/infrastructure/memory"
)

type vehicleStub struct{ vehicle masterdata.Vehicle }

func (s *vehicleStub) Get(ctx context.Context, orgID, id string) (*masterdata.Vehicle, error) {
	if orgID != s.vehicle.OrgID || id != s.vehicle.ID {
		return nil, masterdata.ErrVehicleNotFound
	}
	v := s.vehicle
	return &v, nil
}

type driverStub struct{ driver masterdata.Driver }

func (s *driverStub) Get(ctx context.Context, orgID, id string) (*masterdata.Driver, error) {
	if orgID != s.driver.OrgID || id != s.driver.ID {
		return nil, masterdata.ErrDriverNotFound
	}
	d := s.driver
	return &d, nil
}

type seasonStub struct{}

func (seasonStub) GetSeasonPolicy(ctx context.Context, orgID string) (*season.Policy, error) {
	return nil, nil
}

func fp(v float64) *float64 { return &v }

func newTestHandler(t *testing.T) (*Handler, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	store.AddBlank(blanks.Blank{ID: "blank-1", OrgID: "org-1", Series: "AB", Number: 7, Status: blanks.StatusAvailable})
	vehicles := &vehicleStub{vehicle: masterdata.Vehicle{ID: "veh-1", OrgID: "org-1", PlateNumber: "A123BC", SummerRate: fp(10), Active: true}}
	drivers := &driverStub{driver: masterdata.Driver{ID: "drv-1", OrgID: "org-1", DepartmentID: "dep-1", Active: true}}
	cfg := waybillapp.Config{OverageThreshold: 0.10, BalanceTolerance: waybill.BalanceTolerance}
	svc, err := waybillapp.NewService(store, store, vehicles, drivers, seasonStub{}, cfg, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	handler, err := NewHandler(svc, nil)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return handler, store
}

func doJSON(t *testing.T, h *Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req = req.WithContext(auth.WithIdentity(req.Context(), "org-1", auth.RoleDispatcher, "user-1"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func createPayload() map[string]any {
	return map[string]any{
		"vehicle_id":     "veh-1",
		"driver_id":      "drv-1",
		"trip_date":      "2024-07-10",
		"odometer_start": 1000,
		"odometer_end":   1500,
		"calc_method":    "BOILER",
		"fuel_lines": []map[string]any{
			{"stock_item_id": "diesel", "fuel_start": 80, "fuel_received": 20, "fuel_consumed": 50},
		},
	}
}

func createWaybill(t *testing.T, h *Handler) waybill.Waybill {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/v1/waybills", createPayload())
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d, body %s", rec.Code, rec.Body.String())
	}
	var wb waybill.Waybill
	if err := json.Unmarshal(rec.Body.Bytes(), &wb); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	return wb
}

func TestCreateAndGet(t *testing.T) {
	h, _ := newTestHandler(t)
	wb := createWaybill(t, h)
	if wb.Number != "AB-7" {
		t.Fatalf("number: %q", wb.Number)
	}

	rec := doJSON(t, h, http.MethodGet, "/api/v1/waybills/"+wb.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: status %d", rec.Code)
	}
	var got waybill.Waybill
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != wb.ID || got.Status != waybill.StatusDraft {
		t.Fatalf("got %+v", got)
	}
}

func TestCreateRejectsBadDate(t *testing.T) {
	h, _ := newTestHandler(t)
	payload := createPayload()
	payload["trip_date"] = "10.07.2024"
	rec := doJSON(t, h, http.MethodPost, "/api/v1/waybills", payload)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestCreateValidationMapsTo422(t *testing.T) {
	h, _ := newTestHandler(t)
	payload := createPayload()
	payload["calc_method"] = "SEGMENTS" // no segments supplied
	rec := doJSON(t, h, http.MethodPost, "/api/v1/waybills", payload)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status %d, want 422", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body["code"] != waybill.CodeRoutesRequired {
		t.Fatalf("code: %q", body["code"])
	}
}

func TestStatusTransitions(t *testing.T) {
	h, _ := newTestHandler(t)
	wb := createWaybill(t, h)

	// DRAFT -> POSTED is refused with a conflict.
	rec := doJSON(t, h, http.MethodPost, "/api/v1/waybills/"+wb.ID+"/status", map[string]string{"status": "POSTED"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("draft->posted: status %d, want 409", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/v1/waybills/"+wb.ID+"/status", map[string]string{"status": "SUBMITTED"})
	if rec.Code != http.StatusOK {
		t.Fatalf("submit: status %d, body %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, h, http.MethodPost, "/api/v1/waybills/"+wb.ID+"/status", map[string]string{"status": "POSTED"})
	if rec.Code != http.StatusOK {
		t.Fatalf("post: status %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodPost, "/api/v1/waybills/"+wb.ID+"/status", map[string]string{"status": "SIDEWAYS"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown status: %d, want 400", rec.Code)
	}
}

func TestUpdateAfterSubmitConflicts(t *testing.T) {
	h, _ := newTestHandler(t)
	wb := createWaybill(t, h)
	rec := doJSON(t, h, http.MethodPost, "/api/v1/waybills/"+wb.ID+"/status", map[string]string{"status": "SUBMITTED"})
	if rec.Code != http.StatusOK {
		t.Fatalf("submit: %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodPut, "/api/v1/waybills/"+wb.ID, map[string]any{"odometer_end": 1600})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("update submitted: %d, want 422", rec.Code)
	}
}

func TestGetUnknownWaybill(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := doJSON(t, h, http.MethodGet, "/api/v1/waybills/wb-missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", rec.Code)
	}
}

func TestDelete(t *testing.T) {
	h, store := newTestHandler(t)
	wb := createWaybill(t, h)
	rec := doJSON(t, h, http.MethodDelete, "/api/v1/waybills/"+wb.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", rec.Code)
	}
	blank, _ := store.Blank("blank-1")
	if blank.Status != blanks.StatusAvailable {
		t.Fatalf("blank not released: %s", blank.Status)
	}
}

func TestListWithFilters(t *testing.T) {
	h, _ := newTestHandler(t)
	createWaybill(t, h)

	rec := doJSON(t, h, http.MethodGet, "/api/v1/waybills?status=DRAFT&vehicle_id=veh-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: %d", rec.Code)
	}
	var list []waybill.Waybill
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("list: %d entries", len(list))
	}

	rec = doJSON(t, h, http.MethodGet, "/api/v1/waybills?date_from=2024-08-01", nil)
	var empty []waybill.Waybill
	if err := json.Unmarshal(rec.Body.Bytes(), &empty); err != nil {
		t.Fatalf("decode empty list: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("date filter: %d entries", len(empty))
	}

	rec = doJSON(t, h, http.MethodGet, "/api/v1/waybills?status=draft", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("lowercase status: %d, want 400", rec.Code)
	}
}

func TestExportEndpoints(t *testing.T) {
	h, _ := newTestHandler(t)
	wb := createWaybill(t, h)

	rec := doJSON(t, h, http.MethodGet, "/api/v1/waybills/"+wb.ID+"/export.pdf", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export pdf: %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("pdf content type: %q", ct)
	}
	if rec.Body.Len() == 0 {
		t.Fatal("empty pdf body")
	}

	rec = doJSON(t, h, http.MethodGet, "/api/v1/waybills/"+wb.ID+"/export.xlsx", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export xlsx: %d", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Fatal("empty xlsx body")
	}
}

func TestExportsOfWinterTrip(t *testing.T) {
	// The PDF layout must tolerate a posted document with full data.
	h, _ := newTestHandler(t)
	wb := createWaybill(t, h)
	doJSON(t, h, http.MethodPost, "/api/v1/waybills/"+wb.ID+"/status", map[string]string{"status": "SUBMITTED"})
	doJSON(t, h, http.MethodPost, "/api/v1/waybills/"+wb.ID+"/status", map[string]string{"status": "POSTED"})

	rec := doJSON(t, h, http.MethodGet, "/api/v1/waybills/"+wb.ID+"/export.pdf", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export posted pdf: %d", rec.Code)
	}
}

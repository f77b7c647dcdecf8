// Package interfaces exposes the waybill HTTP API and document exports.
package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"fleet-waybill/internal/audit"
	"fleet-waybill/internal/auth"
	blanks "fleet-waybill/internal/blanks/domain"
	masterdata "fleet-waybill/internal/masterdata/domain"
	"fleet-waybill/internal/observability/metrics"
	waybillapp "fleet-waybill/internal/waybill/application"
	waybill "fleet-waybill/internal/waybill/domain"
)

const dateLayout = "2006-01-02"

// Handler handles waybill APIs.
type Handler struct {
	service     *waybillapp.Service
	auditLogger audit.Logger
}

// NewHandler constructs a handler.
func NewHandler(service *waybillapp.Service, auditLogger audit.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("waybill handler: nil service")
	}
	return &Handler{service: service, auditLogger: auditLogger}, nil
}

// ServeHTTP handles waybill routes under /api/v1/waybills.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == "/api/v1/waybills" {
		switch r.Method {
		case http.MethodPost:
			h.handleCreate(w, r)
			return
		case http.MethodGet:
			h.handleList(w, r)
			return
		}
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if strings.HasPrefix(path, "/api/v1/waybills/") {
		rest := strings.TrimPrefix(path, "/api/v1/waybills/")
		h.handleByID(w, r, rest)
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

type segmentPayload struct {
	Description     string  `json:"description"`
	DistanceKm      float64 `json:"distance_km"`
	CityDriving     bool    `json:"city_driving"`
	Warming         bool    `json:"warming"`
	MountainDriving bool    `json:"mountain_driving"`
}

type fuelLinePayload struct {
	StockItemID  string   `json:"stock_item_id"`
	FuelStart    *float64 `json:"fuel_start"`
	FuelReceived *float64 `json:"fuel_received"`
	FuelConsumed *float64 `json:"fuel_consumed"`
	FuelEnd      *float64 `json:"fuel_end"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VehicleID       string            `json:"vehicle_id"`
		DriverID        string            `json:"driver_id"`
		TripDate        string            `json:"trip_date"`
		OdometerStart   *float64          `json:"odometer_start"`
		OdometerEnd     *float64          `json:"odometer_end"`
		CityDriving     bool              `json:"city_driving"`
		Warming         bool              `json:"warming"`
		MountainDriving bool              `json:"mountain_driving"`
		CalcMethod      string            `json:"calc_method"`
		BlankID         string            `json:"blank_id"`
		Segments        []segmentPayload  `json:"segments"`
		FuelLines       []fuelLinePayload `json:"fuel_lines"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	tripDate, err := time.Parse(dateLayout, req.TripDate)
	if err != nil {
		http.Error(w, "invalid trip_date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	wb, err := h.service.Create(r.Context(), waybillapp.CreateRequest{
		VehicleID:       req.VehicleID,
		DriverID:        req.DriverID,
		TripDate:        tripDate,
		OdometerStart:   req.OdometerStart,
		OdometerEnd:     req.OdometerEnd,
		CityDriving:     req.CityDriving,
		Warming:         req.Warming,
		MountainDriving: req.MountainDriving,
		CalcMethod:      req.CalcMethod,
		BlankID:         req.BlankID,
		Segments:        toSegmentInputs(req.Segments),
		FuelLines:       toFuelLineInputs(req.FuelLines),
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(wb)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := waybill.ListFilter{
		VehicleID: q.Get("vehicle_id"),
		DriverID:  q.Get("driver_id"),
	}
	if raw := q.Get("status"); raw != "" {
		status, ok := waybill.NormalizeStatus(raw)
		if !ok {
			http.Error(w, "unknown status", http.StatusBadRequest)
			return
		}
		filter.Status = status
	}
	if raw := q.Get("date_from"); raw != "" {
		from, err := time.Parse(dateLayout, raw)
		if err != nil {
			http.Error(w, "invalid date_from, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		filter.DateFrom = from
	}
	if raw := q.Get("date_to"); raw != "" {
		to, err := time.Parse(dateLayout, raw)
		if err != nil {
			http.Error(w, "invalid date_to, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		filter.DateTo = to
	}
	list, err := h.service.List(r.Context(), filter)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if list == nil {
		list = []waybill.Waybill{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}

func (h *Handler) handleByID(w http.ResponseWriter, r *http.Request, rest string) {
	if rest == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	parts := strings.Split(rest, "/")
	id := parts[0]
	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.handleGet(w, r, id)
			return
		case http.MethodPut:
			h.handleUpdate(w, r, id)
			return
		case http.MethodDelete:
			h.handleDelete(w, r, id)
			return
		}
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if len(parts) == 2 {
		switch parts[1] {
		case "status":
			if r.Method == http.MethodPost {
				h.handleStatus(w, r, id)
				return
			}
		case "export.pdf":
			if r.Method == http.MethodGet {
				h.handleExportPDF(w, r, id)
				return
			}
		case "export.xlsx":
			if r.Method == http.MethodGet {
				h.handleExportXLSX(w, r, id)
				return
			}
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	wb, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(wb)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		TripDate        *string            `json:"trip_date"`
		OdometerStart   *float64           `json:"odometer_start"`
		OdometerEnd     *float64           `json:"odometer_end"`
		CityDriving     *bool              `json:"city_driving"`
		Warming         *bool              `json:"warming"`
		MountainDriving *bool              `json:"mountain_driving"`
		CalcMethod      *string            `json:"calc_method"`
		Segments        *[]segmentPayload  `json:"segments"`
		FuelLines       *[]fuelLinePayload `json:"fuel_lines"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	update := waybillapp.UpdateRequest{
		ID:              id,
		OdometerStart:   req.OdometerStart,
		OdometerEnd:     req.OdometerEnd,
		CityDriving:     req.CityDriving,
		Warming:         req.Warming,
		MountainDriving: req.MountainDriving,
		CalcMethod:      req.CalcMethod,
	}
	if req.TripDate != nil {
		tripDate, err := time.Parse(dateLayout, *req.TripDate)
		if err != nil {
			http.Error(w, "invalid trip_date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		update.TripDate = &tripDate
	}
	if req.Segments != nil {
		segments := toSegmentInputs(*req.Segments)
		update.Segments = &segments
	}
	if req.FuelLines != nil {
		lines := toFuelLineInputs(*req.FuelLines)
		update.FuelLines = &lines
	}
	wb, err := h.service.Update(r.Context(), update)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(wb)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	target, ok := waybill.NormalizeStatus(req.Status)
	if !ok {
		http.Error(w, "unknown status", http.StatusBadRequest)
		return
	}
	wb, err := h.service.ChangeStatus(r.Context(), id, target)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	resp := map[string]any{
		"waybill_id": wb.ID,
		"number":     wb.Number,
		"status":     wb.Status,
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.service.Delete(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleExportPDF(w http.ResponseWriter, r *http.Request, id string) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveExport("pdf", result, time.Since(start))
	}()

	wb, err := h.service.Get(r.Context(), id)
	if err != nil {
		result = metrics.ResultError
		respondServiceError(w, err)
		return
	}
	data, err := BuildWaybillPDF(wb)
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "export pdf error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	h.logExport(r, wb, "pdf")
}

func (h *Handler) handleExportXLSX(w http.ResponseWriter, r *http.Request, id string) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveExport("xlsx", result, time.Since(start))
	}()

	wb, err := h.service.Get(r.Context(), id)
	if err != nil {
		result = metrics.ResultError
		respondServiceError(w, err)
		return
	}
	data, err := BuildWaybillXLSX(wb)
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "export xlsx error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	h.logExport(r, wb, "xlsx")
}

func (h *Handler) logExport(r *http.Request, wb *waybill.Waybill, format string) {
	if h.auditLogger == nil {
		return
	}
	orgID := auth.OrgIDFromContext(r.Context())
	if orgID == "" {
		return
	}
	_ = h.auditLogger.Append(r.Context(), audit.Entry{
		OrgID:       orgID,
		ActorID:     auth.SubjectFromContext(r.Context()),
		ActionType:  "waybill.export",
		EntityType:  "waybill",
		EntityID:    wb.ID,
		Description: "waybill " + wb.Number + " exported as " + format,
		IP:          audit.ClientIP(r),
	})
}

func toSegmentInputs(payloads []segmentPayload) []waybillapp.SegmentInput {
	inputs := make([]waybillapp.SegmentInput, 0, len(payloads))
	for _, p := range payloads {
		inputs = append(inputs, waybillapp.SegmentInput{
			Description:     p.Description,
			DistanceKm:      p.DistanceKm,
			CityDriving:     p.CityDriving,
			Warming:         p.Warming,
			MountainDriving: p.MountainDriving,
		})
	}
	return inputs
}

func toFuelLineInputs(payloads []fuelLinePayload) []waybillapp.FuelLineInput {
	inputs := make([]waybillapp.FuelLineInput, 0, len(payloads))
	for _, p := range payloads {
		inputs = append(inputs, waybillapp.FuelLineInput{
			StockItemID:  p.StockItemID,
			FuelStart:    p.FuelStart,
			FuelReceived: p.FuelReceived,
			FuelConsumed: p.FuelConsumed,
			FuelEnd:      p.FuelEnd,
		})
	}
	return inputs
}

// respondServiceError maps the service error taxonomy onto HTTP statuses.
func respondServiceError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	var validation *waybill.ValidationError
	if errors.As(err, &validation) {
		writeError(w, http.StatusUnprocessableEntity, validation.Code, validation.Message)
		return
	}
	var transition *waybill.StateTransitionError
	if errors.As(err, &transition) {
		writeError(w, http.StatusConflict, "INVALID_TRANSITION", transition.Error())
		return
	}
	var authz *waybill.AuthorizationError
	if errors.As(err, &authz) {
		writeError(w, http.StatusForbidden, "OVERAGE_FORBIDDEN", authz.Message)
		return
	}
	var exhaustion *waybill.ResourceExhaustionError
	if errors.As(err, &exhaustion) {
		writeError(w, http.StatusConflict, "NO_BLANKS_AVAILABLE", exhaustion.Message)
		return
	}
	var dependency *waybill.DependencyFailure
	if errors.As(err, &dependency) {
		writeError(w, http.StatusBadGateway, "DEPENDENCY_FAILURE", dependency.Error())
		return
	}
	switch {
	case errors.Is(err, waybill.ErrNotFound),
		errors.Is(err, blanks.ErrBlankNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "waybill not found")
	case errors.Is(err, masterdata.ErrVehicleNotFound):
		writeError(w, http.StatusUnprocessableEntity, "VEHICLE_NOT_FOUND", "vehicle not found")
	case errors.Is(err, masterdata.ErrDriverNotFound):
		writeError(w, http.StatusUnprocessableEntity, "DRIVER_NOT_FOUND", "driver not found")
	case errors.Is(err, waybill.ErrPostedImmutable):
		writeError(w, http.StatusConflict, "POSTED_IMMUTABLE", "posted waybills cannot be modified")
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    code,
		"message": message,
	})
}

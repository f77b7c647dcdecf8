// Package http serves the fleet reference-data read API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"fleet-waybill/internal/auth"
	masterdata "fleet-waybill/internal/masterdata/domain"
)

// VehicleLister lists active vehicles for an org.
type VehicleLister interface {
	ListActive(ctx context.Context, orgID string) ([]masterdata.Vehicle, error)
}

// DriverLister lists active drivers for an org.
type DriverLister interface {
	ListActive(ctx context.Context, orgID string) ([]masterdata.Driver, error)
}

// Handler serves vehicle and driver lookups for waybill entry forms.
type Handler struct {
	vehicles VehicleLister
	drivers  DriverLister
}

// NewHandler constructs a handler.
func NewHandler(vehicles VehicleLister, drivers DriverLister) (*Handler, error) {
	if vehicles == nil || drivers == nil {
		return nil, errors.New("masterdata handler: nil lister")
	}
	return &Handler{vehicles: vehicles, drivers: drivers}, nil
}

// ServeHTTP handles /api/v1/vehicles and /api/v1/drivers.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	orgID := auth.OrgIDFromContext(r.Context())
	if orgID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	switch r.URL.Path {
	case "/api/v1/vehicles":
		list, err := h.vehicles.ListActive(r.Context(), orgID)
		if err != nil {
			http.Error(w, "vehicle list failed", http.StatusInternalServerError)
			return
		}
		writeList(w, len(list), list)
	case "/api/v1/drivers":
		list, err := h.drivers.ListActive(r.Context(), orgID)
		if err != nil {
			http.Error(w, "driver list failed", http.StatusInternalServerError)
			return
		}
		writeList(w, len(list), list)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func writeList(w http.ResponseWriter, n int, list any) {
	if n == 0 {
		list = []struct{}{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}

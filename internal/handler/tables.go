package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/restaurantia/api/internal/domain"
	"github.com/restaurantia/api/internal/enum"
	"github.com/restaurantia/api/internal/middleware"
)

// DegradedHeader is set on GET /mesas when the floor plan was served from
// the built-in defaults because the database could not be read.
const DegradedHeader = "X-Mesas-Degradadas"

// TableServicer is satisfied by *service.TableService.
type TableServicer interface {
	ListTables(ctx context.Context) ([]domain.Table, bool)
	Occupancy(ctx context.Context, number int) (bool, error)
	UpdateCapacity(ctx context.Context, number, capacity int) (*domain.Table, error)
}

// TableHandler serves the table registry.
type TableHandler struct {
	svc TableServicer
}

func NewTableHandler(svc TableServicer) *TableHandler {
	return &TableHandler{svc: svc}
}

// RegisterRoutes registers table endpoints. Mount under /mesas.
func (h *TableHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{numero}/ocupacion", h.Occupancy)
	r.With(middleware.RequireRole(enum.UserRoleAdmin)).Put("/{numero}", h.UpdateCapacity)
}

type updateCapacityRequest struct {
	Capacidad int `json:"capacidad" validate:"required,gt=0"`
}

func (h *TableHandler) List(w http.ResponseWriter, r *http.Request) {
	tables, degraded := h.svc.ListTables(r.Context())
	if degraded {
		w.Header().Set(DegradedHeader, "true")
	}
	writeJSON(w, http.StatusOK, tables)
}

func (h *TableHandler) Occupancy(w http.ResponseWriter, r *http.Request) {
	number, ok := parseTableNumber(w, r)
	if !ok {
		return
	}
	occupied, err := h.svc.Occupancy(r.Context(), number)
	if err != nil {
		writeServiceError(w, err, "table occupancy")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"numero": number, "ocupada": occupied})
}

func (h *TableHandler) UpdateCapacity(w http.ResponseWriter, r *http.Request) {
	number, ok := parseTableNumber(w, r)
	if !ok {
		return
	}
	var req updateCapacityRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	table, err := h.svc.UpdateCapacity(r.Context(), number, req.Capacidad)
	if err != nil {
		writeServiceError(w, err, "update table capacity")
		return
	}
	writeJSON(w, http.StatusOK, table)
}

func parseTableNumber(w http.ResponseWriter, r *http.Request) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, "numero"))
	if err != nil || n <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid numero"})
		return 0, false
	}
	return n, true
}

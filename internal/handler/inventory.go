package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/restaurantia/api/internal/database"
	"github.com/restaurantia/api/internal/domain"
	"github.com/restaurantia/api/internal/enum"
	"github.com/restaurantia/api/internal/middleware"
	"github.com/restaurantia/api/internal/service"
)

// InventoryServicer is satisfied by *service.CatalogService.
type InventoryServicer interface {
	AddInventory(ctx context.Context, in service.InventoryInput) (*database.Inventario, error)
	UpdateInventory(ctx context.Context, id int64, in service.InventoryInput) (*database.Inventario, error)
	DeleteInventory(ctx context.Context, id int64) error
}

// InventoryStore defines the read queries of the inventory endpoints.
// Satisfied by *database.Queries; narrow interface for testability.
type InventoryStore interface {
	ListInventario(ctx context.Context) ([]database.Inventario, error)
	ListLowStock(ctx context.Context, threshold int32) ([]database.Inventario, error)
}

// InventoryHandler serves the stock ledger.
type InventoryHandler struct {
	svc              InventoryServicer
	store            InventoryStore
	defaultThreshold int
}

// NewInventoryHandler creates an InventoryHandler. defaultThreshold is used
// by GET /bajo-stock when umbral is not given.
func NewInventoryHandler(svc InventoryServicer, store InventoryStore, defaultThreshold int) *InventoryHandler {
	return &InventoryHandler{svc: svc, store: store, defaultThreshold: defaultThreshold}
}

// RegisterRoutes registers inventory endpoints. Mount under /inventario.
func (h *InventoryHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.RequireRole(enum.UserRoleAdmin))
	r.Get("/", h.List)
	r.Get("/bajo-stock", h.LowStock)
	r.Post("/", h.Add)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

type inventoryRequest struct {
	Nombre             string `json:"nombre" validate:"required,max=100"`
	CantidadDisponible int    `json:"cantidad_disponible"`
	UnidadMedida       string `json:"unidad_medida" validate:"max=30"`
}

func (req inventoryRequest) input() service.InventoryInput {
	return service.InventoryInput{
		Name:      req.Nombre,
		Available: req.CantidadDisponible,
		Unit:      req.UnidadMedida,
	}
}

func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListInventario(r.Context())
	if err != nil {
		internalError(w, err, "list inventory")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// LowStock lists items whose stock is at or below umbral.
func (h *InventoryHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	threshold := h.defaultThreshold
	if s := r.URL.Query().Get("umbral"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "umbral must be a non-negative integer"})
			return
		}
		threshold = v
	}

	rows, err := h.store.ListLowStock(r.Context(), int32(threshold))
	if err != nil {
		internalError(w, err, "list low stock")
		return
	}

	resp := make([]domain.LowStock, len(rows))
	for i, row := range rows {
		resp[i] = domain.LowStock{
			ID:        row.ID,
			Name:      row.Nombre,
			Available: int(row.CantidadDisponible),
			Unit:      row.UnidadMedida,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Add creates the item, or adds to its stock when the normalized name exists.
func (h *InventoryHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req inventoryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	item, err := h.svc.AddInventory(r.Context(), req.input())
	if err != nil {
		writeServiceError(w, err, "add inventory")
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *InventoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	var req inventoryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	item, err := h.svc.UpdateInventory(r.Context(), id, req.input())
	if err != nil {
		writeServiceError(w, err, "update inventory")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// Delete removes an item. Items still used by a recipe or configuration are
// kept and the request fails with 409.
func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteInventory(r.Context(), id); err != nil {
		writeServiceError(w, err, "delete inventory")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

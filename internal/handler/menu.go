package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/restaurantia/api/internal/database"
	"github.com/restaurantia/api/internal/enum"
	"github.com/restaurantia/api/internal/middleware"
	"github.com/restaurantia/api/internal/seed"
	"github.com/restaurantia/api/internal/service"
	"github.com/shopspring/decimal"
)

// MenuStore defines the database methods needed by menu handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type MenuStore interface {
	ListMenuItems(ctx context.Context) ([]database.MenuItem, error)
	CreateMenuItem(ctx context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error)
	DeleteMenuItem(ctx context.Context, arg database.DeleteMenuItemParams) (int64, error)
}

// MenuHandler handles the menu endpoints.
type MenuHandler struct {
	store    MenuStore
	pool     service.TxBeginner
	newStore func(database.DBTX) seed.MenuStore
	defaults func() ([]seed.MenuItem, error)
}

// NewMenuHandler creates a MenuHandler. defaults supplies the items loaded
// by POST /menu/inicializar.
func NewMenuHandler(store MenuStore, pool service.TxBeginner, newStore func(database.DBTX) seed.MenuStore, defaults func() ([]seed.MenuItem, error)) *MenuHandler {
	return &MenuHandler{store: store, pool: pool, newStore: newStore, defaults: defaults}
}

// RegisterRoutes registers menu endpoints. Mount under /menu.
func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/items", h.List)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(enum.UserRoleAdmin))
		r.Post("/items", h.Create)
		r.Delete("/items", h.Delete)
		r.Post("/inicializar", h.Initialize)
	})
}

// --- Request / Response types ---

type menuItemRequest struct {
	Nombre string          `json:"nombre" validate:"required,max=100"`
	Precio decimal.Decimal `json:"precio" validate:"gte=0"`
	Tipo   string          `json:"tipo" validate:"required,max=50"`
}

type menuItemResponse struct {
	ID     int64           `json:"id"`
	Nombre string          `json:"nombre"`
	Precio decimal.Decimal `json:"precio"`
	Tipo   string          `json:"tipo"`
}

func toMenuItemResponse(m database.MenuItem) menuItemResponse {
	return menuItemResponse{
		ID:     m.ID,
		Nombre: m.Nombre,
		Precio: service.NumericToDecimal(m.Precio),
		Tipo:   m.Tipo,
	}
}

// --- Handlers ---

// List returns the menu ordered by category and name.
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListMenuItems(r.Context())
	if err != nil {
		internalError(w, err, "list menu items")
		return
	}

	resp := make([]menuItemResponse, len(items))
	for i, m := range items {
		resp[i] = toMenuItemResponse(m)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *MenuHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req menuItemRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	item, err := h.store.CreateMenuItem(r.Context(), database.CreateMenuItemParams{
		Nombre: strings.TrimSpace(req.Nombre),
		Precio: service.DecimalToNumeric(req.Precio),
		Tipo:   strings.TrimSpace(req.Tipo),
	})
	if err != nil {
		if isUniqueViolation(err) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "menu item already exists"})
			return
		}
		internalError(w, err, "create menu item")
		return
	}

	writeJSON(w, http.StatusCreated, toMenuItemResponse(item))
}

// Delete removes the item matching the nombre and tipo query parameters.
func (h *MenuHandler) Delete(w http.ResponseWriter, r *http.Request) {
	nombre := strings.TrimSpace(r.URL.Query().Get("nombre"))
	tipo := strings.TrimSpace(r.URL.Query().Get("tipo"))
	if nombre == "" || tipo == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "nombre and tipo are required"})
		return
	}

	n, err := h.store.DeleteMenuItem(r.Context(), database.DeleteMenuItemParams{Nombre: nombre, Tipo: tipo})
	if err != nil {
		internalError(w, err, "delete menu item")
		return
	}
	if n == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Initialize replaces the whole menu with the default menu in one transaction.
func (h *MenuHandler) Initialize(w http.ResponseWriter, r *http.Request) {
	items, err := h.defaults()
	if err != nil {
		internalError(w, err, "load default menu")
		return
	}

	ctx := r.Context()
	tx, err := h.pool.Begin(ctx)
	if err != nil {
		internalError(w, err, "begin menu transaction")
		return
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	n, err := seed.ReplaceMenu(ctx, h.newStore(tx), items)
	if err != nil {
		internalError(w, err, "replace menu")
		return
	}
	if err := tx.Commit(ctx); err != nil {
		internalError(w, err, "commit menu")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "items_insertados": n})
}

package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/restaurantia/api/internal/database"
	"github.com/restaurantia/api/internal/enum"
	"github.com/restaurantia/api/internal/middleware"
)

// CustomerStore defines the database methods needed by customer handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type CustomerStore interface {
	ListClientes(ctx context.Context) ([]database.Cliente, error)
	CreateCliente(ctx context.Context, arg database.CreateClienteParams) (database.Cliente, error)
	DeleteCliente(ctx context.Context, id uuid.UUID) (int64, error)
}

// CustomerHandler handles the customer directory used for delivery orders.
type CustomerHandler struct {
	store CustomerStore
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(store CustomerStore) *CustomerHandler {
	return &CustomerHandler{store: store}
}

// RegisterRoutes registers customer endpoints. Mount under /clientes.
func (h *CustomerHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(enum.UserRoleAdmin, enum.UserRoleWaiter))
		r.Post("/", h.Create)
		r.Delete("/{id}", h.Delete)
	})
}

type createCustomerRequest struct {
	Nombre    string `json:"nombre" validate:"required,max=100"`
	Domicilio string `json:"domicilio" validate:"max=200"`
	Celular   string `json:"celular" validate:"required,max=20"`
}

// List returns every customer ordered by name.
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	customers, err := h.store.ListClientes(r.Context())
	if err != nil {
		internalError(w, err, "list customers")
		return
	}
	writeJSON(w, http.StatusOK, customers)
}

func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCustomerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	customer, err := h.store.CreateCliente(r.Context(), database.CreateClienteParams{
		Nombre:    strings.TrimSpace(req.Nombre),
		Domicilio: strings.TrimSpace(req.Domicilio),
		Celular:   strings.TrimSpace(req.Celular),
	})
	if err != nil {
		internalError(w, err, "create customer")
		return
	}

	writeJSON(w, http.StatusCreated, customer)
}

func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid customer ID"})
		return
	}

	n, err := h.store.DeleteCliente(r.Context(), id)
	if err != nil {
		internalError(w, err, "delete customer")
		return
	}
	if n == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "customer not found"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/restaurantia/api/internal/database"
	"github.com/restaurantia/api/internal/domain"
	"github.com/restaurantia/api/internal/enum"
	"github.com/restaurantia/api/internal/middleware"
	"github.com/restaurantia/api/internal/service"
	"github.com/shopspring/decimal"
)

// OrderServicer defines the service methods needed by the order handler.
// Satisfied by *service.OrderService.
type OrderServicer interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*domain.Order, error)
	UpdateOrder(ctx context.Context, id int64, req service.UpdateOrderRequest) (*domain.Order, error)
	RemoveLastItem(ctx context.Context, id int64) (*domain.Order, error)
	SetStatus(ctx context.Context, id int64, status string) (*domain.Order, error)
	Pay(ctx context.Context, id int64, req service.PayRequest) (*service.PayResult, error)
	DeleteOrder(ctx context.Context, id int64) error
}

// OrderStore defines the read-only database methods used by the order handler.
// Satisfied by *database.Queries; narrow interface for testability.
type OrderStore interface {
	GetPedido(ctx context.Context, id int64) (database.Pedido, error)
	ListPedidosByEstados(ctx context.Context, estados []string) ([]database.Pedido, error)
}

// OrderHandler serves the order ledger and the kitchen and cashier queues.
type OrderHandler struct {
	svc   OrderServicer
	store OrderStore
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, store OrderStore) *OrderHandler {
	return &OrderHandler{svc: svc, store: store}
}

// RegisterRoutes registers order endpoints. Mount under /pedidos.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/activos", h.ListActive)
	r.Get("/cocina", h.KitchenQueue)
	r.Get("/caja", h.CashierQueue)
	r.Get("/{id}", h.Get)

	waiters := middleware.RequireRole(enum.UserRoleAdmin, enum.UserRoleWaiter)
	r.With(waiters).Post("/", h.Create)
	r.With(waiters).Put("/{id}", h.Update)
	r.With(waiters).Delete("/{id}/ultimo_item", h.RemoveLastItem)

	r.With(middleware.RequireRole(
		enum.UserRoleAdmin, enum.UserRoleWaiter, enum.UserRoleKitchen, enum.UserRoleCashier,
	)).Patch("/{id}/estado", h.UpdateStatus)
	r.With(middleware.RequireRole(enum.UserRoleAdmin, enum.UserRoleCashier)).Post("/{id}/pago", h.Pay)
	r.With(middleware.RequireRole(enum.UserRoleAdmin, enum.UserRoleKitchen, enum.UserRoleCashier)).Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type createOrderRequest struct {
	MesaNumero  int           `json:"mesa_numero" validate:"required,gt=0"`
	TamanoGrupo int           `json:"tamano_grupo" validate:"gte=0"`
	Notas       string        `json:"notas" validate:"max=500"`
	Items       []domain.Item `json:"items" validate:"dive"`
}

type updateOrderRequest struct {
	MesaNumero  *int          `json:"mesa_numero" validate:"omitempty,gt=0"`
	TamanoGrupo *int          `json:"tamano_grupo" validate:"omitempty,gte=0"`
	Notas       *string       `json:"notas" validate:"omitempty,max=500"`
	Estado      string        `json:"estado"`
	Items       []domain.Item `json:"items" validate:"dive"`
}

type statusRequest struct {
	Estado string `json:"estado"`
}

type payRequest struct {
	MetodoPago    string          `json:"metodo_pago" validate:"required"`
	MontoRecibido decimal.Decimal `json:"monto_recibido" validate:"gte=0"`
}

type orderResponse struct {
	domain.Order
	Titulo string          `json:"titulo"`
	Total  decimal.Decimal `json:"total"`
}

func toOrderResponse(o domain.Order) orderResponse {
	return orderResponse{Order: o, Titulo: o.Title(), Total: o.Total()}
}

func toOrderResponses(orders []domain.Order) []orderResponse {
	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o)
	}
	return resp
}

// --- Handlers ---

// Create persists a draft order. The status is always Pendiente.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	order, err := h.svc.CreateOrder(r.Context(), service.CreateOrderRequest{
		TableNumber: req.MesaNumero,
		GroupSize:   req.TamanoGrupo,
		Notes:       req.Notas,
		Items:       req.Items,
	})
	if err != nil {
		writeServiceError(w, err, "create order")
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(*order))
}

// Update rewrites an order's items, notes, table and optionally its status.
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	var req updateOrderRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	order, err := h.svc.UpdateOrder(r.Context(), id, service.UpdateOrderRequest{
		TableNumber: req.MesaNumero,
		GroupSize:   req.TamanoGrupo,
		Notes:       req.Notas,
		Status:      req.Estado,
		Items:       req.Items,
	})
	if err != nil {
		writeServiceError(w, err, "update order")
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}

func (h *OrderHandler) RemoveLastItem(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	order, err := h.svc.RemoveLastItem(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "remove last item")
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}

// UpdateStatus reads the new status from the estado query parameter, or from
// a JSON body when the parameter is absent.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	estado := r.URL.Query().Get("estado")
	if estado == "" {
		var req statusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		estado = req.Estado
	}
	if strings.TrimSpace(estado) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "estado is required"})
		return
	}

	order, err := h.svc.SetStatus(r.Context(), id, estado)
	if err != nil {
		writeServiceError(w, err, "update order status")
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}

func (h *OrderHandler) Pay(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	var req payRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.svc.Pay(r.Context(), id, service.PayRequest{
		Method: req.MetodoPago,
		Amount: req.MontoRecibido,
	})
	if err != nil {
		writeServiceError(w, err, "pay order")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"pedido": toOrderResponse(result.Order),
		"cambio": result.Change,
	})
}

func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteOrder(r.Context(), id); err != nil {
		writeServiceError(w, err, "delete order")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	row, err := h.store.GetPedido(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		internalError(w, err, "get order")
		return
	}
	order, err := service.OrderFromRow(row)
	if err != nil {
		internalError(w, err, "decode order")
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

// ListActive returns the orders that occupy a table, newest first.
func (h *OrderHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	orders, ok := h.listByStatus(w, r, domain.ActiveStatuses())
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponses(orders))
}

func (h *OrderHandler) KitchenQueue(w http.ResponseWriter, r *http.Request) {
	orders, ok := h.listByStatus(w, r, []string{enum.OrderStatusPending, enum.OrderStatusPreparing})
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponses(domain.KitchenQueue(orders)))
}

func (h *OrderHandler) CashierQueue(w http.ResponseWriter, r *http.Request) {
	orders, ok := h.listByStatus(w, r, []string{enum.OrderStatusReady, enum.OrderStatusDelivered, enum.OrderStatusPaid})
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponses(domain.CashierQueue(orders)))
}

func (h *OrderHandler) listByStatus(w http.ResponseWriter, r *http.Request, estados []string) ([]domain.Order, bool) {
	rows, err := h.store.ListPedidosByEstados(r.Context(), estados)
	if err != nil {
		internalError(w, err, "list orders")
		return nil, false
	}
	orders, err := service.OrdersFromRows(rows)
	if err != nil {
		internalError(w, err, "decode orders")
		return nil, false
	}
	return orders, true
}

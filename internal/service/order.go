package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/restaurantia/api/internal/database"
	"github.com/restaurantia/api/internal/domain"
	"github.com/restaurantia/api/internal/enum"
	"github.com/restaurantia/api/internal/events"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const maxOrderNumberRetries = 3

// Constraint names from the pedidos migration.
const (
	constraintNumeroApp   = "pedidos_numero_app_key"
	constraintMesaActiva  = "pedidos_mesa_activa_key"
	constraintMesaForeign = "pedidos_mesa_numero_fkey"
)

// Errors returned by the order service.
var (
	ErrEmptyItems           = errors.New("items are required")
	ErrInvalidItem          = errors.New("item nombre is required and precio must be >= 0")
	ErrInvalidQuantity      = errors.New("cantidad must be >= 0")
	ErrInvalidGroupSize     = errors.New("tamano_grupo must be >= 0")
	ErrOrderNotFound        = errors.New("order not found")
	ErrTableNotFound        = errors.New("table not found")
	ErrTableMove            = errors.New("orders cannot move to or from the digital table")
	ErrInvalidPaymentMethod = errors.New("metodo_pago must be Efectivo, Tarjeta or QR")
	ErrInsufficientPayment  = errors.New("monto_recibido is less than the order total")
	ErrStatusConflict       = errors.New("order status changed, please retry")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods needed to write orders.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	RecipeStore
	GetNextNumeroApp(ctx context.Context) (int32, error)
	GetPedido(ctx context.Context, id int64) (database.Pedido, error)
	GetPedidoForUpdate(ctx context.Context, id int64) (database.Pedido, error)
	CreatePedido(ctx context.Context, arg database.CreatePedidoParams) (database.Pedido, error)
	UpdatePedido(ctx context.Context, arg database.UpdatePedidoParams) (database.Pedido, error)
	UpdatePedidoEstado(ctx context.Context, arg database.UpdatePedidoEstadoParams) (database.Pedido, error)
	PayPedido(ctx context.Context, arg database.PayPedidoParams) (database.Pedido, error)
	DeletePedido(ctx context.Context, id int64) (int64, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
// This allows the service to create store instances from transactions.
type NewOrderStore func(db database.DBTX) OrderStore

// CreateOrderRequest is the validated input for the first persistence of a draft.
type CreateOrderRequest struct {
	TableNumber int
	GroupSize   int
	Notes       string
	Items       []domain.Item
}

// UpdateOrderRequest rewrites a persisted order. Nil fields keep their value;
// an empty Status keeps the current status.
type UpdateOrderRequest struct {
	TableNumber *int
	GroupSize   *int
	Notes       *string
	Status      string
	Items       []domain.Item
}

// PayRequest settles an order at the cashier.
type PayRequest struct {
	Method string
	Amount decimal.Decimal
}

// PayResult is the paid order and the change owed to the customer.
type PayResult struct {
	Order  domain.Order    `json:"pedido"`
	Change decimal.Decimal `json:"cambio"`
}

// OrderService handles order business logic.
type OrderService struct {
	pool      TxBeginner
	newStore  NewOrderStore
	publisher events.Publisher
}

// NewOrderService creates a new OrderService. A nil publisher disables events.
func NewOrderService(pool TxBeginner, newStore NewOrderStore, publisher events.Publisher) *OrderService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &OrderService{pool: pool, newStore: newStore, publisher: publisher}
}

func (s *OrderService) recipeStore(db database.DBTX) RecipeStore {
	return s.newStore(db)
}

// CreateOrder persists a confirmed draft as Pendiente, charges every item to
// inventory and assigns the app number on the digital table.
// Retries up to maxOrderNumberRetries times on numero_app unique constraint
// violations (race condition where concurrent transactions get the same MAX).
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*domain.Order, error) {
	if req.GroupSize < 0 {
		return nil, ErrInvalidGroupSize
	}
	items, err := normalizeItems(req.Items)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
		order, touched, err := s.createOrderTx(ctx, req, items)
		if err == nil {
			s.publish(ctx, enum.TopicOrders, enum.EventOrderCreated, order)
			s.publishStock(ctx, touched)
			return order, nil
		}
		if isConstraintViolation(err, pgerrUniqueViolation, constraintNumeroApp) {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

func (s *OrderService) createOrderTx(ctx context.Context, req CreateOrderRequest, items []domain.Item) (*domain.Order, []int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	numeroApp := pgtype.Int4{}
	if req.TableNumber == enum.DigitalTableNumber {
		next, err := store.GetNextNumeroApp(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("get next numero_app: %w", err)
		}
		numeroApp = pgtype.Int4{Int32: next, Valid: true}
	}

	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return nil, nil, fmt.Errorf("encode items: %w", err)
	}

	row, err := store.CreatePedido(ctx, database.CreatePedidoParams{
		MesaNumero:       int32(req.TableNumber),
		NumeroApp:        numeroApp,
		Items:            itemsJSON,
		Estado:           string(domain.StatusPending),
		Notas:            req.Notes,
		TamanoGrupo:      int32(req.GroupSize),
		ItemsDescontados: int32(len(items)),
	})
	if err != nil {
		if mapped := mapTableError(err); mapped != nil {
			return nil, nil, mapped
		}
		return nil, nil, fmt.Errorf("create order: %w", err)
	}

	touched := DecrementInventory(ctx, tx, s.recipeStore, items)

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit tx: %w", err)
	}

	order, err := OrderFromRow(row)
	if err != nil {
		return nil, nil, err
	}
	return &order, touched, nil
}

// UpdateOrder rewrites a persisted order. The row is locked for the duration
// of the transaction, so concurrent editors are serialized. Only the units
// not covered by the lines already charged are taken from inventory.
func (s *OrderService) UpdateOrder(ctx context.Context, id int64, req UpdateOrderRequest) (*domain.Order, error) {
	if req.GroupSize != nil && *req.GroupSize < 0 {
		return nil, ErrInvalidGroupSize
	}
	items, err := normalizeItems(req.Items)
	if err != nil {
		return nil, err
	}
	var next domain.Status
	if req.Status != "" {
		if next, err = domain.ParseStatus(req.Status); err != nil {
			return nil, err
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	current, err := store.GetPedidoForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	status := domain.Status(current.Estado)
	if next != "" && next != status {
		if err := domain.ValidateTransition(status, next); err != nil {
			return nil, err
		}
		status = next
	}

	table := current.MesaNumero
	if req.TableNumber != nil && int32(*req.TableNumber) != table {
		if table == enum.DigitalTableNumber || *req.TableNumber == enum.DigitalTableNumber {
			return nil, ErrTableMove
		}
		table = int32(*req.TableNumber)
	}

	groupSize := current.TamanoGrupo
	if req.GroupSize != nil {
		groupSize = int32(*req.GroupSize)
	}
	notes := current.Notas
	if req.Notes != nil {
		notes = *req.Notes
	}

	stored, err := OrderFromRow(current)
	if err != nil {
		return nil, err
	}
	pending := domain.UnchargedItems(stored.ChargedLines(), items)

	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode items: %w", err)
	}

	row, err := store.UpdatePedido(ctx, database.UpdatePedidoParams{
		ID:               id,
		MesaNumero:       table,
		Items:            itemsJSON,
		Estado:           string(status),
		Notas:            notes,
		TamanoGrupo:      groupSize,
		ItemsDescontados: int32(len(items)),
	})
	if err != nil {
		if mapped := mapTableError(err); mapped != nil {
			return nil, mapped
		}
		return nil, fmt.Errorf("update order: %w", err)
	}

	touched := DecrementInventory(ctx, tx, s.recipeStore, pending)

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	order, err := OrderFromRow(row)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, enum.TopicOrders, enum.EventOrderUpdated, order)
	s.publishStock(ctx, touched)
	return &order, nil
}

// RemoveLastItem pops the newest item of a persisted order. Stock already
// charged for it is not restored.
func (s *OrderService) RemoveLastItem(ctx context.Context, id int64) (*domain.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	current, err := store.GetPedidoForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	order, err := OrderFromRow(current)
	if err != nil {
		return nil, err
	}
	if !order.RemoveLastItem() {
		return nil, domain.ErrEmptyOrder
	}

	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return nil, fmt.Errorf("encode items: %w", err)
	}

	row, err := store.UpdatePedido(ctx, database.UpdatePedidoParams{
		ID:               id,
		MesaNumero:       current.MesaNumero,
		Items:            itemsJSON,
		Estado:           current.Estado,
		Notas:            current.Notas,
		TamanoGrupo:      current.TamanoGrupo,
		ItemsDescontados: int32(min(order.ChargedItems, len(order.Items))),
	})
	if err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	updated, err := OrderFromRow(row)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, enum.TopicOrders, enum.EventOrderUpdated, updated)
	return &updated, nil
}

// SetStatus moves an order along the lifecycle. The write is a compare-and-set
// on the status that was read, so a concurrent change yields ErrStatusConflict.
// Setting the status the order already has returns it unchanged.
func (s *OrderService) SetStatus(ctx context.Context, id int64, raw string) (*domain.Order, error) {
	next, err := domain.ParseStatus(raw)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	current, err := store.GetPedido(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	if domain.Status(current.Estado) == next {
		order, err := OrderFromRow(current)
		if err != nil {
			return nil, err
		}
		return &order, nil
	}
	if err := domain.ValidateTransition(domain.Status(current.Estado), next); err != nil {
		return nil, err
	}

	row, err := store.UpdatePedidoEstado(ctx, database.UpdatePedidoEstadoParams{
		ID:       id,
		Estado:   string(next),
		Estado_2: current.Estado,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStatusConflict
		}
		return nil, fmt.Errorf("update status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	order, err := OrderFromRow(row)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, enum.TopicOrders, enum.EventOrderStatus, order)
	return &order, nil
}

// Pay records the payment and marks the order Pagado.
func (s *OrderService) Pay(ctx context.Context, id int64, req PayRequest) (*PayResult, error) {
	method, err := validatePaymentMethod(req.Method)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	current, err := store.GetPedido(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	if err := domain.ValidateTransition(domain.Status(current.Estado), domain.StatusPaid); err != nil {
		return nil, err
	}

	order, err := OrderFromRow(current)
	if err != nil {
		return nil, err
	}
	total := order.Total()
	if req.Amount.LessThan(total) {
		return nil, ErrInsufficientPayment
	}

	row, err := store.PayPedido(ctx, database.PayPedidoParams{
		ID:            id,
		MetodoPago:    pgtype.Text{String: method, Valid: true},
		MontoRecibido: decimalToNumeric(req.Amount),
		Estado:        current.Estado,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStatusConflict
		}
		return nil, fmt.Errorf("pay order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	paid, err := OrderFromRow(row)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, enum.TopicOrders, enum.EventOrderPaid, paid)
	return &PayResult{Order: paid, Change: req.Amount.Sub(total)}, nil
}

// DeleteOrder removes an order regardless of its status.
func (s *OrderService) DeleteOrder(ctx context.Context, id int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	n, err := s.newStore(tx).DeletePedido(ctx, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if n == 0 {
		return ErrOrderNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	s.publish(ctx, enum.TopicOrders, enum.EventOrderDeleted, map[string]int64{"id": id})
	return nil
}

// publish sends an event after commit. Delivery failures are logged only:
// the write already happened and views can still refresh by polling.
func (s *OrderService) publish(ctx context.Context, topic, eventType string, payload any) {
	e, err := events.New(topic, eventType, payload)
	if err != nil {
		log.Error().Err(err).Msg("build event")
		return
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		log.Warn().Err(err).Str("type", eventType).Msg("publish event")
	}
}

func (s *OrderService) publishStock(ctx context.Context, ids []int64) {
	if len(ids) == 0 {
		return
	}
	s.publish(ctx, enum.TopicInventory, enum.EventStockUpdated, map[string][]int64{"ingredientes": ids})
}

// --- Helpers ---

// normalizeItems validates every item and turns a zero quantity into one.
func normalizeItems(in []domain.Item) ([]domain.Item, error) {
	if len(in) == 0 {
		return nil, ErrEmptyItems
	}
	out := make([]domain.Item, len(in))
	for i, it := range in {
		it.Name = strings.TrimSpace(it.Name)
		if it.Name == "" || it.Price.IsNegative() {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidItem)
		}
		if it.Quantity < 0 {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidQuantity)
		}
		it.Quantity = it.Units()
		out[i] = it
	}
	return out, nil
}

func validatePaymentMethod(s string) (string, error) {
	switch s {
	case enum.PaymentMethodCash, enum.PaymentMethodCard, enum.PaymentMethodQR:
		return s, nil
	}
	return "", ErrInvalidPaymentMethod
}

const (
	pgerrUniqueViolation     = "23505"
	pgerrForeignKeyViolation = "23503"
)

// isConstraintViolation checks the PostgreSQL error code and, when given,
// the constraint name.
func isConstraintViolation(err error, code, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code && (constraint == "" || pgErr.ConstraintName == constraint)
	}
	return false
}

// mapTableError turns table constraint failures on pedidos into service errors.
func mapTableError(err error) error {
	switch {
	case isConstraintViolation(err, pgerrUniqueViolation, constraintMesaActiva):
		return domain.ErrTableOccupied
	case isConstraintViolation(err, pgerrForeignKeyViolation, constraintMesaForeign):
		return ErrTableNotFound
	}
	return nil
}

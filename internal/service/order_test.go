package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/restaurantia/api/internal/database"
	"github.com/restaurantia/api/internal/domain"
	"github.com/restaurantia/api/internal/enum"
	"github.com/restaurantia/api/internal/events"
	"github.com/shopspring/decimal"
)

// --- Mock implementations ---

// mockTx implements pgx.Tx with only the methods we need.
// The unused methods panic so we catch accidental calls.
type mockTx struct {
	commitErr   error
	rollbackErr error
	committed   bool
	savepoints  int
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) {
	m.savepoints++
	return &mockTx{}, nil
}
func (m *mockTx) Commit(ctx context.Context) error {
	if m.commitErr == nil {
		m.committed = true
	}
	return m.commitErr
}
func (m *mockTx) Rollback(ctx context.Context) error { return m.rollbackErr }
func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (m *mockTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}
func (m *mockTx) Conn() *pgx.Conn { panic("not implemented") }

// mockTxBeginner implements TxBeginner.
type mockTxBeginner struct {
	tx    pgx.Tx
	err   error
	calls int
}

func (m *mockTxBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	m.calls++
	return m.tx, m.err
}

// mockOrderStore implements OrderStore with configurable behavior.
type mockOrderStore struct {
	getNextNumeroAppFn   func(ctx context.Context) (int32, error)
	getPedidoFn          func(ctx context.Context, id int64) (database.Pedido, error)
	getPedidoForUpdateFn func(ctx context.Context, id int64) (database.Pedido, error)
	createPedidoFn       func(ctx context.Context, arg database.CreatePedidoParams) (database.Pedido, error)
	updatePedidoFn       func(ctx context.Context, arg database.UpdatePedidoParams) (database.Pedido, error)
	updatePedidoEstadoFn func(ctx context.Context, arg database.UpdatePedidoEstadoParams) (database.Pedido, error)
	payPedidoFn          func(ctx context.Context, arg database.PayPedidoParams) (database.Pedido, error)
	deletePedidoFn       func(ctx context.Context, id int64) (int64, error)
	listRecetaFn         func(ctx context.Context, nombre string) ([]database.ListRecetaIngredientesByNombreRow, error)
	adjustInventarioFn   func(ctx context.Context, arg database.AdjustInventarioParams) (int64, error)
}

func (m *mockOrderStore) GetNextNumeroApp(ctx context.Context) (int32, error) {
	return m.getNextNumeroAppFn(ctx)
}
func (m *mockOrderStore) GetPedido(ctx context.Context, id int64) (database.Pedido, error) {
	return m.getPedidoFn(ctx, id)
}
func (m *mockOrderStore) GetPedidoForUpdate(ctx context.Context, id int64) (database.Pedido, error) {
	return m.getPedidoForUpdateFn(ctx, id)
}
func (m *mockOrderStore) CreatePedido(ctx context.Context, arg database.CreatePedidoParams) (database.Pedido, error) {
	return m.createPedidoFn(ctx, arg)
}
func (m *mockOrderStore) UpdatePedido(ctx context.Context, arg database.UpdatePedidoParams) (database.Pedido, error) {
	return m.updatePedidoFn(ctx, arg)
}
func (m *mockOrderStore) UpdatePedidoEstado(ctx context.Context, arg database.UpdatePedidoEstadoParams) (database.Pedido, error) {
	return m.updatePedidoEstadoFn(ctx, arg)
}
func (m *mockOrderStore) PayPedido(ctx context.Context, arg database.PayPedidoParams) (database.Pedido, error) {
	return m.payPedidoFn(ctx, arg)
}
func (m *mockOrderStore) DeletePedido(ctx context.Context, id int64) (int64, error) {
	return m.deletePedidoFn(ctx, id)
}
func (m *mockOrderStore) ListRecetaIngredientesByNombre(ctx context.Context, nombre string) ([]database.ListRecetaIngredientesByNombreRow, error) {
	return m.listRecetaFn(ctx, nombre)
}
func (m *mockOrderStore) AdjustInventario(ctx context.Context, arg database.AdjustInventarioParams) (int64, error) {
	return m.adjustInventarioFn(ctx, arg)
}

// --- Test helpers ---

const polloID int64 = 7

func makeItem(name, price string) domain.Item {
	return domain.Item{Name: name, Price: decimal.RequireFromString(price), Quantity: 1}
}

func encodeItems(t *testing.T, items ...domain.Item) []byte {
	t.Helper()
	if items == nil {
		items = []domain.Item{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		t.Fatalf("marshal items: %v", err)
	}
	return data
}

func decodeItems(t *testing.T, data []byte) []domain.Item {
	t.Helper()
	var items []domain.Item
	if err := json.Unmarshal(data, &items); err != nil {
		t.Fatalf("unmarshal items: %v", err)
	}
	return items
}

func pedido(t *testing.T, id int64, mesa int32, estado domain.Status, charged int32, items ...domain.Item) database.Pedido {
	return database.Pedido{
		ID:               id,
		MesaNumero:       mesa,
		Items:            encodeItems(t, items...),
		Estado:           string(estado),
		ItemsDescontados: charged,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
}

// recorder collects published events.
type recorder struct {
	events []events.Event
}

func (r *recorder) Publish(ctx context.Context, e events.Event) error {
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) types() []string {
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

// adjustments records every stock delta per ingredient id.
type adjustments map[int64]int32

// newTestService creates an OrderService with mocked dependencies.
// store is the mock OrderStore that will be returned by the NewOrderStore factory.
func newTestService(store *mockOrderStore) (*OrderService, *mockTx, *recorder) {
	tx := &mockTx{}
	pool := &mockTxBeginner{tx: tx}
	rec := &recorder{}
	newStore := func(db database.DBTX) OrderStore { return store }
	return NewOrderService(pool, newStore, rec), tx, rec
}

// defaultStore returns a mockOrderStore where "Pollo a la Parrilla" uses one
// unit of Pollo and every write echoes its input.
// Individual tests override the functions they care about.
func defaultStore(t *testing.T, adj adjustments) *mockOrderStore {
	return &mockOrderStore{
		getNextNumeroAppFn: func(ctx context.Context) (int32, error) {
			return 1, nil
		},
		getPedidoFn: func(ctx context.Context, id int64) (database.Pedido, error) {
			return database.Pedido{}, pgx.ErrNoRows
		},
		getPedidoForUpdateFn: func(ctx context.Context, id int64) (database.Pedido, error) {
			return database.Pedido{}, pgx.ErrNoRows
		},
		createPedidoFn: func(ctx context.Context, arg database.CreatePedidoParams) (database.Pedido, error) {
			return database.Pedido{
				ID:               1,
				MesaNumero:       arg.MesaNumero,
				NumeroApp:        arg.NumeroApp,
				Items:            arg.Items,
				Estado:           arg.Estado,
				Notas:            arg.Notas,
				TamanoGrupo:      arg.TamanoGrupo,
				ItemsDescontados: arg.ItemsDescontados,
				CreatedAt:        time.Now(),
			}, nil
		},
		updatePedidoFn: func(ctx context.Context, arg database.UpdatePedidoParams) (database.Pedido, error) {
			return database.Pedido{
				ID:               arg.ID,
				MesaNumero:       arg.MesaNumero,
				Items:            arg.Items,
				Estado:           arg.Estado,
				Notas:            arg.Notas,
				TamanoGrupo:      arg.TamanoGrupo,
				ItemsDescontados: arg.ItemsDescontados,
			}, nil
		},
		updatePedidoEstadoFn: func(ctx context.Context, arg database.UpdatePedidoEstadoParams) (database.Pedido, error) {
			return database.Pedido{ID: arg.ID, Estado: arg.Estado, Items: []byte("[]")}, nil
		},
		payPedidoFn: func(ctx context.Context, arg database.PayPedidoParams) (database.Pedido, error) {
			return database.Pedido{
				ID:            arg.ID,
				Estado:        string(domain.StatusPaid),
				Items:         []byte("[]"),
				MetodoPago:    arg.MetodoPago,
				MontoRecibido: arg.MontoRecibido,
			}, nil
		},
		deletePedidoFn: func(ctx context.Context, id int64) (int64, error) {
			return 0, nil
		},
		listRecetaFn: func(ctx context.Context, nombre string) ([]database.ListRecetaIngredientesByNombreRow, error) {
			if nombre == "Pollo a la Parrilla" {
				return []database.ListRecetaIngredientesByNombreRow{{IngredienteID: polloID, CantidadNecesaria: 1}}, nil
			}
			return nil, nil
		},
		adjustInventarioFn: func(ctx context.Context, arg database.AdjustInventarioParams) (int64, error) {
			adj[arg.ID] += arg.Delta
			return 1, nil
		},
	}
}

// =====================
// CreateOrder
// =====================

func TestCreateOrder_EmptyItems(t *testing.T) {
	store := defaultStore(t, adjustments{})
	svc, tx, rec := newTestService(store)

	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{TableNumber: 3})
	if !errors.Is(err, ErrEmptyItems) {
		t.Fatalf("expected ErrEmptyItems, got %v", err)
	}
	if tx.committed {
		t.Error("nothing should be committed for an empty order")
	}
	if len(rec.events) != 0 {
		t.Errorf("expected no events, got %v", rec.types())
	}
}

func TestCreateOrder_InvalidItems(t *testing.T) {
	tests := []struct {
		name string
		item domain.Item
		want error
	}{
		{"missing name", domain.Item{Name: "  ", Price: decimal.NewFromInt(1)}, ErrInvalidItem},
		{"negative price", domain.Item{Name: "Pasta", Price: decimal.NewFromInt(-1)}, ErrInvalidItem},
		{"negative quantity", domain.Item{Name: "Pasta", Price: decimal.NewFromInt(1), Quantity: -2}, ErrInvalidQuantity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService(defaultStore(t, adjustments{}))
			_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
				TableNumber: 3,
				Items:       []domain.Item{tt.item},
			})
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestCreateOrder_PersistsPending(t *testing.T) {
	store := defaultStore(t, adjustments{})
	var got database.CreatePedidoParams
	create := store.createPedidoFn
	store.createPedidoFn = func(ctx context.Context, arg database.CreatePedidoParams) (database.Pedido, error) {
		got = arg
		return create(ctx, arg)
	}

	svc, tx, rec := newTestService(store)
	order, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		TableNumber: 3,
		GroupSize:   2,
		Notes:       "sin sal",
		Items:       []domain.Item{{Name: "Pasta", Price: decimal.RequireFromString("11.99")}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if order.ID == 0 {
		t.Error("expected an id to be assigned")
	}
	if order.Status != domain.StatusPending {
		t.Errorf("expected status Pendiente, got %s", order.Status)
	}
	if got.NumeroApp.Valid {
		t.Error("physical tables must not get numero_app")
	}
	if got.ItemsDescontados != 1 {
		t.Errorf("expected items_descontados 1, got %d", got.ItemsDescontados)
	}
	items := decodeItems(t, got.Items)
	if len(items) != 1 || items[0].Quantity != 1 {
		t.Errorf("expected quantity 0 normalized to 1, got %+v", items)
	}
	if !tx.committed {
		t.Error("expected commit")
	}
	if len(rec.events) != 1 || rec.events[0].Type != enum.EventOrderCreated {
		t.Errorf("expected one %s event, got %v", enum.EventOrderCreated, rec.types())
	}
}

func TestCreateOrder_DecrementsRecipeIngredients(t *testing.T) {
	adj := adjustments{}
	store := defaultStore(t, adj)
	svc, tx, rec := newTestService(store)

	pollo := makeItem("Pollo a la Parrilla", "15.00")
	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		TableNumber: 2,
		Items:       []domain.Item{pollo, pollo, makeItem("Limonada", "2.50")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if adj[polloID] != -2 {
		t.Errorf("expected Pollo decremented by 2, got %d", adj[polloID])
	}
	if tx.savepoints != 3 {
		t.Errorf("expected one savepoint per item, got %d", tx.savepoints)
	}
	types := rec.types()
	if len(types) != 2 || types[1] != enum.EventStockUpdated {
		t.Errorf("expected created + stock events, got %v", types)
	}
}

func TestCreateOrder_DecrementFailureDoesNotBlock(t *testing.T) {
	store := defaultStore(t, adjustments{})
	store.adjustInventarioFn = func(ctx context.Context, arg database.AdjustInventarioParams) (int64, error) {
		return 0, errors.New("disk full")
	}

	svc, tx, rec := newTestService(store)
	order, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		TableNumber: 2,
		Items:       []domain.Item{makeItem("Pollo a la Parrilla", "15.00")},
	})
	if err != nil {
		t.Fatalf("decrement failure must not fail the order: %v", err)
	}
	if order == nil || !tx.committed {
		t.Fatal("expected the order to be committed")
	}
	for _, e := range rec.events {
		if e.Type == enum.EventStockUpdated {
			t.Error("no stock event expected when nothing changed")
		}
	}
}

func TestCreateOrder_DigitalTableGetsAppNumber(t *testing.T) {
	store := defaultStore(t, adjustments{})
	store.getNextNumeroAppFn = func(ctx context.Context) (int32, error) { return 3, nil }

	svc, _, _ := newTestService(store)
	order, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		TableNumber: enum.DigitalTableNumber,
		Items:       []domain.Item{makeItem("Pasta", "11.99")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.AppNumber == nil || *order.AppNumber != 3 {
		t.Fatalf("expected numero_app 3, got %v", order.AppNumber)
	}
	if order.Title() != "Digital #003" {
		t.Errorf("expected title Digital #003, got %s", order.Title())
	}
}

func TestCreateOrder_RetryOnAppNumberConflict(t *testing.T) {
	store := defaultStore(t, adjustments{})
	create := store.createPedidoFn

	createCalls := 0
	store.createPedidoFn = func(ctx context.Context, arg database.CreatePedidoParams) (database.Pedido, error) {
		createCalls++
		if createCalls == 1 {
			return database.Pedido{}, &pgconn.PgError{Code: "23505", ConstraintName: "pedidos_numero_app_key"}
		}
		return create(ctx, arg)
	}
	numCalls := 0
	store.getNextNumeroAppFn = func(ctx context.Context) (int32, error) {
		numCalls++
		return int32(numCalls), nil
	}

	svc, _, _ := newTestService(store)
	order, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		TableNumber: enum.DigitalTableNumber,
		Items:       []domain.Item{makeItem("Pasta", "11.99")},
	})
	if err != nil {
		t.Fatalf("unexpected error after retry: %v", err)
	}
	if createCalls != 2 || numCalls != 2 {
		t.Errorf("expected 2 attempts, got create=%d numero_app=%d", createCalls, numCalls)
	}
	if *order.AppNumber != 2 {
		t.Errorf("expected numero_app from the second attempt, got %d", *order.AppNumber)
	}
}

func TestCreateOrder_RetryExhausted(t *testing.T) {
	store := defaultStore(t, adjustments{})
	calls := 0
	store.createPedidoFn = func(ctx context.Context, arg database.CreatePedidoParams) (database.Pedido, error) {
		calls++
		return database.Pedido{}, &pgconn.PgError{Code: "23505", ConstraintName: "pedidos_numero_app_key"}
	}

	svc, _, _ := newTestService(store)
	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		TableNumber: enum.DigitalTableNumber,
		Items:       []domain.Item{makeItem("Pasta", "11.99")},
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != maxOrderNumberRetries {
		t.Errorf("expected %d attempts, got %d", maxOrderNumberRetries, calls)
	}
}

func TestCreateOrder_TableConstraints(t *testing.T) {
	tests := []struct {
		name  string
		pgErr *pgconn.PgError
		want  error
	}{
		{"occupied", &pgconn.PgError{Code: "23505", ConstraintName: "pedidos_mesa_activa_key"}, domain.ErrTableOccupied},
		{"unknown table", &pgconn.PgError{Code: "23503", ConstraintName: "pedidos_mesa_numero_fkey"}, ErrTableNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := defaultStore(t, adjustments{})
			calls := 0
			store.createPedidoFn = func(ctx context.Context, arg database.CreatePedidoParams) (database.Pedido, error) {
				calls++
				return database.Pedido{}, tt.pgErr
			}
			svc, _, _ := newTestService(store)
			_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
				TableNumber: 3,
				Items:       []domain.Item{makeItem("Pasta", "11.99")},
			})
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if calls != 1 {
				t.Errorf("table errors must not be retried, got %d attempts", calls)
			}
		})
	}
}

// =====================
// UpdateOrder
// =====================

func TestUpdateOrder_ChargesOnlyNewItems(t *testing.T) {
	adj := adjustments{}
	store := defaultStore(t, adj)
	pollo := makeItem("Pollo a la Parrilla", "15.00")
	store.getPedidoForUpdateFn = func(ctx context.Context, id int64) (database.Pedido, error) {
		return pedido(t, id, 2, domain.StatusPending, 1, pollo), nil
	}
	var got database.UpdatePedidoParams
	update := store.updatePedidoFn
	store.updatePedidoFn = func(ctx context.Context, arg database.UpdatePedidoParams) (database.Pedido, error) {
		got = arg
		return update(ctx, arg)
	}

	svc, tx, _ := newTestService(store)
	_, err := svc.UpdateOrder(context.Background(), 5, UpdateOrderRequest{
		Items: []domain.Item{pollo, pollo},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if adj[polloID] != -1 {
		t.Errorf("expected only the new Pollo to be charged, got delta %d", adj[polloID])
	}
	if got.ItemsDescontados != 2 {
		t.Errorf("expected items_descontados 2, got %d", got.ItemsDescontados)
	}
	if got.MesaNumero != 2 || got.Estado != string(domain.StatusPending) {
		t.Errorf("unchanged fields must be kept, got %+v", got)
	}
	if !tx.committed {
		t.Error("expected commit")
	}
}

func TestUpdateOrder_ReconfirmDoesNotDecrementAgain(t *testing.T) {
	adj := adjustments{}
	store := defaultStore(t, adj)
	pollo := makeItem("Pollo a la Parrilla", "15.00")
	store.getPedidoForUpdateFn = func(ctx context.Context, id int64) (database.Pedido, error) {
		return pedido(t, id, 2, domain.StatusPending, 2, pollo, pollo), nil
	}

	svc, _, rec := newTestService(store)
	order, err := svc.UpdateOrder(context.Background(), 5, UpdateOrderRequest{Items: []domain.Item{pollo, pollo}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.ID != 5 {
		t.Errorf("identity must not change, got id %d", order.ID)
	}
	if len(adj) != 0 {
		t.Errorf("expected no inventory changes, got %v", adj)
	}
	if len(rec.events) != 1 || rec.events[0].Type != enum.EventOrderUpdated {
		t.Errorf("expected a single update event, got %v", rec.types())
	}
}

func TestUpdateOrder_ChargesReplacedItem(t *testing.T) {
	adj := adjustments{}
	store := defaultStore(t, adj)
	store.getPedidoForUpdateFn = func(ctx context.Context, id int64) (database.Pedido, error) {
		return pedido(t, id, 2, domain.StatusPending, 1, makeItem("Pasta", "11.99")), nil
	}
	var got database.UpdatePedidoParams
	update := store.updatePedidoFn
	store.updatePedidoFn = func(ctx context.Context, arg database.UpdatePedidoParams) (database.Pedido, error) {
		got = arg
		return update(ctx, arg)
	}

	svc, _, _ := newTestService(store)
	_, err := svc.UpdateOrder(context.Background(), 5, UpdateOrderRequest{
		Items: []domain.Item{makeItem("Pollo a la Parrilla", "15.00")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if adj[polloID] != -1 {
		t.Errorf("expected the replacing Pollo to be charged once, got delta %d", adj[polloID])
	}
	if got.ItemsDescontados != 1 {
		t.Errorf("expected items_descontados 1, got %d", got.ItemsDescontados)
	}
}

func TestUpdateOrder_ChargesAddedQuantity(t *testing.T) {
	adj := adjustments{}
	store := defaultStore(t, adj)
	pollo := makeItem("Pollo a la Parrilla", "15.00")
	store.getPedidoForUpdateFn = func(ctx context.Context, id int64) (database.Pedido, error) {
		return pedido(t, id, 2, domain.StatusPending, 1, pollo), nil
	}

	svc, _, _ := newTestService(store)
	triple := pollo
	triple.Quantity = 3
	if _, err := svc.UpdateOrder(context.Background(), 5, UpdateOrderRequest{Items: []domain.Item{triple}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if adj[polloID] != -2 {
		t.Errorf("expected the two extra units to be charged, got delta %d", adj[polloID])
	}
}

func TestUpdateOrder_NotFound(t *testing.T) {
	svc, _, _ := newTestService(defaultStore(t, adjustments{}))
	_, err := svc.UpdateOrder(context.Background(), 404, UpdateOrderRequest{Items: []domain.Item{makeItem("Pasta", "1")}})
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestUpdateOrder_StatusChange(t *testing.T) {
	store := defaultStore(t, adjustments{})
	store.getPedidoForUpdateFn = func(ctx context.Context, id int64) (database.Pedido, error) {
		return pedido(t, id, 2, domain.StatusPending, 1, makeItem("Pasta", "1")), nil
	}
	svc, _, _ := newTestService(store)

	order, err := svc.UpdateOrder(context.Background(), 5, UpdateOrderRequest{
		Status: "En preparación",
		Items:  []domain.Item{makeItem("Pasta", "1")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Status != domain.StatusPreparing {
		t.Errorf("expected En preparacion, got %s", order.Status)
	}

	_, err = svc.UpdateOrder(context.Background(), 5, UpdateOrderRequest{
		Status: "Pagado",
		Items:  []domain.Item{makeItem("Pasta", "1")},
	})
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	_, err = svc.UpdateOrder(context.Background(), 5, UpdateOrderRequest{
		Status: "Cancelado",
		Items:  []domain.Item{makeItem("Pasta", "1")},
	})
	if !errors.Is(err, domain.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestUpdateOrder_TableMove(t *testing.T) {
	store := defaultStore(t, adjustments{})
	store.getPedidoForUpdateFn = func(ctx context.Context, id int64) (database.Pedido, error) {
		return pedido(t, id, 2, domain.StatusPending, 1, makeItem("Pasta", "1")), nil
	}
	svc, _, _ := newTestService(store)

	four := 4
	order, err := svc.UpdateOrder(context.Background(), 5, UpdateOrderRequest{
		TableNumber: &four,
		Items:       []domain.Item{makeItem("Pasta", "1")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.TableNumber != 4 {
		t.Errorf("expected table 4, got %d", order.TableNumber)
	}

	digital := enum.DigitalTableNumber
	_, err = svc.UpdateOrder(context.Background(), 5, UpdateOrderRequest{
		TableNumber: &digital,
		Items:       []domain.Item{makeItem("Pasta", "1")},
	})
	if !errors.Is(err, ErrTableMove) {
		t.Fatalf("expected ErrTableMove, got %v", err)
	}

	store.updatePedidoFn = func(ctx context.Context, arg database.UpdatePedidoParams) (database.Pedido, error) {
		return database.Pedido{}, &pgconn.PgError{Code: "23505", ConstraintName: "pedidos_mesa_activa_key"}
	}
	_, err = svc.UpdateOrder(context.Background(), 5, UpdateOrderRequest{
		TableNumber: &four,
		Items:       []domain.Item{makeItem("Pasta", "1")},
	})
	if !errors.Is(err, domain.ErrTableOccupied) {
		t.Fatalf("expected ErrTableOccupied, got %v", err)
	}
}

// =====================
// RemoveLastItem
// =====================

func TestRemoveLastItem(t *testing.T) {
	store := defaultStore(t, adjustments{})
	a, b, c := makeItem("A", "1"), makeItem("B", "1"), makeItem("C", "1")
	store.getPedidoForUpdateFn = func(ctx context.Context, id int64) (database.Pedido, error) {
		return pedido(t, id, 3, domain.StatusPending, 3, a, b, c), nil
	}
	var got database.UpdatePedidoParams
	update := store.updatePedidoFn
	store.updatePedidoFn = func(ctx context.Context, arg database.UpdatePedidoParams) (database.Pedido, error) {
		got = arg
		return update(ctx, arg)
	}

	svc, _, _ := newTestService(store)
	order, err := svc.RemoveLastItem(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order.Items) != 2 || order.Items[0].Name != "A" || order.Items[1].Name != "B" {
		t.Errorf("expected [A B], got %+v", order.Items)
	}
	if got.ItemsDescontados != 2 {
		t.Errorf("expected items_descontados clamped to 2, got %d", got.ItemsDescontados)
	}
}

func TestRemoveLastItem_Empty(t *testing.T) {
	store := defaultStore(t, adjustments{})
	store.getPedidoForUpdateFn = func(ctx context.Context, id int64) (database.Pedido, error) {
		return pedido(t, id, 3, domain.StatusPending, 0), nil
	}
	store.updatePedidoFn = func(ctx context.Context, arg database.UpdatePedidoParams) (database.Pedido, error) {
		t.Fatal("empty order must not be written")
		return database.Pedido{}, nil
	}

	svc, _, _ := newTestService(store)
	_, err := svc.RemoveLastItem(context.Background(), 1)
	if !errors.Is(err, domain.ErrEmptyOrder) {
		t.Fatalf("expected ErrEmptyOrder, got %v", err)
	}
}

func TestRemoveLastItem_NotFound(t *testing.T) {
	svc, _, _ := newTestService(defaultStore(t, adjustments{}))
	_, err := svc.RemoveLastItem(context.Background(), 1)
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

// =====================
// SetStatus
// =====================

func TestSetStatus(t *testing.T) {
	store := defaultStore(t, adjustments{})
	store.getPedidoFn = func(ctx context.Context, id int64) (database.Pedido, error) {
		return pedido(t, id, 3, domain.StatusPreparing, 1, makeItem("Pasta", "1")), nil
	}
	var got database.UpdatePedidoEstadoParams
	setStatus := store.updatePedidoEstadoFn
	store.updatePedidoEstadoFn = func(ctx context.Context, arg database.UpdatePedidoEstadoParams) (database.Pedido, error) {
		got = arg
		return setStatus(ctx, arg)
	}

	svc, _, rec := newTestService(store)
	order, err := svc.SetStatus(context.Background(), 1, "Listo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Status != domain.StatusReady {
		t.Errorf("expected Listo, got %s", order.Status)
	}
	if got.Estado_2 != string(domain.StatusPreparing) {
		t.Errorf("expected compare-and-set on En preparacion, got %q", got.Estado_2)
	}
	if len(rec.events) != 1 || rec.events[0].Type != enum.EventOrderStatus {
		t.Errorf("expected one %s event, got %v", enum.EventOrderStatus, rec.types())
	}
}

func TestSetStatus_SameStatusIsNoop(t *testing.T) {
	store := defaultStore(t, adjustments{})
	store.getPedidoFn = func(ctx context.Context, id int64) (database.Pedido, error) {
		return pedido(t, id, 3, domain.StatusPending, 1, makeItem("Pasta", "1")), nil
	}
	store.updatePedidoEstadoFn = func(ctx context.Context, arg database.UpdatePedidoEstadoParams) (database.Pedido, error) {
		t.Fatal("no write expected when the status does not change")
		return database.Pedido{}, nil
	}

	svc, _, rec := newTestService(store)
	for _, raw := range []string{"Pendiente", " Pendiente "} {
		order, err := svc.SetStatus(context.Background(), 1, raw)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", raw, err)
		}
		if order.ID != 1 || order.Status != domain.StatusPending || len(order.Items) != 1 {
			t.Errorf("%q: expected the stored order back, got %+v", raw, order)
		}
	}
	if len(rec.events) != 0 {
		t.Errorf("expected no events, got %v", rec.types())
	}
}

func TestSetStatus_Errors(t *testing.T) {
	store := defaultStore(t, adjustments{})
	store.getPedidoFn = func(ctx context.Context, id int64) (database.Pedido, error) {
		if id == 404 {
			return database.Pedido{}, pgx.ErrNoRows
		}
		return pedido(t, id, 3, domain.StatusPending, 1, makeItem("Pasta", "1")), nil
	}
	store.updatePedidoEstadoFn = func(ctx context.Context, arg database.UpdatePedidoEstadoParams) (database.Pedido, error) {
		return database.Pedido{}, pgx.ErrNoRows
	}
	svc, _, _ := newTestService(store)

	tests := []struct {
		name   string
		id     int64
		status string
		want   error
	}{
		{"invalid status", 1, "Cancelado", domain.ErrInvalidStatus},
		{"missing order", 404, "En preparacion", ErrOrderNotFound},
		{"skipped step", 1, "Listo", domain.ErrInvalidTransition},
		{"concurrent change", 1, "En preparacion", ErrStatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SetStatus(context.Background(), tt.id, tt.status)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

// =====================
// Pay
// =====================

func TestPay(t *testing.T) {
	store := defaultStore(t, adjustments{})
	store.getPedidoFn = func(ctx context.Context, id int64) (database.Pedido, error) {
		return pedido(t, id, 3, domain.StatusReady, 2, makeItem("Pasta", "11.99"), makeItem("Limonada", "2.50")), nil
	}
	var got database.PayPedidoParams
	pay := store.payPedidoFn
	store.payPedidoFn = func(ctx context.Context, arg database.PayPedidoParams) (database.Pedido, error) {
		got = arg
		return pay(ctx, arg)
	}

	svc, _, rec := newTestService(store)
	res, err := svc.Pay(context.Background(), 1, PayRequest{Method: "Efectivo", Amount: decimal.NewFromInt(20)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Change.Equal(decimal.RequireFromString("5.51")) {
		t.Errorf("expected change 5.51, got %s", res.Change)
	}
	if res.Order.Status != domain.StatusPaid || res.Order.PaymentMethod != "Efectivo" {
		t.Errorf("unexpected paid order: %+v", res.Order)
	}
	if got.Estado != string(domain.StatusReady) {
		t.Errorf("expected compare-and-set on Listo, got %q", got.Estado)
	}
	if !NumericToDecimal(got.MontoRecibido).Equal(decimal.NewFromInt(20)) {
		t.Errorf("expected monto_recibido 20, got %v", got.MontoRecibido)
	}
	if len(rec.events) != 1 || rec.events[0].Type != enum.EventOrderPaid {
		t.Errorf("expected one %s event, got %v", enum.EventOrderPaid, rec.types())
	}
}

func TestPay_Errors(t *testing.T) {
	store := defaultStore(t, adjustments{})
	store.getPedidoFn = func(ctx context.Context, id int64) (database.Pedido, error) {
		status := domain.StatusReady
		if id == 2 {
			status = domain.StatusPaid
		}
		return pedido(t, id, 3, status, 1, makeItem("Pasta", "11.99")), nil
	}
	svc, _, _ := newTestService(store)

	tests := []struct {
		name string
		id   int64
		req  PayRequest
		want error
	}{
		{"bad method", 1, PayRequest{Method: "Cheque", Amount: decimal.NewFromInt(20)}, ErrInvalidPaymentMethod},
		{"short amount", 1, PayRequest{Method: "Tarjeta", Amount: decimal.NewFromInt(10)}, ErrInsufficientPayment},
		{"already paid", 2, PayRequest{Method: "QR", Amount: decimal.NewFromInt(20)}, domain.ErrInvalidTransition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Pay(context.Background(), tt.id, tt.req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

// =====================
// DeleteOrder
// =====================

func TestDeleteOrder(t *testing.T) {
	store := defaultStore(t, adjustments{})
	store.deletePedidoFn = func(ctx context.Context, id int64) (int64, error) {
		if id == 1 {
			return 1, nil
		}
		return 0, nil
	}
	svc, _, rec := newTestService(store)

	if err := svc.DeleteOrder(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.events) != 1 || rec.events[0].Type != enum.EventOrderDeleted {
		t.Errorf("expected one %s event, got %v", enum.EventOrderDeleted, rec.types())
	}

	if err := svc.DeleteOrder(context.Background(), 2); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestBeginFailure(t *testing.T) {
	store := defaultStore(t, adjustments{})
	pool := &mockTxBeginner{err: errors.New("pool closed")}
	svc := NewOrderService(pool, func(db database.DBTX) OrderStore { return store }, nil)

	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		TableNumber: 1,
		Items:       []domain.Item{makeItem("Pasta", "1")},
	})
	if err == nil {
		t.Fatal("expected error when the transaction cannot start")
	}
}

package handler_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/restaurantia/api/internal/database"
	"github.com/restaurantia/api/internal/enum"
	"github.com/restaurantia/api/internal/handler"
	"github.com/restaurantia/api/internal/seed"
	"github.com/restaurantia/api/internal/service"
	"github.com/shopspring/decimal"
)

// --- Mock store ---

type mockMenuStore struct {
	items     []database.MenuItem
	nextID    int64
	createErr error
}

func (m *mockMenuStore) ListMenuItems(_ context.Context) ([]database.MenuItem, error) {
	return m.items, nil
}

func (m *mockMenuStore) CreateMenuItem(_ context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error) {
	if m.createErr != nil {
		return database.MenuItem{}, m.createErr
	}
	for _, it := range m.items {
		if it.Nombre == arg.Nombre && it.Tipo == arg.Tipo {
			return database.MenuItem{}, &pgconn.PgError{Code: "23505"}
		}
	}
	m.nextID++
	item := database.MenuItem{ID: m.nextID, Nombre: arg.Nombre, Precio: arg.Precio, Tipo: arg.Tipo}
	m.items = append(m.items, item)
	return item, nil
}

func (m *mockMenuStore) DeleteMenuItem(_ context.Context, arg database.DeleteMenuItemParams) (int64, error) {
	for i, it := range m.items {
		if it.Nombre == arg.Nombre && it.Tipo == arg.Tipo {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (m *mockMenuStore) DeleteAllMenuItems(_ context.Context) error {
	m.items = nil
	return nil
}

func setupMenuRouter(store *mockMenuStore, pool *mockPool) *chi.Mux {
	defaults := func() ([]seed.MenuItem, error) {
		return []seed.MenuItem{
			{Name: "Teriyaki", Price: "130.00", Category: "Platillos"},
			{Name: "Coca-cola", Price: "35.00", Category: "Bebidas"},
		}, nil
	}
	h := handler.NewMenuHandler(store, pool, func(database.DBTX) seed.MenuStore { return store }, defaults)
	return newProtectedRouter(func(r chi.Router) {
		r.Route("/menu", h.RegisterRoutes)
	})
}

func menuItem(id int64, nombre, precio, tipo string) database.MenuItem {
	return database.MenuItem{
		ID:     id,
		Nombre: nombre,
		Precio: service.DecimalToNumeric(decimal.RequireFromString(precio)),
		Tipo:   tipo,
	}
}

// --- Tests ---

func TestMenuList(t *testing.T) {
	store := &mockMenuStore{items: []database.MenuItem{menuItem(1, "Pasta", "11.99", "Platillos")}}
	r := setupMenuRouter(store, &mockPool{})

	rr := doRequest(t, r, "GET", "/menu/items", nil, enum.UserRoleWaiter)
	expectStatus(t, rr, http.StatusOK)

	items := decodeList(t, rr)
	if len(items) != 1 {
		t.Fatalf("items: got %d, want 1", len(items))
	}
	if items[0]["precio"] != "11.99" {
		t.Errorf("precio: got %v, want \"11.99\"", items[0]["precio"])
	}
}

func TestMenuList_NoAuth(t *testing.T) {
	r := setupMenuRouter(&mockMenuStore{}, &mockPool{})

	rr := doRequest(t, r, "GET", "/menu/items", nil, "")
	expectStatus(t, rr, http.StatusUnauthorized)
}

func TestMenuCreate(t *testing.T) {
	store := &mockMenuStore{}
	r := setupMenuRouter(store, &mockPool{})

	rr := asAdmin(t, r, "POST", "/menu/items", map[string]interface{}{
		"nombre": " Flan ",
		"precio": "4.50",
		"tipo":   "Postres",
	})
	expectStatus(t, rr, http.StatusCreated)

	resp := decodeResponse(t, rr)
	if resp["nombre"] != "Flan" {
		t.Errorf("nombre: got %v, want Flan", resp["nombre"])
	}
	if resp["precio"] != "4.5" {
		t.Errorf("precio: got %v, want \"4.5\"", resp["precio"])
	}
}

func TestMenuCreate_Validation(t *testing.T) {
	r := setupMenuRouter(&mockMenuStore{}, &mockPool{})

	rr := asAdmin(t, r, "POST", "/menu/items", map[string]interface{}{
		"nombre": "Flan",
		"precio": "-1",
		"tipo":   "Postres",
	})
	expectStatus(t, rr, http.StatusBadRequest)

	fields, _ := decodeResponse(t, rr)["fields"].(map[string]interface{})
	if fields["precio"] != "gte" {
		t.Errorf("fields: got %v, want precio=gte", fields)
	}
}

func TestMenuCreate_Duplicate(t *testing.T) {
	store := &mockMenuStore{items: []database.MenuItem{menuItem(1, "Flan", "4.00", "Postres")}}
	r := setupMenuRouter(store, &mockPool{})

	rr := asAdmin(t, r, "POST", "/menu/items", map[string]interface{}{
		"nombre": "Flan",
		"precio": "4.00",
		"tipo":   "Postres",
	})
	expectStatus(t, rr, http.StatusConflict)
}

func TestMenuCreate_StoreError(t *testing.T) {
	r := setupMenuRouter(&mockMenuStore{createErr: errors.New("connection reset")}, &mockPool{})

	rr := asAdmin(t, r, "POST", "/menu/items", map[string]interface{}{
		"nombre": "Flan",
		"precio": "4.00",
		"tipo":   "Postres",
	})
	expectStatus(t, rr, http.StatusInternalServerError)
	if got := decodeResponse(t, rr)["error"]; got != "internal server error" {
		t.Errorf("error: got %v, want generic message", got)
	}
}

func TestMenuCreate_WaiterForbidden(t *testing.T) {
	r := setupMenuRouter(&mockMenuStore{}, &mockPool{})

	rr := doRequest(t, r, "POST", "/menu/items", map[string]interface{}{
		"nombre": "Flan",
		"precio": "4.00",
		"tipo":   "Postres",
	}, enum.UserRoleWaiter)
	expectStatus(t, rr, http.StatusForbidden)
}

func TestMenuDelete(t *testing.T) {
	store := &mockMenuStore{items: []database.MenuItem{menuItem(1, "Flan", "4.00", "Postres")}}
	r := setupMenuRouter(store, &mockPool{})

	rr := asAdmin(t, r, "DELETE", "/menu/items?nombre=Flan&tipo=Postres", nil)
	expectStatus(t, rr, http.StatusNoContent)
	if len(store.items) != 0 {
		t.Errorf("items: got %d, want 0", len(store.items))
	}

	rr = asAdmin(t, r, "DELETE", "/menu/items?nombre=Flan&tipo=Postres", nil)
	expectStatus(t, rr, http.StatusNotFound)

	rr = asAdmin(t, r, "DELETE", "/menu/items?nombre=Flan", nil)
	expectStatus(t, rr, http.StatusBadRequest)
}

func TestMenuInitialize(t *testing.T) {
	store := &mockMenuStore{items: []database.MenuItem{menuItem(1, "Viejo", "1.00", "Otros")}}
	pool := &mockPool{}
	r := setupMenuRouter(store, pool)

	rr := asAdmin(t, r, "POST", "/menu/inicializar", nil)
	expectStatus(t, rr, http.StatusOK)

	resp := decodeResponse(t, rr)
	if resp["items_insertados"] != float64(2) {
		t.Errorf("items_insertados: got %v, want 2", resp["items_insertados"])
	}
	if len(store.items) != 2 || store.items[0].Nombre != "Teriyaki" {
		t.Errorf("menu not replaced: %+v", store.items)
	}
	if pool.tx == nil || !pool.tx.committed {
		t.Error("expected the transaction to be committed")
	}
}

func TestMenuInitialize_CommitFailure(t *testing.T) {
	store := &mockMenuStore{}
	pool := &mockPool{}
	pool.beginFn = func(ctx context.Context) (pgx.Tx, error) {
		pool.tx = &mockTx{commitFn: func(context.Context) error { return errors.New("commit failed") }}
		return pool.tx, nil
	}
	r := setupMenuRouter(store, pool)

	rr := asAdmin(t, r, "POST", "/menu/inicializar", nil)
	expectStatus(t, rr, http.StatusInternalServerError)
	if !pool.tx.rolledBack {
		t.Error("expected rollback after failed commit")
	}
}

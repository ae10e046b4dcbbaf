package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/restaurantia/api/internal/database"
	"github.com/restaurantia/api/internal/domain"
	"github.com/restaurantia/api/internal/enum"
	"github.com/restaurantia/api/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStockStore struct {
	mu    sync.Mutex
	rows  []database.Inventario
	err   error
	calls int
}

func (f *fakeStockStore) ListLowStock(_ context.Context, threshold int32) ([]database.Inventario, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []database.Inventario
	for _, r := range f.rows {
		if r.CantidadDisponible <= threshold {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStockStore) set(rows ...database.Inventario) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = rows
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func stock(id int64, name string, qty int32) database.Inventario {
	return database.Inventario{ID: id, Nombre: name, CantidadDisponible: qty, UnidadMedida: "pieza"}
}

func TestCheck_PublishesOnChange(t *testing.T) {
	store := &fakeStockStore{}
	store.set(stock(1, "Pollo", 40), stock(2, "Aguacate", 3))
	rec := &recorder{}
	w := NewStockWatcher(store, rec, 5, time.Minute)
	ctx := context.Background()

	published, err := w.Check(ctx)
	require.NoError(t, err)
	assert.True(t, published)
	require.Len(t, rec.events, 1)
	assert.Equal(t, enum.TopicInventory, rec.events[0].Topic)
	assert.Equal(t, enum.EventStockLow, rec.events[0].Type)

	var items []domain.LowStock
	require.NoError(t, json.Unmarshal(rec.events[0].Payload, &items))
	assert.Equal(t, []domain.LowStock{{ID: 2, Name: "Aguacate", Available: 3, Unit: "pieza"}}, items)

	// Same set, no event.
	published, err = w.Check(ctx)
	require.NoError(t, err)
	assert.False(t, published)

	// Pollo drops below the threshold.
	store.set(stock(1, "Pollo", 2), stock(2, "Aguacate", 3))
	published, err = w.Check(ctx)
	require.NoError(t, err)
	assert.True(t, published)

	// Everything restocked: the empty set is published once.
	store.set(stock(1, "Pollo", 40), stock(2, "Aguacate", 30))
	published, err = w.Check(ctx)
	require.NoError(t, err)
	assert.True(t, published)
	published, err = w.Check(ctx)
	require.NoError(t, err)
	assert.False(t, published)
	assert.Equal(t, 3, rec.count())
}

func TestCheck_EmptyAtStartIsQuiet(t *testing.T) {
	store := &fakeStockStore{}
	store.set(stock(1, "Arroz", 60))
	rec := &recorder{}

	published, err := NewStockWatcher(store, rec, 5, time.Minute).Check(context.Background())
	require.NoError(t, err)
	assert.False(t, published)
	assert.Zero(t, rec.count())
}

func TestCheck_StoreError(t *testing.T) {
	store := &fakeStockStore{err: errors.New("connection refused")}
	rec := &recorder{}

	_, err := NewStockWatcher(store, rec, 5, time.Minute).Check(context.Background())
	assert.ErrorContains(t, err, "connection refused")
	assert.Zero(t, rec.count())
}

func TestCheck_PublishErrorRetries(t *testing.T) {
	store := &fakeStockStore{}
	store.set(stock(1, "Camaron", 1))
	failing := events.PublisherFunc(func(context.Context, events.Event) error { return errors.New("broker down") })
	w := NewStockWatcher(store, failing, 5, time.Minute)

	_, err := w.Check(context.Background())
	require.Error(t, err)

	rec := &recorder{}
	w.publisher = rec
	published, err := w.Check(context.Background())
	require.NoError(t, err)
	assert.True(t, published, "a failed publish must be retried on the next check")
}

func TestRun_StopsOnCancel(t *testing.T) {
	store := &fakeStockStore{}
	store.set(stock(1, "Queso crema", 1))
	rec := &recorder{}
	w := NewStockWatcher(store, rec, 5, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return store.calls >= 3
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, 1, rec.count())
}

// Package worker runs background jobs of the API process.
package worker

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/restaurantia/api/internal/database"
	"github.com/restaurantia/api/internal/domain"
	"github.com/restaurantia/api/internal/enum"
	"github.com/restaurantia/api/internal/events"
	"github.com/rs/zerolog/log"
)

// LowStockStore is satisfied by *database.Queries.
type LowStockStore interface {
	ListLowStock(ctx context.Context, threshold int32) ([]database.Inventario, error)
}

// StockWatcher polls inventory and publishes EventStockLow on TopicInventory
// whenever the set of items at or below the threshold changes.
type StockWatcher struct {
	store     LowStockStore
	publisher events.Publisher
	threshold int
	interval  time.Duration

	last []int64
}

func NewStockWatcher(store LowStockStore, publisher events.Publisher, threshold int, interval time.Duration) *StockWatcher {
	return &StockWatcher{store: store, publisher: publisher, threshold: threshold, interval: interval}
}

// Run checks once immediately and then on every tick until ctx is cancelled.
func (w *StockWatcher) Run(ctx context.Context) {
	if _, err := w.Check(ctx); err != nil {
		log.Warn().Err(err).Msg("stock watcher: check failed")
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("stock watcher: shutting down")
			return
		case <-ticker.C:
			if _, err := w.Check(ctx); err != nil {
				log.Warn().Err(err).Msg("stock watcher: check failed")
			}
		}
	}
}

// Check reads the low-stock items and publishes them if the set differs from
// the previous check. It reports whether an event was published.
func (w *StockWatcher) Check(ctx context.Context) (bool, error) {
	rows, err := w.store.ListLowStock(ctx, int32(w.threshold))
	if err != nil {
		return false, fmt.Errorf("list low stock: %w", err)
	}

	ids := make([]int64, len(rows))
	items := make([]domain.LowStock, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
		items[i] = domain.LowStock{
			ID:        row.ID,
			Name:      row.Nombre,
			Available: int(row.CantidadDisponible),
			Unit:      row.UnidadMedida,
		}
	}
	slices.Sort(ids)
	if slices.Equal(ids, w.last) {
		return false, nil
	}

	e, err := events.New(enum.TopicInventory, enum.EventStockLow, items)
	if err != nil {
		return false, err
	}
	if err := w.publisher.Publish(ctx, e); err != nil {
		return false, fmt.Errorf("publish low stock: %w", err)
	}
	w.last = ids

	log.Info().Int("items", len(items)).Int("threshold", w.threshold).Msg("stock watcher: low stock changed")
	return true, nil
}

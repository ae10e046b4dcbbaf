package service

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/restaurantia/api/internal/database"
	"github.com/restaurantia/api/internal/domain"
	"github.com/rs/zerolog/log"
)

// RecipeStore defines the DB methods the inventory decrement needs.
// Satisfied by *database.Queries; narrow interface for testability.
type RecipeStore interface {
	ListRecetaIngredientesByNombre(ctx context.Context, nombre string) ([]database.ListRecetaIngredientesByNombreRow, error)
	AdjustInventario(ctx context.Context, arg database.AdjustInventarioParams) (int64, error)
}

// DecrementInventory subtracts the recipe ingredients of every item from
// stock. Items without a recipe are ignored. Each item runs in its own
// savepoint: a failing item is logged and skipped so the order itself still
// commits. It returns the ids of the inventory rows that changed.
func DecrementInventory(ctx context.Context, tx pgx.Tx, newStore func(db database.DBTX) RecipeStore, items []domain.Item) []int64 {
	var touched []int64
	for _, it := range items {
		ids, err := decrementItem(ctx, tx, newStore, it)
		if err != nil {
			log.Warn().Err(err).Str("item", it.Name).Msg("inventory decrement skipped")
			continue
		}
		touched = append(touched, ids...)
	}
	return touched
}

func decrementItem(ctx context.Context, tx pgx.Tx, newStore func(db database.DBTX) RecipeStore, it domain.Item) ([]int64, error) {
	sp, err := tx.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer sp.Rollback(ctx) //nolint:errcheck

	store := newStore(sp)
	ingredients, err := store.ListRecetaIngredientesByNombre(ctx, it.Name)
	if err != nil {
		return nil, err
	}

	var ids []int64
	for _, ing := range ingredients {
		n, err := store.AdjustInventario(ctx, database.AdjustInventarioParams{
			ID:    ing.IngredienteID,
			Delta: -ing.CantidadNecesaria * int32(it.Units()),
		})
		if err != nil {
			return nil, err
		}
		if n > 0 {
			ids = append(ids, ing.IngredienteID)
		}
	}

	if err := sp.Commit(ctx); err != nil {
		return nil, err
	}
	return ids, nil
}

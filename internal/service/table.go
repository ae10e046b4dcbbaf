package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/restaurantia/api/internal/database"
	"github.com/restaurantia/api/internal/domain"
	"github.com/restaurantia/api/internal/enum"
	"github.com/rs/zerolog/log"
)

var ErrInvalidCapacity = errors.New("capacidad must be > 0")

// TableStore defines the DB methods needed by the table registry.
// Satisfied by *database.Queries; narrow interface for testability.
type TableStore interface {
	ListMesas(ctx context.Context) ([]database.Mesa, error)
	GetMesa(ctx context.Context, numero int32) (database.Mesa, error)
	CountActivePedidosByMesa(ctx context.Context, mesaNumero int32) (int64, error)
	ListPedidosByEstados(ctx context.Context, estados []string) ([]database.Pedido, error)
	UpdateMesaCapacidad(ctx context.Context, arg database.UpdateMesaCapacidadParams) (database.Mesa, error)
}

// TableService derives table occupancy from the active orders.
type TableService struct {
	store TableStore
}

func NewTableService(store TableStore) *TableService {
	return &TableService{store: store}
}

// ListTables returns every table with its occupancy. When the registry cannot
// be read it falls back to DefaultTables, all free, and reports degraded=true.
func (s *TableService) ListTables(ctx context.Context) (tables []domain.Table, degraded bool) {
	tables, err := s.listTables(ctx)
	if err != nil {
		log.Error().Err(err).Msg("list tables, serving default floor plan")
		return domain.DefaultTables(), true
	}
	return tables, false
}

func (s *TableService) listTables(ctx context.Context) ([]domain.Table, error) {
	mesas, err := s.store.ListMesas(ctx)
	if err != nil {
		return nil, fmt.Errorf("list mesas: %w", err)
	}
	active, err := s.store.ListPedidosByEstados(ctx, domain.ActiveStatuses())
	if err != nil {
		return nil, fmt.Errorf("list active orders: %w", err)
	}

	// Occupancy only needs table and status, so items are not decoded.
	orders := make([]domain.Order, len(active))
	for i, p := range active {
		orders[i] = domain.Order{TableNumber: int(p.MesaNumero), Status: domain.Status(p.Estado)}
	}

	tables := make([]domain.Table, len(mesas))
	for i, m := range mesas {
		tables[i] = tableFromRow(m)
	}
	return domain.WithOccupancy(tables, orders), nil
}

// Occupancy reports whether a table has an active order.
func (s *TableService) Occupancy(ctx context.Context, number int) (bool, error) {
	if number == enum.DigitalTableNumber {
		return false, nil
	}
	if _, err := s.store.GetMesa(ctx, int32(number)); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrTableNotFound
		}
		return false, fmt.Errorf("get mesa: %w", err)
	}
	n, err := s.store.CountActivePedidosByMesa(ctx, int32(number))
	if err != nil {
		return false, fmt.Errorf("count active orders: %w", err)
	}
	return n > 0, nil
}

// UpdateCapacity changes how many guests a table seats.
func (s *TableService) UpdateCapacity(ctx context.Context, number, capacity int) (*domain.Table, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	m, err := s.store.UpdateMesaCapacidad(ctx, database.UpdateMesaCapacidadParams{
		Numero:    int32(number),
		Capacidad: int32(capacity),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTableNotFound
		}
		return nil, fmt.Errorf("update capacity: %w", err)
	}
	occupied, err := s.Occupancy(ctx, number)
	if err != nil {
		return nil, err
	}
	t := tableFromRow(m)
	t.Occupied = occupied
	return &t, nil
}

func tableFromRow(m database.Mesa) domain.Table {
	return domain.Table{
		Number:   int(m.Numero),
		Capacity: int(m.Capacidad),
		Virtual:  m.EsVirtual,
	}
}

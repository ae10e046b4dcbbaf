// Package terminal holds the session logic of a waiter screen: pick a table,
// seat a group, build the order locally and confirm it to the ledger.
package terminal

import (
	"context"
	"errors"
	"fmt"

	"github.com/restaurantia/api/internal/client"
	"github.com/restaurantia/api/internal/domain"
)

var (
	ErrNoTable          = errors.New("no table selected")
	ErrNoOrder          = errors.New("no order in progress")
	ErrUnknownTable     = errors.New("table does not exist")
	ErrInvalidGroupSize = errors.New("group size must be > 0")
)

// API is the part of the POS API a station uses. Satisfied by *client.Client.
type API interface {
	ListTables(ctx context.Context) ([]domain.Table, bool, error)
	CreateOrder(ctx context.Context, in client.OrderInput) (*domain.Order, error)
	UpdateOrder(ctx context.Context, id int64, in client.OrderInput) (*domain.Order, error)
	RemoveLastItem(ctx context.Context, id int64) (*domain.Order, error)
}

// Station is one waiter screen. It is not safe for concurrent use.
type Station struct {
	api   API
	table *domain.Table
	order *domain.Order
}

func NewStation(api API) *Station {
	return &Station{api: api}
}

// Table returns the selected table, or nil.
func (s *Station) Table() *domain.Table { return s.table }

// Order returns the order being edited, or nil.
func (s *Station) Order() *domain.Order { return s.order }

// SelectTable loads table number with its current occupancy and drops any
// order in progress.
func (s *Station) SelectTable(ctx context.Context, number int) error {
	tables, _, err := s.api.ListTables(ctx)
	if err != nil {
		return fmt.Errorf("list tables: %w", err)
	}
	for _, t := range tables {
		if t.Number == number {
			t := t
			s.table = &t
			s.order = nil
			return nil
		}
	}
	return fmt.Errorf("%w: %d", ErrUnknownTable, number)
}

// AssignTable seats a group at the selected table and starts a draft order.
// The draft exists only on this station until Confirm.
func (s *Station) AssignTable(groupSize int) (*domain.Order, error) {
	if s.table == nil {
		return nil, ErrNoTable
	}
	if groupSize < 1 {
		return nil, ErrInvalidGroupSize
	}
	if err := s.table.CanSeat(groupSize); err != nil {
		return nil, err
	}
	s.order = domain.NewDraft(s.table.Number, groupSize)
	return s.order, nil
}

// AddItem adds quantity units of item. A persisted order is rewritten on the
// server right away.
func (s *Station) AddItem(ctx context.Context, item domain.Item, quantity int) error {
	if s.order == nil {
		return ErrNoOrder
	}
	if !s.order.Persisted() {
		return s.order.AddItem(item, quantity)
	}

	next := *s.order
	next.Items = append([]domain.Item(nil), s.order.Items...)
	if err := next.AddItem(item, quantity); err != nil {
		return err
	}
	updated, err := s.api.UpdateOrder(ctx, next.ID, inputOf(&next))
	if err != nil {
		return fmt.Errorf("update order %d: %w", next.ID, err)
	}
	s.order = updated
	return nil
}

// RemoveLastItem drops the newest item. It reports false when the order had
// no items.
func (s *Station) RemoveLastItem(ctx context.Context) (bool, error) {
	if s.order == nil {
		return false, ErrNoOrder
	}
	if len(s.order.Items) == 0 {
		return false, nil
	}
	if !s.order.Persisted() {
		return s.order.RemoveLastItem(), nil
	}

	updated, err := s.api.RemoveLastItem(ctx, s.order.ID)
	if err != nil {
		return false, fmt.Errorf("remove last item of order %d: %w", s.order.ID, err)
	}
	s.order = updated
	return true, nil
}

// Confirm sends the order to the kitchen. A draft is created; a persisted
// order is rewritten and keeps its id. An empty order returns ErrEmptyOrder
// and nothing is sent.
func (s *Station) Confirm(ctx context.Context, notes string) (*domain.Order, error) {
	if s.order == nil {
		return nil, ErrNoOrder
	}
	if len(s.order.Items) == 0 {
		return nil, domain.ErrEmptyOrder
	}

	in := inputOf(s.order)
	in.Notes = notes

	var (
		saved *domain.Order
		err   error
	)
	if s.order.Persisted() {
		saved, err = s.api.UpdateOrder(ctx, s.order.ID, in)
	} else {
		saved, err = s.api.CreateOrder(ctx, in)
	}
	if err != nil {
		return nil, fmt.Errorf("confirm order: %w", err)
	}
	s.order = saved
	if s.table != nil && !s.table.Virtual {
		s.table.Occupied = true
	}
	return saved, nil
}

func inputOf(o *domain.Order) client.OrderInput {
	return client.OrderInput{
		TableNumber: o.TableNumber,
		GroupSize:   o.GroupSize,
		Notes:       o.Notes,
		Items:       o.Items,
	}
}

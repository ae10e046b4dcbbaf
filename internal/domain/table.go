package domain

import (
	"errors"

	"github.com/restaurantia/api/internal/enum"
)

var (
	ErrTableOccupied = errors.New("table is occupied")
	ErrGroupTooLarge = errors.New("group exceeds table capacity")
)

// Table is a physical seat or the virtual digital channel. Occupied is
// derived from active orders and never stored.
type Table struct {
	Number   int  `json:"numero"`
	Capacity int  `json:"capacidad"`
	Virtual  bool `json:"es_virtual"`
	Occupied bool `json:"ocupada"`
}

// DefaultTables is the fallback floor plan used when the registry cannot be read.
func DefaultTables() []Table {
	return []Table{
		{Number: 1, Capacity: 2},
		{Number: 2, Capacity: 2},
		{Number: 3, Capacity: 4},
		{Number: 4, Capacity: 4},
		{Number: 5, Capacity: 6},
		{Number: 6, Capacity: 6},
		{Number: enum.DigitalTableNumber, Capacity: 1, Virtual: true},
	}
}

// Occupied reports whether any active order sits at the given table.
// The digital table is a queue, not a seat, so it is never occupied.
func Occupied(number int, orders []Order) bool {
	if number == enum.DigitalTableNumber {
		return false
	}
	for _, o := range orders {
		if o.TableNumber == number && o.Status.Active() {
			return true
		}
	}
	return false
}

// WithOccupancy returns a copy of tables with Occupied derived from orders.
func WithOccupancy(tables []Table, orders []Order) []Table {
	out := make([]Table, len(tables))
	for i, t := range tables {
		t.Occupied = Occupied(t.Number, orders)
		out[i] = t
	}
	return out
}

// CanSeat checks whether a new group can be assigned to the table.
func (t Table) CanSeat(groupSize int) error {
	if t.Virtual || t.Number == enum.DigitalTableNumber {
		return nil
	}
	if t.Occupied {
		return ErrTableOccupied
	}
	if groupSize > t.Capacity {
		return ErrGroupTooLarge
	}
	return nil
}

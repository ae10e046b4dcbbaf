package domain

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/restaurantia/api/internal/enum"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidQuantity = errors.New("cantidad must be > 0")
	ErrEmptyOrder      = errors.New("order has no items")
)

// Item is a single line entry of an order. Insertion order matters: the
// kitchen reads items in the order they were added.
type Item struct {
	Name     string          `json:"nombre" validate:"required"`
	Price    decimal.Decimal `json:"precio" validate:"gte=0"`
	Category string          `json:"tipo"`
	Quantity int             `json:"cantidad" validate:"gte=0"`
}

// Subtotal returns price * quantity. A zero quantity counts as one.
func (it Item) Subtotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Units())))
}

// Units is the effective quantity of the entry.
func (it Item) Units() int {
	if it.Quantity < 1 {
		return 1
	}
	return it.Quantity
}

// UnchargedItems returns the part of next that the charged items do not
// cover yet. Items are matched by name and counted in units, so a replaced or
// enlarged line yields only its new units. Charged units missing from next
// are dropped: removing an item never credits a later one.
func UnchargedItems(charged, next []Item) []Item {
	left := make(map[string]int, len(charged))
	for _, it := range charged {
		left[it.Name] += it.Units()
	}

	var pending []Item
	for _, it := range next {
		units := it.Units()
		covered := min(units, left[it.Name])
		left[it.Name] -= covered
		if extra := units - covered; extra > 0 {
			it.Quantity = extra
			pending = append(pending, it)
		}
	}
	return pending
}

// Order is a customer's itemized request for a table. ID is zero until the
// ledger persists it.
type Order struct {
	ID             int64               `json:"id"`
	TableNumber    int                 `json:"mesa_numero"`
	AppNumber      *int                `json:"numero_app"`
	Items          []Item              `json:"items"`
	Status         Status              `json:"estado"`
	Notes          string              `json:"notas"`
	GroupSize      int                 `json:"tamano_grupo"`
	ChargedItems   int                 `json:"items_descontados"`
	PaymentMethod  string              `json:"metodo_pago,omitempty"`
	AmountReceived decimal.NullDecimal `json:"monto_recibido"`
	CreatedAt      time.Time           `json:"fecha_hora"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// NewDraft starts an order that lives only on the terminal until confirmed.
func NewDraft(tableNumber, groupSize int) *Order {
	return &Order{
		TableNumber: tableNumber,
		GroupSize:   groupSize,
		Items:       []Item{},
		Status:      StatusDraft,
	}
}

// Persisted reports whether the ledger has assigned an id.
func (o *Order) Persisted() bool { return o.ID != 0 }

// ChargedLines returns the items already charged to inventory.
func (o *Order) ChargedLines() []Item {
	return o.Items[:min(max(o.ChargedItems, 0), len(o.Items))]
}

// IsDigital reports whether the order belongs to the virtual table.
func (o *Order) IsDigital() bool { return o.TableNumber == enum.DigitalTableNumber }

// AddItem appends quantity copies of item, each with quantity 1.
func (o *Order) AddItem(item Item, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	item.Quantity = 1
	for i := 0; i < quantity; i++ {
		o.Items = append(o.Items, item)
	}
	return nil
}

// RemoveLastItem pops the most recently added item. It returns false when
// there was nothing to remove.
func (o *Order) RemoveLastItem() bool {
	if len(o.Items) == 0 {
		return false
	}
	o.Items = o.Items[:len(o.Items)-1]
	return true
}

// Total sums the subtotal of every item.
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// Title is the label shown on kitchen and cashier screens.
func (o *Order) Title() string {
	if o.IsDigital() {
		if o.AppNumber != nil {
			return fmt.Sprintf("Digital #%03d", *o.AppNumber)
		}
		return "Digital"
	}
	return fmt.Sprintf("Mesa %d", o.TableNumber)
}

// KitchenQueue returns the orders still to be cooked, newest first.
func KitchenQueue(orders []Order) []Order {
	return filterNewestFirst(orders, func(s Status) bool {
		return s == StatusPending || s == StatusPreparing
	})
}

// CashierQueue returns the orders ready to be billed or already paid, newest first.
func CashierQueue(orders []Order) []Order {
	return filterNewestFirst(orders, func(s Status) bool {
		return s == StatusReady || s == StatusDelivered || s == StatusPaid
	})
}

func filterNewestFirst(orders []Order, keep func(Status) bool) []Order {
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		if keep(o.Status) && len(o.Items) > 0 {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

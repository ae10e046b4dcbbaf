package service

import (
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/restaurantia/api/internal/database"
	"github.com/restaurantia/api/internal/domain"
	"github.com/shopspring/decimal"
)

// OrderFromRow decodes a pedidos row into the domain order.
func OrderFromRow(p database.Pedido) (domain.Order, error) {
	items := []domain.Item{}
	if len(p.Items) > 0 {
		if err := json.Unmarshal(p.Items, &items); err != nil {
			return domain.Order{}, fmt.Errorf("decode items of order %d: %w", p.ID, err)
		}
		if items == nil {
			items = []domain.Item{}
		}
	}

	o := domain.Order{
		ID:           p.ID,
		TableNumber:  int(p.MesaNumero),
		Items:        items,
		Status:       domain.Status(p.Estado),
		Notes:        p.Notas,
		GroupSize:    int(p.TamanoGrupo),
		ChargedItems: int(p.ItemsDescontados),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if p.NumeroApp.Valid {
		n := int(p.NumeroApp.Int32)
		o.AppNumber = &n
	}
	if p.MetodoPago.Valid {
		o.PaymentMethod = p.MetodoPago.String
	}
	if p.MontoRecibido.Valid {
		o.AmountReceived = decimal.NewNullDecimal(numericToDecimal(p.MontoRecibido))
	}
	return o, nil
}

// OrdersFromRows decodes rows, stopping at the first malformed one.
func OrdersFromRows(rows []database.Pedido) ([]domain.Order, error) {
	orders := make([]domain.Order, 0, len(rows))
	for _, r := range rows {
		o, err := OrderFromRow(r)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}

// NumericToDecimal is exported for handlers that read NUMERIC columns directly.
func NumericToDecimal(n pgtype.Numeric) decimal.Decimal { return numericToDecimal(n) }

// DecimalToNumeric is exported for handlers that write NUMERIC columns directly.
func DecimalToNumeric(d decimal.Decimal) pgtype.Numeric { return decimalToNumeric(d) }

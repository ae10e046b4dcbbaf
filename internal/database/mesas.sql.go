package database

import (
	"context"
)

const countActivePedidosByMesa = `-- name: CountActivePedidosByMesa :one
SELECT COUNT(*) FROM pedidos
WHERE mesa_numero = $1 AND estado IN ('Pendiente', 'En preparacion', 'Listo')
`

func (q *Queries) CountActivePedidosByMesa(ctx context.Context, mesaNumero int32) (int64, error) {
	row := q.db.QueryRow(ctx, countActivePedidosByMesa, mesaNumero)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const getMesa = `-- name: GetMesa :one
SELECT numero, capacidad, es_virtual FROM mesas
WHERE numero = $1
`

func (q *Queries) GetMesa(ctx context.Context, numero int32) (Mesa, error) {
	row := q.db.QueryRow(ctx, getMesa, numero)
	var i Mesa
	err := row.Scan(&i.Numero, &i.Capacidad, &i.EsVirtual)
	return i, err
}

const listMesas = `-- name: ListMesas :many
SELECT numero, capacidad, es_virtual FROM mesas
ORDER BY numero
`

func (q *Queries) ListMesas(ctx context.Context) ([]Mesa, error) {
	rows, err := q.db.Query(ctx, listMesas)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Mesa{}
	for rows.Next() {
		var i Mesa
		if err := rows.Scan(&i.Numero, &i.Capacidad, &i.EsVirtual); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateMesaCapacidad = `-- name: UpdateMesaCapacidad :one
UPDATE mesas SET capacidad = $2
WHERE numero = $1
RETURNING numero, capacidad, es_virtual
`

type UpdateMesaCapacidadParams struct {
	Numero    int32 `json:"numero"`
	Capacidad int32 `json:"capacidad"`
}

func (q *Queries) UpdateMesaCapacidad(ctx context.Context, arg UpdateMesaCapacidadParams) (Mesa, error) {
	row := q.db.QueryRow(ctx, updateMesaCapacidad, arg.Numero, arg.Capacidad)
	var i Mesa
	err := row.Scan(&i.Numero, &i.Capacidad, &i.EsVirtual)
	return i, err
}

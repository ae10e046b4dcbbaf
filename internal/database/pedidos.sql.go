package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const pedidoColumns = `id, mesa_numero, numero_app, items, estado, notas, tamano_grupo, items_descontados, metodo_pago, monto_recibido, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanPedido(row scanner) (Pedido, error) {
	var i Pedido
	err := row.Scan(
		&i.ID,
		&i.MesaNumero,
		&i.NumeroApp,
		&i.Items,
		&i.Estado,
		&i.Notas,
		&i.TamanoGrupo,
		&i.ItemsDescontados,
		&i.MetodoPago,
		&i.MontoRecibido,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createPedido = `-- name: CreatePedido :one
INSERT INTO pedidos (mesa_numero, numero_app, items, estado, notas, tamano_grupo, items_descontados)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + pedidoColumns

type CreatePedidoParams struct {
	MesaNumero       int32       `json:"mesa_numero"`
	NumeroApp        pgtype.Int4 `json:"numero_app"`
	Items            []byte      `json:"items"`
	Estado           string      `json:"estado"`
	Notas            string      `json:"notas"`
	TamanoGrupo      int32       `json:"tamano_grupo"`
	ItemsDescontados int32       `json:"items_descontados"`
}

func (q *Queries) CreatePedido(ctx context.Context, arg CreatePedidoParams) (Pedido, error) {
	row := q.db.QueryRow(ctx, createPedido,
		arg.MesaNumero,
		arg.NumeroApp,
		arg.Items,
		arg.Estado,
		arg.Notas,
		arg.TamanoGrupo,
		arg.ItemsDescontados,
	)
	return scanPedido(row)
}

const deletePedido = `-- name: DeletePedido :execrows
DELETE FROM pedidos WHERE id = $1
`

func (q *Queries) DeletePedido(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.Exec(ctx, deletePedido, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const getNextNumeroApp = `-- name: GetNextNumeroApp :one
SELECT (COALESCE(MAX(numero_app), 0) + 1)::int FROM pedidos
`

func (q *Queries) GetNextNumeroApp(ctx context.Context) (int32, error) {
	row := q.db.QueryRow(ctx, getNextNumeroApp)
	var next int32
	err := row.Scan(&next)
	return next, err
}

const getPedido = `-- name: GetPedido :one
SELECT ` + pedidoColumns + ` FROM pedidos
WHERE id = $1
`

func (q *Queries) GetPedido(ctx context.Context, id int64) (Pedido, error) {
	return scanPedido(q.db.QueryRow(ctx, getPedido, id))
}

const getPedidoForUpdate = `-- name: GetPedidoForUpdate :one
SELECT ` + pedidoColumns + ` FROM pedidos
WHERE id = $1
FOR UPDATE
`

func (q *Queries) GetPedidoForUpdate(ctx context.Context, id int64) (Pedido, error) {
	return scanPedido(q.db.QueryRow(ctx, getPedidoForUpdate, id))
}

const listPedidosByEstados = `-- name: ListPedidosByEstados :many
SELECT ` + pedidoColumns + ` FROM pedidos
WHERE estado = ANY($1::text[])
ORDER BY created_at DESC
`

func (q *Queries) ListPedidosByEstados(ctx context.Context, estados []string) ([]Pedido, error) {
	rows, err := q.db.Query(ctx, listPedidosByEstados, estados)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Pedido{}
	for rows.Next() {
		i, err := scanPedido(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listPedidosForReport = `-- name: ListPedidosForReport :many
SELECT ` + pedidoColumns + ` FROM pedidos
WHERE estado = ANY($1::text[])
  AND ($2::timestamptz IS NULL OR created_at >= $2::timestamptz)
  AND ($3::timestamptz IS NULL OR created_at < $3::timestamptz)
ORDER BY created_at
`

type ListPedidosForReportParams struct {
	Estados   []string           `json:"estados"`
	StartDate pgtype.Timestamptz `json:"start_date"`
	EndDate   pgtype.Timestamptz `json:"end_date"`
}

func (q *Queries) ListPedidosForReport(ctx context.Context, arg ListPedidosForReportParams) ([]Pedido, error) {
	rows, err := q.db.Query(ctx, listPedidosForReport, arg.Estados, arg.StartDate, arg.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Pedido{}
	for rows.Next() {
		i, err := scanPedido(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const payPedido = `-- name: PayPedido :one
UPDATE pedidos
SET estado = 'Pagado', metodo_pago = $2, monto_recibido = $3, updated_at = now()
WHERE id = $1 AND estado = $4
RETURNING ` + pedidoColumns

type PayPedidoParams struct {
	ID            int64          `json:"id"`
	MetodoPago    pgtype.Text    `json:"metodo_pago"`
	MontoRecibido pgtype.Numeric `json:"monto_recibido"`
	Estado        string         `json:"estado"`
}

// PayPedido only succeeds while the order is still in the expected status.
func (q *Queries) PayPedido(ctx context.Context, arg PayPedidoParams) (Pedido, error) {
	row := q.db.QueryRow(ctx, payPedido, arg.ID, arg.MetodoPago, arg.MontoRecibido, arg.Estado)
	return scanPedido(row)
}

const updatePedido = `-- name: UpdatePedido :one
UPDATE pedidos
SET mesa_numero = $2, items = $3, estado = $4, notas = $5, tamano_grupo = $6,
    items_descontados = $7, updated_at = now()
WHERE id = $1
RETURNING ` + pedidoColumns

type UpdatePedidoParams struct {
	ID               int64  `json:"id"`
	MesaNumero       int32  `json:"mesa_numero"`
	Items            []byte `json:"items"`
	Estado           string `json:"estado"`
	Notas            string `json:"notas"`
	TamanoGrupo      int32  `json:"tamano_grupo"`
	ItemsDescontados int32  `json:"items_descontados"`
}

func (q *Queries) UpdatePedido(ctx context.Context, arg UpdatePedidoParams) (Pedido, error) {
	row := q.db.QueryRow(ctx, updatePedido,
		arg.ID,
		arg.MesaNumero,
		arg.Items,
		arg.Estado,
		arg.Notas,
		arg.TamanoGrupo,
		arg.ItemsDescontados,
	)
	return scanPedido(row)
}

const updatePedidoEstado = `-- name: UpdatePedidoEstado :one
UPDATE pedidos
SET estado = $2, updated_at = now()
WHERE id = $1 AND estado = $3
RETURNING ` + pedidoColumns

type UpdatePedidoEstadoParams struct {
	ID       int64  `json:"id"`
	Estado   string `json:"estado"`
	Estado_2 string `json:"estado_2"`
}

// UpdatePedidoEstado is a compare-and-set on the current status.
func (q *Queries) UpdatePedidoEstado(ctx context.Context, arg UpdatePedidoEstadoParams) (Pedido, error) {
	row := q.db.QueryRow(ctx, updatePedidoEstado, arg.ID, arg.Estado, arg.Estado_2)
	return scanPedido(row)
}

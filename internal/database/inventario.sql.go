package database

import (
	"context"
)

const inventarioColumns = `id, nombre, cantidad_disponible, unidad_medida, fecha_registro, fecha_actualizacion`

func scanInventario(row scanner) (Inventario, error) {
	var i Inventario
	err := row.Scan(
		&i.ID,
		&i.Nombre,
		&i.CantidadDisponible,
		&i.UnidadMedida,
		&i.FechaRegistro,
		&i.FechaActualizacion,
	)
	return i, err
}

func (q *Queries) collectInventario(ctx context.Context, sql string, args ...interface{}) ([]Inventario, error) {
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Inventario{}
	for rows.Next() {
		i, err := scanInventario(rows)
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

const addInventario = `-- name: AddInventario :one
INSERT INTO inventario (nombre, cantidad_disponible, unidad_medida)
VALUES ($1, $2, $3)
ON CONFLICT (nombre) DO UPDATE
SET cantidad_disponible = inventario.cantidad_disponible + EXCLUDED.cantidad_disponible,
    fecha_actualizacion = now()
RETURNING ` + inventarioColumns

type AddInventarioParams struct {
	Nombre             string `json:"nombre"`
	CantidadDisponible int32  `json:"cantidad_disponible"`
	UnidadMedida       string `json:"unidad_medida"`
}

// AddInventario creates the item or adds to its stock when the name exists.
func (q *Queries) AddInventario(ctx context.Context, arg AddInventarioParams) (Inventario, error) {
	row := q.db.QueryRow(ctx, addInventario, arg.Nombre, arg.CantidadDisponible, arg.UnidadMedida)
	return scanInventario(row)
}

const adjustInventario = `-- name: AdjustInventario :execrows
UPDATE inventario
SET cantidad_disponible = cantidad_disponible + $2, fecha_actualizacion = now()
WHERE id = $1
`

type AdjustInventarioParams struct {
	ID    int64 `json:"id"`
	Delta int32 `json:"delta"`
}

// AdjustInventario adds Delta (possibly negative) to the stock. No floor is applied.
func (q *Queries) AdjustInventario(ctx context.Context, arg AdjustInventarioParams) (int64, error) {
	result, err := q.db.Exec(ctx, adjustInventario, arg.ID, arg.Delta)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const deleteInventario = `-- name: DeleteInventario :execrows
DELETE FROM inventario WHERE id = $1
`

func (q *Queries) DeleteInventario(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.Exec(ctx, deleteInventario, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const ensureInventario = `-- name: EnsureInventario :one
INSERT INTO inventario (nombre, cantidad_disponible, unidad_medida)
VALUES ($1, 0, $2)
ON CONFLICT (nombre) DO UPDATE SET nombre = EXCLUDED.nombre
RETURNING ` + inventarioColumns

type EnsureInventarioParams struct {
	Nombre       string `json:"nombre"`
	UnidadMedida string `json:"unidad_medida"`
}

// EnsureInventario finds an item by name, creating it with zero stock if missing.
func (q *Queries) EnsureInventario(ctx context.Context, arg EnsureInventarioParams) (Inventario, error) {
	return scanInventario(q.db.QueryRow(ctx, ensureInventario, arg.Nombre, arg.UnidadMedida))
}

const getInventario = `-- name: GetInventario :one
SELECT ` + inventarioColumns + ` FROM inventario WHERE id = $1
`

func (q *Queries) GetInventario(ctx context.Context, id int64) (Inventario, error) {
	return scanInventario(q.db.QueryRow(ctx, getInventario, id))
}

const getInventarioByNombre = `-- name: GetInventarioByNombre :one
SELECT ` + inventarioColumns + ` FROM inventario WHERE nombre = $1
`

func (q *Queries) GetInventarioByNombre(ctx context.Context, nombre string) (Inventario, error) {
	return scanInventario(q.db.QueryRow(ctx, getInventarioByNombre, nombre))
}

const listInventario = `-- name: ListInventario :many
SELECT ` + inventarioColumns + ` FROM inventario ORDER BY nombre
`

func (q *Queries) ListInventario(ctx context.Context) ([]Inventario, error) {
	return q.collectInventario(ctx, listInventario)
}

const listLowStock = `-- name: ListLowStock :many
SELECT ` + inventarioColumns + ` FROM inventario
WHERE cantidad_disponible <= $1
ORDER BY cantidad_disponible, nombre
`

func (q *Queries) ListLowStock(ctx context.Context, threshold int32) ([]Inventario, error) {
	return q.collectInventario(ctx, listLowStock, threshold)
}

const updateInventario = `-- name: UpdateInventario :one
UPDATE inventario
SET nombre = $2, cantidad_disponible = $3, unidad_medida = $4, fecha_actualizacion = now()
WHERE id = $1
RETURNING ` + inventarioColumns

type UpdateInventarioParams struct {
	ID                 int64  `json:"id"`
	Nombre             string `json:"nombre"`
	CantidadDisponible int32  `json:"cantidad_disponible"`
	UnidadMedida       string `json:"unidad_medida"`
}

func (q *Queries) UpdateInventario(ctx context.Context, arg UpdateInventarioParams) (Inventario, error) {
	row := q.db.QueryRow(ctx, updateInventario, arg.ID, arg.Nombre, arg.CantidadDisponible, arg.UnidadMedida)
	return scanInventario(row)
}

package database

import (
	"context"
)

const applyConfiguracion = `-- name: ApplyConfiguracion :execrows
UPDATE inventario i
SET cantidad_disponible = i.cantidad_disponible + c.cantidad, fecha_actualizacion = now()
FROM (
    SELECT ingrediente_id, SUM(cantidad)::int AS cantidad
    FROM ingredientes_config
    WHERE configuracion_id = $1
    GROUP BY ingrediente_id
) c
WHERE c.ingrediente_id = i.id
`

// ApplyConfiguracion adds every quantity of the bundle to stock.
func (q *Queries) ApplyConfiguracion(ctx context.Context, configuracionID int64) (int64, error) {
	result, err := q.db.Exec(ctx, applyConfiguracion, configuracionID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const createConfiguracion = `-- name: CreateConfiguracion :one
INSERT INTO configuraciones (nombre, descripcion)
VALUES ($1, $2)
RETURNING id, nombre, descripcion, created_at
`

type CreateConfiguracionParams struct {
	Nombre      string `json:"nombre"`
	Descripcion string `json:"descripcion"`
}

func (q *Queries) CreateConfiguracion(ctx context.Context, arg CreateConfiguracionParams) (Configuracion, error) {
	row := q.db.QueryRow(ctx, createConfiguracion, arg.Nombre, arg.Descripcion)
	var i Configuracion
	err := row.Scan(&i.ID, &i.Nombre, &i.Descripcion, &i.CreatedAt)
	return i, err
}

const createIngredienteConfig = `-- name: CreateIngredienteConfig :one
INSERT INTO ingredientes_config (configuracion_id, ingrediente_id, cantidad, unidad)
VALUES ($1, $2, $3, $4)
RETURNING id, configuracion_id, ingrediente_id, cantidad, unidad
`

type CreateIngredienteConfigParams struct {
	ConfiguracionID int64  `json:"configuracion_id"`
	IngredienteID   int64  `json:"ingrediente_id"`
	Cantidad        int32  `json:"cantidad"`
	Unidad          string `json:"unidad"`
}

func (q *Queries) CreateIngredienteConfig(ctx context.Context, arg CreateIngredienteConfigParams) (IngredienteConfig, error) {
	row := q.db.QueryRow(ctx, createIngredienteConfig, arg.ConfiguracionID, arg.IngredienteID, arg.Cantidad, arg.Unidad)
	var i IngredienteConfig
	err := row.Scan(&i.ID, &i.ConfiguracionID, &i.IngredienteID, &i.Cantidad, &i.Unidad)
	return i, err
}

const deleteConfiguracion = `-- name: DeleteConfiguracion :execrows
DELETE FROM configuraciones WHERE id = $1
`

func (q *Queries) DeleteConfiguracion(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.Exec(ctx, deleteConfiguracion, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const getConfiguracion = `-- name: GetConfiguracion :one
SELECT id, nombre, descripcion, created_at FROM configuraciones WHERE id = $1
`

func (q *Queries) GetConfiguracion(ctx context.Context, id int64) (Configuracion, error) {
	row := q.db.QueryRow(ctx, getConfiguracion, id)
	var i Configuracion
	err := row.Scan(&i.ID, &i.Nombre, &i.Descripcion, &i.CreatedAt)
	return i, err
}

const listConfiguraciones = `-- name: ListConfiguraciones :many
SELECT id, nombre, descripcion, created_at FROM configuraciones ORDER BY nombre
`

func (q *Queries) ListConfiguraciones(ctx context.Context) ([]Configuracion, error) {
	rows, err := q.db.Query(ctx, listConfiguraciones)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Configuracion{}
	for rows.Next() {
		var i Configuracion
		if err := rows.Scan(&i.ID, &i.Nombre, &i.Descripcion, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listIngredientesByConfiguracion = `-- name: ListIngredientesByConfiguracion :many
SELECT ic.id, ic.configuracion_id, ic.ingrediente_id, i.nombre AS ingrediente_nombre,
       ic.cantidad, ic.unidad
FROM ingredientes_config ic
JOIN inventario i ON i.id = ic.ingrediente_id
WHERE ic.configuracion_id = $1
ORDER BY ic.id
`

type ListIngredientesByConfiguracionRow struct {
	ID                int64  `json:"id"`
	ConfiguracionID   int64  `json:"configuracion_id"`
	IngredienteID     int64  `json:"ingrediente_id"`
	IngredienteNombre string `json:"ingrediente_nombre"`
	Cantidad          int32  `json:"cantidad"`
	Unidad            string `json:"unidad"`
}

func (q *Queries) ListIngredientesByConfiguracion(ctx context.Context, configuracionID int64) ([]ListIngredientesByConfiguracionRow, error) {
	rows, err := q.db.Query(ctx, listIngredientesByConfiguracion, configuracionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ListIngredientesByConfiguracionRow{}
	for rows.Next() {
		var i ListIngredientesByConfiguracionRow
		if err := rows.Scan(
			&i.ID,
			&i.ConfiguracionID,
			&i.IngredienteID,
			&i.IngredienteNombre,
			&i.Cantidad,
			&i.Unidad,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

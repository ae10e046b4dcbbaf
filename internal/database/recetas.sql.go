package database

import (
	"context"
)

const createIngredienteReceta = `-- name: CreateIngredienteReceta :one
INSERT INTO ingredientes_recetas (receta_id, ingrediente_id, cantidad_necesaria, unidad)
VALUES ($1, $2, $3, $4)
RETURNING id, receta_id, ingrediente_id, cantidad_necesaria, unidad
`

type CreateIngredienteRecetaParams struct {
	RecetaID          int64  `json:"receta_id"`
	IngredienteID     int64  `json:"ingrediente_id"`
	CantidadNecesaria int32  `json:"cantidad_necesaria"`
	Unidad            string `json:"unidad"`
}

func (q *Queries) CreateIngredienteReceta(ctx context.Context, arg CreateIngredienteRecetaParams) (IngredienteReceta, error) {
	row := q.db.QueryRow(ctx, createIngredienteReceta, arg.RecetaID, arg.IngredienteID, arg.CantidadNecesaria, arg.Unidad)
	var i IngredienteReceta
	err := row.Scan(&i.ID, &i.RecetaID, &i.IngredienteID, &i.CantidadNecesaria, &i.Unidad)
	return i, err
}

const createReceta = `-- name: CreateReceta :one
INSERT INTO recetas (nombre, descripcion)
VALUES ($1, $2)
RETURNING id, nombre, descripcion, created_at
`

type CreateRecetaParams struct {
	Nombre      string `json:"nombre"`
	Descripcion string `json:"descripcion"`
}

func (q *Queries) CreateReceta(ctx context.Context, arg CreateRecetaParams) (Receta, error) {
	row := q.db.QueryRow(ctx, createReceta, arg.Nombre, arg.Descripcion)
	var i Receta
	err := row.Scan(&i.ID, &i.Nombre, &i.Descripcion, &i.CreatedAt)
	return i, err
}

const deleteReceta = `-- name: DeleteReceta :execrows
DELETE FROM recetas WHERE id = $1
`

func (q *Queries) DeleteReceta(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.Exec(ctx, deleteReceta, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const getReceta = `-- name: GetReceta :one
SELECT id, nombre, descripcion, created_at FROM recetas WHERE id = $1
`

func (q *Queries) GetReceta(ctx context.Context, id int64) (Receta, error) {
	row := q.db.QueryRow(ctx, getReceta, id)
	var i Receta
	err := row.Scan(&i.ID, &i.Nombre, &i.Descripcion, &i.CreatedAt)
	return i, err
}

const listIngredientesByReceta = `-- name: ListIngredientesByReceta :many
SELECT ir.id, ir.receta_id, ir.ingrediente_id, i.nombre AS ingrediente_nombre,
       ir.cantidad_necesaria, ir.unidad
FROM ingredientes_recetas ir
JOIN inventario i ON i.id = ir.ingrediente_id
WHERE ir.receta_id = $1
ORDER BY ir.id
`

type ListIngredientesByRecetaRow struct {
	ID                int64  `json:"id"`
	RecetaID          int64  `json:"receta_id"`
	IngredienteID     int64  `json:"ingrediente_id"`
	IngredienteNombre string `json:"ingrediente_nombre"`
	CantidadNecesaria int32  `json:"cantidad_necesaria"`
	Unidad            string `json:"unidad"`
}

func (q *Queries) ListIngredientesByReceta(ctx context.Context, recetaID int64) ([]ListIngredientesByRecetaRow, error) {
	rows, err := q.db.Query(ctx, listIngredientesByReceta, recetaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ListIngredientesByRecetaRow{}
	for rows.Next() {
		var i ListIngredientesByRecetaRow
		if err := rows.Scan(
			&i.ID,
			&i.RecetaID,
			&i.IngredienteID,
			&i.IngredienteNombre,
			&i.CantidadNecesaria,
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

const listRecetaIngredientesByNombre = `-- name: ListRecetaIngredientesByNombre :many
SELECT ir.ingrediente_id, ir.cantidad_necesaria
FROM ingredientes_recetas ir
JOIN recetas r ON r.id = ir.receta_id
WHERE r.nombre = $1
ORDER BY ir.id
`

type ListRecetaIngredientesByNombreRow struct {
	IngredienteID     int64 `json:"ingrediente_id"`
	CantidadNecesaria int32 `json:"cantidad_necesaria"`
}

// ListRecetaIngredientesByNombre resolves a menu item name to its recipe lines.
// An item without a recipe yields no rows.
func (q *Queries) ListRecetaIngredientesByNombre(ctx context.Context, nombre string) ([]ListRecetaIngredientesByNombreRow, error) {
	rows, err := q.db.Query(ctx, listRecetaIngredientesByNombre, nombre)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ListRecetaIngredientesByNombreRow{}
	for rows.Next() {
		var i ListRecetaIngredientesByNombreRow
		if err := rows.Scan(&i.IngredienteID, &i.CantidadNecesaria); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listRecetas = `-- name: ListRecetas :many
SELECT id, nombre, descripcion, created_at FROM recetas ORDER BY nombre
`

func (q *Queries) ListRecetas(ctx context.Context) ([]Receta, error) {
	rows, err := q.db.Query(ctx, listRecetas)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Receta{}
	for rows.Next() {
		var i Receta
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

package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createMenuItem = `-- name: CreateMenuItem :one
INSERT INTO menu (nombre, precio, tipo)
VALUES ($1, $2, $3)
RETURNING id, nombre, precio, tipo
`

type CreateMenuItemParams struct {
	Nombre string         `json:"nombre"`
	Precio pgtype.Numeric `json:"precio"`
	Tipo   string         `json:"tipo"`
}

func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, createMenuItem, arg.Nombre, arg.Precio, arg.Tipo)
	var i MenuItem
	err := row.Scan(&i.ID, &i.Nombre, &i.Precio, &i.Tipo)
	return i, err
}

const deleteAllMenuItems = `-- name: DeleteAllMenuItems :exec
DELETE FROM menu
`

func (q *Queries) DeleteAllMenuItems(ctx context.Context) error {
	_, err := q.db.Exec(ctx, deleteAllMenuItems)
	return err
}

const deleteMenuItem = `-- name: DeleteMenuItem :execrows
DELETE FROM menu
WHERE nombre = $1 AND tipo = $2
`

type DeleteMenuItemParams struct {
	Nombre string `json:"nombre"`
	Tipo   string `json:"tipo"`
}

func (q *Queries) DeleteMenuItem(ctx context.Context, arg DeleteMenuItemParams) (int64, error) {
	result, err := q.db.Exec(ctx, deleteMenuItem, arg.Nombre, arg.Tipo)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const listMenuItems = `-- name: ListMenuItems :many
SELECT id, nombre, precio, tipo FROM menu
ORDER BY tipo, nombre
`

func (q *Queries) ListMenuItems(ctx context.Context) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, listMenuItems)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []MenuItem{}
	for rows.Next() {
		var i MenuItem
		if err := rows.Scan(&i.ID, &i.Nombre, &i.Precio, &i.Tipo); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

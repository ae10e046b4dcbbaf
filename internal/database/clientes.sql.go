package database

import (
	"context"

	"github.com/google/uuid"
)

const createCliente = `-- name: CreateCliente :one
INSERT INTO clientes (nombre, domicilio, celular)
VALUES ($1, $2, $3)
RETURNING id, nombre, domicilio, celular, fecha_registro
`

type CreateClienteParams struct {
	Nombre    string `json:"nombre"`
	Domicilio string `json:"domicilio"`
	Celular   string `json:"celular"`
}

func (q *Queries) CreateCliente(ctx context.Context, arg CreateClienteParams) (Cliente, error) {
	row := q.db.QueryRow(ctx, createCliente, arg.Nombre, arg.Domicilio, arg.Celular)
	var i Cliente
	err := row.Scan(&i.ID, &i.Nombre, &i.Domicilio, &i.Celular, &i.FechaRegistro)
	return i, err
}

const deleteCliente = `-- name: DeleteCliente :execrows
DELETE FROM clientes WHERE id = $1
`

func (q *Queries) DeleteCliente(ctx context.Context, id uuid.UUID) (int64, error) {
	result, err := q.db.Exec(ctx, deleteCliente, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const listClientes = `-- name: ListClientes :many
SELECT id, nombre, domicilio, celular, fecha_registro FROM clientes
ORDER BY nombre
`

func (q *Queries) ListClientes(ctx context.Context) ([]Cliente, error) {
	rows, err := q.db.Query(ctx, listClientes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Cliente{}
	for rows.Next() {
		var i Cliente
		if err := rows.Scan(&i.ID, &i.Nombre, &i.Domicilio, &i.Celular, &i.FechaRegistro); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

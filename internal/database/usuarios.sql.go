package database

import (
	"context"

	"github.com/google/uuid"
)

const usuarioColumns = `id, email, nombre, password_hash, rol, is_active, created_at`

func scanUsuario(row scanner) (Usuario, error) {
	var i Usuario
	err := row.Scan(
		&i.ID,
		&i.Email,
		&i.Nombre,
		&i.PasswordHash,
		&i.Rol,
		&i.IsActive,
		&i.CreatedAt,
	)
	return i, err
}

const getUsuarioByEmail = `-- name: GetUsuarioByEmail :one
SELECT ` + usuarioColumns + ` FROM usuarios
WHERE email = $1 AND is_active = true
`

func (q *Queries) GetUsuarioByEmail(ctx context.Context, email string) (Usuario, error) {
	return scanUsuario(q.db.QueryRow(ctx, getUsuarioByEmail, email))
}

const getUsuarioByID = `-- name: GetUsuarioByID :one
SELECT ` + usuarioColumns + ` FROM usuarios
WHERE id = $1 AND is_active = true
`

func (q *Queries) GetUsuarioByID(ctx context.Context, id uuid.UUID) (Usuario, error) {
	return scanUsuario(q.db.QueryRow(ctx, getUsuarioByID, id))
}

const upsertUsuario = `-- name: UpsertUsuario :one
INSERT INTO usuarios (email, nombre, password_hash, rol)
VALUES ($1, $2, $3, $4)
ON CONFLICT (email) DO UPDATE
SET nombre = EXCLUDED.nombre, password_hash = EXCLUDED.password_hash, rol = EXCLUDED.rol, is_active = true
RETURNING ` + usuarioColumns

type UpsertUsuarioParams struct {
	Email        string `json:"email"`
	Nombre       string `json:"nombre"`
	PasswordHash string `json:"password_hash"`
	Rol          string `json:"rol"`
}

func (q *Queries) UpsertUsuario(ctx context.Context, arg UpsertUsuarioParams) (Usuario, error) {
	row := q.db.QueryRow(ctx, upsertUsuario, arg.Email, arg.Nombre, arg.PasswordHash, arg.Rol)
	return scanUsuario(row)
}

const listUsuarios = `-- name: ListUsuarios :many
SELECT ` + usuarioColumns + ` FROM usuarios
WHERE is_active = true
ORDER BY nombre
`

func (q *Queries) ListUsuarios(ctx context.Context) ([]Usuario, error) {
	rows, err := q.db.Query(ctx, listUsuarios)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Usuario
	for rows.Next() {
		i, err := scanUsuario(rows)
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

const createUsuario = `-- name: CreateUsuario :one
INSERT INTO usuarios (email, nombre, password_hash, rol)
VALUES ($1, $2, $3, $4)
RETURNING ` + usuarioColumns

type CreateUsuarioParams struct {
	Email        string `json:"email"`
	Nombre       string `json:"nombre"`
	PasswordHash string `json:"password_hash"`
	Rol          string `json:"rol"`
}

func (q *Queries) CreateUsuario(ctx context.Context, arg CreateUsuarioParams) (Usuario, error) {
	row := q.db.QueryRow(ctx, createUsuario, arg.Email, arg.Nombre, arg.PasswordHash, arg.Rol)
	return scanUsuario(row)
}

const updateUsuario = `-- name: UpdateUsuario :one
UPDATE usuarios
SET email = $2, nombre = $3, rol = $4,
    password_hash = COALESCE(NULLIF($5::text, ''), password_hash)
WHERE id = $1 AND is_active = true
RETURNING ` + usuarioColumns

// UpdateUsuarioParams leaves the password unchanged when PasswordHash is empty.
type UpdateUsuarioParams struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Nombre       string    `json:"nombre"`
	Rol          string    `json:"rol"`
	PasswordHash string    `json:"password_hash"`
}

func (q *Queries) UpdateUsuario(ctx context.Context, arg UpdateUsuarioParams) (Usuario, error) {
	row := q.db.QueryRow(ctx, updateUsuario, arg.ID, arg.Email, arg.Nombre, arg.Rol, arg.PasswordHash)
	return scanUsuario(row)
}

const deactivateUsuario = `-- name: DeactivateUsuario :execrows
UPDATE usuarios SET is_active = false
WHERE id = $1 AND is_active = true
`

func (q *Queries) DeactivateUsuario(ctx context.Context, id uuid.UUID) (int64, error) {
	result, err := q.db.Exec(ctx, deactivateUsuario, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/restaurantia/api/internal/auth"
	"github.com/restaurantia/api/internal/database"
	"github.com/restaurantia/api/internal/enum"
	"github.com/restaurantia/api/internal/middleware"
)

// UserStore defines the database methods needed by user handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type UserStore interface {
	ListUsuarios(ctx context.Context) ([]database.Usuario, error)
	CreateUsuario(ctx context.Context, arg database.CreateUsuarioParams) (database.Usuario, error)
	UpdateUsuario(ctx context.Context, arg database.UpdateUsuarioParams) (database.Usuario, error)
	DeactivateUsuario(ctx context.Context, id uuid.UUID) (int64, error)
}

// UserHandler manages staff accounts.
type UserHandler struct {
	store UserStore
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(store UserStore) *UserHandler {
	return &UserHandler{store: store}
}

// RegisterRoutes registers staff endpoints. Mount under /usuarios.
func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.RequireRole(enum.UserRoleAdmin))
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type createUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Nombre   string `json:"nombre" validate:"required,max=100"`
	Rol      string `json:"rol" validate:"required,oneof=ADMIN MESERO COCINA CAJA"`
}

type updateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"omitempty,min=8"`
	Nombre   string `json:"nombre" validate:"required,max=100"`
	Rol      string `json:"rol" validate:"required,oneof=ADMIN MESERO COCINA CAJA"`
}

func (r *createUserRequest) normalize() {
	r.Email = normalizeEmail(r.Email)
	r.Nombre = strings.TrimSpace(r.Nombre)
}

func (r *updateUserRequest) normalize() {
	r.Email = normalizeEmail(r.Email)
	r.Nombre = strings.TrimSpace(r.Nombre)
}

type userResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Nombre    string    `json:"nombre"`
	Rol       string    `json:"rol"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u database.Usuario) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Nombre:    u.Nombre,
		Rol:       u.Rol,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// --- Handlers ---

// List returns the active staff accounts.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsuarios(r.Context())
	if err != nil {
		internalError(w, err, "list users")
		return
	}

	resp := make([]userResponse, len(users))
	for i, u := range users {
		resp[i] = toUserResponse(u)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		internalError(w, err, "create user: hash password")
		return
	}

	user, err := h.store.CreateUsuario(r.Context(), database.CreateUsuarioParams{
		Email:        req.Email,
		Nombre:       req.Nombre,
		PasswordHash: hash,
		Rol:          req.Rol,
	})
	if err != nil {
		if isUniqueViolation(err) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "email already exists"})
			return
		}
		internalError(w, err, "create user")
		return
	}

	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

// Update rewrites a staff account. An empty password keeps the current one.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user ID"})
		return
	}

	var req updateUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	var hash string
	if req.Password != "" {
		if hash, err = auth.HashPassword(req.Password); err != nil {
			internalError(w, err, "update user: hash password")
			return
		}
	}

	user, err := h.store.UpdateUsuario(r.Context(), database.UpdateUsuarioParams{
		ID:           userID,
		Email:        req.Email,
		Nombre:       req.Nombre,
		Rol:          req.Rol,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
			return
		}
		if isUniqueViolation(err) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "email already exists"})
			return
		}
		internalError(w, err, "update user")
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// Delete deactivates a staff account. Admins cannot deactivate themselves.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user ID"})
		return
	}

	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil && claims.UserID == userID {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cannot deactivate your own account"})
		return
	}

	n, err := h.store.DeactivateUsuario(r.Context(), userID)
	if err != nil {
		internalError(w, err, "delete user")
		return
	}
	if n == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

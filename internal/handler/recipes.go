package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/restaurantia/api/internal/database"
	"github.com/restaurantia/api/internal/enum"
	"github.com/restaurantia/api/internal/middleware"
	"github.com/restaurantia/api/internal/service"
)

// RecipeServicer is satisfied by *service.CatalogService.
type RecipeServicer interface {
	CreateRecipe(ctx context.Context, req service.CreateRecipeRequest) (*service.RecipeDetail, error)
}

// RecipeStore defines the database methods needed by recipe handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type RecipeStore interface {
	ListRecetas(ctx context.Context) ([]database.Receta, error)
	GetReceta(ctx context.Context, id int64) (database.Receta, error)
	ListIngredientesByReceta(ctx context.Context, recetaID int64) ([]database.ListIngredientesByRecetaRow, error)
	DeleteReceta(ctx context.Context, id int64) (int64, error)
}

// RecipeHandler serves the recipe catalog that drives stock decrements.
type RecipeHandler struct {
	svc   RecipeServicer
	store RecipeStore
}

func NewRecipeHandler(svc RecipeServicer, store RecipeStore) *RecipeHandler {
	return &RecipeHandler{svc: svc, store: store}
}

// RegisterRoutes registers recipe endpoints. Mount under /recetas.
func (h *RecipeHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.RequireRole(enum.UserRoleAdmin))
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Delete("/{id}", h.Delete)
}

type recipeLineRequest struct {
	IngredienteID     int64  `json:"ingrediente_id" validate:"required,gt=0"`
	CantidadNecesaria int    `json:"cantidad_necesaria" validate:"required,gt=0"`
	Unidad            string `json:"unidad" validate:"max=30"`
}

type createRecipeRequest struct {
	Nombre       string              `json:"nombre" validate:"required,max=100"`
	Descripcion  string              `json:"descripcion" validate:"max=500"`
	Ingredientes []recipeLineRequest `json:"ingredientes" validate:"required,min=1,dive"`
}

// List returns every recipe with its ingredient lines.
func (h *RecipeHandler) List(w http.ResponseWriter, r *http.Request) {
	recetas, err := h.store.ListRecetas(r.Context())
	if err != nil {
		internalError(w, err, "list recipes")
		return
	}

	resp := make([]service.RecipeDetail, len(recetas))
	for i, rec := range recetas {
		lines, err := h.store.ListIngredientesByReceta(r.Context(), rec.ID)
		if err != nil {
			internalError(w, err, "list recipe ingredients")
			return
		}
		resp[i] = service.RecipeDetail{Receta: rec, Ingredients: lines}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *RecipeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	rec, err := h.store.GetReceta(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "recipe not found"})
			return
		}
		internalError(w, err, "get recipe")
		return
	}
	lines, err := h.store.ListIngredientesByReceta(r.Context(), id)
	if err != nil {
		internalError(w, err, "list recipe ingredients")
		return
	}
	writeJSON(w, http.StatusOK, service.RecipeDetail{Receta: rec, Ingredients: lines})
}

// Create stores a recipe and its lines in one transaction. Every line must
// reference an existing inventory item.
func (h *RecipeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRecipeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	lines := make([]service.RecipeLineInput, len(req.Ingredientes))
	for i, l := range req.Ingredientes {
		lines[i] = service.RecipeLineInput{IngredientID: l.IngredienteID, Amount: l.CantidadNecesaria, Unit: l.Unidad}
	}
	detail, err := h.svc.CreateRecipe(r.Context(), service.CreateRecipeRequest{
		Name:        req.Nombre,
		Description: req.Descripcion,
		Ingredients: lines,
	})
	if err != nil {
		writeServiceError(w, err, "create recipe")
		return
	}
	writeJSON(w, http.StatusCreated, detail)
}

// Delete removes a recipe and, by cascade, its ingredient lines.
func (h *RecipeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	n, err := h.store.DeleteReceta(r.Context(), id)
	if err != nil {
		internalError(w, err, "delete recipe")
		return
	}
	if n == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "recipe not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

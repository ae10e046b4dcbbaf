package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/restaurantia/api/internal/database"
	"github.com/restaurantia/api/internal/enum"
	"github.com/restaurantia/api/internal/middleware"
	"github.com/restaurantia/api/internal/service"
)

// ConfigurationServicer is satisfied by *service.CatalogService.
type ConfigurationServicer interface {
	CreateConfiguration(ctx context.Context, req service.CreateConfigurationRequest) (*service.ConfigurationDetail, error)
	ApplyConfiguration(ctx context.Context, id int64) (*service.ConfigurationDetail, error)
}

// ConfigurationStore defines the database methods needed by configuration handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ConfigurationStore interface {
	ListConfiguraciones(ctx context.Context) ([]database.Configuracion, error)
	ListIngredientesByConfiguracion(ctx context.Context, configuracionID int64) ([]database.ListIngredientesByConfiguracionRow, error)
	DeleteConfiguracion(ctx context.Context, id int64) (int64, error)
}

// ConfigurationHandler serves restock bundles.
type ConfigurationHandler struct {
	svc   ConfigurationServicer
	store ConfigurationStore
}

func NewConfigurationHandler(svc ConfigurationServicer, store ConfigurationStore) *ConfigurationHandler {
	return &ConfigurationHandler{svc: svc, store: store}
}

// RegisterRoutes registers configuration endpoints. Mount under /configuraciones.
func (h *ConfigurationHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.RequireRole(enum.UserRoleAdmin))
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Delete("/{id}", h.Delete)
	r.Post("/{id}/aplicar", h.Apply)
}

type configLineRequest struct {
	Nombre   string `json:"nombre" validate:"required,max=100"`
	Cantidad int    `json:"cantidad" validate:"required,gt=0"`
	Unidad   string `json:"unidad" validate:"max=30"`
}

type createConfigurationRequest struct {
	Nombre       string              `json:"nombre" validate:"required,max=100"`
	Descripcion  string              `json:"descripcion" validate:"max=500"`
	Ingredientes []configLineRequest `json:"ingredientes" validate:"required,min=1,dive"`
}

func (h *ConfigurationHandler) List(w http.ResponseWriter, r *http.Request) {
	configs, err := h.store.ListConfiguraciones(r.Context())
	if err != nil {
		internalError(w, err, "list configurations")
		return
	}

	resp := make([]service.ConfigurationDetail, len(configs))
	for i, c := range configs {
		lines, err := h.store.ListIngredientesByConfiguracion(r.Context(), c.ID)
		if err != nil {
			internalError(w, err, "list configuration ingredients")
			return
		}
		resp[i] = service.ConfigurationDetail{Configuracion: c, Ingredients: lines}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create stores a configuration. Ingredients are matched by normalized name
// and created with zero stock when missing.
func (h *ConfigurationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createConfigurationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	lines := make([]service.ConfigLineInput, len(req.Ingredientes))
	for i, l := range req.Ingredientes {
		lines[i] = service.ConfigLineInput{Name: l.Nombre, Amount: l.Cantidad, Unit: l.Unidad}
	}
	detail, err := h.svc.CreateConfiguration(r.Context(), service.CreateConfigurationRequest{
		Name:        req.Nombre,
		Description: req.Descripcion,
		Ingredients: lines,
	})
	if err != nil {
		writeServiceError(w, err, "create configuration")
		return
	}
	writeJSON(w, http.StatusCreated, detail)
}

// Apply adds every quantity of the configuration to stock.
func (h *ConfigurationHandler) Apply(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	detail, err := h.svc.ApplyConfiguration(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "apply configuration")
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *ConfigurationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	n, err := h.store.DeleteConfiguracion(r.Context(), id)
	if err != nil {
		internalError(w, err, "delete configuration")
		return
	}
	if n == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "configuration not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/restaurantia/api/internal/database"
	"github.com/restaurantia/api/internal/domain"
	"github.com/restaurantia/api/internal/enum"
	"github.com/restaurantia/api/internal/events"
	"github.com/rs/zerolog/log"
)

// Errors returned by the catalog service.
var (
	ErrNameRequired          = errors.New("nombre is required")
	ErrInvalidAmount         = errors.New("cantidad must be > 0")
	ErrNoIngredients         = errors.New("ingredientes are required")
	ErrIngredientNotFound    = errors.New("ingredient not found")
	ErrUnknownIngredient     = errors.New("ingrediente_id does not exist")
	ErrIngredientInUse       = errors.New("ingredient is used by a recipe or configuration")
	ErrRecipeNotFound        = errors.New("recipe not found")
	ErrConfigurationNotFound = errors.New("configuration not found")
	ErrDuplicateName         = errors.New("nombre already exists")
)

// CatalogStore defines the DB methods for inventory, recipes and configurations.
// Satisfied by *database.Queries (and its WithTx variant).
type CatalogStore interface {
	AddInventario(ctx context.Context, arg database.AddInventarioParams) (database.Inventario, error)
	UpdateInventario(ctx context.Context, arg database.UpdateInventarioParams) (database.Inventario, error)
	DeleteInventario(ctx context.Context, id int64) (int64, error)
	EnsureInventario(ctx context.Context, arg database.EnsureInventarioParams) (database.Inventario, error)
	CreateReceta(ctx context.Context, arg database.CreateRecetaParams) (database.Receta, error)
	CreateIngredienteReceta(ctx context.Context, arg database.CreateIngredienteRecetaParams) (database.IngredienteReceta, error)
	GetReceta(ctx context.Context, id int64) (database.Receta, error)
	ListIngredientesByReceta(ctx context.Context, recetaID int64) ([]database.ListIngredientesByRecetaRow, error)
	CreateConfiguracion(ctx context.Context, arg database.CreateConfiguracionParams) (database.Configuracion, error)
	CreateIngredienteConfig(ctx context.Context, arg database.CreateIngredienteConfigParams) (database.IngredienteConfig, error)
	GetConfiguracion(ctx context.Context, id int64) (database.Configuracion, error)
	ListIngredientesByConfiguracion(ctx context.Context, configuracionID int64) ([]database.ListIngredientesByConfiguracionRow, error)
	ApplyConfiguracion(ctx context.Context, configuracionID int64) (int64, error)
}

// NewCatalogStore creates a CatalogStore from a DBTX (pool or tx).
type NewCatalogStore func(db database.DBTX) CatalogStore

// InventoryInput is an add or update of a stock row.
type InventoryInput struct {
	Name      string
	Available int
	Unit      string
}

// RecipeLineInput references an existing inventory row by id.
type RecipeLineInput struct {
	IngredientID int64
	Amount       int
	Unit         string
}

// CreateRecipeRequest creates a recipe with its ingredient lines.
type CreateRecipeRequest struct {
	Name        string
	Description string
	Ingredients []RecipeLineInput
}

// ConfigLineInput names an ingredient; missing ones are created with zero stock.
type ConfigLineInput struct {
	Name   string
	Amount int
	Unit   string
}

// CreateConfigurationRequest creates a named restock bundle.
type CreateConfigurationRequest struct {
	Name        string
	Description string
	Ingredients []ConfigLineInput
}

// RecipeDetail is a recipe with its ingredient lines.
type RecipeDetail struct {
	database.Receta
	Ingredients []database.ListIngredientesByRecetaRow `json:"ingredientes"`
}

// ConfigurationDetail is a configuration with its ingredient lines.
type ConfigurationDetail struct {
	database.Configuracion
	Ingredients []database.ListIngredientesByConfiguracionRow `json:"ingredientes"`
}

// CatalogService manages the inventory ledger and the recipe and
// configuration catalogs.
type CatalogService struct {
	pool      TxBeginner
	newStore  NewCatalogStore
	publisher events.Publisher
}

// NewCatalogService creates a new CatalogService. A nil publisher disables events.
func NewCatalogService(pool TxBeginner, newStore NewCatalogStore, publisher events.Publisher) *CatalogService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &CatalogService{pool: pool, newStore: newStore, publisher: publisher}
}

// --- Inventory ---

// AddInventory adds stock to the row with the same normalized name, creating it if needed.
func (s *CatalogService) AddInventory(ctx context.Context, in InventoryInput) (*database.Inventario, error) {
	name := domain.NormalizeIngredientName(in.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	var row database.Inventario
	err := s.inTx(ctx, func(store CatalogStore) error {
		var err error
		row, err = store.AddInventario(ctx, database.AddInventarioParams{
			Nombre:             name,
			CantidadDisponible: int32(in.Available),
			UnidadMedida:       unitOrDefault(in.Unit),
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("add inventory: %w", err)
	}
	s.stockChanged(ctx, row.ID)
	return &row, nil
}

// UpdateInventory overwrites a stock row.
func (s *CatalogService) UpdateInventory(ctx context.Context, id int64, in InventoryInput) (*database.Inventario, error) {
	name := domain.NormalizeIngredientName(in.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	var row database.Inventario
	err := s.inTx(ctx, func(store CatalogStore) error {
		var err error
		row, err = store.UpdateInventario(ctx, database.UpdateInventarioParams{
			ID:                 id,
			Nombre:             name,
			CantidadDisponible: int32(in.Available),
			UnidadMedida:       unitOrDefault(in.Unit),
		})
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil, ErrIngredientNotFound
		case isConstraintViolation(err, pgerrUniqueViolation, ""):
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("update inventory: %w", err)
	}
	s.stockChanged(ctx, row.ID)
	return &row, nil
}

// DeleteInventory removes a stock row. Rows referenced by a recipe or a
// configuration are kept and ErrIngredientInUse is returned.
func (s *CatalogService) DeleteInventory(ctx context.Context, id int64) error {
	var n int64
	err := s.inTx(ctx, func(store CatalogStore) error {
		var err error
		n, err = store.DeleteInventario(ctx, id)
		return err
	})
	if err != nil {
		if isConstraintViolation(err, pgerrForeignKeyViolation, "") {
			return ErrIngredientInUse
		}
		return fmt.Errorf("delete inventory: %w", err)
	}
	if n == 0 {
		return ErrIngredientNotFound
	}
	s.stockChanged(ctx, id)
	return nil
}

// --- Recipes ---

// CreateRecipe inserts the recipe and its ingredient lines atomically.
func (s *CatalogService) CreateRecipe(ctx context.Context, req CreateRecipeRequest) (*RecipeDetail, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if len(req.Ingredients) == 0 {
		return nil, ErrNoIngredients
	}
	for i, line := range req.Ingredients {
		if line.Amount <= 0 {
			return nil, fmt.Errorf("ingredientes[%d]: %w", i, ErrInvalidAmount)
		}
	}

	var detail RecipeDetail
	err := s.inTx(ctx, func(store CatalogStore) error {
		receta, err := store.CreateReceta(ctx, database.CreateRecetaParams{
			Nombre:      name,
			Descripcion: req.Description,
		})
		if err != nil {
			return err
		}
		for i, line := range req.Ingredients {
			_, err := store.CreateIngredienteReceta(ctx, database.CreateIngredienteRecetaParams{
				RecetaID:          receta.ID,
				IngredienteID:     line.IngredientID,
				CantidadNecesaria: int32(line.Amount),
				Unidad:            unitOrDefault(line.Unit),
			})
			if err != nil {
				if isConstraintViolation(err, pgerrForeignKeyViolation, "") {
					return fmt.Errorf("ingredientes[%d]: %w", i, ErrUnknownIngredient)
				}
				return err
			}
		}
		lines, err := store.ListIngredientesByReceta(ctx, receta.ID)
		if err != nil {
			return err
		}
		detail = RecipeDetail{Receta: receta, Ingredients: lines}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrUnknownIngredient) {
			return nil, err
		}
		if isConstraintViolation(err, pgerrUniqueViolation, "") {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("create recipe: %w", err)
	}
	return &detail, nil
}

// --- Configurations ---

// CreateConfiguration inserts a restock bundle. Ingredients are matched by
// normalized name and created with zero stock when missing.
func (s *CatalogService) CreateConfiguration(ctx context.Context, req CreateConfigurationRequest) (*ConfigurationDetail, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if len(req.Ingredients) == 0 {
		return nil, ErrNoIngredients
	}
	for i, line := range req.Ingredients {
		if domain.NormalizeIngredientName(line.Name) == "" {
			return nil, fmt.Errorf("ingredientes[%d]: %w", i, ErrNameRequired)
		}
		if line.Amount <= 0 {
			return nil, fmt.Errorf("ingredientes[%d]: %w", i, ErrInvalidAmount)
		}
	}

	var detail ConfigurationDetail
	err := s.inTx(ctx, func(store CatalogStore) error {
		cfg, err := store.CreateConfiguracion(ctx, database.CreateConfiguracionParams{
			Nombre:      name,
			Descripcion: req.Description,
		})
		if err != nil {
			return err
		}
		for _, line := range req.Ingredients {
			unit := unitOrDefault(line.Unit)
			inv, err := store.EnsureInventario(ctx, database.EnsureInventarioParams{
				Nombre:       domain.NormalizeIngredientName(line.Name),
				UnidadMedida: unit,
			})
			if err != nil {
				return fmt.Errorf("ensure ingredient %q: %w", line.Name, err)
			}
			if _, err := store.CreateIngredienteConfig(ctx, database.CreateIngredienteConfigParams{
				ConfiguracionID: cfg.ID,
				IngredienteID:   inv.ID,
				Cantidad:        int32(line.Amount),
				Unidad:          unit,
			}); err != nil {
				return err
			}
		}
		lines, err := store.ListIngredientesByConfiguracion(ctx, cfg.ID)
		if err != nil {
			return err
		}
		detail = ConfigurationDetail{Configuracion: cfg, Ingredients: lines}
		return nil
	})
	if err != nil {
		if isConstraintViolation(err, pgerrUniqueViolation, "") {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("create configuration: %w", err)
	}
	return &detail, nil
}

// ApplyConfiguration adds every quantity of the bundle to stock in one transaction.
func (s *CatalogService) ApplyConfiguration(ctx context.Context, id int64) (*ConfigurationDetail, error) {
	var detail ConfigurationDetail
	err := s.inTx(ctx, func(store CatalogStore) error {
		cfg, err := store.GetConfiguracion(ctx, id)
		if err != nil {
			return err
		}
		if _, err := store.ApplyConfiguracion(ctx, id); err != nil {
			return err
		}
		lines, err := store.ListIngredientesByConfiguracion(ctx, id)
		if err != nil {
			return err
		}
		detail = ConfigurationDetail{Configuracion: cfg, Ingredients: lines}
		return nil
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConfigurationNotFound
		}
		return nil, fmt.Errorf("apply configuration: %w", err)
	}

	ids := make([]int64, 0, len(detail.Ingredients))
	for _, l := range detail.Ingredients {
		ids = append(ids, l.IngredienteID)
	}
	s.stockChanged(ctx, ids...)
	return &detail, nil
}

// inTx runs fn inside a transaction and commits when it returns nil.
func (s *CatalogService) inTx(ctx context.Context, fn func(store CatalogStore) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(s.newStore(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *CatalogService) stockChanged(ctx context.Context, ids ...int64) {
	if len(ids) == 0 {
		return
	}
	e, err := events.New(enum.TopicInventory, enum.EventStockUpdated, map[string][]int64{"ingredientes": ids})
	if err != nil {
		log.Error().Err(err).Msg("build event")
		return
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		log.Warn().Err(err).Str("type", e.Type).Msg("publish event")
	}
}

func unitOrDefault(unit string) string {
	unit = strings.TrimSpace(unit)
	if unit == "" {
		return enum.DefaultUnit
	}
	return unit
}

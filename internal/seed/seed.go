// Package seed loads the floor plan, menu and starting stock from YAML.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/restaurantia/api/internal/database"
	"github.com/restaurantia/api/internal/domain"
	"github.com/restaurantia/api/internal/enum"
	"github.com/restaurantia/api/internal/service"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

type Data struct {
	Tables         []Table         `yaml:"mesas"`
	Menu           []MenuItem      `yaml:"menu"`
	Inventory      []Stock         `yaml:"inventario"`
	Recipes        []Recipe        `yaml:"recetas"`
	Configurations []Configuration `yaml:"configuraciones"`
}

type Table struct {
	Number   int `yaml:"numero"`
	Capacity int `yaml:"capacidad"`
}

// MenuItem keeps the price as text so that "70.00" is not read as a float.
type MenuItem struct {
	Name     string `yaml:"nombre" json:"nombre"`
	Price    string `yaml:"precio" json:"precio"`
	Category string `yaml:"tipo" json:"tipo"`
}

type Stock struct {
	Name     string `yaml:"nombre"`
	Quantity int    `yaml:"cantidad"`
	Unit     string `yaml:"unidad"`
}

type Recipe struct {
	Name        string `yaml:"nombre"`
	Description string `yaml:"descripcion"`
	Ingredients []Line `yaml:"ingredientes"`
}

type Configuration struct {
	Name        string `yaml:"nombre"`
	Description string `yaml:"descripcion"`
	Ingredients []Line `yaml:"ingredientes"`
}

// Line references an inventory item by name.
type Line struct {
	Name     string `yaml:"nombre"`
	Quantity int    `yaml:"cantidad"`
	Unit     string `yaml:"unidad"`
}

// Result counts what Apply inserted. Existing rows are left alone and not counted.
type Result struct {
	Tables         int `json:"mesas"`
	MenuItems      int `json:"menu"`
	Inventory      int `json:"inventario"`
	Recipes        int `json:"recetas"`
	Configurations int `json:"configuraciones"`
}

// Default returns the embedded seed data.
func Default() (*Data, error) {
	return Parse(defaultYAML)
}

// LoadFile reads seed data from a YAML file.
func LoadFile(path string) (*Data, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(b)
}

// Parse decodes and validates seed data.
func Parse(b []byte) (*Data, error) {
	var d Data
	if err := yaml.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("parse seed yaml: %w", err)
	}
	if err := d.validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

func (d *Data) validate() error {
	for _, t := range d.Tables {
		if t.Number == enum.DigitalTableNumber {
			return fmt.Errorf("mesa %d is reserved for digital orders", t.Number)
		}
		if t.Capacity <= 0 {
			return fmt.Errorf("mesa %d: capacidad must be > 0", t.Number)
		}
	}
	for i, m := range d.Menu {
		if strings.TrimSpace(m.Name) == "" || strings.TrimSpace(m.Category) == "" {
			return fmt.Errorf("menu[%d]: nombre and tipo are required", i)
		}
		p, err := decimal.NewFromString(m.Price)
		if err != nil || p.IsNegative() {
			return fmt.Errorf("menu[%d] %q: invalid precio %q", i, m.Name, m.Price)
		}
	}
	for i, s := range d.Inventory {
		if domain.NormalizeIngredientName(s.Name) == "" {
			return fmt.Errorf("inventario[%d]: nombre is required", i)
		}
		if s.Quantity < 0 {
			return fmt.Errorf("inventario %q: cantidad must be >= 0", s.Name)
		}
	}
	for _, r := range d.Recipes {
		if err := validateLines("receta", r.Name, r.Ingredients); err != nil {
			return err
		}
	}
	for _, c := range d.Configurations {
		if err := validateLines("configuracion", c.Name, c.Ingredients); err != nil {
			return err
		}
	}
	return nil
}

func validateLines(kind, name string, lines []Line) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%s: nombre is required", kind)
	}
	if len(lines) == 0 {
		return fmt.Errorf("%s %q: at least one ingrediente is required", kind, name)
	}
	for _, l := range lines {
		if domain.NormalizeIngredientName(l.Name) == "" || l.Quantity <= 0 {
			return fmt.Errorf("%s %q: invalid ingrediente %q", kind, name, l.Name)
		}
	}
	return nil
}

// MenuStore is the subset of queries needed to replace the menu.
// Satisfied by *database.Queries; narrow interface for testability.
type MenuStore interface {
	DeleteAllMenuItems(ctx context.Context) error
	CreateMenuItem(ctx context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error)
}

// Store is everything Apply writes. Satisfied by *database.Queries.
type Store interface {
	MenuStore
	UpdateMesaCapacidad(ctx context.Context, arg database.UpdateMesaCapacidadParams) (database.Mesa, error)
	GetInventarioByNombre(ctx context.Context, nombre string) (database.Inventario, error)
	AddInventario(ctx context.Context, arg database.AddInventarioParams) (database.Inventario, error)
	EnsureInventario(ctx context.Context, arg database.EnsureInventarioParams) (database.Inventario, error)
	ListRecetas(ctx context.Context) ([]database.Receta, error)
	CreateReceta(ctx context.Context, arg database.CreateRecetaParams) (database.Receta, error)
	CreateIngredienteReceta(ctx context.Context, arg database.CreateIngredienteRecetaParams) (database.IngredienteReceta, error)
	ListConfiguraciones(ctx context.Context) ([]database.Configuracion, error)
	CreateConfiguracion(ctx context.Context, arg database.CreateConfiguracionParams) (database.Configuracion, error)
	CreateIngredienteConfig(ctx context.Context, arg database.CreateIngredienteConfigParams) (database.IngredienteConfig, error)
}

// ReplaceMenu deletes every menu item and inserts items. Run it inside a
// transaction so a failed insert leaves the old menu in place.
func ReplaceMenu(ctx context.Context, store MenuStore, items []MenuItem) (int, error) {
	if err := store.DeleteAllMenuItems(ctx); err != nil {
		return 0, fmt.Errorf("delete menu: %w", err)
	}
	for _, m := range items {
		price, err := decimal.NewFromString(m.Price)
		if err != nil {
			return 0, fmt.Errorf("menu item %q: invalid precio: %w", m.Name, err)
		}
		_, err = store.CreateMenuItem(ctx, database.CreateMenuItemParams{
			Nombre: strings.TrimSpace(m.Name),
			Precio: service.DecimalToNumeric(price),
			Tipo:   strings.TrimSpace(m.Category),
		})
		if err != nil {
			return 0, fmt.Errorf("insert menu item %q: %w", m.Name, err)
		}
	}
	return len(items), nil
}

// Apply loads d into the database. The menu is replaced; tables get their
// capacity updated; stock, recipes and configurations are inserted only when
// no row with the same name exists, so Apply can be run repeatedly.
func Apply(ctx context.Context, store Store, d *Data) (Result, error) {
	var res Result

	for _, t := range d.Tables {
		_, err := store.UpdateMesaCapacidad(ctx, database.UpdateMesaCapacidadParams{
			Numero:    int32(t.Number),
			Capacidad: int32(t.Capacity),
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return res, fmt.Errorf("mesa %d does not exist", t.Number)
			}
			return res, fmt.Errorf("update mesa %d: %w", t.Number, err)
		}
		res.Tables++
	}

	n, err := ReplaceMenu(ctx, store, d.Menu)
	if err != nil {
		return res, err
	}
	res.MenuItems = n

	for _, s := range d.Inventory {
		name := domain.NormalizeIngredientName(s.Name)
		_, err := store.GetInventarioByNombre(ctx, name)
		if err == nil {
			continue
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return res, fmt.Errorf("lookup inventario %q: %w", name, err)
		}
		if _, err := store.AddInventario(ctx, database.AddInventarioParams{
			Nombre:             name,
			CantidadDisponible: int32(s.Quantity),
			UnidadMedida:       unitOrDefault(s.Unit),
		}); err != nil {
			return res, fmt.Errorf("insert inventario %q: %w", name, err)
		}
		res.Inventory++
	}

	recetas, err := store.ListRecetas(ctx)
	if err != nil {
		return res, fmt.Errorf("list recetas: %w", err)
	}
	existing := make(map[string]bool, len(recetas))
	for _, r := range recetas {
		existing[r.Nombre] = true
	}
	for _, r := range d.Recipes {
		name := strings.TrimSpace(r.Name)
		if existing[name] {
			continue
		}
		receta, err := store.CreateReceta(ctx, database.CreateRecetaParams{Nombre: name, Descripcion: r.Description})
		if err != nil {
			return res, fmt.Errorf("insert receta %q: %w", name, err)
		}
		for _, l := range r.Ingredients {
			inv, err := ensureIngredient(ctx, store, l)
			if err != nil {
				return res, err
			}
			if _, err := store.CreateIngredienteReceta(ctx, database.CreateIngredienteRecetaParams{
				RecetaID:          receta.ID,
				IngredienteID:     inv.ID,
				CantidadNecesaria: int32(l.Quantity),
				Unidad:            unitOrDefault(l.Unit),
			}); err != nil {
				return res, fmt.Errorf("insert ingrediente %q of receta %q: %w", l.Name, name, err)
			}
		}
		res.Recipes++
	}

	configs, err := store.ListConfiguraciones(ctx)
	if err != nil {
		return res, fmt.Errorf("list configuraciones: %w", err)
	}
	existing = make(map[string]bool, len(configs))
	for _, c := range configs {
		existing[c.Nombre] = true
	}
	for _, c := range d.Configurations {
		name := strings.TrimSpace(c.Name)
		if existing[name] {
			continue
		}
		cfg, err := store.CreateConfiguracion(ctx, database.CreateConfiguracionParams{Nombre: name, Descripcion: c.Description})
		if err != nil {
			return res, fmt.Errorf("insert configuracion %q: %w", name, err)
		}
		for _, l := range c.Ingredients {
			inv, err := ensureIngredient(ctx, store, l)
			if err != nil {
				return res, err
			}
			if _, err := store.CreateIngredienteConfig(ctx, database.CreateIngredienteConfigParams{
				ConfiguracionID: cfg.ID,
				IngredienteID:   inv.ID,
				Cantidad:        int32(l.Quantity),
				Unidad:          unitOrDefault(l.Unit),
			}); err != nil {
				return res, fmt.Errorf("insert ingrediente %q of configuracion %q: %w", l.Name, name, err)
			}
		}
		res.Configurations++
	}

	return res, nil
}

func ensureIngredient(ctx context.Context, store Store, l Line) (database.Inventario, error) {
	name := domain.NormalizeIngredientName(l.Name)
	inv, err := store.EnsureInventario(ctx, database.EnsureInventarioParams{
		Nombre:       name,
		UnidadMedida: unitOrDefault(l.Unit),
	})
	if err != nil {
		return database.Inventario{}, fmt.Errorf("ensure inventario %q: %w", name, err)
	}
	return inv, nil
}

func unitOrDefault(u string) string {
	if u = strings.TrimSpace(u); u != "" {
		return u
	}
	return enum.DefaultUnit
}

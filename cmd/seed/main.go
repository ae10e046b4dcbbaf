package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/restaurantia/api/internal/auth"
	"github.com/restaurantia/api/internal/config"
	"github.com/restaurantia/api/internal/database"
	"github.com/restaurantia/api/internal/enum"
	"github.com/restaurantia/api/internal/logger"
	"github.com/restaurantia/api/internal/seed"
	"github.com/rs/zerolog/log"
)

func main() {
	// CLI flags
	file := flag.String("file", "", "YAML seed file (default: built-in data)")
	email := flag.String("email", "", "Admin email address")
	password := flag.String("password", "", "Admin password")
	name := flag.String("name", "", "Admin full name")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if err := logger.Setup(os.Stderr, cfg.IsProduction(), cfg.LogLevel); err != nil {
		log.Fatal().Err(err).Msg("failed to set up logger")
	}

	// Fall back to environment variables, then defaults
	*email = firstNonEmpty(*email, os.Getenv("SEED_EMAIL"), "admin@restaurante.local")
	*name = firstNonEmpty(*name, os.Getenv("SEED_NAME"), "Administrador")
	*password = firstNonEmpty(*password, os.Getenv("SEED_PASSWORD"))
	if *password == "" {
		*password = "password123"
		log.Warn().Msg("using default password 'password123', change it before going live")
	}

	data, err := loadData(*file)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load seed data")
	}

	if cfg.AutoMigrate {
		if err := database.Migrate(cfg.DatabaseURL); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate database")
		}
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to connect to database")
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("unable to ping database")
	}

	// Seed in a transaction: catalog and admin user or neither
	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to begin transaction")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	q := database.New(tx)
	res, err := seed.Apply(ctx, q, data)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to seed catalog")
	}

	admin, err := seedAdmin(ctx, q, *email, *password, *name)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to seed admin")
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to commit")
	}

	log.Info().
		Int("mesas", res.Tables).
		Int("menu", res.MenuItems).
		Int("inventario", res.Inventory).
		Int("recetas", res.Recipes).
		Int("configuraciones", res.Configurations).
		Str("admin_id", admin.ID.String()).
		Msg("seed completed")
}

func loadData(path string) (*seed.Data, error) {
	if path == "" {
		return seed.Default()
	}
	return seed.LoadFile(path)
}

// seedAdmin creates the admin user or resets its password and role.
func seedAdmin(ctx context.Context, q *database.Queries, email, password, name string) (database.Usuario, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return database.Usuario{}, fmt.Errorf("hash password: %w", err)
	}
	return q.UpsertUsuario(ctx, database.UpsertUsuarioParams{
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Nombre:       name,
		PasswordHash: hash,
		Rol:          enum.UserRoleAdmin,
	})
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

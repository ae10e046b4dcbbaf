package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/restaurantia/api/internal/config"
	"github.com/restaurantia/api/internal/database"
	"github.com/restaurantia/api/internal/events"
	"github.com/restaurantia/api/internal/handler"
	mw "github.com/restaurantia/api/internal/middleware"
	"github.com/restaurantia/api/internal/seed"
	"github.com/restaurantia/api/internal/service"
	"github.com/restaurantia/api/internal/ws"
	"github.com/rs/zerolog/log"
)

// New creates a Chi router with all application routes wired up.
// Role gating lives in each handler's RegisterRoutes.
func New(cfg *config.Config, pool *pgxpool.Pool, hub *ws.Hub, publisher events.Publisher) chi.Router {
	queries := database.New(pool)

	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(mw.RequestLogger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{handler.DegradedHeader},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	handler.NewHealthHandler(pool).RegisterRoutes(r)
	handler.NewAuthHandler(queries, cfg.JWTSecret).RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/{topic}", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Services
	orderService := service.NewOrderService(pool, func(db database.DBTX) service.OrderStore {
		return database.New(db)
	}, publisher)
	catalogService := service.NewCatalogService(pool, func(db database.DBTX) service.CatalogStore {
		return database.New(db)
	}, publisher)
	tableService := service.NewTableService(queries)
	reportService := service.NewReportService(queries)

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		menuHandler := handler.NewMenuHandler(queries, pool,
			func(db database.DBTX) seed.MenuStore { return database.New(db) },
			defaultMenu,
		)
		r.Route("/menu", menuHandler.RegisterRoutes)

		r.Route("/mesas", handler.NewTableHandler(tableService).RegisterRoutes)
		r.Route("/pedidos", handler.NewOrderHandler(orderService, queries).RegisterRoutes)
		r.Route("/clientes", handler.NewCustomerHandler(queries).RegisterRoutes)

		inventoryHandler := handler.NewInventoryHandler(catalogService, queries, cfg.LowStockThreshold)
		r.Route("/inventario", inventoryHandler.RegisterRoutes)
		r.Route("/recetas", handler.NewRecipeHandler(catalogService, queries).RegisterRoutes)
		r.Route("/configuraciones", handler.NewConfigurationHandler(catalogService, queries).RegisterRoutes)

		handler.NewReportsHandler(reportService).RegisterRoutes(r)

		r.Route("/usuarios", handler.NewUserHandler(queries).RegisterRoutes)
	})

	log.Debug().Msg("router initialized")
	return r
}

func defaultMenu() ([]seed.MenuItem, error) {
	data, err := seed.Default()
	if err != nil {
		return nil, err
	}
	return data.Menu, nil
}

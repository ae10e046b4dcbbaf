package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/restaurantia/api/internal/config"
	"github.com/restaurantia/api/internal/database"
	"github.com/restaurantia/api/internal/events"
	"github.com/restaurantia/api/internal/logger"
	"github.com/restaurantia/api/internal/router"
	"github.com/restaurantia/api/internal/worker"
	"github.com/restaurantia/api/internal/ws"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if err := logger.Setup(os.Stderr, cfg.IsProduction(), cfg.LogLevel); err != nil {
		log.Fatal().Err(err).Msg("failed to set up logger")
	}

	if cfg.AutoMigrate {
		if err := database.Migrate(cfg.DatabaseURL); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate database")
		}
		log.Info().Msg("migrations applied")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create connection pool")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	hub := ws.NewHub()
	go hub.Run(ctx)

	publisher, closeEvents := setupEvents(ctx, cfg, hub)
	defer closeEvents()

	watcher := worker.NewStockWatcher(database.New(pool), publisher, cfg.LowStockThreshold, cfg.StockCheckInterval)
	go watcher.Run(ctx)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router.New(cfg, pool, hub, publisher),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}

// setupEvents builds the publisher handed to the services. With Redis the
// hub is fed by the relay, so every instance sees every event exactly once.
func setupEvents(ctx context.Context, cfg *config.Config, hub *ws.Hub) (events.Publisher, func()) {
	var (
		pubs    events.Multi
		closers []func()
	)

	if cfg.RedisURL != "" {
		rdb, err := events.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		closers = append(closers, func() { rdb.Close() })
		pubs = append(pubs, events.NewRedisPublisher(rdb))
		go func() {
			if err := events.RunRedisRelay(ctx, rdb, hub); err != nil {
				log.Error().Err(err).Msg("redis relay stopped")
			}
		}()
	} else {
		pubs = append(pubs, hub)
	}

	if cfg.AMQPURL != "" {
		conn, err := events.DialAMQP(cfg.AMQPURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to rabbitmq")
		}
		closers = append(closers, func() { conn.Close() })
		pubs = append(pubs, events.NewAMQPPublisher(conn))
		log.Info().Str("exchange", events.KitchenExchange).Msg("kitchen events enabled")
	}

	return pubs, func() {
		for _, c := range closers {
			c()
		}
	}
}

// The edge gateway is the single externally reachable entry point: it tags
// every request with a correlation id, validates bearer tokens, issues them
// at login, and proxies authenticated traffic to the backend services.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/reto/edge-gateway/internal/api"
	"github.com/reto/edge-gateway/internal/core/token"
	"github.com/reto/edge-gateway/internal/infrastructure/config"
	mongodb "github.com/reto/edge-gateway/internal/infrastructure/db/mongo"
	redisdb "github.com/reto/edge-gateway/internal/infrastructure/db/redis"
	"github.com/reto/edge-gateway/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		// Missing secret or lifetime is fatal: the gateway must not accept
		// traffic it cannot authenticate.
		bootLog := logger.Init(logger.Options{})
		bootLog.Fatal().Err(err).Msg("configuration error")
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Warn().Err(err).Msg("mongodb disconnect")
		}
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() { _ = rdb.Close() }()

	store := mongodb.NewUserRepository(db)
	if err := store.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("credential store index creation failed")
	}

	e, err := api.NewRouter(cfg, api.Dependencies{
		Store:  store,
		Tokens: token.New(cfg.JWTSecret, cfg.TokenLifetime()),
		Mongo:  db,
		Redis:  rdb,
		Log:    log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("router setup failed")
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("gateway listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

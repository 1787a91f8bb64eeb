package api

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/reto/edge-gateway/internal/api/handler"
	"github.com/reto/edge-gateway/internal/api/middleware"
	"github.com/reto/edge-gateway/internal/core/ports"
	"github.com/reto/edge-gateway/internal/core/service"
	"github.com/reto/edge-gateway/internal/infrastructure/config"
)

// Dependencies carries the collaborators the router wires into handlers and
// middleware. Store and Tokens are ports so tests can substitute stubs; the
// raw Mongo and Redis handles feed the readiness probe only.
type Dependencies struct {
	Store  ports.CredentialStore
	Tokens ports.TokenService
	Mongo  *mongo.Database
	Redis  *redis.Client
	Log    zerolog.Logger
}

// NewRouter builds the Echo instance with the full gating chain and all
// routes registered. Middleware order is load-bearing: the correlation tagger
// always runs first so that even rejections carry the id, and the gate runs
// before any proxied route.
func NewRouter(cfg *config.Config, deps Dependencies) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware, in order ---
	e.Use(echomiddleware.Recover())
	e.Use(middleware.Correlation())
	e.Use(echoprometheus.NewMiddleware("gateway"))
	e.Use(middleware.Gate(deps.Tokens, cfg.OpenPaths, deps.Log))

	// --- Auth endpoints (open paths, invoked directly by clients) ---
	authService := service.NewAuthService(deps.Store, deps.Tokens, deps.Log)
	authHandler := handler.NewAuthHandler(authService)
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	// --- Health probes ---
	healthHandler := handler.NewHealthHandler()
	e.GET("/health", healthHandler.Liveness)
	if deps.Mongo != nil && deps.Redis != nil {
		healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Mongo, deps.Redis)
		e.GET("/health/ready", healthDepsHandler.Readiness)
	}

	// --- Observability & docs ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Proxied upstream routes (behind the gate) ---
	for prefix, target := range cfg.UpstreamRoutes {
		u, err := url.Parse(target)
		if err != nil {
			return nil, fmt.Errorf("upstream route %s: %w", prefix, err)
		}
		group := e.Group(strings.TrimSuffix(prefix, "/"))
		group.Use(echomiddleware.Proxy(echomiddleware.NewRoundRobinBalancer(
			[]*echomiddleware.ProxyTarget{{URL: u}},
		)))
		deps.Log.Info().Str("prefix", prefix).Str("target", target).Msg("upstream route registered")
	}

	return e, nil
}

package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config is the full configuration surface of the gateway, loaded once at
// startup and immutable afterwards. JWT_SECRET and TOKEN_LIFETIME_MINUTES
// have no defaults: starting without them is a hard failure.
type Config struct {
	Port     string `env:"PORT,     default=8080"`
	Env      string `env:"ENV,      default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	JWTSecret            string `env:"JWT_SECRET, required"`
	TokenLifetimeMinutes int    `env:"TOKEN_LIFETIME_MINUTES, required"`

	// OpenPaths are path prefixes exempt from token validation. Defaults are
	// applied in Load: the comma-separated values collide with struct-tag
	// option parsing.
	OpenPaths []string `env:"OPEN_PATHS"`

	// UpstreamRoutes maps a path prefix to the backend base URL it proxies
	// to, e.g. UPSTREAM_ROUTES="/orders:http://orders:8081,/catalog:http://catalog:8082".
	UpstreamRoutes map[string]string `env:"UPSTREAM_ROUTES"`

	Mongo MongoConfig
	Redis RedisConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=edge_gateway"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// TokenLifetime returns the configured token lifetime as a duration.
func (c *Config) TokenLifetime() time.Duration {
	return time.Duration(c.TokenLifetimeMinutes) * time.Minute
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return loadFrom(ctx, envconfig.OsLookuper())
}

// loadFrom is Load with an injectable lookuper, used by tests.
func loadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	if cfg.TokenLifetimeMinutes <= 0 {
		return nil, fmt.Errorf("TOKEN_LIFETIME_MINUTES must be positive, got %d", cfg.TokenLifetimeMinutes)
	}

	if len(cfg.OpenPaths) == 0 {
		cfg.OpenPaths = []string{"/auth/", "/health", "/metrics", "/swagger/"}
	}
	if len(cfg.UpstreamRoutes) == 0 {
		cfg.UpstreamRoutes = map[string]string{
			"/orders":  "http://localhost:8081",
			"/catalog": "http://localhost:8082",
		}
	}

	return &cfg, nil
}

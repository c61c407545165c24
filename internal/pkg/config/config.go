package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/draftline/posts-service/internal/identity"
)

const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite3"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// PublicListing is "all" or "published".
	PublicListing string `env:"PUBLIC_LISTING, default=all"`

	Auth   AuthConfig
	Store  StoreConfig
	Mongo  MongoConfig
	Redis  RedisConfig
	OAuth  OAuthConfig
	Events EventsConfig
}

type AuthConfig struct {
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL, default=24h"`

	// Backends is the ordered identity chain; empty means bearer then session.
	Backends []string `env:"IDENTITY_BACKENDS"`

	SessionSecret string        `env:"SESSION_SECRET"`
	SessionTTL    time.Duration `env:"SESSION_TTL,    default=168h"`
	SessionCookie string        `env:"SESSION_COOKIE, default=posts_session"`
	SessionSecure bool          `env:"SESSION_SECURE, default=false"`
}

type StoreConfig struct {
	Driver      string `env:"STORE_DRIVER, default=mongo"`
	DatabaseURL string `env:"DATABASE_URL"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=posts"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type OAuthConfig struct {
	BaseURL            string `env:"OAUTH_BASE_URL,             default=http://localhost:8080"`
	RedirectAfterLogin string `env:"OAUTH_REDIRECT_AFTER_LOGIN, default=/"`
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GitHubClientID     string `env:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string `env:"GITHUB_CLIENT_SECRET"`
}

type EventsConfig struct {
	Workers int `env:"EVENT_WORKERS, default=8"`
	Buffer  int `env:"EVENT_BUFFER,  default=256"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the cross-field rules envconfig cannot express.
func (c *Config) Validate() error {
	var errs []error

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	switch c.PublicListing {
	case "all", "published":
	default:
		errs = append(errs, fmt.Errorf("PUBLIC_LISTING must be all or published, got %q", c.PublicListing))
	}
	switch c.Store.Driver {
	case StoreMongo:
	case StorePostgres, StoreSQLite:
		if c.Store.DatabaseURL == "" {
			errs = append(errs, fmt.Errorf("DATABASE_URL is required for STORE_DRIVER=%s", c.Store.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported STORE_DRIVER %q", c.Store.Driver))
	}

	return errors.Join(errs...)
}

// SessionsEnabled reports whether the session backend is part of the identity chain.
func (c *Config) SessionsEnabled() bool {
	if len(c.Auth.Backends) == 0 {
		return c.Auth.SessionSecret != ""
	}
	for _, b := range c.Auth.Backends {
		if strings.EqualFold(strings.TrimSpace(b), identity.BackendSession) {
			return true
		}
	}
	return false
}

// IsDevelopment reports whether the service runs in a local environment.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development" || c.Env == "local"
}

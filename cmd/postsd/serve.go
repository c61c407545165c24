package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/draftline/posts-service/internal/api"
	"github.com/draftline/posts-service/internal/api/handler"
	"github.com/draftline/posts-service/internal/core/service"
	"github.com/draftline/posts-service/internal/identity"
	"github.com/draftline/posts-service/internal/infrastructure/db/redis"
	"github.com/draftline/posts-service/internal/infrastructure/http/handlers"
	"github.com/draftline/posts-service/internal/infrastructure/queue"
	"github.com/draftline/posts-service/internal/pkg/config"
	"github.com/draftline/posts-service/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func serveCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "Apply migrations or indexes before serving")
	return cmd
}

func serve(ctx context.Context, migrate bool) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "postsd",
		Env:     cfg.Env,
	})

	st, err := openStores(ctx, cfg, migrate, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.close(context.Background()); err != nil {
			log.Error().Err(err).Msg("closing store")
		}
	}()

	rdb, err := redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()

	// Events outlive the request context so Close can drain them after shutdown.
	dispatcher := queue.NewDispatcher(cfg.Events.Workers, cfg.Events.Buffer, service.NewAuditService(st.events, log), log)
	dispatcher.Start(context.Background())
	defer dispatcher.Close()

	posts := service.NewPostService(st.posts, log,
		service.WithEvents(dispatcher),
		service.WithIdempotency(redis.NewIdempotencyStore(rdb)),
		service.WithListing(service.Listing(cfg.PublicListing)),
	)
	auth := service.NewAuthService(st.users, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	backends := []identity.Backend{identity.NewBearerBackend(cfg.Auth.JWTSecret)}
	var sessions handler.SessionManager
	if cfg.SessionsEnabled() {
		sb, err := identity.NewSessionBackend(redis.NewSessionStore(rdb, cfg.Auth.SessionTTL), identity.SessionOptions{
			Secret:     cfg.Auth.SessionSecret,
			CookieName: cfg.Auth.SessionCookie,
			TTL:        cfg.Auth.SessionTTL,
			Secure:     cfg.Auth.SessionSecure,
		})
		if err != nil {
			return fmt.Errorf("session backend: %w", err)
		}
		backends = append(backends, sb)
		sessions = sb
	}

	names := cfg.Auth.Backends
	if len(names) == 0 && sessions == nil {
		names = []string{identity.BackendBearer}
	}
	chain, err := identity.NewChain(names, backends...)
	if err != nil {
		return err
	}

	oauthProviders := make(map[string]handler.OAuthProvider)
	for name, p := range identity.NewProviders(identity.ProvidersConfig{
		BaseURL: cfg.OAuth.BaseURL,
		Google:  identity.OAuthCredentials{ClientID: cfg.OAuth.GoogleClientID, ClientSecret: cfg.OAuth.GoogleClientSecret},
		GitHub:  identity.OAuthCredentials{ClientID: cfg.OAuth.GitHubClientID, ClientSecret: cfg.OAuth.GitHubClientSecret},
	}) {
		oauthProviders[name] = p
	}

	e := api.NewRouter(api.Deps{
		Log:                log,
		Posts:              posts,
		Auth:               auth,
		Identity:           chain,
		Backends:           chain.Names(),
		Sessions:           sessions,
		OAuthProviders:     oauthProviders,
		RedirectAfterLogin: cfg.OAuth.RedirectAfterLogin,
		Health:             []handlers.Dependency{st.health, redis.Pinger{Client: rdb}},
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.Store.Driver).Strs("identity", chain.Names()).Msg("listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

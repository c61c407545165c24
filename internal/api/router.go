package api

import (
	"sort"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/draftline/posts-service/docs"
	"github.com/draftline/posts-service/internal/api/handler"
	"github.com/draftline/posts-service/internal/api/middleware"
	"github.com/draftline/posts-service/internal/core/ports"
	"github.com/draftline/posts-service/internal/infrastructure/http/handlers"
)

// Deps are the services the router exposes.
type Deps struct {
	Log      zerolog.Logger
	Posts    ports.PostService
	Auth     ports.AuthService
	Identity middleware.Authenticator

	// Backends names the identity chain, for /auth/providers.
	Backends []string
	// Sessions is nil when the session backend is disabled; OAuth routes
	// are only registered when it is set.
	Sessions           handler.SessionManager
	OAuthProviders     map[string]handler.OAuthProvider
	RedirectAfterLogin string

	Health []handlers.Dependency

	// Registry collects the HTTP metrics; nil uses the default registry,
	// which also holds the service metrics.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(d.Log))

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if d.Registry != nil {
		registerer, gatherer = d.Registry, d.Registry
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "posts",
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Health probes, metrics and docs (no identity) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(d.Health...)

	e.GET("/health", healthHandler.Liveness)            // liveness: is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness: are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	identify := middleware.Identify(d.Identity, d.Log)

	// --- Auth routes ---
	providerNames := make([]string, 0, len(d.OAuthProviders))
	for name := range d.OAuthProviders {
		providerNames = append(providerNames, name)
	}
	if d.Sessions == nil {
		providerNames = nil
	}
	sort.Strings(providerNames)
	authHandler := handler.NewAuthHandler(d.Auth, d.Sessions, d.Backends, providerNames)

	auth := e.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout)
	auth.GET("/providers", authHandler.Providers)

	if d.Sessions != nil && len(d.OAuthProviders) > 0 {
		oauthHandler := handler.NewOAuthHandler(d.OAuthProviders, d.Auth, d.Sessions, d.RedirectAfterLogin, d.Log)
		auth.GET("/:provider/login", oauthHandler.Login)
		auth.GET("/:provider/callback", oauthHandler.Callback)
	}

	// --- Post lifecycle ---
	postHandler := handler.NewPostHandler(d.Posts)

	// Public reads never look at credentials, so a stale token or a session
	// store outage cannot break them.
	e.GET("/v1/posts", postHandler.ListPublic)
	e.GET("/v1/posts/:id", postHandler.Get)

	v1 := e.Group("/v1", identify)
	v1.POST("/posts", postHandler.Create)
	v1.PUT("/posts/:id", postHandler.Update)
	v1.PATCH("/posts/:id/published", postHandler.SetPublished)
	v1.DELETE("/posts/:id", postHandler.Delete)

	me := v1.Group("/me", middleware.RequireCaller())
	me.GET("", authHandler.Me)
	me.GET("/posts", postHandler.ListOwned)

	return e
}

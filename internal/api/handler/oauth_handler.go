package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/draftline/posts-service/internal/api/metrics"
	"github.com/draftline/posts-service/internal/core/domain"
	"github.com/draftline/posts-service/internal/core/ports"
)

// OAuthProvider is one external identity provider.
type OAuthProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (domain.ExternalIdentity, error)
}

// OAuthHandler runs the authorization code flow and turns a successful
// callback into a session.
type OAuthHandler struct {
	providers     map[string]OAuthProvider
	authService   ports.AuthService
	sessions      SessionManager
	redirectAfter string
	log           zerolog.Logger
}

func NewOAuthHandler(providers map[string]OAuthProvider, authService ports.AuthService, sessions SessionManager, redirectAfter string, log zerolog.Logger) *OAuthHandler {
	if redirectAfter == "" {
		redirectAfter = "/"
	}
	return &OAuthHandler{
		providers:     providers,
		authService:   authService,
		sessions:      sessions,
		redirectAfter: redirectAfter,
		log:           log,
	}
}

func (h *OAuthHandler) provider(c echo.Context) (string, OAuthProvider, error) {
	name := c.Param("provider")
	p, ok := h.providers[name]
	if !ok {
		return "", nil, echo.NewHTTPError(http.StatusNotFound, "unknown provider")
	}
	return name, p, nil
}

// Login handles GET /auth/:provider/login and redirects to the provider.
//
// @Summary      Start OAuth sign-in
// @Tags         auth
// @Param        provider  path  string  true  "google or github"
// @Success      302
// @Failure      404  {object}  errorResponse
// @Router       /auth/{provider}/login [get]
func (h *OAuthHandler) Login(c echo.Context) error {
	name, p, err := h.provider(c)
	if err != nil {
		return err
	}

	state := uuid.NewString()
	if err := h.sessions.SaveState(c.Response(), c.Request(), name, state); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, p.AuthCodeURL(state))
}

// Callback handles GET /auth/:provider/callback.
//
// @Summary      Complete OAuth sign-in
// @Tags         auth
// @Param        provider  path   string  true  "google or github"
// @Param        code      query  string  true  "Authorization code"
// @Param        state     query  string  true  "State issued at login"
// @Success      302
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /auth/{provider}/callback [get]
func (h *OAuthHandler) Callback(c echo.Context) error {
	name, p, err := h.provider(c)
	if err != nil {
		return err
	}

	if err := h.sessions.CheckState(c.Response(), c.Request(), name, c.QueryParam("state")); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	if reason := c.QueryParam("error"); reason != "" {
		return fmt.Errorf("%w: provider returned %s", domain.ErrUnauthorized, reason)
	}

	ctx := c.Request().Context()
	external, err := p.Exchange(ctx, c.QueryParam("code"))
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return err
		}
		h.log.Warn().Err(err).Str("provider", name).Msg("oauth exchange failed")
		return fmt.Errorf("%w: sign-in with %s failed", domain.ErrUnauthorized, name)
	}

	user, err := h.authService.LoginExternal(ctx, external)
	if err != nil {
		return err
	}
	if err := h.sessions.Begin(c.Response(), c.Request(), user.Principal()); err != nil {
		return err
	}
	metrics.SessionsTotal.WithLabelValues(name).Inc()

	h.log.Info().Str("provider", name).Str("user_id", user.ID).Msg("external sign-in")
	return c.Redirect(http.StatusFound, h.redirectAfter)
}

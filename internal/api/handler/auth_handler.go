package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/draftline/posts-service/internal/api/metrics"
	"github.com/draftline/posts-service/internal/core/domain"
	"github.com/draftline/posts-service/internal/core/ports"
)

// SessionManager starts and ends browser sessions and carries OAuth state
// between login and callback.
type SessionManager interface {
	Begin(w http.ResponseWriter, r *http.Request, p *domain.Principal) error
	End(w http.ResponseWriter, r *http.Request) error
	SaveState(w http.ResponseWriter, r *http.Request, provider, state string) error
	CheckState(w http.ResponseWriter, r *http.Request, provider, state string) error
}

type AuthHandler struct {
	authService ports.AuthService
	sessions    SessionManager
	backends    []string
	providers   []string
}

// NewAuthHandler creates an AuthHandler. sessions may be nil when the
// session backend is disabled; login then only issues bearer tokens.
func NewAuthHandler(authService ports.AuthService, sessions SessionManager, backends, providers []string) *AuthHandler {
	return &AuthHandler{authService: authService, sessions: sessions, backends: backends, providers: providers}
}

type registerRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Name     string `json:"name,omitempty" validate:"max=256"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token string       `json:"token,omitempty"`
	User  *domain.User `json:"user,omitempty"`
}

type providersResponse struct {
	Backends  []string `json:"backends"`
	Providers []string `json:"providers"`
}

// Register creates a new user account.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return domain.ErrInvalidPayload
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Username: req.Username,
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, authResponse{User: user})
}

// Login authenticates a user, returns a JWT token and, when sessions are
// enabled, sets the session cookie.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return domain.ErrInvalidPayload
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	token, user, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		// unknown accounts look the same as wrong passwords
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrInvalidCredentials
		}
		return err
	}

	if h.sessions != nil {
		if err := h.sessions.Begin(c.Response(), c.Request(), user.Principal()); err != nil {
			return err
		}
	}
	metrics.SessionsTotal.WithLabelValues(domain.ProviderLocal).Inc()

	return c.JSON(http.StatusOK, authResponse{Token: token, User: user})
}

// Logout ends the browser session. Bearer tokens are stateless and stay
// valid until they expire.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  successResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if h.sessions != nil {
		if err := h.sessions.End(c.Response(), c.Request()); err != nil {
			return err
		}
	}
	return c.JSON(http.StatusOK, successResponse{Success: true})
}

// Providers lists the enabled identity backends and OAuth providers.
//
// @Summary      List sign-in options
// @Tags         auth
// @Produce      json
// @Success      200  {object}  providersResponse
// @Router       /auth/providers [get]
func (h *AuthHandler) Providers(c echo.Context) error {
	resp := providersResponse{Backends: h.backends, Providers: h.providers}
	if resp.Backends == nil {
		resp.Backends = []string{}
	}
	if resp.Providers == nil {
		resp.Providers = []string{}
	}
	return c.JSON(http.StatusOK, resp)
}

// Me returns the caller's principal.
//
// @Summary      Current principal
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Principal
// @Failure      401  {object}  errorResponse
// @Router       /v1/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	caller := callerFrom(c)
	if !caller.Authenticated() {
		return domain.ErrUnauthorized
	}
	return c.JSON(http.StatusOK, caller.Principal)
}

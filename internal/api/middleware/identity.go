package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/draftline/posts-service/internal/core/domain"
	"github.com/draftline/posts-service/internal/identity"
)

// PrincipalKey is the echo context key holding the authenticated *domain.Principal.
const PrincipalKey = "principal"

// Authenticator resolves the principal behind a request.
type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) (*domain.Principal, error)
}

// Identify resolves the caller and injects the principal into context.
// Requests without credentials continue anonymously; a rejected credential
// ends the request with 401.
func Identify(auth Authenticator, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, err := auth.Authenticate(c.Request().Context(), c.Request())
			switch {
			case err == nil:
				c.Set(PrincipalKey, p)
			case errors.Is(err, identity.ErrNoCredentials):
			case errors.Is(err, domain.ErrUnauthorized):
				log.Debug().Err(err).Str("path", c.Path()).Msg("credential rejected")
				return domain.ErrUnauthorized
			default:
				return err
			}
			return next(c)
		}
	}
}

// RequireCaller rejects anonymous requests before they reach the handler.
func RequireCaller() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if p, _ := c.Get(PrincipalKey).(*domain.Principal); p == nil || p.ID == "" {
				return domain.ErrUnauthorized
			}
			return next(c)
		}
	}
}

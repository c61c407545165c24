package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/draftline/posts-service/internal/api/middleware"
	"github.com/draftline/posts-service/internal/core/domain"
)

// callerFrom builds the lifecycle caller from the principal injected by the
// Identify middleware. A request without one is anonymous.
func callerFrom(c echo.Context) domain.Caller {
	p, _ := c.Get(middleware.PrincipalKey).(*domain.Principal)
	if p == nil {
		return domain.Anonymous()
	}
	return domain.AsPrincipal(p)
}

package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/draftline/posts-service/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error   string              `json:"error"`
	Kind    domain.Kind         `json:"kind,omitempty"`
	Details []domain.FieldError `json:"details,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>", "kind": "<kind>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, resp := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, resp)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (router 404/405, body limit, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message), Kind: kindForStatus(he.Code)}
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, errorResponse{Error: "validation failed", Kind: domain.KindValidation, Details: ve.Fields}
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrPostNotFound):
		return http.StatusNotFound, errorResponse{Error: "post not found", Kind: domain.KindNotFound}
	case errors.Is(err, domain.ErrInvalidPostID):
		return http.StatusBadRequest, errorResponse{Error: "invalid post id", Kind: domain.KindInvalidInput}
	case errors.Is(err, domain.ErrInvalidPayload):
		return http.StatusBadRequest, errorResponse{Error: "invalid payload", Kind: domain.KindInvalidInput}
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, errorResponse{Error: "invalid input", Kind: domain.KindInvalidInput}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Error: "invalid credentials", Kind: domain.KindUnauthorized}
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, errorResponse{Error: "unauthorized", Kind: domain.KindUnauthorized}
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, errorResponse{Error: "user not found", Kind: domain.KindNotFound}
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, errorResponse{Error: "user already exists", Kind: domain.KindConflict}
	case errors.Is(err, domain.ErrCreateInProgress):
		return http.StatusConflict, errorResponse{Error: "request with this idempotency key is in progress", Kind: domain.KindConflict}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error", Kind: domain.KindInternal}
}

func kindForStatus(code int) domain.Kind {
	switch {
	case code == http.StatusUnauthorized:
		return domain.KindUnauthorized
	case code == http.StatusNotFound:
		return domain.KindNotFound
	case code >= 400 && code < 500:
		return domain.KindInvalidInput
	case code >= 500:
		return domain.KindInternal
	default:
		return ""
	}
}

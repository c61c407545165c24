package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnauthorized = errors.New("unauthorized")
var ErrInvalidInput = errors.New("invalid input")
var ErrInvalidPostID = fmt.Errorf("%w: invalid post id", ErrInvalidInput)
var ErrInvalidPayload = fmt.Errorf("%w: invalid payload", ErrInvalidInput)
var ErrPostNotFound = errors.New("post not found")

// ErrCreateInProgress is returned when another create holds the same
// idempotency key.
var ErrCreateInProgress = errors.New("create with this idempotency key already in progress")

var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrUserNotFound = errors.New("user not found")
var ErrUserExists = errors.New("user already exists")

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when a well-formed payload fails semantic checks.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Has reports whether field was rejected.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// Kind is the stable, client-visible classification of a failure.
type Kind string

const (
	KindUnauthorized Kind = "unauthorized"
	KindInvalidInput Kind = "invalid_input"
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindInternal     Kind = "internal"
)

// KindOf classifies err. Anything unrecognised is internal.
func KindOf(err error) Kind {
	var ve *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return KindValidation
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrInvalidCredentials):
		return KindUnauthorized
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrPostNotFound), errors.Is(err, ErrUserNotFound):
		return KindNotFound
	case errors.Is(err, ErrUserExists), errors.Is(err, ErrCreateInProgress):
		return KindConflict
	default:
		return KindInternal
	}
}

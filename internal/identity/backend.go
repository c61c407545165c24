// Package identity resolves the principal behind an HTTP request. Each
// Backend understands one credential type; a Chain tries them in order.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/draftline/posts-service/internal/core/domain"
)

// ErrNoCredentials means the request carries no credential for a backend.
// It is not a failure: the caller is anonymous as far as that backend knows.
var ErrNoCredentials = errors.New("no credentials")

// ErrUnknownBackend is returned when a configured backend name has no implementation.
var ErrUnknownBackend = errors.New("unknown identity backend")

const (
	BackendBearer  = "bearer"
	BackendSession = "session"
)

// Backend authenticates one kind of credential.
type Backend interface {
	Name() string
	// Authenticate returns the principal, ErrNoCredentials when the request
	// carries none, or an error wrapping domain.ErrUnauthorized when the
	// credential is present but not acceptable.
	Authenticate(ctx context.Context, r *http.Request) (*domain.Principal, error)
}

// Chain is an ordered list of backends. The first backend to return a
// principal wins.
type Chain []Backend

// NewChain selects backends by name, in the given order. An empty list
// selects every available backend, bearer first.
func NewChain(names []string, available ...Backend) (Chain, error) {
	byName := make(map[string]Backend, len(available))
	for _, b := range available {
		byName[b.Name()] = b
	}

	if len(names) == 0 {
		names = []string{BackendBearer, BackendSession}
	}

	chain := make(Chain, 0, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		b, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, name)
		}
		chain = append(chain, b)
	}
	return chain, nil
}

// Authenticate asks each backend in turn. It returns ErrNoCredentials when
// no backend found a credential, and stops at the first rejected credential.
func (c Chain) Authenticate(ctx context.Context, r *http.Request) (*domain.Principal, error) {
	for _, b := range c {
		p, err := b.Authenticate(ctx, r)
		switch {
		case err == nil:
			return p, nil
		case errors.Is(err, ErrNoCredentials):
			continue
		default:
			return nil, fmt.Errorf("%s: %w", b.Name(), err)
		}
	}
	return nil, ErrNoCredentials
}

// Names lists the backends in chain order.
func (c Chain) Names() []string {
	names := make([]string, len(c))
	for i, b := range c {
		names[i] = b.Name()
	}
	return names
}

func rejected(reason string) error {
	return fmt.Errorf("%w: %s", domain.ErrUnauthorized, reason)
}

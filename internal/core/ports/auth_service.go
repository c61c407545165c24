package ports

import (
	"context"

	"github.com/draftline/posts-service/internal/core/domain"
)

// RegisterInput carries a local account registration.
type RegisterInput struct {
	Username string
	Name     string
	Email    string
	Password string
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	LoginExternal(ctx context.Context, identity domain.ExternalIdentity) (*domain.User, error)
}

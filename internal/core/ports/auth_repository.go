package ports

import (
	"context"

	"github.com/draftline/posts-service/internal/core/domain"
)

// UserRepository defines account persistence for local and external users.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByProvider(ctx context.Context, provider, subject string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
}

package ports

import (
	"context"

	"github.com/draftline/posts-service/internal/core/domain"
)

// PostInput is the full payload of a create or update. Content and Published
// are optional.
type PostInput struct {
	Title     string
	Content   *string
	Published *bool
}

// CreatePostInput adds the optional idempotency key sent with a create.
type CreatePostInput struct {
	PostInput
	IdempotencyKey string
}

// PostService defines the post lifecycle use cases.
type PostService interface {
	ListPublic(ctx context.Context) ([]*domain.Post, error)
	ListOwned(ctx context.Context, caller domain.Caller) ([]*domain.Post, error)
	Get(ctx context.Context, id string) (*domain.Post, error)
	Create(ctx context.Context, caller domain.Caller, input CreatePostInput) (*domain.Post, error)
	Update(ctx context.Context, caller domain.Caller, id string, input PostInput) (*domain.Post, error)
	SetPublished(ctx context.Context, caller domain.Caller, id string, published bool) (*domain.Post, error)
	Delete(ctx context.Context, caller domain.Caller, id string) error
}

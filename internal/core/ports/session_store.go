package ports

import (
	"context"
	"errors"

	"github.com/draftline/posts-service/internal/core/domain"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionStore keeps server-side sessions keyed by an opaque session id.
type SessionStore interface {
	Create(ctx context.Context, principal *domain.Principal) (string, error)
	Get(ctx context.Context, id string) (*domain.Principal, error)
	Delete(ctx context.Context, id string) error
}

// IdempotencyStore claims an author's idempotency key before the insert and
// then binds it to the post that insert created.
type IdempotencyStore interface {
	// Reserve claims key for one create. When the key is already claimed it
	// returns the bound post id, or "" while the first create is in flight.
	Reserve(ctx context.Context, authorID, key string) (reserved bool, postID string, err error)
	// Remember binds a reserved key to the created post.
	Remember(ctx context.Context, authorID, key, postID string) error
	// Release drops a reservation whose create failed.
	Release(ctx context.Context, authorID, key string) error
}

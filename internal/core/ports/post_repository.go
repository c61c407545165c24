package ports

import (
	"context"

	"github.com/draftline/posts-service/internal/core/domain"
)

// ListPostsFilter carries the query parameters for listing posts.
// Results are always ordered by created_at descending.
type ListPostsFilter struct {
	AuthorID      string // empty = every author
	PublishedOnly bool
}

// PostRepository defines persistence operations for posts. Adapters return
// domain.ErrInvalidPostID for ids that cannot be their key type and
// domain.ErrPostNotFound when no row matches.
type PostRepository interface {
	// CheckID returns domain.ErrInvalidPostID when id cannot be a key of this
	// store. It does not touch the database.
	CheckID(id string) error
	// Create inserts p and sets p.ID.
	Create(ctx context.Context, p *domain.Post) error
	// FindByID retrieves a post by id. When authorID is non-empty the lookup
	// is additionally filtered by author_id.
	FindByID(ctx context.Context, id string, authorID string) (*domain.Post, error)
	List(ctx context.Context, filter ListPostsFilter) ([]*domain.Post, error)
	// Update overwrites title, content, published and updated_at in a single
	// write scoped to p.ID and p.AuthorID.
	Update(ctx context.Context, p *domain.Post) error
	Delete(ctx context.Context, id string, authorID string) error
}

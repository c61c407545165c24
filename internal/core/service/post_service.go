package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/draftline/posts-service/internal/core/domain"
	"github.com/draftline/posts-service/internal/core/ports"
)

// Listing selects what the public listing shows.
type Listing string

const (
	ListAll           Listing = "all"
	ListPublishedOnly Listing = "published"
)

// PostService implements the post lifecycle: validation, ownership checks and
// state transitions against a PostRepository.
type PostService struct {
	repo        ports.PostRepository
	events      ports.EventPublisher
	idempotency ports.IdempotencyStore
	listing     Listing
	now         func() time.Time
	logger      zerolog.Logger
}

// Option customises a PostService.
type Option func(*PostService)

// WithEvents publishes lifecycle events after successful mutations.
func WithEvents(p ports.EventPublisher) Option {
	return func(s *PostService) { s.events = p }
}

// WithIdempotency enables Idempotency-Key replay on create.
func WithIdempotency(store ports.IdempotencyStore) Option {
	return func(s *PostService) { s.idempotency = store }
}

// WithListing sets the public listing mode. Unknown values fall back to ListAll.
func WithListing(l Listing) Option {
	return func(s *PostService) {
		if l == ListPublishedOnly {
			s.listing = l
		}
	}
}

// storeNow is time.Now at millisecond precision, the coarsest resolution any
// store keeps, so a created post reads back with identical timestamps.
func storeNow() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *PostService) { s.now = now }
}

func NewPostService(repo ports.PostRepository, logger zerolog.Logger, opts ...Option) *PostService {
	s := &PostService{
		repo:    repo,
		listing: ListAll,
		now:     storeNow,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListPublic returns every post newest first, or only published ones when the
// service is configured with ListPublishedOnly.
func (s *PostService) ListPublic(ctx context.Context) ([]*domain.Post, error) {
	posts, err := s.repo.List(ctx, ports.ListPostsFilter{PublishedOnly: s.listing == ListPublishedOnly})
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// ListOwned returns the caller's own posts, drafts included.
func (s *PostService) ListOwned(ctx context.Context, caller domain.Caller) ([]*domain.Post, error) {
	if !caller.Authenticated() {
		return nil, domain.ErrUnauthorized
	}
	posts, err := s.repo.List(ctx, ports.ListPostsFilter{AuthorID: caller.ID()})
	if err != nil {
		return nil, fmt.Errorf("list owned posts: %w", err)
	}
	return posts, nil
}

// Get fetches a post by id without any ownership check.
func (s *PostService) Get(ctx context.Context, id string) (*domain.Post, error) {
	if id == "" {
		return nil, domain.ErrInvalidPostID
	}
	post, err := s.repo.FindByID(ctx, id, "")
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	return post, nil
}

// Create stores a new post owned by the caller. A repeated idempotency key
// returns the post the first request created.
func (s *PostService) Create(ctx context.Context, caller domain.Caller, input ports.CreatePostInput) (*domain.Post, error) {
	if !caller.Authenticated() {
		return nil, domain.ErrUnauthorized
	}
	if err := validatePost(input.Title); err != nil {
		return nil, err
	}

	replay, reserved, err := s.reserve(ctx, caller.ID(), input.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if replay != nil {
		return replay, nil
	}

	now := s.now()
	post := &domain.Post{
		Title:     input.Title,
		AuthorID:  caller.ID(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if input.Content != nil {
		post.Content = *input.Content
	}
	if input.Published != nil {
		post.Published = *input.Published
	}

	if err := s.repo.Create(ctx, post); err != nil {
		s.logger.Error().Err(err).Str("author_id", post.AuthorID).Msg("failed to create post")
		if reserved {
			if rerr := s.idempotency.Release(ctx, post.AuthorID, input.IdempotencyKey); rerr != nil {
				s.logger.Warn().Err(rerr).Str("author_id", post.AuthorID).Msg("failed to release idempotency key")
			}
		}
		return nil, fmt.Errorf("create post: %w", err)
	}

	if reserved {
		if err := s.idempotency.Remember(ctx, post.AuthorID, input.IdempotencyKey, post.ID); err != nil {
			s.logger.Warn().Err(err).Str("post_id", post.ID).Msg("failed to remember idempotency key")
		}
	}

	s.logger.Info().Str("post_id", post.ID).Str("author_id", post.AuthorID).Msg("post created")
	s.publish(domain.PostCreated, post)
	return post, nil
}

// Update overwrites the caller's post with input. Posts that do not exist and
// posts owned by someone else are both reported as domain.ErrPostNotFound.
func (s *PostService) Update(ctx context.Context, caller domain.Caller, id string, input ports.PostInput) (*domain.Post, error) {
	if !caller.Authenticated() {
		return nil, domain.ErrUnauthorized
	}
	if err := s.repo.CheckID(id); err != nil {
		return nil, err
	}
	if err := validatePost(input.Title); err != nil {
		return nil, err
	}

	current, err := s.findOwned(ctx, id, caller.ID())
	if err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	return s.apply(ctx, current, input)
}

// SetPublished flips the publish flag, carrying the stored title and content
// through a full update.
func (s *PostService) SetPublished(ctx context.Context, caller domain.Caller, id string, published bool) (*domain.Post, error) {
	if !caller.Authenticated() {
		return nil, domain.ErrUnauthorized
	}
	if id == "" {
		return nil, domain.ErrInvalidPostID
	}

	current, err := s.findOwned(ctx, id, caller.ID())
	if err != nil {
		return nil, fmt.Errorf("set published: %w", err)
	}

	content := current.Content
	return s.apply(ctx, current, ports.PostInput{
		Title:     current.Title,
		Content:   &content,
		Published: &published,
	})
}

// Delete permanently removes the caller's post.
func (s *PostService) Delete(ctx context.Context, caller domain.Caller, id string) error {
	if !caller.Authenticated() {
		return domain.ErrUnauthorized
	}
	if id == "" {
		return domain.ErrInvalidPostID
	}

	current, err := s.findOwned(ctx, id, caller.ID())
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	if err := s.repo.Delete(ctx, current.ID, current.AuthorID); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	s.logger.Info().Str("post_id", current.ID).Str("author_id", current.AuthorID).Msg("post deleted")
	s.publish(domain.PostDeleted, current)
	return nil
}

// findOwned is the single ownership-scoped lookup. It never distinguishes a
// missing post from a post owned by another principal.
func (s *PostService) findOwned(ctx context.Context, id, callerID string) (*domain.Post, error) {
	if callerID == "" {
		return nil, domain.ErrUnauthorized
	}
	post, err := s.repo.FindByID(ctx, id, callerID)
	if err != nil {
		return nil, err
	}
	if !post.OwnedBy(callerID) {
		return nil, domain.ErrPostNotFound
	}
	return post, nil
}

// apply writes input over current as one full update.
func (s *PostService) apply(ctx context.Context, current *domain.Post, input ports.PostInput) (*domain.Post, error) {
	next := *current
	next.Title = input.Title
	if input.Content != nil {
		next.Content = *input.Content
	}
	next.Published = input.Published != nil && *input.Published
	next.Touch(s.now())

	if err := s.repo.Update(ctx, &next); err != nil {
		s.logger.Error().Err(err).Str("post_id", next.ID).Msg("failed to update post")
		return nil, fmt.Errorf("update post: %w", err)
	}

	s.logger.Info().Str("post_id", next.ID).Str("author_id", next.AuthorID).Bool("published", next.Published).Msg("post updated")
	s.publish(domain.EventFor(current, &next), &next)
	return &next, nil
}

// reserve claims an idempotency key before the insert. It returns the post a
// previous request bound to the key, or reserved=true when this request owns
// the key and must bind it after inserting. A key held by an in-flight create
// fails with domain.ErrCreateInProgress. When the key store is unreachable the
// create proceeds without a reservation.
func (s *PostService) reserve(ctx context.Context, authorID, key string) (*domain.Post, bool, error) {
	if key == "" || s.idempotency == nil {
		return nil, false, nil
	}
	reserved, postID, err := s.idempotency.Reserve(ctx, authorID, key)
	if err != nil {
		s.logger.Warn().Err(err).Str("author_id", authorID).Msg("idempotency reserve failed, creating anyway")
		return nil, false, nil
	}
	if reserved {
		return nil, true, nil
	}
	if postID == "" {
		return nil, false, domain.ErrCreateInProgress
	}

	existing, err := s.repo.FindByID(ctx, postID, authorID)
	if errors.Is(err, domain.ErrPostNotFound) {
		// The replayed post was deleted; this create rebinds the key.
		return nil, true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("idempotent replay: %w", err)
	}
	s.logger.Info().Str("idempotency_key", key).Str("post_id", existing.ID).Msg("idempotent replay")
	return existing, false, nil
}

func (s *PostService) publish(t domain.PostEventType, p *domain.Post) {
	if s.events == nil {
		return
	}
	s.events.Publish(domain.PostEvent{
		PostID:     p.ID,
		AuthorID:   p.AuthorID,
		Type:       t,
		Title:      p.Title,
		Published:  p.Published,
		OccurredAt: s.now(),
	})
}

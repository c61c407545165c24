package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/draftline/posts-service/internal/core/ports"
)

const (
	idempotencyTTL = 24 * time.Hour
	// reservationTTL bounds how long a crashed create can hold a key.
	reservationTTL = time.Minute
	pendingValue   = "pending"
)

// IdempotencyStore remembers the post created for each Idempotency-Key.
// Key format: idem:post:<author_id>:<key>
type IdempotencyStore struct {
	client *redis.Client
}

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// NewIdempotencyStore creates an IdempotencyStore wrapping the given Redis client.
func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client}
}

// Reserve claims the key with SETNX so only one concurrent create proceeds.
func (s *IdempotencyStore) Reserve(ctx context.Context, authorID, key string) (bool, string, error) {
	k := s.key(authorID, key)
	// A claim can expire between SETNX and GET; one retry covers it.
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := s.client.SetNX(ctx, k, pendingValue, reservationTTL).Result()
		if err != nil {
			return false, "", fmt.Errorf("idempotency reserve: %w", err)
		}
		if ok {
			return true, "", nil
		}

		value, err := s.client.Get(ctx, k).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return false, "", fmt.Errorf("idempotency lookup: %w", err)
		}
		if value == pendingValue {
			return false, "", nil
		}
		return false, value, nil
	}
	return false, "", nil
}

// Remember binds the key to postID for idempotencyTTL.
func (s *IdempotencyStore) Remember(ctx context.Context, authorID, key, postID string) error {
	if err := s.client.Set(ctx, s.key(authorID, key), postID, idempotencyTTL).Err(); err != nil {
		return fmt.Errorf("idempotency remember: %w", err)
	}
	return nil
}

// Release removes a reservation so the client can retry with the same key.
func (s *IdempotencyStore) Release(ctx context.Context, authorID, key string) error {
	if err := s.client.Del(ctx, s.key(authorID, key)).Err(); err != nil {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) key(authorID, key string) string {
	return fmt.Sprintf("idem:post:%s:%s", authorID, key)
}

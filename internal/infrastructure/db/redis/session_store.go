package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/draftline/posts-service/internal/core/domain"
	"github.com/draftline/posts-service/internal/core/ports"
)

const defaultSessionTTL = 7 * 24 * time.Hour

// SessionStore keeps the principal of each browser session in Redis.
// Key format: session:<uuid>
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ports.SessionStore = (*SessionStore)(nil)

// NewSessionStore creates a SessionStore whose entries expire after ttl.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Create(ctx context.Context, principal *domain.Principal) (string, error) {
	if principal == nil || principal.ID == "" {
		return "", fmt.Errorf("create session: %w", domain.ErrUnauthorized)
	}

	payload, err := json.Marshal(principal)
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}

	id := uuid.NewString()
	if err := s.client.Set(ctx, s.key(id), payload, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return id, nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (*domain.Principal, error) {
	if id == "" {
		return nil, ports.ErrSessionNotFound
	}

	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ports.ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	var p domain.Principal
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &p, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return s.client.Del(ctx, s.key(id)).Err()
}

func (s *SessionStore) key(id string) string {
	return "session:" + id
}

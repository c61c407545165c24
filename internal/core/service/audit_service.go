package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/draftline/posts-service/internal/core/domain"
	"github.com/draftline/posts-service/internal/core/ports"
)

type auditService struct {
	repo ports.EventRepository
	log  zerolog.Logger
}

// NewAuditService returns an EventRecorder that persists lifecycle events.
func NewAuditService(repo ports.EventRepository, log zerolog.Logger) ports.EventRecorder {
	return &auditService{repo: repo, log: log}
}

// Record stores one lifecycle event in the audit trail.
func (s *auditService) Record(ctx context.Context, event domain.PostEvent) error {
	if event.PostID == "" || event.Type == "" {
		return fmt.Errorf("record event: %w: missing post id or type", domain.ErrInvalidInput)
	}

	if err := s.repo.InsertEvent(ctx, &event); err != nil {
		return fmt.Errorf("record event: %w", err)
	}

	s.log.Debug().
		Str("post_id", event.PostID).
		Str("author_id", event.AuthorID).
		Str("type", string(event.Type)).
		Msg("post event recorded")

	return nil
}

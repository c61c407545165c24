package ports

import (
	"context"

	"github.com/draftline/posts-service/internal/core/domain"
)

// EventRepository persists the post lifecycle audit trail.
type EventRepository interface {
	InsertEvent(ctx context.Context, event *domain.PostEvent) error
}

// EventPublisher hands lifecycle events to asynchronous recording.
// Publish must not block the caller on a slow sink.
type EventPublisher interface {
	Publish(event domain.PostEvent)
}

// EventRecorder processes a single dequeued event.
type EventRecorder interface {
	Record(ctx context.Context, event domain.PostEvent) error
}

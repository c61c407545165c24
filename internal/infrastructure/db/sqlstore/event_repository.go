package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/draftline/posts-service/internal/core/domain"
	"github.com/draftline/posts-service/internal/core/ports"
)

// EventRepository implements ports.EventRepository on the post_events table.
type EventRepository struct {
	db *DB
}

var _ ports.EventRepository = (*EventRepository)(nil)

func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

// InsertEvent appends one lifecycle event to the audit trail.
func (r *EventRepository) InsertEvent(ctx context.Context, event *domain.PostEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO post_events (post_id, author_id, type, title, published, occurred_at, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		event.PostID, event.AuthorID, string(event.Type), event.Title, event.Published,
		event.OccurredAt.UTC(), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert post event: %w", err)
	}
	return nil
}

// ListEvents returns the recorded event types for a post in occurrence order.
func (r *EventRepository) ListEvents(ctx context.Context, postID string) ([]domain.PostEventType, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT type FROM post_events WHERE post_id = $1 ORDER BY occurred_at, id`, postID)
	if err != nil {
		return nil, fmt.Errorf("list post events: %w", err)
	}
	defer rows.Close()

	var types []domain.PostEventType
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan post event: %w", err)
		}
		types = append(types, domain.PostEventType(t))
	}
	return types, rows.Err()
}

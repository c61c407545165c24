package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/draftline/posts-service/internal/core/domain"
	"github.com/draftline/posts-service/internal/core/ports"
)

const collectionPostEvents = "post_events"

// EventRepository implements ports.EventRepository using MongoDB.
type EventRepository struct {
	db *mongo.Database
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(db *mongo.Database) *EventRepository {
	return &EventRepository{db: db}
}

var _ ports.EventRepository = (*EventRepository)(nil)

// InsertEvent persists a lifecycle event to the post_events audit collection.
func (r *EventRepository) InsertEvent(ctx context.Context, event *domain.PostEvent) error {
	doc := bson.M{
		"post_id":     event.PostID,
		"author_id":   event.AuthorID,
		"type":        string(event.Type),
		"title":       event.Title,
		"published":   event.Published,
		"occurred_at": event.OccurredAt.UTC(),
		"recorded_at": time.Now().UTC(),
	}

	_, err := r.db.Collection(collectionPostEvents).InsertOne(ctx, doc)
	return err
}

// EnsureIndexes indexes the audit trail by post.
func (r *EventRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.db.Collection(collectionPostEvents).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "post_id", Value: 1}, {Key: "occurred_at", Value: 1}},
	})
	return err
}

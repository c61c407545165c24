package domain

import "time"

// PostEventType names a lifecycle transition.
type PostEventType string

const (
	PostCreated     PostEventType = "created"
	PostUpdated     PostEventType = "updated"
	PostPublished   PostEventType = "published"
	PostUnpublished PostEventType = "unpublished"
	PostDeleted     PostEventType = "deleted"
)

// PostEvent records a successful lifecycle transition for the audit trail.
type PostEvent struct {
	PostID     string
	AuthorID   string
	Type       PostEventType
	Title      string
	Published  bool
	OccurredAt time.Time
}

// EventFor derives the event type of an update from the publish flag change.
func EventFor(before, after *Post) PostEventType {
	switch {
	case !before.Published && after.Published:
		return PostPublished
	case before.Published && !after.Published:
		return PostUnpublished
	default:
		return PostUpdated
	}
}

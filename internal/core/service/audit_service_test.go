package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/draftline/posts-service/internal/core/domain"
)

type stubEventRepo struct {
	inserted []*domain.PostEvent
	err      error
}

func (r *stubEventRepo) InsertEvent(_ context.Context, e *domain.PostEvent) error {
	if r.err != nil {
		return r.err
	}
	r.inserted = append(r.inserted, e)
	return nil
}

func TestAuditService_Record(t *testing.T) {
	repo := &stubEventRepo{}
	svc := NewAuditService(repo, discardLogger)

	err := svc.Record(context.Background(), domain.PostEvent{
		PostID: "1", AuthorID: "u1", Type: domain.PostPublished, OccurredAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(repo.inserted) != 1 || repo.inserted[0].Type != domain.PostPublished {
		t.Fatalf("unexpected inserts: %+v", repo.inserted)
	}
}

func TestAuditService_Record_RejectsIncompleteEvent(t *testing.T) {
	repo := &stubEventRepo{}
	svc := NewAuditService(repo, discardLogger)

	if err := svc.Record(context.Background(), domain.PostEvent{Type: domain.PostCreated}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if len(repo.inserted) != 0 {
		t.Fatal("incomplete event must not be stored")
	}
}

func TestAuditService_Record_PropagatesStoreError(t *testing.T) {
	repo := &stubEventRepo{err: errors.New("disk full")}
	svc := NewAuditService(repo, discardLogger)

	err := svc.Record(context.Background(), domain.PostEvent{PostID: "1", Type: domain.PostDeleted})
	if err == nil || domain.KindOf(err) != domain.KindInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
}

package mongo

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/draftline/posts-service/internal/core/domain"
	"github.com/draftline/posts-service/internal/core/ports"
)

// connectTest connects to MONGO_TEST_URI and returns a throwaway database.
func connectTest(t *testing.T) *PostRepository {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	ctx := context.Background()
	client, db, err := Connect(ctx, Config{URI: uri, Database: "posts_test_" + primitive.NewObjectID().Hex()})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	if err := EnsureIndexes(ctx, db); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}
	return NewPostRepository(db)
}

func TestPostRepository_Lifecycle(t *testing.T) {
	repo := connectTest(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	p := &domain.Post{Title: "first", AuthorID: "alice", CreatedAt: now, UpdatedAt: now}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.ID == "" {
		t.Fatalf("expected id to be assigned")
	}

	got, err := repo.FindByID(ctx, p.ID, "")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Title != "first" || got.AuthorID != "alice" || !got.CreatedAt.Equal(now) {
		t.Fatalf("unexpected post: %+v", got)
	}

	if _, err := repo.FindByID(ctx, p.ID, "bob"); !errors.Is(err, domain.ErrPostNotFound) {
		t.Fatalf("expected not found for foreign author, got %v", err)
	}

	got.Title = "edited"
	got.Published = true
	got.UpdatedAt = now.Add(time.Second)
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}

	foreign := *got
	foreign.AuthorID = "bob"
	if err := repo.Update(ctx, &foreign); !errors.Is(err, domain.ErrPostNotFound) {
		t.Fatalf("expected not found on foreign update, got %v", err)
	}

	published, err := repo.List(ctx, ports.ListPostsFilter{PublishedOnly: true})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(published) != 1 || published[0].Title != "edited" {
		t.Fatalf("unexpected published list: %+v", published)
	}

	if err := repo.Delete(ctx, p.ID, "alice"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.FindByID(ctx, p.ID, ""); !errors.Is(err, domain.ErrPostNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestPostRepository_InvalidID(t *testing.T) {
	repo := &PostRepository{}
	if _, err := repo.FindByID(context.Background(), "not-hex", ""); !errors.Is(err, domain.ErrInvalidPostID) {
		t.Fatalf("expected ErrInvalidPostID, got %v", err)
	}
	if err := repo.Delete(context.Background(), "42", "alice"); !errors.Is(err, domain.ErrInvalidPostID) {
		t.Fatalf("expected ErrInvalidPostID, got %v", err)
	}
	if err := repo.CheckID("42"); !errors.Is(err, domain.ErrInvalidPostID) {
		t.Fatalf("expected ErrInvalidPostID, got %v", err)
	}
	if err := repo.CheckID(primitive.NewObjectID().Hex()); err != nil {
		t.Fatalf("CheckID on a valid hex id: %v", err)
	}
}

func TestPostRepository_ListOrder(t *testing.T) {
	repo := connectTest(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)

	for i, author := range []string{"alice", "bob", "alice"} {
		at := base.Add(time.Duration(i) * time.Minute)
		if err := repo.Create(ctx, &domain.Post{Title: "p", AuthorID: author, CreatedAt: at, UpdatedAt: at}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	owned, err := repo.List(ctx, ports.ListPostsFilter{AuthorID: "alice"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(owned) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(owned))
	}
	if owned[0].CreatedAt.Before(owned[1].CreatedAt) {
		t.Fatalf("expected newest first")
	}
}

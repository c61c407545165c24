package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/draftline/posts-service/internal/core/domain"
	"github.com/draftline/posts-service/internal/core/ports"
)

// Placeholders are numbered ($1, $2, ...) and appear in ascending order so the
// same statement binds correctly under both lib/pq and go-sqlite3.

const postColumns = `id, title, content, published, author_id, created_at, updated_at`

type PostRepository struct {
	db *DB
}

var _ ports.PostRepository = (*PostRepository)(nil)

func NewPostRepository(db *DB) *PostRepository {
	return &PostRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*domain.Post, error) {
	var (
		p  domain.Post
		id int64
	)
	if err := row.Scan(&id, &p.Title, &p.Content, &p.Published, &p.AuthorID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.ID = formatID(id)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

// Create inserts p and sets p.ID to the generated key.
func (r *PostRepository) Create(ctx context.Context, p *domain.Post) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO posts (title, content, published, author_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		p.Title, p.Content, p.Published, p.AuthorID, p.CreatedAt.UTC(), p.UpdatedAt.UTC(),
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	p.ID = formatID(id)
	return nil
}

func (r *PostRepository) CheckID(id string) error {
	_, err := parseID(id, domain.ErrInvalidPostID)
	return err
}

// FindByID retrieves a post by id.
// When authorID is non-empty, an additional filter by author_id is applied.
func (r *PostRepository) FindByID(ctx context.Context, id string, authorID string) (*domain.Post, error) {
	key, err := parseID(id, domain.ErrInvalidPostID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`
	args := []any{key}
	if authorID != "" {
		query += ` AND author_id = $2`
		args = append(args, authorID)
	}

	p, err := scanPost(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPostNotFound
		}
		return nil, fmt.Errorf("find post: %w", err)
	}
	return p, nil
}

// List returns posts matching f, newest first.
func (r *PostRepository) List(ctx context.Context, f ports.ListPostsFilter) ([]*domain.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var (
		where []string
		args  []any
	)
	if f.AuthorID != "" {
		args = append(args, f.AuthorID)
		where = append(where, fmt.Sprintf("author_id = $%d", len(args)))
	}
	if f.PublishedOnly {
		args = append(args, true)
		where = append(where, fmt.Sprintf("published = $%d", len(args)))
	}

	query := `SELECT ` + postColumns + ` FROM posts`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := make([]*domain.Post, 0)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// Update overwrites the mutable columns in one statement scoped to id and author.
func (r *PostRepository) Update(ctx context.Context, p *domain.Post) error {
	key, err := parseID(p.ID, domain.ErrInvalidPostID)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx,
		`UPDATE posts SET title = $1, content = $2, published = $3, updated_at = $4
		 WHERE id = $5 AND author_id = $6`,
		p.Title, p.Content, p.Published, p.UpdatedAt.UTC(), key, p.AuthorID,
	)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	return requireAffected(res)
}

// Delete removes the post row permanently.
func (r *PostRepository) Delete(ctx context.Context, id string, authorID string) error {
	key, err := parseID(id, domain.ErrInvalidPostID)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `DELETE FROM posts WHERE id = $1`
	args := []any{key}
	if authorID != "" {
		query += ` AND author_id = $2`
		args = append(args, authorID)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrPostNotFound
	}
	return nil
}

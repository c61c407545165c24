package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/draftline/posts-service/internal/core/domain"
	"github.com/draftline/posts-service/internal/core/ports"
)

const userColumns = `id, username, name, email, password_hash, provider, provider_subject, created_at, updated_at`

type UserRepository struct {
	db *DB
}

var _ ports.UserRepository = (*UserRepository)(nil)

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		u       domain.User
		id      int64
		subject sql.NullString
	)
	err := row.Scan(&id, &u.Username, &u.Name, &u.Email, &u.PasswordHash, &u.Provider, &subject, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.ID = formatID(id)
	u.ProviderSubject = subject.String
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	subject := sql.NullString{String: user.ProviderSubject, Valid: user.ProviderSubject != ""}

	created, err := scanUser(r.db.QueryRowContext(ctx,
		`INSERT INTO users (username, name, email, password_hash, provider, provider_subject, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING `+userColumns,
		user.Username, user.Name, user.Email, user.PasswordHash, user.Provider, subject,
		user.CreatedAt.UTC(), user.UpdatedAt.UTC(),
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return created, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, `WHERE email = $1 AND provider = $2`, email, domain.ProviderLocal)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	key, err := parseID(id, errInvalidUserID)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, `WHERE id = $1`, key)
}

func (r *UserRepository) FindByProvider(ctx context.Context, provider, subject string) (*domain.User, error) {
	return r.findOne(ctx, `WHERE provider = $1 AND provider_subject = $2`, provider, subject)
}

func (r *UserRepository) findOne(ctx context.Context, where string, args ...any) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users `+where, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

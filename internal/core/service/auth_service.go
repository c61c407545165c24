package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/draftline/posts-service/internal/core/domain"
	"github.com/draftline/posts-service/internal/core/ports"
)

// AuthService implements local registration and login, and maps external
// identities onto user accounts.
type AuthService struct {
	repo      ports.UserRepository
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAuthService(repo ports.UserRepository, jwtSecret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{repo: repo, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if in.Username == "" || in.Password == "" || email == "" {
		return nil, domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		Username:     in.Username,
		Name:         in.Name,
		Email:        email,
		PasswordHash: string(hash),
		Provider:     domain.ProviderLocal,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	return s.repo.Create(ctx, user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}
	if user.PasswordHash == "" {
		// external account, no password to compare against
		return "", nil, domain.ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.IssueToken(user.Principal())
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}

// LoginExternal returns the account linked to identity, creating it on first sign-in.
func (s *AuthService) LoginExternal(ctx context.Context, identity domain.ExternalIdentity) (*domain.User, error) {
	if identity.Provider == "" || identity.Subject == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByProvider(ctx, identity.Provider, identity.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	return s.repo.Create(ctx, &domain.User{
		Name:            identity.Name,
		Email:           strings.ToLower(identity.Email),
		Provider:        identity.Provider,
		ProviderSubject: identity.Subject,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
}

// IssueToken signs an HS256 bearer token for p.
func (s *AuthService) IssueToken(p *domain.Principal) (string, error) {
	claims := jwt.MapClaims{
		"sub":   p.ID,
		"name":  p.Name,
		"email": p.Email,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}

package identity

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/draftline/posts-service/internal/core/domain"
)

// BearerBackend accepts HS256 tokens in the Authorization header.
type BearerBackend struct {
	secret []byte
}

func NewBearerBackend(secret string) *BearerBackend {
	return &BearerBackend{secret: []byte(secret)}
}

func (b *BearerBackend) Name() string { return BackendBearer }

func (b *BearerBackend) Authenticate(_ context.Context, r *http.Request) (*domain.Principal, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, ErrNoCredentials
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return nil, rejected("invalid authorization header")
	}

	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return b.secret, nil
	})
	if err != nil || !tkn.Valid {
		return nil, rejected("invalid token")
	}

	sub, _ := claims.GetSubject()
	if sub == "" {
		return nil, rejected("token missing subject")
	}

	name, _ := claims["name"].(string)
	email, _ := claims["email"].(string)
	return &domain.Principal{ID: sub, Name: name, Email: email}, nil
}

package handler

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/rs/zerolog"

	"github.com/draftline/posts-service/internal/core/domain"
)

type stubProvider struct {
	identity domain.ExternalIdentity
	err      error
}

func (p *stubProvider) AuthCodeURL(state string) string {
	return "https://provider.example/authorize?state=" + url.QueryEscape(state)
}

func (p *stubProvider) Exchange(_ context.Context, code string) (domain.ExternalIdentity, error) {
	if p.err != nil {
		return domain.ExternalIdentity{}, p.err
	}
	if code != "good" {
		return domain.ExternalIdentity{}, errors.New("invalid_grant")
	}
	return p.identity, nil
}

func newOAuthHandler(sessions *stubSessions, auth *stubAuthService) *OAuthHandler {
	providers := map[string]OAuthProvider{
		domain.ProviderGitHub: &stubProvider{identity: domain.ExternalIdentity{Provider: domain.ProviderGitHub, Subject: "42", Name: "octo"}},
	}
	return NewOAuthHandler(providers, auth, sessions, "/dashboard", zerolog.Nop())
}

func TestOAuthHandler_LoginRedirectsWithState(t *testing.T) {
	sessions := newStubSessions()
	h := newOAuthHandler(sessions, &stubAuthService{})

	c, rec := newContext(http.MethodGet, "/auth/github/login", "", "")
	c.SetParamNames("provider")
	c.SetParamValues("github")
	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("bad location: %v", err)
	}
	if state := loc.Query().Get("state"); state == "" || state != sessions.state["github"] {
		t.Fatalf("state in redirect %q does not match saved %q", state, sessions.state["github"])
	}
}

func TestOAuthHandler_UnknownProvider(t *testing.T) {
	h := newOAuthHandler(newStubSessions(), &stubAuthService{})
	c, _ := newContext(http.MethodGet, "/auth/okta/login", "", "")
	c.SetParamNames("provider")
	c.SetParamValues("okta")

	err := h.Login(c)
	if err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestOAuthHandler_CallbackStartsSession(t *testing.T) {
	sessions := newStubSessions()
	sessions.state["github"] = "s1"
	auth := &stubAuthService{
		loginExternalFn: func(ctx context.Context, identity domain.ExternalIdentity) (*domain.User, error) {
			if identity.Subject != "42" {
				t.Fatalf("unexpected identity: %+v", identity)
			}
			return &domain.User{ID: "u9", Name: identity.Name, Provider: identity.Provider}, nil
		},
	}
	h := newOAuthHandler(sessions, auth)

	c, rec := newContext(http.MethodGet, "/auth/github/callback?code=good&state=s1", "", "")
	c.SetParamNames("provider")
	c.SetParamValues("github")
	if err := h.Callback(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/dashboard" {
		t.Fatalf("expected redirect to dashboard, got %d %s", rec.Code, rec.Header().Get("Location"))
	}
	if len(sessions.begun) != 1 || sessions.begun[0].ID != "u9" {
		t.Fatalf("expected session for u9, got %+v", sessions.begun)
	}
}

func TestOAuthHandler_CallbackRejections(t *testing.T) {
	cases := []struct {
		name  string
		query string
		state string
	}{
		{"missing state", "?code=good", "s1"},
		{"wrong state", "?code=good&state=other", "s1"},
		{"provider error", "?error=access_denied&state=s1", "s1"},
		{"bad code", "?code=bad&state=s1", "s1"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sessions := newStubSessions()
			sessions.state["github"] = tc.state
			auth := &stubAuthService{
				loginExternalFn: func(ctx context.Context, identity domain.ExternalIdentity) (*domain.User, error) {
					t.Fatalf("should not sign in")
					return nil, nil
				},
			}
			h := newOAuthHandler(sessions, auth)

			c, _ := newContext(http.MethodGet, "/auth/github/callback"+tc.query, "", "")
			c.SetParamNames("provider")
			c.SetParamValues("github")
			if err := h.Callback(c); !errors.Is(err, domain.ErrUnauthorized) {
				t.Fatalf("expected ErrUnauthorized, got %v", err)
			}
			if len(sessions.begun) != 0 {
				t.Fatalf("no session expected")
			}
		})
	}
}

package identity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"golang.org/x/oauth2"

	"github.com/draftline/posts-service/internal/core/domain"
)

// fakeProvider serves a token endpoint and a profile endpoint.
func fakeProvider(t *testing.T, profile string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.Form.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer"}`))
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(profile))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func pointAt(p *OAuthProvider, srv *httptest.Server) *OAuthProvider {
	return p.WithEndpoints(oauth2.Endpoint{
		AuthURL:   srv.URL + "/authorize",
		TokenURL:  srv.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}, srv.URL+"/user")
}

func TestOAuthProvider_GitHubExchange(t *testing.T) {
	srv := fakeProvider(t, `{"id":4242,"login":"octo","name":"","email":"octo@example.com"}`)
	p := pointAt(NewGitHubProvider(OAuthCredentials{ClientID: "id", ClientSecret: "secret"}, "http://localhost/auth/github/callback"), srv)

	identity, err := p.Exchange(context.Background(), "good-code")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if identity.Provider != domain.ProviderGitHub || identity.Subject != "4242" {
		t.Fatalf("unexpected identity: %+v", identity)
	}
	if identity.Name != "octo" {
		t.Fatalf("expected name to fall back to login, got %q", identity.Name)
	}
}

func TestOAuthProvider_GoogleExchange(t *testing.T) {
	srv := fakeProvider(t, `{"sub":"g-1","name":"Erin","email":"erin@example.com"}`)
	p := pointAt(NewGoogleProvider(OAuthCredentials{ClientID: "id", ClientSecret: "secret"}, "http://localhost/cb"), srv)

	identity, err := p.Exchange(context.Background(), "good-code")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if identity.Provider != domain.ProviderGoogle || identity.Subject != "g-1" || identity.Email != "erin@example.com" {
		t.Fatalf("unexpected identity: %+v", identity)
	}
}

func TestOAuthProvider_ExchangeFailures(t *testing.T) {
	srv := fakeProvider(t, `{"login":"nobody"}`)
	p := pointAt(NewGitHubProvider(OAuthCredentials{ClientID: "id", ClientSecret: "secret"}, ""), srv)

	if _, err := p.Exchange(context.Background(), ""); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for empty code, got %v", err)
	}
	if _, err := p.Exchange(context.Background(), "bad-code"); err == nil {
		t.Fatalf("expected token exchange error")
	}
	if _, err := p.Exchange(context.Background(), "good-code"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for profile without id, got %v", err)
	}
}

func TestOAuthProvider_AuthCodeURL(t *testing.T) {
	p := NewGoogleProvider(OAuthCredentials{ClientID: "client", ClientSecret: "s"}, "http://localhost/auth/google/callback")
	u, err := url.Parse(p.AuthCodeURL("state-1"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	q := u.Query()
	if q.Get("state") != "state-1" || q.Get("client_id") != "client" || q.Get("redirect_uri") != "http://localhost/auth/google/callback" {
		t.Fatalf("unexpected auth url: %s", u)
	}
}

func TestNewProviders_OnlyConfigured(t *testing.T) {
	providers := NewProviders(ProvidersConfig{
		BaseURL: "http://localhost:8080",
		Google:  OAuthCredentials{ClientID: "id"},
		GitHub:  OAuthCredentials{ClientID: "id", ClientSecret: "secret"},
	})
	names := providers.Names()
	if len(names) != 1 || names[0] != domain.ProviderGitHub {
		t.Fatalf("expected only github, got %v", names)
	}
	if got := providers[domain.ProviderGitHub].config.RedirectURL; got != "http://localhost:8080/auth/github/callback" {
		t.Fatalf("unexpected redirect url: %s", got)
	}
}

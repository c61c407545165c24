package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"

	"github.com/draftline/posts-service/internal/core/domain"
)

const (
	googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
	githubUserInfoURL = "https://api.github.com/user"
)

// OAuthProvider runs the authorization code flow against one external
// identity provider and maps its user profile to an ExternalIdentity.
type OAuthProvider struct {
	name        string
	config      *oauth2.Config
	userInfoURL string
	decode      func([]byte) (domain.ExternalIdentity, error)
}

// OAuthCredentials are the client credentials of one provider.
type OAuthCredentials struct {
	ClientID     string
	ClientSecret string
}

func (c OAuthCredentials) configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

func NewGoogleProvider(creds OAuthCredentials, redirectURL string) *OAuthProvider {
	return &OAuthProvider{
		name: domain.ProviderGoogle,
		config: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			Endpoint:     google.Endpoint,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "profile", "email"},
		},
		userInfoURL: googleUserInfoURL,
		decode:      decodeGoogleUser,
	}
}

func NewGitHubProvider(creds OAuthCredentials, redirectURL string) *OAuthProvider {
	return &OAuthProvider{
		name: domain.ProviderGitHub,
		config: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			Endpoint:     github.Endpoint,
			RedirectURL:  redirectURL,
			Scopes:       []string{"read:user", "user:email"},
		},
		userInfoURL: githubUserInfoURL,
		decode:      decodeGitHubUser,
	}
}

// WithEndpoints points the provider at different token and profile URLs.
func (p *OAuthProvider) WithEndpoints(endpoint oauth2.Endpoint, userInfoURL string) *OAuthProvider {
	p.config.Endpoint = endpoint
	p.userInfoURL = userInfoURL
	return p
}

func (p *OAuthProvider) Name() string { return p.name }

// AuthCodeURL is the provider consent page carrying state.
func (p *OAuthProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state)
}

// Exchange trades an authorization code for the user's external identity.
func (p *OAuthProvider) Exchange(ctx context.Context, code string) (domain.ExternalIdentity, error) {
	if code == "" {
		return domain.ExternalIdentity{}, rejected("missing authorization code")
	}

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return domain.ExternalIdentity{}, fmt.Errorf("%s token exchange: %w", p.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return domain.ExternalIdentity{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.config.Client(ctx, token).Do(req)
	if err != nil {
		return domain.ExternalIdentity{}, fmt.Errorf("%s userinfo: %w", p.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.ExternalIdentity{}, fmt.Errorf("%s userinfo: %w", p.name, err)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.ExternalIdentity{}, fmt.Errorf("%s userinfo: unexpected status %d", p.name, resp.StatusCode)
	}

	identity, err := p.decode(body)
	if err != nil {
		return domain.ExternalIdentity{}, fmt.Errorf("%s userinfo: %w", p.name, err)
	}
	identity.Provider = p.name
	if identity.Subject == "" {
		return domain.ExternalIdentity{}, rejected(p.name + " profile has no subject")
	}
	return identity, nil
}

func decodeGoogleUser(body []byte) (domain.ExternalIdentity, error) {
	var u struct {
		Sub   string `json:"sub"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &u); err != nil {
		return domain.ExternalIdentity{}, err
	}
	return domain.ExternalIdentity{Subject: u.Sub, Name: u.Name, Email: u.Email}, nil
}

func decodeGitHubUser(body []byte) (domain.ExternalIdentity, error) {
	var u struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &u); err != nil {
		return domain.ExternalIdentity{}, err
	}
	identity := domain.ExternalIdentity{Name: u.Name, Email: u.Email}
	if u.ID != 0 {
		identity.Subject = strconv.FormatInt(u.ID, 10)
	}
	if identity.Name == "" {
		identity.Name = u.Login
	}
	return identity, nil
}

// Providers is the set of OAuth providers with credentials configured.
type Providers map[string]*OAuthProvider

// ProvidersConfig holds the credentials of every supported provider.
type ProvidersConfig struct {
	BaseURL string
	Google  OAuthCredentials
	GitHub  OAuthCredentials
}

// NewProviders registers each provider whose client id and secret are both set.
// Callback URLs are <BaseURL>/auth/<provider>/callback.
func NewProviders(cfg ProvidersConfig) Providers {
	providers := make(Providers)
	if cfg.Google.configured() {
		providers[domain.ProviderGoogle] = NewGoogleProvider(cfg.Google, callbackURL(cfg.BaseURL, domain.ProviderGoogle))
	}
	if cfg.GitHub.configured() {
		providers[domain.ProviderGitHub] = NewGitHubProvider(cfg.GitHub, callbackURL(cfg.BaseURL, domain.ProviderGitHub))
	}
	return providers
}

// Names returns the registered provider names, sorted.
func (p Providers) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func callbackURL(base, provider string) string {
	return base + "/auth/" + provider + "/callback"
}

package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/sessions"

	"github.com/draftline/posts-service/internal/core/domain"
	"github.com/draftline/posts-service/internal/core/ports"
)

const (
	sessionIDKey  = "sid"
	oauthStateKey = "oauth_state"
)

// MinSessionSecretLength is the shortest accepted cookie signing secret.
const MinSessionSecretLength = 32

// ErrStateMismatch is returned when an OAuth callback does not carry the
// state issued at login.
var ErrStateMismatch = errors.New("oauth state mismatch")

// SessionOptions configures the session cookie.
type SessionOptions struct {
	Secret     string
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// SessionBackend authenticates browser sessions. The signed cookie carries
// only a session id; the principal lives in the SessionStore.
type SessionBackend struct {
	cookies    sessions.Store
	store      ports.SessionStore
	cookieName string
}

func NewSessionBackend(store ports.SessionStore, opts SessionOptions) (*SessionBackend, error) {
	if len(opts.Secret) < MinSessionSecretLength {
		return nil, fmt.Errorf("session secret must be at least %d bytes", MinSessionSecretLength)
	}
	if opts.CookieName == "" {
		opts.CookieName = "posts_session"
	}
	if opts.TTL <= 0 {
		opts.TTL = 7 * 24 * time.Hour
	}

	cookies := sessions.NewCookieStore([]byte(opts.Secret))
	cookies.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(opts.TTL.Seconds()),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}

	return &SessionBackend{cookies: cookies, store: store, cookieName: opts.CookieName}, nil
}

func (s *SessionBackend) Name() string { return BackendSession }

// Authenticate resolves the session cookie. A cookie that no longer decodes
// or whose session has expired server-side counts as no credential.
func (s *SessionBackend) Authenticate(ctx context.Context, r *http.Request) (*domain.Principal, error) {
	if _, err := r.Cookie(s.cookieName); err != nil {
		return nil, ErrNoCredentials
	}

	sess, err := s.cookies.Get(r, s.cookieName)
	if err != nil {
		return nil, ErrNoCredentials
	}
	sid, _ := sess.Values[sessionIDKey].(string)
	if sid == "" {
		return nil, ErrNoCredentials
	}

	p, err := s.store.Get(ctx, sid)
	if err != nil {
		if errors.Is(err, ports.ErrSessionNotFound) {
			return nil, ErrNoCredentials
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	return p, nil
}

// Begin starts a session for p and writes the cookie.
func (s *SessionBackend) Begin(w http.ResponseWriter, r *http.Request, p *domain.Principal) error {
	sid, err := s.store.Create(r.Context(), p)
	if err != nil {
		return err
	}

	sess, _ := s.cookies.Get(r, s.cookieName)
	sess.Values[sessionIDKey] = sid
	delete(sess.Values, oauthStateKey)
	return sess.Save(r, w)
}

// End removes the server-side session and expires the cookie.
func (s *SessionBackend) End(w http.ResponseWriter, r *http.Request) error {
	sess, _ := s.cookies.Get(r, s.cookieName)
	if sid, _ := sess.Values[sessionIDKey].(string); sid != "" {
		if err := s.store.Delete(r.Context(), sid); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
	}
	sess.Values = map[interface{}]interface{}{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// SaveState stores the OAuth state for provider in the cookie.
func (s *SessionBackend) SaveState(w http.ResponseWriter, r *http.Request, provider, state string) error {
	sess, _ := s.cookies.Get(r, s.cookieName)
	sess.Values[oauthStateKey] = provider + ":" + state
	return sess.Save(r, w)
}

// CheckState consumes the stored OAuth state and compares it with got.
func (s *SessionBackend) CheckState(w http.ResponseWriter, r *http.Request, provider, got string) error {
	sess, err := s.cookies.Get(r, s.cookieName)
	if err != nil {
		return ErrStateMismatch
	}
	want, _ := sess.Values[oauthStateKey].(string)
	delete(sess.Values, oauthStateKey)
	if err := sess.Save(r, w); err != nil {
		return err
	}
	if want == "" || got == "" || want != provider+":"+got {
		return ErrStateMismatch
	}
	return nil
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/draftline/posts-service/internal/api/middleware"
	"github.com/draftline/posts-service/internal/core/domain"
	"github.com/draftline/posts-service/internal/core/service"
	"github.com/draftline/posts-service/internal/identity"
	"github.com/draftline/posts-service/internal/infrastructure/db/sqlstore"
	"github.com/draftline/posts-service/internal/infrastructure/http/handlers"
)

const testSecret = "router-test-secret"

func newTestRouter(t *testing.T) *echo.Echo {
	t.Helper()
	return newTestRouterWith(t, nil)
}

// newTestRouterWith builds the router over a fresh sqlite database. A nil
// auth uses the bearer chain signed with testSecret.
func newTestRouterWith(t *testing.T, auth middleware.Authenticator) *echo.Echo {
	t.Helper()
	ctx := context.Background()

	db, err := sqlstore.Open(ctx, sqlstore.Config{Driver: sqlstore.DriverSQLite, DSN: filepath.Join(t.TempDir(), "api.db")})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.Migrate(ctx, zerolog.Nop()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	chain, err := identity.NewChain([]string{identity.BackendBearer}, identity.NewBearerBackend(testSecret))
	if err != nil {
		t.Fatalf("chain: %v", err)
	}
	if auth == nil {
		auth = chain
	}

	return NewRouter(Deps{
		Log:      zerolog.Nop(),
		Posts:    service.NewPostService(sqlstore.NewPostRepository(db), zerolog.Nop()),
		Auth:     service.NewAuthService(sqlstore.NewUserRepository(db), testSecret, time.Hour),
		Identity: auth,
		Backends: chain.Names(),
		Health:   []handlers.Dependency{db},
		Registry: prometheus.NewRegistry(),
	})
}

func do(t *testing.T, e *echo.Echo, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func signup(t *testing.T, e *echo.Echo, username string) string {
	t.Helper()
	email := username + "@example.com"
	rec := do(t, e, http.MethodPost, "/auth/register", "", map[string]string{
		"username": username, "email": email, "password": "correct-horse",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d body %s", username, rec.Code, rec.Body.String())
	}

	rec = do(t, e, http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": "correct-horse"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", username, rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	decode(t, rec, &resp)
	if resp.Token == "" {
		t.Fatalf("login %s: empty token", username)
	}
	return resp.Token
}

func TestRouter_PostLifecycle(t *testing.T) {
	e := newTestRouter(t)
	alice := signup(t, e, "alice")
	bob := signup(t, e, "bob")

	rec := do(t, e, http.MethodPost, "/v1/posts", "", map[string]string{"title": "anon"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous create: expected 401, got %d", rec.Code)
	}

	rec = do(t, e, http.MethodPost, "/v1/posts", alice, map[string]string{"title": "First", "content": "hello"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d body %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID        string    `json:"id"`
		Title     string    `json:"title"`
		Published bool      `json:"published"`
		AuthorID  string    `json:"author_id"`
		CreatedAt time.Time `json:"created_at"`
	}
	decode(t, rec, &created)
	if created.ID == "" || created.Published || created.AuthorID == "" {
		t.Fatalf("unexpected created post: %+v", created)
	}
	if loc := rec.Header().Get(echo.HeaderLocation); loc != "/v1/posts/"+created.ID {
		t.Fatalf("unexpected Location %q", loc)
	}

	rec = do(t, e, http.MethodGet, "/v1/posts/"+created.ID, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: status %d", rec.Code)
	}
	var fetched struct {
		CreatedAt time.Time `json:"created_at"`
	}
	decode(t, rec, &fetched)
	if !fetched.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("created_at changed between create and get: %v vs %v", created.CreatedAt, fetched.CreatedAt)
	}

	rec = do(t, e, http.MethodPut, "/v1/posts/abc", alice, map[string]string{"title": ""})
	var bad struct {
		Kind string `json:"kind"`
	}
	decode(t, rec, &bad)
	if rec.Code != http.StatusBadRequest || bad.Kind != "invalid_input" {
		t.Fatalf("malformed id with empty title: expected 400 invalid_input, got %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, e, http.MethodPut, "/v1/posts/"+created.ID, bob, map[string]string{"title": "hijacked"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("foreign update: expected 404, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "First") {
		t.Fatalf("foreign update leaked the post: %s", rec.Body.String())
	}

	rec = do(t, e, http.MethodPatch, "/v1/posts/"+created.ID+"/published", alice, map[string]bool{"published": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("publish: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = do(t, e, http.MethodGet, "/v1/me/posts", bob, nil)
	var bobs struct {
		Total int `json:"total"`
	}
	decode(t, rec, &bobs)
	if rec.Code != http.StatusOK || bobs.Total != 0 {
		t.Fatalf("bob dashboard: status %d total %d", rec.Code, bobs.Total)
	}

	rec = do(t, e, http.MethodDelete, "/v1/posts/"+created.ID, alice, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status %d", rec.Code)
	}
	rec = do(t, e, http.MethodGet, "/v1/posts/"+created.ID, "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", rec.Code)
	}
}

func TestRouter_MeRequiresCaller(t *testing.T) {
	e := newTestRouter(t)

	if rec := do(t, e, http.MethodGet, "/v1/me", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if rec := do(t, e, http.MethodGet, "/v1/me", "not-a-token", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a bad token, got %d", rec.Code)
	}

	token := signup(t, e, "carol")
	rec := do(t, e, http.MethodGet, "/v1/me", token, nil)
	var me struct {
		Name string `json:"name"`
	}
	decode(t, rec, &me)
	if rec.Code != http.StatusOK || me.Name != "carol" {
		t.Fatalf("me: status %d body %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_ProbesAndMetrics(t *testing.T) {
	e := newTestRouter(t)

	if rec := do(t, e, http.MethodGet, "/health", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("liveness: %d", rec.Code)
	}
	if rec := do(t, e, http.MethodGet, "/health/ready", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("readiness: %d body %s", rec.Code, rec.Body.String())
	}

	rec := do(t, e, http.MethodGet, "/auth/providers", "", nil)
	var providers struct {
		Backends  []string `json:"backends"`
		Providers []string `json:"providers"`
	}
	decode(t, rec, &providers)
	if len(providers.Backends) != 1 || providers.Backends[0] != identity.BackendBearer || len(providers.Providers) != 0 {
		t.Fatalf("unexpected providers: %+v", providers)
	}

	rec = do(t, e, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "requests_total") {
		t.Fatalf("expected request metrics, got %s", rec.Body.String())
	}
}

func TestRouter_PublicReadsIgnoreCredentials(t *testing.T) {
	e := newTestRouter(t)
	alice := signup(t, e, "alice")

	rec := do(t, e, http.MethodPost, "/v1/posts", alice, map[string]string{"title": "Visible"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d body %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID string `json:"id"`
	}
	decode(t, rec, &created)

	for _, path := range []string{"/v1/posts", "/v1/posts/" + created.ID} {
		if rec := do(t, e, http.MethodGet, path, "expired.or.garbage", nil); rec.Code != http.StatusOK {
			t.Fatalf("GET %s with a bad token: expected 200, got %d body %s", path, rec.Code, rec.Body.String())
		}
	}

	// Mutations still reject the bad token.
	if rec := do(t, e, http.MethodPost, "/v1/posts", "expired.or.garbage", map[string]string{"title": "x"}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("create with a bad token: expected 401, got %d", rec.Code)
	}
}

type failingAuthenticator struct{ err error }

func (f failingAuthenticator) Authenticate(context.Context, *http.Request) (*domain.Principal, error) {
	return nil, f.err
}

func TestRouter_PublicReadsSurviveIdentityOutage(t *testing.T) {
	e := newTestRouterWith(t, failingAuthenticator{err: errors.New("session store unavailable")})

	if rec := do(t, e, http.MethodGet, "/v1/posts", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d body %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, e, http.MethodGet, "/v1/posts/1", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("get missing: expected 404, got %d body %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, e, http.MethodGet, "/v1/posts/abc", "", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("get malformed: expected 400, got %d", rec.Code)
	}

	rec := do(t, e, http.MethodGet, "/v1/me/posts", "", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("dashboard during outage: expected 500, got %d", rec.Code)
	}
	if body := rec.Body.String(); strings.Contains(body, "unavailable") {
		t.Fatalf("outage cause leaked: %s", body)
	}
}

package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/shortmark/shortmark/internal/api"
	"github.com/shortmark/shortmark/internal/auth"
	"github.com/shortmark/shortmark/internal/logger"
	"github.com/shortmark/shortmark/internal/redirect"
	"github.com/shortmark/shortmark/internal/store"
	"github.com/shortmark/shortmark/internal/testutil"
)

// testEnv holds the router and the stores behind it.
type testEnv struct {
	Router    http.Handler
	Auth      *auth.Service
	Bookmarks *store.BookmarkStore
	Users     *store.UserStore
	DB        *sqlx.DB
}

type envOption func(*api.Deps)

func withRateLimit(rps float64, burst int) envOption {
	return func(d *api.Deps) { d.RateLimit = api.RateLimitConfig{RPS: rps, Burst: burst} }
}

func withTrustProxy() envOption {
	return func(d *api.Deps) { d.TrustProxy = true }
}

func withPinger(p api.Pinger) envOption {
	return func(d *api.Deps) { d.DB = p }
}

// newTestEnv creates a fresh SQLite database, runs migrations, and wires up
// the full router with real stores.
func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	db := testutil.NewTestDB(t)

	users := store.NewUserStore(db)
	bookmarks := store.NewBookmarkStore(db, nil)
	tokens, err := auth.NewTokens(auth.TokenOptions{})
	require.NoError(t, err)
	svc := auth.NewService(users, auth.BcryptHasher{Cost: bcrypt.MinCost}, tokens)

	deps := api.Deps{
		Auth:      svc,
		Bookmarks: bookmarks,
		Resolver:  redirect.New(bookmarks, nil, logger.Nop()),
		DB:        db,
		Log:       logger.Nop(),
		RateLimit: api.RateLimitConfig{RPS: 1000, Burst: 1000},
	}
	for _, o := range opts {
		o(&deps)
	}

	return &testEnv{
		Router:    api.NewRouter(deps),
		Auth:      svc,
		Bookmarks: bookmarks,
		Users:     users,
		DB:        db,
	}
}

// do sends a request with an optional JSON body and bearer token.
func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.Router.ServeHTTP(rec, req)
	return rec
}

// login registers name (if needed) and returns its credentials.
func (e *testEnv) login(t *testing.T, name string) *auth.Credentials {
	t.Helper()
	ctx := context.Background()
	email := name + "@example.com"
	if _, err := e.Users.GetByEmail(ctx, email); err != nil {
		_, err := e.Auth.Register(ctx, name, email, "secret1")
		require.NoError(t, err)
	}
	creds, err := e.Auth.Authenticate(ctx, email, "secret1")
	require.NoError(t, err)
	return creds
}

func (e *testEnv) seedBookmark(t *testing.T, owner *auth.Credentials, url string) *store.Bookmark {
	t.Helper()
	b, err := e.Bookmarks.Create(context.Background(), owner.User.ID, url, "")
	require.NoError(t, err)
	return b
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), "body: %s", rec.Body.String())
	return v
}

// requireError asserts status and the error envelope, returning its only entry.
func requireError(t *testing.T, rec *httptest.ResponseRecorder, status int) api.ErrorObject {
	t.Helper()
	require.Equal(t, status, rec.Code, "body: %s", rec.Body.String())
	body := decode[api.ErrorResponse](t, rec)
	require.Len(t, body.Errors, 1)
	require.Equal(t, fmt.Sprint(status), body.Errors[0].Status)
	return body.Errors[0]
}

package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"taskdo/internal/auth"
	"taskdo/internal/models"
	"taskdo/internal/storage/sqlite"
)

// fakeAuthService resolves canned tokens to canned users. Verify hands out
// "tok-<hash>" so confirm tests can predict the cookie value.
type fakeAuthService struct {
	users     map[string]models.User
	signInErr error
	verifyErr error
	signedOut []string
}

func (f *fakeAuthService) SignInWithOTP(ctx context.Context, email string) error {
	return f.signInErr
}

func (f *fakeAuthService) VerifyOTP(ctx context.Context, tokenHash, otpType string) (auth.Session, error) {
	if f.verifyErr != nil {
		return auth.Session{}, f.verifyErr
	}
	return auth.Session{AccessToken: "tok-" + tokenHash, ExpiresIn: 3600}, nil
}

func (f *fakeAuthService) GetUser(ctx context.Context, accessToken string) (models.User, error) {
	user, ok := f.users[accessToken]
	if !ok {
		return models.User{}, auth.ErrUnauthorized
	}
	return user, nil
}

func (f *fakeAuthService) SignOut(ctx context.Context, accessToken string) error {
	f.signedOut = append(f.signedOut, accessToken)
	return nil
}

type fakeExtractor struct {
	extraction models.Extraction
	err        error
	lastInput  string
}

func (f *fakeExtractor) Extract(ctx context.Context, text string) (models.Extraction, error) {
	f.lastInput = text
	return f.extraction, f.err
}

type testEnv struct {
	srv       *Server
	store     *sqlite.Store
	auth      *fakeAuthService
	extractor *fakeExtractor
	user      models.User
	token     string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	user := models.User{ID: uuid.New(), Email: "a@b.com"}
	authSvc := &fakeAuthService{users: map[string]models.User{"tok-valid": user}}
	extractor := &fakeExtractor{}

	srv := New(Options{
		Store:     store,
		Auth:      authSvc,
		Extractor: extractor,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		BaseURL:   "http://app.example.com",
	})

	return &testEnv{
		srv:       srv,
		store:     store,
		auth:      authSvc,
		extractor: extractor,
		user:      user,
		token:     "tok-valid",
	}
}

func (e *testEnv) request(t *testing.T, method, path, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: e.token})
	}

	rec := httptest.NewRecorder()
	e.srv.Engine().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	rec := env.request(t, http.MethodGet, "/api/healthz", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)
	rec := env.request(t, http.MethodPatch, "/api/task/1", `{}`, true)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	require.Contains(t, rec.Body.String(), "error")
}

var errBackend = errors.New("backend exploded")

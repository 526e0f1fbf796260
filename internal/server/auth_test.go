package server

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodPost, "/api/auth/login", `{"email":"a@b.com"}`, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{}`, rec.Body.String())
}

func TestLoginRequiresEmail(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodPost, "/api/auth/login", `{}`, false)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email is required")
}

func TestLoginBackendPaused(t *testing.T) {
	env := newTestEnv(t)
	env.auth.signInErr = errors.New("Project is paused")

	rec := env.request(t, http.MethodPost, "/api/auth/login", `{"email":"a@b.com"}`, false)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "temporarily unavailable")
}

func TestLoginBackendError(t *testing.T) {
	env := newTestEnv(t)
	env.auth.signInErr = errors.New("email rate limit exceeded")

	rec := env.request(t, http.MethodPost, "/api/auth/login", `{"email":"a@b.com"}`, false)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "email rate limit exceeded")
}

func TestConfirmSetsSessionAndRedirects(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodGet, "/api/auth/confirm?token_hash=valid&type=email", "", false)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "http://app.example.com", rec.Header().Get("Location"))

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	var session *http.Cookie
	for _, c := range cookies {
		if c.Name == sessionCookie {
			session = c
		}
	}
	require.NotNil(t, session)
	assert.Equal(t, "tok-valid", session.Value)
	assert.True(t, session.HttpOnly)
}

func TestConfirmHonorsNext(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodGet, "/api/auth/confirm?token_hash=valid&type=email&next=%2Fsomewhere", "", false)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/somewhere", rec.Header().Get("Location"))
}

func TestConfirmMissingParams(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodGet, "/api/auth/confirm?type=email", "", false)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "token_hash")
}

func TestConfirmVerifyFailureRedirectsToLogin(t *testing.T) {
	env := newTestEnv(t)
	env.auth.verifyErr = errors.New("otp expired")

	rec := env.request(t, http.MethodGet, "/api/auth/confirm?token_hash=stale&type=email", "", false)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "http://app.example.com/login?error=otp+expired", rec.Header().Get("Location"))
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodGet, "/logout", "", true)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Equal(t, []string{"tok-valid"}, env.auth.signedOut)

	var cleared *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie {
			cleared = c
		}
	}
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)
}

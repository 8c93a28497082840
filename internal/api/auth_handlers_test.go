package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimirswell/mimirswell-server/internal/domain"
	"github.com/mimirswell/mimirswell-server/internal/ratelimit"
)

func registerAndLogin(t *testing.T, ts *testServer) (LoginResponse, string) {
	t.Helper()

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":    "astrid@example.com",
		"password": "correct horse",
		"name":     "Astrid",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	resp = ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "astrid@example.com",
		"password": "correct horse",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	env := decodeEnvelope[LoginResponse](t, resp)
	return env.Data, resp.Header().Get("Set-Cookie")
}

func TestAuth_RegisterLoginMe(t *testing.T) {
	ts := setupTestServer(t)

	login, cookie := registerAndLogin(t, ts)
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, "astrid@example.com", login.User.Email)
	assert.Empty(t, login.User.PasswordHash)
	assert.True(t, login.ExpiresAt.After(day0))

	assert.True(t, strings.HasPrefix(cookie, "token="+login.Token))
	assert.Contains(t, cookie, "HttpOnly")

	t.Run("bearer token", func(t *testing.T) {
		resp := ts.api.Get("/api/v1/auth/me", "Authorization: Bearer "+login.Token)
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

		env := decodeEnvelope[domain.User](t, resp)
		assert.True(t, env.Success)
		assert.Equal(t, "Astrid", env.Data.Name)
	})

	t.Run("session cookie", func(t *testing.T) {
		resp := ts.api.Get("/api/v1/auth/me", "Cookie: token="+login.Token)
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		assert.Equal(t, login.User.ID, decodeEnvelope[domain.User](t, resp).Data.ID)
	})
}

func TestAuth_RegisterDuplicateEmail(t *testing.T) {
	ts := setupTestServer(t)
	registerAndLogin(t, ts)

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":    "ASTRID@example.com",
		"password": "another password",
		"name":     "Other",
	})
	assert.Equal(t, http.StatusConflict, resp.Code)

	env := decodeEnvelope[any](t, resp)
	assert.False(t, env.Success)
	assert.Equal(t, "ALREADY_EXISTS", env.Code)
}

func TestAuth_RegisterValidation(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":    "not-an-email",
		"password": "short",
		"name":     "Astrid",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeEnvelope[any](t, resp).Code)
}

func TestAuth_LoginWrongPassword(t *testing.T) {
	ts := setupTestServer(t)
	registerAndLogin(t, ts)

	resp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "astrid@example.com",
		"password": "wrong password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", decodeEnvelope[any](t, resp).Code)
	assert.Empty(t, resp.Header().Get("Set-Cookie"))
}

func TestAuth_LoginRateLimited(t *testing.T) {
	limiter := ratelimit.New(0.001, 2)
	t.Cleanup(limiter.Stop)
	ts := setupTestServer(t, withLoginLimiter(limiter))

	body := map[string]any{"email": "nobody@example.com", "password": "whatever"}
	for range 2 {
		resp := ts.api.Post("/api/v1/auth/login", body)
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	}

	resp := ts.api.Post("/api/v1/auth/login", body)
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.Equal(t, "RATE_LIMITED", decodeEnvelope[any](t, resp).Code)
}

func TestAuth_Logout(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/auth/logout")
	require.Equal(t, http.StatusOK, resp.Code)

	cookie := resp.Header().Get("Set-Cookie")
	assert.True(t, strings.HasPrefix(cookie, "token=;"))
	assert.Contains(t, cookie, "Max-Age=0")
}

func TestAuth_MeRequiresAuthentication(t *testing.T) {
	ts := setupTestServer(t)

	tests := []struct {
		name   string
		header []any
	}{
		{"no credentials", nil},
		{"garbage token", []any{"Authorization: Bearer not-a-token"}},
		{"malformed cookie", []any{"Cookie: token=abc.def.ghi"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Get("/api/v1/auth/me", tt.header...)
			assert.Equal(t, http.StatusUnauthorized, resp.Code)

			env := decodeEnvelope[any](t, resp)
			assert.False(t, env.Success)
			assert.Equal(t, "UNAUTHORIZED", env.Code)
		})
	}
}

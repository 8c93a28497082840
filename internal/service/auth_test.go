package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimirswell/mimirswell-server/internal/auth"
	domainerrors "github.com/mimirswell/mimirswell-server/internal/errors"
	"github.com/mimirswell/mimirswell-server/internal/ratelimit"
)

func newAuthService(t *testing.T, f *fixture, limiter *ratelimit.KeyedRateLimiter) *AuthService {
	t.Helper()
	tokens, err := auth.NewTokenService([]byte("0123456789abcdef0123456789abcdef"), time.Hour, f.clock)
	require.NoError(t, err)
	return NewAuthService(f.store, tokens, limiter, f.clock, f.logger)
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	svc := newAuthService(t, f, nil)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterRequest{Email: " Astrid@Example.com ", Password: "correct horse", Name: "Astrid"})
	require.NoError(t, err)
	assert.Equal(t, "astrid@example.com", user.Email)
	assert.Empty(t, user.PasswordHash)
	assert.NotEmpty(t, user.ID)

	resp, err := svc.Login(ctx, LoginRequest{Email: "ASTRID@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, day0.Add(time.Hour), resp.ExpiresAt)
	assert.Equal(t, user.ID, resp.User.ID)
	assert.Empty(t, resp.User.PasswordHash)

	claims, err := svc.VerifyToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "astrid@example.com", claims.Email)

	me, err := svc.Me(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, me.LastLoginAt)
	assert.Equal(t, day0, me.LastLoginAt.UTC())
}

func TestAuthService_Failures(t *testing.T) {
	f := newFixture(t)
	svc := newAuthService(t, f, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Email: "astrid@example.com", Password: "correct horse", Name: "Astrid"})
	require.NoError(t, err)

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.Register(ctx, RegisterRequest{Email: "ASTRID@example.com", Password: "another pass", Name: "Other"})
		assert.ErrorIs(t, err, domainerrors.ErrAlreadyExists)
	})

	t.Run("short password", func(t *testing.T) {
		_, err := svc.Register(ctx, RegisterRequest{Email: "new@example.com", Password: "short", Name: "New"})
		assert.ErrorIs(t, err, domainerrors.ErrValidation)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, LoginRequest{Email: "astrid@example.com", Password: "wrong horse"})
		assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "correct horse"})
		assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
	})

	t.Run("bad token", func(t *testing.T) {
		_, err := svc.VerifyToken("not-a-token")
		assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
	})

	t.Run("expired token", func(t *testing.T) {
		resp, err := svc.Login(ctx, LoginRequest{Email: "astrid@example.com", Password: "correct horse"})
		require.NoError(t, err)
		f.clock.Advance(2 * time.Hour)
		_, err = svc.VerifyToken(resp.Token)
		assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
	})
}

func TestAuthService_LoginRateLimit(t *testing.T) {
	f := newFixture(t)
	limiter := ratelimit.New(ratelimit.PerMinute(1), 2)
	t.Cleanup(limiter.Stop)
	svc := newAuthService(t, f, limiter)
	ctx := context.Background()

	req := LoginRequest{Email: "nobody@example.com", Password: "whatever", IPAddress: "203.0.113.9"}
	for range 2 {
		_, err := svc.Login(ctx, req)
		assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
	}
	_, err := svc.Login(ctx, req)
	assert.ErrorIs(t, err, domainerrors.ErrRateLimited)

	req.IPAddress = "203.0.113.10"
	_, err = svc.Login(ctx, req)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

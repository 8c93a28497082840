package auth

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimirswell/mimirswell-server/internal/clock"
	"github.com/mimirswell/mimirswell-server/internal/domain"
)

// cheap keeps hashing fast in tests.
var cheap = Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPasswordWith("correct horse", cheap)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$"))

	assert.True(t, VerifyPassword(hash, "correct horse"))
	assert.False(t, VerifyPassword(hash, "battery staple"))
	assert.False(t, VerifyPassword("not-a-hash", "correct horse"))
}

func TestHashPassword_SaltsDiffer(t *testing.T) {
	a, err := HashPasswordWith("same", cheap)
	require.NoError(t, err)
	b, err := HashPasswordWith("same", cheap)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestHashPassword_Limits(t *testing.T) {
	_, err := HashPassword("")
	assert.ErrorIs(t, err, ErrEmptyPassword)

	_, err = HashPassword(strings.Repeat("x", MaxPasswordLength+1))
	assert.Error(t, err)

	assert.False(t, VerifyPassword("$argon2id$v=19$m=1,t=1,p=1$AA$AA", strings.Repeat("x", MaxPasswordLength+1)))
}

func TestNeedsRehash(t *testing.T) {
	weak, err := HashPasswordWith("pw", cheap)
	require.NoError(t, err)
	assert.True(t, NeedsRehash(weak))
	assert.True(t, NeedsRehash("garbage"))
}

func newTokens(t *testing.T, clk clock.Clock) *TokenService {
	t.Helper()
	svc, err := NewTokenService([]byte("0123456789abcdef0123456789abcdef"), time.Hour, clk)
	require.NoError(t, err)
	return svc
}

func TestTokenService_IssueVerify(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	clk := clock.NewMock(now)
	svc := newTokens(t, clk)

	user := &domain.User{ID: "usr-1", Email: "ada@example.com"}
	token, exp, err := svc.Issue(user)
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), exp)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "usr-1", claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)

	clk.Advance(2 * time.Hour)
	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_RejectsForeignTokens(t *testing.T) {
	svc := newTokens(t, nil)

	_, err := svc.Verify("")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other, err := NewTokenService([]byte("another-secret-another-secret-xx"), time.Hour, nil)
	require.NoError(t, err)
	token, _, err := other.Issue(&domain.User{ID: "usr-1"})
	require.NoError(t, err)
	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// alg=none is never accepted.
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "usr-1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.Verify(unsigned)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestNewTokenService_Defaults(t *testing.T) {
	_, err := NewTokenService(nil, 0, nil)
	assert.Error(t, err)

	svc, err := NewTokenService([]byte("k"), 0, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultTokenTTL, svc.TTL())
}

func TestResolveSecret(t *testing.T) {
	secret, persisted, err := ResolveSecret("from-config", "")
	require.NoError(t, err)
	assert.True(t, persisted)
	assert.Equal(t, []byte("from-config"), secret)

	ephemeral, persisted, err := ResolveSecret("", "")
	require.NoError(t, err)
	assert.False(t, persisted)
	assert.Len(t, ephemeral, secretLength)

	dir := t.TempDir()
	first, persisted, err := ResolveSecret("", dir)
	require.NoError(t, err)
	assert.True(t, persisted)
	second, _, err := ResolveSecret("", dir)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	require.NoError(t, os.WriteFile(filepath.Join(dir, secretFile), []byte("short"), 0o600))
	_, _, err = ResolveSecret("", dir)
	assert.Error(t, err)
}

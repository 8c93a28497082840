package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mimirswell/mimirswell-server/internal/clock"
	"github.com/mimirswell/mimirswell-server/internal/domain"
)

const (
	tokenIssuer = "mimirswell"

	// CookieName is the HttpOnly cookie holding the session token.
	CookieName = "token"

	// DefaultTokenTTL matches the cookie lifetime.
	DefaultTokenTTL = 7 * 24 * time.Hour
)

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("invalid token")

// TokenService signs and verifies HS256 session tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

// NewTokenService creates a token service. A zero ttl uses DefaultTokenTTL.
func NewTokenService(secret []byte, ttl time.Duration, clk clock.Clock) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, errors.New("token secret cannot be empty")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if clk == nil {
		clk = clock.New()
	}
	return &TokenService{secret: secret, ttl: ttl, clock: clk}, nil
}

// Issue signs a token for user and returns it with its expiry.
func (s *TokenService) Issue(user *domain.User) (string, time.Time, error) {
	now := s.clock.Now()
	exp := now.Add(s.ttl)

	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify parses and validates a token, returning its claims.
func (s *TokenService) Verify(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(s.clock.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

// TTL returns the configured token lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

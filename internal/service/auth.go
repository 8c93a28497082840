package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mimirswell/mimirswell-server/internal/auth"
	"github.com/mimirswell/mimirswell-server/internal/clock"
	"github.com/mimirswell/mimirswell-server/internal/domain"
	domainerrors "github.com/mimirswell/mimirswell-server/internal/errors"
	"github.com/mimirswell/mimirswell-server/internal/id"
	"github.com/mimirswell/mimirswell-server/internal/ratelimit"
	"github.com/mimirswell/mimirswell-server/internal/store"
)

// AuthService handles registration, login and token verification.
type AuthService struct {
	store   store.Store
	tokens  *auth.TokenService
	limiter *ratelimit.KeyedRateLimiter
	clock   clock.Clock
	logger  *slog.Logger
}

// NewAuthService creates a new authentication service. limiter may be nil to
// disable login throttling.
func NewAuthService(
	st store.Store,
	tokens *auth.TokenService,
	limiter *ratelimit.KeyedRateLimiter,
	clk clock.Clock,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		store:   st,
		tokens:  tokens,
		limiter: limiter,
		clock:   clk,
		logger:  logger,
	}
}

// RegisterRequest contains the new account details.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=1024"`
	Name     string `json:"name" validate:"required,max=100"`
}

// LoginRequest contains user credentials.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IPAddress string `json:"-"` // Extracted from request by handler
}

// AuthResponse is returned after a successful login.
type AuthResponse struct {
	User      *domain.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

// Register creates a new reader account.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	req.Email = normalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, domainerrors.Internalf("hash password: %v", err)
	}

	userID, err := id.Generate(id.PrefixUser)
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	now := s.clock.Now()
	user := &domain.User{
		ID:           userID,
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("email already in use")
		}
		return nil, storeError(err, "create user")
	}

	s.logger.Info("user registered", "user_id", userID)
	return user.Public(), nil
}

// Login authenticates a reader and issues a session token.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if s.limiter != nil && req.IPAddress != "" && !s.limiter.Allow(req.IPAddress) {
		s.logger.Warn("login rate limited", "ip", req.IPAddress)
		return nil, domainerrors.RateLimited("too many login attempts, try again later")
	}

	req.Email = normalizeEmail(req.Email)
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Don't leak whether email exists
			return nil, domainerrors.InvalidCredentials("invalid email or password")
		}
		return nil, storeError(err, "lookup user")
	}

	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		return nil, domainerrors.InvalidCredentials("invalid email or password")
	}

	now := s.clock.Now()
	user.LastLoginAt = &now
	user.UpdatedAt = now
	if auth.NeedsRehash(user.PasswordHash) {
		if rehashed, err := auth.HashPassword(req.Password); err == nil {
			user.PasswordHash = rehashed
		}
	}
	if err := s.store.UpdateUser(ctx, user); err != nil {
		// Log but don't fail login
		s.logger.Warn("failed to update last login time",
			"user_id", user.ID,
			"error", err,
		)
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, domainerrors.Internalf("issue token: %v", err)
	}

	s.logger.Info("user logged in", "user_id", user.ID)

	return &AuthResponse{
		User:      user.Public(),
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// Me returns the public view of the authenticated user.
func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.Unauthorized("user no longer exists")
		}
		return nil, storeError(err, "get user")
	}
	return user.Public(), nil
}

// VerifyToken validates a session token and returns its claims.
// Used by authentication middleware.
func (s *AuthService) VerifyToken(token string) (*auth.Claims, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, domainerrors.Unauthorized("invalid or expired token").WithCause(err)
	}
	return claims, nil
}

// TokenTTL returns the session token lifetime, used for cookie expiry.
func (s *AuthService) TokenTTL() time.Duration {
	return s.tokens.TTL()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/mimirswell/mimirswell-server/internal/auth"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

const (
	userIDKey   ctxKey = "userID"
	clientIPKey ctxKey = "clientIP"
)

// tokenVerifier validates session tokens.
type tokenVerifier interface {
	VerifyToken(token string) (*auth.Claims, error)
}

// GetUserID returns the authenticated user ID from context.
// Returns 401 error if user is not authenticated.
func GetUserID(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDKey).(string)
	if !ok || userID == "" {
		return "", huma.Error401Unauthorized("Authentication required")
	}
	return userID, nil
}

// optionalUserID returns the caller's ID, or "" for anonymous requests.
func optionalUserID(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}

// setUserID stores the user ID in context.
func setUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// authMiddleware returns a middleware that validates the session token and
// stores the user ID in context. The token comes from a Bearer header or,
// failing that, the session cookie. Missing or invalid tokens leave the
// request anonymous; handlers use GetUserID to require authentication.
func authMiddleware(verifier tokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" || verifier == nil {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := setUserID(r.Context(), claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// tokenFromRequest extracts a session token from the Authorization header or
// the session cookie.
func tokenFromRequest(r *http.Request) string {
	if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
		return token
	}
	if c, err := r.Cookie(auth.CookieName); err == nil {
		return c.Value
	}
	return ""
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

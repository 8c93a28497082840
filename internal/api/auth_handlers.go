package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/mimirswell/mimirswell-server/internal/auth"
	"github.com/mimirswell/mimirswell-server/internal/domain"
	"github.com/mimirswell/mimirswell-server/internal/service"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "register",
		Method:        http.MethodPost,
		Path:          "/api/v1/auth/register",
		Summary:       "Create an account",
		Description:   "Registers a new reader with email and password",
		Tags:          []string{"Auth"},
		DefaultStatus: http.StatusCreated,
	}, s.handleRegister)

	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "Log in",
		Description: "Verifies credentials, sets the session cookie and returns the token for bearer clients",
		Tags:        []string{"Auth"},
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/logout",
		Summary:     "Log out",
		Description: "Clears the session cookie",
		Tags:        []string{"Auth"},
	}, s.handleLogout)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/auth/me",
		Summary:     "Current user",
		Description: "Returns the authenticated reader",
		Tags:        []string{"Auth"},
		Security:    []map[string][]string{{"bearer": {}}, {"cookie": {}}},
	}, s.handleMe)
}

// RegisterInput wraps the registration request for Huma.
type RegisterInput struct {
	Body struct {
		Email    string `json:"email" doc:"Email address"`
		Password string `json:"password" doc:"Password, at least 8 characters"`
		Name     string `json:"name" doc:"Display name"`
	}
}

// UserOutput wraps a user for Huma.
type UserOutput struct {
	Body *domain.User
}

// LoginInput wraps the login request for Huma.
type LoginInput struct {
	Body struct {
		Email    string `json:"email" doc:"Email address"`
		Password string `json:"password" doc:"Password"`
	}
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	User      *domain.User `json:"user" doc:"Authenticated user"`
	Token     string       `json:"token" doc:"Session token for bearer clients"`
	ExpiresAt time.Time    `json:"expiresAt" doc:"Token expiry"`
}

// LoginOutput sets the session cookie alongside the body.
type LoginOutput struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      LoginResponse
}

// LogoutResponse acknowledges a logout.
type LogoutResponse struct {
	Message string `json:"message" doc:"Confirmation message"`
}

// LogoutOutput clears the session cookie.
type LogoutOutput struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      LogoutResponse
}

func (s *Server) handleRegister(ctx context.Context, input *RegisterInput) (*UserOutput, error) {
	user, err := s.services.Auth.Register(ctx, service.RegisterRequest{
		Email:    input.Body.Email,
		Password: input.Body.Password,
		Name:     input.Body.Name,
	})
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: user}, nil
}

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
	resp, err := s.services.Auth.Login(ctx, service.LoginRequest{
		Email:     input.Body.Email,
		Password:  input.Body.Password,
		IPAddress: clientIP(ctx),
	})
	if err != nil {
		return nil, err
	}

	return &LoginOutput{
		SetCookie: s.sessionCookie(resp.Token, resp.ExpiresAt),
		Body: LoginResponse{
			User:      resp.User,
			Token:     resp.Token,
			ExpiresAt: resp.ExpiresAt,
		},
	}, nil
}

func (s *Server) handleLogout(_ context.Context, _ *struct{}) (*LogoutOutput, error) {
	cookie := s.sessionCookie("", time.Unix(0, 0))
	cookie.MaxAge = -1
	return &LogoutOutput{
		SetCookie: cookie,
		Body:      LogoutResponse{Message: "Logged out"},
	}, nil
}

func (s *Server) handleMe(ctx context.Context, _ *struct{}) (*UserOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.services.Auth.Me(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: user}, nil
}

// sessionCookie builds the HttpOnly session cookie.
func (s *Server) sessionCookie(token string, expires time.Time) http.Cookie {
	return http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}

package auth

import "github.com/golang-jwt/jwt/v5"

// Claims is the JWT payload shared with the web client. The userId and email
// names match what the frontend decodes.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

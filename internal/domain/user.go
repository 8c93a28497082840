package domain

import "time"

// User represents a reader account.
type User struct {
	ID           string     `json:"id" bson:"_id"`
	Email        string     `json:"email" bson:"email"`
	Name         string     `json:"name" bson:"name"`
	PasswordHash string     `json:"passwordHash,omitempty" bson:"passwordHash"` // Stored hashed, filter from API responses
	CreatedAt    time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt" bson:"updatedAt"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty" bson:"lastLoginAt,omitempty"`
}

// DisplayName returns the name to greet the user with, falling back to the
// local part of the email address.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	for i, r := range u.Email {
		if r == '@' {
			return u.Email[:i]
		}
	}
	return u.Email
}

// Public returns a copy safe to send to clients.
func (u *User) Public() *User {
	cp := *u
	cp.PasswordHash = ""
	return &cp
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUser_DisplayName(t *testing.T) {
	tests := []struct {
		name string
		user User
		want string
	}{
		{"name wins", User{Name: "Ada", Email: "ada@example.com"}, "Ada"},
		{"falls back to email local part", User{Email: "grace@example.com"}, "grace"},
		{"email without domain", User{Email: "linus"}, "linus"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.user.DisplayName())
		})
	}
}

func TestUser_Public(t *testing.T) {
	u := &User{ID: "usr-1", Email: "ada@example.com", PasswordHash: "$argon2id$secret"}

	pub := u.Public()

	assert.Empty(t, pub.PasswordHash)
	assert.Equal(t, "usr-1", pub.ID)
	assert.Equal(t, "$argon2id$secret", u.PasswordHash, "original must be untouched")
}

package store

import (
	"context"
	"errors"

	"github.com/mimirswell/mimirswell-server/internal/domain"
)

// CreateUser stores a new user. The email must be unused (case-insensitive).
func (s *Badger) CreateUser(ctx context.Context, user *domain.User) error {
	err := s.Users.Create(ctx, user.ID, user)
	if errors.Is(err, ErrAlreadyExists) {
		return ErrEmailTaken.WithCause(err)
	}
	return err
}

// GetUser retrieves a user by ID.
func (s *Badger) GetUser(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.Users.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// GetUserByEmail retrieves a user by email, ignoring case.
func (s *Badger) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := s.Users.GetByIndex(ctx, "email", email)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// UpdateUser replaces an existing user.
func (s *Badger) UpdateUser(ctx context.Context, user *domain.User) error {
	err := s.Users.Update(ctx, user.ID, user)
	switch {
	case errors.Is(err, ErrNotFound):
		return ErrUserNotFound
	case errors.Is(err, ErrAlreadyExists):
		return ErrEmailTaken.WithCause(err)
	}
	return err
}

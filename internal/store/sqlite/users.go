package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mimirswell/mimirswell-server/internal/domain"
	"github.com/mimirswell/mimirswell-server/internal/store"
)

type userRow struct {
	ID              string         `db:"id"`
	Email           string         `db:"email"`
	EmailNormalized string         `db:"email_normalized"`
	Name            string         `db:"name"`
	PasswordHash    string         `db:"password_hash"`
	CreatedAt       string         `db:"created_at"`
	UpdatedAt       string         `db:"updated_at"`
	LastLoginAt     sql.NullString `db:"last_login_at"`
}

const userColumns = `id, email, email_normalized, name, password_hash, created_at, updated_at, last_login_at`

func newUserRow(u *domain.User) userRow {
	return userRow{
		ID:              u.ID,
		Email:           u.Email,
		EmailNormalized: strings.ToLower(strings.TrimSpace(u.Email)),
		Name:            u.Name,
		PasswordHash:    u.PasswordHash,
		CreatedAt:       formatTime(u.CreatedAt),
		UpdatedAt:       formatTime(u.UpdatedAt),
		LastLoginAt:     nullTimeString(u.LastLoginAt),
	}
}

func (r *userRow) toDomain() (*domain.User, error) {
	u := &domain.User{
		ID:           r.ID,
		Email:        r.Email,
		Name:         r.Name,
		PasswordHash: r.PasswordHash,
	}
	var err error
	if u.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if u.UpdatedAt, err = parseTime(r.UpdatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	if u.LastLoginAt, err = parseNullableTime(r.LastLoginAt); err != nil {
		return nil, fmt.Errorf("parse last_login_at: %w", err)
	}
	return u, nil
}

// CreateUser inserts a new user. The email must be unused (case-insensitive).
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (:id, :email, :email_normalized, :name, :password_hash, :created_at, :updated_at, :last_login_at)`,
		newUserRow(user))
	if isUniqueViolation(err) {
		return store.ErrEmailTaken.WithCause(err)
	}
	return err
}

func (s *Store) getUser(ctx context.Context, where string, arg any) (*domain.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE `+where, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain()
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.getUser(ctx, "id = ?", id)
}

// GetUserByEmail retrieves a user by email, ignoring case.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.getUser(ctx, "email_normalized = ?", strings.ToLower(strings.TrimSpace(email)))
}

// UpdateUser replaces an existing user.
func (s *Store) UpdateUser(ctx context.Context, user *domain.User) error {
	res, err := s.db.NamedExecContext(ctx, `
		UPDATE users SET
			email = :email,
			email_normalized = :email_normalized,
			name = :name,
			password_hash = :password_hash,
			updated_at = :updated_at,
			last_login_at = :last_login_at
		WHERE id = :id`, newUserRow(user))
	if isUniqueViolation(err) {
		return store.ErrEmailTaken.WithCause(err)
	}
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrUserNotFound
	}
	return nil
}

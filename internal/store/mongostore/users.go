package mongostore

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mimirswell/mimirswell-server/internal/domain"
	"github.com/mimirswell/mimirswell-server/internal/store"
)

// CreateUser inserts a new account.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	_, err := s.db.Collection(colUsers).InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrEmailTaken.WithCause(err)
	}
	return err
}

// GetUser retrieves an account by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return findOne[domain.User](ctx, s.db.Collection(colUsers), bson.M{"_id": id}, store.ErrUserNotFound)
}

// GetUserByEmail retrieves an account by email, ignoring case.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return findOne[domain.User](ctx, s.db.Collection(colUsers),
		bson.M{"email": strings.TrimSpace(email)}, store.ErrUserNotFound,
		options.FindOne().SetCollation(emailCollation))
}

// UpdateUser replaces an existing account.
func (s *Store) UpdateUser(ctx context.Context, user *domain.User) error {
	res, err := s.db.Collection(colUsers).ReplaceOne(ctx, bson.M{"_id": user.ID}, user)
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrEmailTaken.WithCause(err)
	}
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrUserNotFound
	}
	return nil
}

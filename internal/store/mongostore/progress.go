package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mimirswell/mimirswell-server/internal/domain"
	"github.com/mimirswell/mimirswell-server/internal/store"
)

// GetProgress retrieves reading progress for a user+book.
func (s *Store) GetProgress(ctx context.Context, userID, bookID string) (*domain.ProgressRecord, error) {
	return findOne[domain.ProgressRecord](ctx, s.db.Collection(colProgress),
		bson.M{"userId": userID, "bookId": bookID}, store.ErrProgressNotFound)
}

// SaveProgress creates or replaces reading progress.
func (s *Store) SaveProgress(ctx context.Context, progress *domain.ProgressRecord) error {
	_, err := s.db.Collection(colProgress).ReplaceOne(ctx,
		bson.M{"_id": progress.ID}, progress, upsert())
	return err
}

// ListUserProgress retrieves all progress records for a user, most recent first.
func (s *Store) ListUserProgress(ctx context.Context, userID string) ([]*domain.ProgressRecord, error) {
	return findAll[domain.ProgressRecord](ctx, s.db.Collection(colProgress),
		bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{Key: "lastReadAt", Value: -1}}))
}

// ListIncompleteProgress retrieves every record not yet completed.
func (s *Store) ListIncompleteProgress(ctx context.Context) ([]*domain.ProgressRecord, error) {
	return findAll[domain.ProgressRecord](ctx, s.db.Collection(colProgress), bson.M{"completed": false})
}

// CountUserProgress counts a user's incomplete and completed records.
func (s *Store) CountUserProgress(ctx context.Context, userID string) (inProgress, completed int, err error) {
	col := s.db.Collection(colProgress)
	open, err := col.CountDocuments(ctx, bson.M{"userId": userID, "completed": false})
	if err != nil {
		return 0, 0, err
	}
	done, err := col.CountDocuments(ctx, bson.M{"userId": userID, "completed": true})
	if err != nil {
		return 0, 0, err
	}
	return int(open), int(done), nil
}

// SetDaysInactive refreshes the cached inactivity counter.
func (s *Store) SetDaysInactive(ctx context.Context, userID, bookID string, days int) error {
	res, err := s.db.Collection(colProgress).UpdateOne(ctx,
		bson.M{"userId": userID, "bookId": bookID},
		bson.M{"$set": bson.M{"daysInactive": days}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrProgressNotFound
	}
	return nil
}

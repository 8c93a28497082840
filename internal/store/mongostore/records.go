package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mimirswell/mimirswell-server/internal/domain"
	"github.com/mimirswell/mimirswell-server/internal/store"
)

// GetUserStats retrieves the streak record for a user.
// Returns nil, nil if no stats exist yet.
func (s *Store) GetUserStats(ctx context.Context, userID string) (*domain.UserStats, error) {
	stats, err := findOne[domain.UserStats](ctx, s.db.Collection(colStats),
		bson.M{"_id": userID}, store.ErrUserStatsNotFound)
	if err == store.ErrUserStatsNotFound {
		return nil, nil
	}
	return stats, err
}

// SaveUserStats creates or replaces the streak record for a user.
func (s *Store) SaveUserStats(ctx context.Context, stats *domain.UserStats) error {
	_, err := s.db.Collection(colStats).ReplaceOne(ctx, bson.M{"_id": stats.UserID}, stats, upsert())
	return err
}

func reminderFilter(key domain.ReminderKey) bson.M {
	return bson.M{
		"userId":       key.UserID,
		"bookId":       key.BookID,
		"reminderType": key.ReminderType,
		"epoch":        key.Epoch,
	}
}

// HasReminder reports whether a reminder was already logged for key.
func (s *Store) HasReminder(ctx context.Context, key domain.ReminderKey) (bool, error) {
	n, err := s.db.Collection(colReminders).CountDocuments(ctx, reminderFilter(key), options.Count().SetLimit(1))
	return n > 0, err
}

// CreateReminderLog appends a ledger document. The unique slot index turns a
// duplicate into ErrReminderLogged.
func (s *Store) CreateReminderLog(ctx context.Context, log *domain.ReminderLog) error {
	_, err := s.db.Collection(colReminders).InsertOne(ctx, log)
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrReminderLogged.WithCause(err)
	}
	return err
}

// ListReminderLogs returns every ledger document for a user, oldest first.
func (s *Store) ListReminderLogs(ctx context.Context, userID string) ([]*domain.ReminderLog, error) {
	return findAll[domain.ReminderLog](ctx, s.db.Collection(colReminders),
		bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{Key: "sentAt", Value: 1}}))
}

// GetLibraryItem retrieves one book from a user's library.
func (s *Store) GetLibraryItem(ctx context.Context, userID, bookID string) (*domain.LibraryItem, error) {
	return findOne[domain.LibraryItem](ctx, s.db.Collection(colLibrary),
		bson.M{"_id": domain.LibraryItemID(userID, bookID)}, store.ErrLibraryItemNotFound)
}

// SaveLibraryItem creates or replaces a library item.
func (s *Store) SaveLibraryItem(ctx context.Context, item *domain.LibraryItem) error {
	_, err := s.db.Collection(colLibrary).ReplaceOne(ctx, bson.M{"_id": item.ID}, item, upsert())
	return err
}

// DeleteLibraryItem removes a book from a user's library.
func (s *Store) DeleteLibraryItem(ctx context.Context, userID, bookID string) error {
	res, err := s.db.Collection(colLibrary).DeleteOne(ctx, bson.M{"_id": domain.LibraryItemID(userID, bookID)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrLibraryItemNotFound
	}
	return nil
}

// ListLibrary returns every item in a user's library, newest first.
func (s *Store) ListLibrary(ctx context.Context, userID string) ([]*domain.LibraryItem, error) {
	return findAll[domain.LibraryItem](ctx, s.db.Collection(colLibrary),
		bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{Key: "addedAt", Value: -1}}))
}

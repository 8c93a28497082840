package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/mimirswell/mimirswell-server/internal/domain"
)

const progressPrefix = "progress:"

func progressKey(userID, bookID string) []byte {
	return []byte(progressPrefix + domain.ProgressID(userID, bookID))
}

// GetProgress retrieves reading progress for a user+book.
func (s *Badger) GetProgress(ctx context.Context, userID, bookID string) (*domain.ProgressRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var progress domain.ProgressRecord
	err := s.get(progressKey(userID, bookID), &progress)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrProgressNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get progress %s/%s: %w", userID, bookID, err)
	}
	return &progress, nil
}

// SaveProgress creates or replaces reading progress.
func (s *Badger) SaveProgress(ctx context.Context, progress *domain.ProgressRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.set(progressKey(progress.UserID, progress.BookID), progress); err != nil {
		return fmt.Errorf("save progress %s: %w", progress.ID, err)
	}
	return nil
}

// ListUserProgress retrieves all progress records for a user.
func (s *Badger) ListUserProgress(ctx context.Context, userID string) ([]*domain.ProgressRecord, error) {
	return scan[domain.ProgressRecord](ctx, s.db, progressPrefix+userID+":", nil)
}

// ListIncompleteProgress retrieves every record not yet completed, across all users.
func (s *Badger) ListIncompleteProgress(ctx context.Context) ([]*domain.ProgressRecord, error) {
	return scan(ctx, s.db, progressPrefix, func(p *domain.ProgressRecord) bool {
		return !p.Completed
	})
}

// CountUserProgress counts a user's incomplete and completed records.
func (s *Badger) CountUserProgress(ctx context.Context, userID string) (inProgress, completed int, err error) {
	records, err := s.ListUserProgress(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	for _, p := range records {
		if p.Completed {
			completed++
		} else {
			inProgress++
		}
	}
	return inProgress, completed, nil
}

// SetDaysInactive refreshes the cached inactivity counter in place.
func (s *Badger) SetDaysInactive(ctx context.Context, userID, bookID string, days int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := progressKey(userID, bookID)
	return s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrProgressNotFound
		}
		if err != nil {
			return err
		}

		var progress domain.ProgressRecord
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &progress)
		}); err != nil {
			return fmt.Errorf("unmarshal progress: %w", err)
		}

		progress.DaysInactive = days
		data, err := json.Marshal(&progress)
		if err != nil {
			return fmt.Errorf("marshal progress: %w", err)
		}
		return txn.Set(key, data)
	})
}

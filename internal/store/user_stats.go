package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/mimirswell/mimirswell-server/internal/domain"
)

const userStatsPrefix = "user_stats:"

// GetUserStats retrieves the streak record for a user.
// Returns nil, nil if no stats exist yet.
func (s *Badger) GetUserStats(ctx context.Context, userID string) (*domain.UserStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var stats domain.UserStats
	err := s.get([]byte(userStatsPrefix+userID), &stats)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting user stats for %s: %w", userID, err)
	}
	return &stats, nil
}

// SaveUserStats creates or replaces the streak record for a user.
func (s *Badger) SaveUserStats(ctx context.Context, stats *domain.UserStats) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.set([]byte(userStatsPrefix+stats.UserID), stats); err != nil {
		return fmt.Errorf("saving user stats for %s: %w", stats.UserID, err)
	}
	return nil
}

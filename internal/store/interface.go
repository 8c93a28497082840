// Package store defines the persistence interface for the reading tracker and
// its embedded Badger implementation. SQL and document backends live in the
// sqlite and mongo subpackages.
package store

import (
	"context"

	"github.com/mimirswell/mimirswell-server/internal/domain"
)

// Store defines the interface for all persistence operations.
//
// Writes are last-write-wins: callers perform read-modify-write without
// optimistic locking, and progress and stats are saved independently.
type Store interface {
	// Lifecycle
	Close() error
	Ping(ctx context.Context) error

	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error

	// Reading progress
	GetProgress(ctx context.Context, userID, bookID string) (*domain.ProgressRecord, error)
	SaveProgress(ctx context.Context, progress *domain.ProgressRecord) error
	ListUserProgress(ctx context.Context, userID string) ([]*domain.ProgressRecord, error)
	ListIncompleteProgress(ctx context.Context) ([]*domain.ProgressRecord, error)
	CountUserProgress(ctx context.Context, userID string) (inProgress, completed int, err error)
	SetDaysInactive(ctx context.Context, userID, bookID string, days int) error

	// User stats. GetUserStats returns nil, nil if no stats exist yet.
	GetUserStats(ctx context.Context, userID string) (*domain.UserStats, error)
	SaveUserStats(ctx context.Context, stats *domain.UserStats) error

	// Reminder ledger
	HasReminder(ctx context.Context, key domain.ReminderKey) (bool, error)
	CreateReminderLog(ctx context.Context, log *domain.ReminderLog) error
	ListReminderLogs(ctx context.Context, userID string) ([]*domain.ReminderLog, error)

	// Library
	GetLibraryItem(ctx context.Context, userID, bookID string) (*domain.LibraryItem, error)
	SaveLibraryItem(ctx context.Context, item *domain.LibraryItem) error
	DeleteLibraryItem(ctx context.Context, userID, bookID string) error
	ListLibrary(ctx context.Context, userID string) ([]*domain.LibraryItem, error)
}

var _ Store = (*Badger)(nil)

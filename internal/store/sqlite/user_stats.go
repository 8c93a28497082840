package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mimirswell/mimirswell-server/internal/domain"
)

type userStatsRow struct {
	UserID                     string         `db:"user_id"`
	CurrentStreak              int            `db:"current_streak"`
	LongestStreak              int            `db:"longest_streak"`
	LastReadDate               sql.NullString `db:"last_read_date"`
	StreakStartDate            sql.NullString `db:"streak_start_date"`
	TotalBooksCompleted        int            `db:"total_books_completed"`
	TotalPagesRead             int            `db:"total_pages_read"`
	TotalReadingTimeMinutes    int            `db:"total_reading_time_minutes"`
	ReadingHistory             string         `db:"reading_history"`
	LastActivityAt             sql.NullString `db:"last_activity_at"`
	ReminderEnabled            bool           `db:"reminder_enabled"`
	ReminderTime               string         `db:"reminder_time"`
	InactiveDaysBeforeReminder int            `db:"inactive_days_before_reminder"`
	CreatedAt                  string         `db:"created_at"`
	UpdatedAt                  string         `db:"updated_at"`
}

// GetUserStats retrieves the streak record for a user.
// Returns nil, nil if no stats exist yet.
func (s *Store) GetUserStats(ctx context.Context, userID string) (*domain.UserStats, error) {
	var row userStatsRow
	err := s.db.GetContext(ctx, &row, `
		SELECT user_id, current_streak, longest_streak, last_read_date, streak_start_date,
			total_books_completed, total_pages_read, total_reading_time_minutes, reading_history,
			last_activity_at, reminder_enabled, reminder_time, inactive_days_before_reminder,
			created_at, updated_at
		FROM user_stats WHERE user_id = ?`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	stats := &domain.UserStats{
		UserID:                     row.UserID,
		CurrentStreak:              row.CurrentStreak,
		LongestStreak:              row.LongestStreak,
		TotalBooksCompleted:        row.TotalBooksCompleted,
		TotalPagesRead:             row.TotalPagesRead,
		TotalReadingTimeMinutes:    row.TotalReadingTimeMinutes,
		ReminderEnabled:            row.ReminderEnabled,
		ReminderTime:               row.ReminderTime,
		InactiveDaysBeforeReminder: row.InactiveDaysBeforeReminder,
	}
	if stats.LastReadDate, err = parseNullableDate(row.LastReadDate); err != nil {
		return nil, err
	}
	if stats.StreakStartDate, err = parseNullableDate(row.StreakStartDate); err != nil {
		return nil, err
	}
	if stats.LastActivityAt, err = parseNullableTime(row.LastActivityAt); err != nil {
		return nil, err
	}
	if stats.CreatedAt, err = parseTime(row.CreatedAt); err != nil {
		return nil, err
	}
	if stats.UpdatedAt, err = parseTime(row.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(row.ReadingHistory), &stats.ReadingHistory); err != nil {
		return nil, fmt.Errorf("decode reading history: %w", err)
	}
	return stats, nil
}

// SaveUserStats creates or replaces the streak record for a user.
func (s *Store) SaveUserStats(ctx context.Context, stats *domain.UserStats) error {
	history := stats.ReadingHistory
	if history == nil {
		history = []domain.HistoryEntry{}
	}
	encoded, err := jsonColumn(history)
	if err != nil {
		return fmt.Errorf("encode reading history: %w", err)
	}

	row := userStatsRow{
		UserID:                     stats.UserID,
		CurrentStreak:              stats.CurrentStreak,
		LongestStreak:              stats.LongestStreak,
		LastReadDate:               nullDateString(stats.LastReadDate),
		StreakStartDate:            nullDateString(stats.StreakStartDate),
		TotalBooksCompleted:        stats.TotalBooksCompleted,
		TotalPagesRead:             stats.TotalPagesRead,
		TotalReadingTimeMinutes:    stats.TotalReadingTimeMinutes,
		ReadingHistory:             encoded,
		LastActivityAt:             nullTimeString(stats.LastActivityAt),
		ReminderEnabled:            stats.ReminderEnabled,
		ReminderTime:               stats.ReminderTime,
		InactiveDaysBeforeReminder: stats.InactiveDaysBeforeReminder,
		CreatedAt:                  formatTime(stats.CreatedAt),
		UpdatedAt:                  formatTime(stats.UpdatedAt),
	}

	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO user_stats (user_id, current_streak, longest_streak, last_read_date, streak_start_date,
			total_books_completed, total_pages_read, total_reading_time_minutes, reading_history,
			last_activity_at, reminder_enabled, reminder_time, inactive_days_before_reminder,
			created_at, updated_at)
		VALUES (:user_id, :current_streak, :longest_streak, :last_read_date, :streak_start_date,
			:total_books_completed, :total_pages_read, :total_reading_time_minutes, :reading_history,
			:last_activity_at, :reminder_enabled, :reminder_time, :inactive_days_before_reminder,
			:created_at, :updated_at)
		ON CONFLICT(user_id) DO UPDATE SET
			current_streak = excluded.current_streak,
			longest_streak = excluded.longest_streak,
			last_read_date = excluded.last_read_date,
			streak_start_date = excluded.streak_start_date,
			total_books_completed = excluded.total_books_completed,
			total_pages_read = excluded.total_pages_read,
			total_reading_time_minutes = excluded.total_reading_time_minutes,
			reading_history = excluded.reading_history,
			last_activity_at = excluded.last_activity_at,
			reminder_enabled = excluded.reminder_enabled,
			reminder_time = excluded.reminder_time,
			inactive_days_before_reminder = excluded.inactive_days_before_reminder,
			updated_at = excluded.updated_at`, row)
	return err
}

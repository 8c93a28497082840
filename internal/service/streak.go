package service

import (
	"slices"
	"time"

	"github.com/mimirswell/mimirswell-server/internal/domain"
)

// StreakInput is the activity one progress write contributes to a reader's
// stats.
type StreakInput struct {
	BookID           string
	PagesRead        int
	MinutesRead      int
	BookCompletedNow bool
}

// UpdateStreak folds one progress write into stats and returns the updated
// record. A nil stats starts a new record for userID.
//
// Streaks are counted in calendar days observed in loc: a read on the day
// after lastReadDate extends the streak, a read on the same day leaves it
// unchanged, and any longer gap restarts it at 1. A lastReadDate later than
// today (clock skew) counts as the same day.
func UpdateStreak(stats *domain.UserStats, userID string, in StreakInput, now time.Time, loc *time.Location) *domain.UserStats {
	today := domain.DateOnly(now, loc)

	if stats == nil {
		stats = domain.NewUserStats(userID, now)
	}

	switch {
	case stats.LastReadDate == nil || stats.CurrentStreak == 0:
		stats.CurrentStreak = 1
		stats.StreakStartDate = &today
	default:
		switch gap := domain.DaysBetween(*stats.LastReadDate, today); {
		case gap <= 0:
			// same day
		case gap == 1:
			stats.CurrentStreak++
		default:
			stats.CurrentStreak = 1
			stats.StreakStartDate = &today
		}
	}
	stats.LongestStreak = max(stats.LongestStreak, stats.CurrentStreak)

	recordHistory(stats, today, in)

	stats.TotalPagesRead += in.PagesRead
	stats.TotalReadingTimeMinutes += in.MinutesRead
	if in.BookCompletedNow {
		stats.TotalBooksCompleted++
	}

	if stats.LastReadDate == nil || stats.LastReadDate.Before(today) {
		stats.LastReadDate = &today
	}
	activity := now
	stats.LastActivityAt = &activity
	stats.UpdatedAt = now

	return stats
}

// recordHistory merges the day's activity into the history, keeping it in
// date order and at most domain.MaxHistoryEntries long.
func recordHistory(stats *domain.UserStats, day domain.Date, in StreakInput) {
	if entry := stats.HistoryFor(day); entry != nil {
		entry.PagesRead += in.PagesRead
		entry.MinutesRead += in.MinutesRead
		entry.AddBook(in.BookID)
		return
	}

	entry := domain.HistoryEntry{
		Date:        day,
		PagesRead:   in.PagesRead,
		MinutesRead: in.MinutesRead,
		BooksRead:   []string{},
	}
	entry.AddBook(in.BookID)

	stats.ReadingHistory = append(stats.ReadingHistory, entry)
	slices.SortStableFunc(stats.ReadingHistory, func(a, b domain.HistoryEntry) int {
		return domain.DaysBetween(b.Date, a.Date)
	})

	if n := len(stats.ReadingHistory); n > domain.MaxHistoryEntries {
		stats.ReadingHistory = slices.Clone(stats.ReadingHistory[n-domain.MaxHistoryEntries:])
	}
}

package domain

import (
	"slices"
	"time"
)

// MaxHistoryEntries caps UserStats.ReadingHistory; the oldest days are evicted first.
const MaxHistoryEntries = 365

// Reminder preference defaults for new readers.
const (
	DefaultReminderTime               = "20:00"
	DefaultInactiveDaysBeforeReminder = 2
)

// HistoryEntry aggregates one calendar day of reading.
type HistoryEntry struct {
	Date        Date     `json:"date" bson:"date"`
	PagesRead   int      `json:"pagesRead" bson:"pagesRead"`
	MinutesRead int      `json:"minutesRead" bson:"minutesRead"`
	BooksRead   []string `json:"booksRead" bson:"booksRead"` // set semantics
}

// AddBook records bookID for the day if it is not already present.
func (h *HistoryEntry) AddBook(bookID string) {
	if bookID == "" || slices.Contains(h.BooksRead, bookID) {
		return
	}
	h.BooksRead = append(h.BooksRead, bookID)
}

// UserStats is the per-user streak and counter record.
type UserStats struct {
	UserID string `json:"userId" bson:"_id"`

	CurrentStreak   int   `json:"currentStreak" bson:"currentStreak"`
	LongestStreak   int   `json:"longestStreak" bson:"longestStreak"`
	LastReadDate    *Date `json:"lastReadDate,omitempty" bson:"lastReadDate,omitempty"`
	StreakStartDate *Date `json:"streakStartDate,omitempty" bson:"streakStartDate,omitempty"`

	TotalBooksCompleted     int `json:"totalBooksCompleted" bson:"totalBooksCompleted"`
	TotalPagesRead          int `json:"totalPagesRead" bson:"totalPagesRead"`
	TotalReadingTimeMinutes int `json:"totalReadingTimeMinutes" bson:"totalReadingTimeMinutes"`

	ReadingHistory []HistoryEntry `json:"readingHistory" bson:"readingHistory"`
	LastActivityAt *time.Time     `json:"lastActivityAt,omitempty" bson:"lastActivityAt,omitempty"`

	ReminderEnabled            bool   `json:"reminderEnabled" bson:"reminderEnabled"`
	ReminderTime               string `json:"reminderTime" bson:"reminderTime"`
	InactiveDaysBeforeReminder int    `json:"inactiveDaysBeforeReminder" bson:"inactiveDaysBeforeReminder"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// NewUserStats returns a zeroed record with default reminder preferences.
func NewUserStats(userID string, now time.Time) *UserStats {
	return &UserStats{
		UserID:                     userID,
		ReadingHistory:             []HistoryEntry{},
		ReminderEnabled:            true,
		ReminderTime:               DefaultReminderTime,
		InactiveDaysBeforeReminder: DefaultInactiveDaysBeforeReminder,
		CreatedAt:                  now,
		UpdatedAt:                  now,
	}
}

// HistoryFor returns the entry for day, or nil.
func (s *UserStats) HistoryFor(day Date) *HistoryEntry {
	for i := range s.ReadingHistory {
		if s.ReadingHistory[i].Date == day {
			return &s.ReadingHistory[i]
		}
	}
	return nil
}

// HistorySince returns entries dated on or after from, oldest first.
func (s *UserStats) HistorySince(from Date) []HistoryEntry {
	out := make([]HistoryEntry, 0, 7)
	for _, e := range s.ReadingHistory {
		if !e.Date.Before(from) {
			out = append(out, e)
		}
	}
	return out
}

// HistoryWithin returns entries whose local midnight in loc is not before
// since, oldest first. The bound keeps its time of day, so the day that falls
// exactly on since drops out once since is past midnight.
func (s *UserStats) HistoryWithin(since time.Time, loc *time.Location) []HistoryEntry {
	out := make([]HistoryEntry, 0, 7)
	for _, e := range s.ReadingHistory {
		if !e.Date.Time(loc).Before(since) {
			out = append(out, e)
		}
	}
	return out
}

// StreakDay represents a single day in the streak calendar.
type StreakDay struct {
	Date        Date `json:"date"`
	HasRead     bool `json:"hasRead"`
	PagesRead   int  `json:"pagesRead"`
	MinutesRead int  `json:"minutesRead"`
	Intensity   int  `json:"intensity"` // 0-4 for visual gradient (0=none, 4=max)
}

// StatsSummary is the read-side view returned by the stats endpoint.
type StatsSummary struct {
	CurrentStreak   int   `json:"currentStreak"`
	LongestStreak   int   `json:"longestStreak"`
	LastReadDate    *Date `json:"lastReadDate,omitempty"`
	StreakStartDate *Date `json:"streakStartDate,omitempty"`

	TotalBooksCompleted     int `json:"totalBooksCompleted"`
	TotalPagesRead          int `json:"totalPagesRead"`
	TotalReadingTimeMinutes int `json:"totalReadingTimeMinutes"`
	BooksInProgress         int `json:"booksInProgress"`

	ThisWeekPages            int     `json:"thisWeekPages"`
	ThisWeekMinutes          int     `json:"thisWeekMinutes"`
	DaysActiveThisWeek       int     `json:"daysActiveThisWeek"`
	AveragePagesPerActiveDay float64 `json:"averagePagesPerActiveDay"`

	WeeklyHistory  []HistoryEntry `json:"weeklyHistory"`
	StreakCalendar []StreakDay    `json:"streakCalendar"`

	LastActivityAt  *time.Time `json:"lastActivityAt,omitempty"`
	ReminderEnabled bool       `json:"reminderEnabled"`
	ReminderTime    string     `json:"reminderTime"`
}

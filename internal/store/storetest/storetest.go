// Package storetest holds a behavioural suite every store.Store backend must
// pass. Backends call Run from their own tests with a constructor.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimirswell/mimirswell-server/internal/domain"
	"github.com/mimirswell/mimirswell-server/internal/store"
)

// Factory returns a fresh, empty store. Cleanup is registered on t.
type Factory func(t *testing.T) store.Store

// base is a whole-second timestamp so every backend round-trips it exactly.
var base = time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)

// Run executes the suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("Progress", func(t *testing.T) { testProgress(t, newStore(t)) })
	t.Run("IncompleteProgress", func(t *testing.T) { testIncompleteProgress(t, newStore(t)) })
	t.Run("UserStats", func(t *testing.T) { testUserStats(t, newStore(t)) })
	t.Run("Reminders", func(t *testing.T) { testReminders(t, newStore(t)) })
	t.Run("Library", func(t *testing.T) { testLibrary(t, newStore(t)) })
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()

	u := &domain.User{ID: "usr-1", Email: "Reader@Example.com", Name: "Reader", PasswordHash: "hash", CreatedAt: base, UpdatedAt: base}
	require.NoError(t, s.CreateUser(ctx, u))

	got, err := s.GetUser(ctx, "usr-1")
	require.NoError(t, err)
	assert.Equal(t, "Reader", got.Name)
	assert.Equal(t, "hash", got.PasswordHash)

	byEmail, err := s.GetUserByEmail(ctx, "reader@example.com")
	require.NoError(t, err)
	assert.Equal(t, "usr-1", byEmail.ID)

	dup := &domain.User{ID: "usr-2", Email: "reader@example.com", CreatedAt: base, UpdatedAt: base}
	assert.ErrorIs(t, s.CreateUser(ctx, dup), store.ErrEmailTaken)

	login := base.Add(time.Hour)
	got.LastLoginAt = &login
	got.Name = "Renamed"
	require.NoError(t, s.UpdateUser(ctx, got))

	updated, err := s.GetUser(ctx, "usr-1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	require.NotNil(t, updated.LastLoginAt)
	assert.True(t, login.Equal(*updated.LastLoginAt))

	_, err = s.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func newRecord(userID, bookID string, page, total int) *domain.ProgressRecord {
	p := domain.NewProgressRecord(userID, bookID, base)
	p.Apply(domain.ProgressChange{
		CurrentPage: page,
		TotalPages:  total,
		Session: &domain.ReadingSession{
			StartedAt: base.Add(-10 * time.Minute), EndedAt: base,
			StartPage: 1, EndPage: page, PagesRead: page - 1, DurationMinutes: 10,
		},
	}, base)
	return p
}

func testProgress(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.GetProgress(ctx, "u1", "b1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	rec := newRecord("u1", "b1", 40, 100)
	require.NoError(t, s.SaveProgress(ctx, rec))

	got, err := s.GetProgress(ctx, "u1", "b1")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, 40, got.CurrentPage)
	assert.Equal(t, 100, got.TotalPages)
	assert.False(t, got.Completed)
	assert.Nil(t, got.CompletedAt)
	assert.True(t, base.Equal(got.FirstReadAt))
	assert.True(t, base.Equal(got.LastReadAt))
	require.Len(t, got.ReadingSessions, 1)
	assert.Equal(t, 10, got.ReadingSessions[0].DurationMinutes)
	assert.Equal(t, 10, got.TotalTimeSpentMinutes)

	// Last write wins.
	later := base.Add(2 * time.Hour)
	got.Apply(domain.ProgressChange{CurrentPage: 100, TotalPages: 100}, later)
	require.NoError(t, s.SaveProgress(ctx, got))

	again, err := s.GetProgress(ctx, "u1", "b1")
	require.NoError(t, err)
	assert.True(t, again.Completed)
	require.NotNil(t, again.CompletedAt)
	assert.True(t, later.Equal(*again.CompletedAt))

	require.NoError(t, s.SaveProgress(ctx, newRecord("u1", "b2", 10, 300)))
	require.NoError(t, s.SaveProgress(ctx, newRecord("u2", "b1", 10, 300)))

	mine, err := s.ListUserProgress(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	inProgress, completed, err := s.CountUserProgress(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, inProgress)
	assert.Equal(t, 1, completed)

	none, err := s.ListUserProgress(ctx, "u3")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testIncompleteProgress(t *testing.T, s store.Store) {
	ctx := context.Background()

	require.NoError(t, s.SaveProgress(ctx, newRecord("u1", "open", 10, 100)))
	require.NoError(t, s.SaveProgress(ctx, newRecord("u1", "done", 100, 100)))
	require.NoError(t, s.SaveProgress(ctx, newRecord("u2", "open", 50, 100)))

	incomplete, err := s.ListIncompleteProgress(ctx)
	require.NoError(t, err)
	require.Len(t, incomplete, 2)
	for _, p := range incomplete {
		assert.False(t, p.Completed)
		assert.Equal(t, "open", p.BookID)
	}

	require.NoError(t, s.SetDaysInactive(ctx, "u2", "open", 12))
	got, err := s.GetProgress(ctx, "u2", "open")
	require.NoError(t, err)
	assert.Equal(t, 12, got.DaysInactive)
	assert.Equal(t, 50, got.CurrentPage)

	assert.ErrorIs(t, s.SetDaysInactive(ctx, "u9", "none", 3), store.ErrNotFound)
}

func testUserStats(t *testing.T, s store.Store) {
	ctx := context.Background()

	missing, err := s.GetUserStats(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, missing)

	stats := domain.NewUserStats("u1", base)
	today := domain.DateOnly(base, time.UTC)
	stats.CurrentStreak = 3
	stats.LongestStreak = 5
	stats.LastReadDate = &today
	stats.StreakStartDate = &today
	stats.TotalPagesRead = 120
	stats.ReadingHistory = []domain.HistoryEntry{
		{Date: today.AddDays(-1), PagesRead: 20, MinutesRead: 15, BooksRead: []string{"b1"}},
		{Date: today, PagesRead: 30, MinutesRead: 25, BooksRead: []string{"b1", "b2"}},
	}
	activity := base
	stats.LastActivityAt = &activity
	require.NoError(t, s.SaveUserStats(ctx, stats))

	got, err := s.GetUserStats(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 3, got.CurrentStreak)
	assert.Equal(t, 5, got.LongestStreak)
	require.NotNil(t, got.LastReadDate)
	assert.Equal(t, today, *got.LastReadDate)
	assert.Equal(t, 120, got.TotalPagesRead)
	require.Len(t, got.ReadingHistory, 2)
	assert.Equal(t, today, got.ReadingHistory[1].Date)
	assert.Equal(t, []string{"b1", "b2"}, got.ReadingHistory[1].BooksRead)
	assert.True(t, got.ReminderEnabled)
	assert.Equal(t, domain.DefaultReminderTime, got.ReminderTime)

	got.ReminderEnabled = false
	require.NoError(t, s.SaveUserStats(ctx, got))
	again, err := s.GetUserStats(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, again.ReminderEnabled)
}

func testReminders(t *testing.T, s store.Store) {
	ctx := context.Background()

	entry := &domain.ReminderLog{
		ID:                 "rem-1",
		UserID:             "u1",
		UserEmail:          "u1@example.com",
		BookID:             "b1",
		BookName:           "Dune",
		ReminderType:       domain.Tier7Days.Type(),
		DaysInactive:       9,
		SentAt:             base,
		AutomationResponse: domain.AutomationResponse{Success: false, Message: "HTTP 502"},
	}

	has, err := s.HasReminder(ctx, entry.Key())
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, s.CreateReminderLog(ctx, entry))

	has, err = s.HasReminder(ctx, entry.Key())
	require.NoError(t, err)
	assert.True(t, has)

	dup := *entry
	dup.ID = "rem-2"
	dupErr := s.CreateReminderLog(ctx, &dup)
	assert.ErrorIs(t, dupErr, store.ErrReminderLogged)
	assert.NotErrorIs(t, dupErr, store.ErrEmailTaken)

	nextEpoch := entry.Key()
	nextEpoch.Epoch = 1
	has, err = s.HasReminder(ctx, nextEpoch)
	require.NoError(t, err)
	assert.False(t, has)

	logs, err := s.ListReminderLogs(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "HTTP 502", logs[0].AutomationResponse.Message)
	assert.False(t, logs[0].AutomationResponse.Success)
}

func testLibrary(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.GetLibraryItem(ctx, "u1", "b1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	item := &domain.LibraryItem{
		ID: domain.LibraryItemID("u1", "b1"), UserID: "u1", BookID: "b1",
		Status: domain.LibraryStatusSaved, AddedAt: base, UpdatedAt: base,
	}
	require.NoError(t, s.SaveLibraryItem(ctx, item))

	item.Liked = true
	item.Status = domain.LibraryStatusReading
	require.NoError(t, s.SaveLibraryItem(ctx, item))

	got, err := s.GetLibraryItem(ctx, "u1", "b1")
	require.NoError(t, err)
	assert.True(t, got.Liked)
	assert.Equal(t, domain.LibraryStatusReading, got.Status)

	require.NoError(t, s.SaveLibraryItem(ctx, &domain.LibraryItem{
		ID: domain.LibraryItemID("u1", "b2"), UserID: "u1", BookID: "b2",
		Status: domain.LibraryStatusSaved, AddedAt: base, UpdatedAt: base,
	}))

	items, err := s.ListLibrary(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, items, 2)

	require.NoError(t, s.DeleteLibraryItem(ctx, "u1", "b1"))
	assert.ErrorIs(t, s.DeleteLibraryItem(ctx, "u1", "b1"), store.ErrNotFound)

	items, err = s.ListLibrary(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

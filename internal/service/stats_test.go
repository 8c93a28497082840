package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimirswell/mimirswell-server/internal/domain"
	domainerrors "github.com/mimirswell/mimirswell-server/internal/errors"
)

func TestStatsService_CreatesEmptyStatsLazily(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	summary, err := f.stats().GetStats(ctx, "usr-1")
	require.NoError(t, err)

	assert.Zero(t, summary.CurrentStreak)
	assert.Zero(t, summary.TotalPagesRead)
	assert.Zero(t, summary.BooksInProgress)
	assert.True(t, summary.ReminderEnabled)
	assert.Equal(t, domain.DefaultReminderTime, summary.ReminderTime)
	assert.Empty(t, summary.WeeklyHistory)
	assert.Len(t, summary.StreakCalendar, calendarDays)

	stored, err := f.store.GetUserStats(ctx, "usr-1")
	require.NoError(t, err)
	require.NotNil(t, stored)
}

func TestStatsService_Summary(t *testing.T) {
	f := newFixture(t)
	progress := f.progress()
	ctx := context.Background()

	// Ten days ago: outside the window.
	f.clock.Set(day0)
	_, err := progress.Record(ctx, "usr-1", ProgressUpdate{BookID: "dracula", CurrentPage: 50, TotalPages: 400, SessionStartPage: intPtr(1)})
	require.NoError(t, err)

	f.clock.Set(day0.AddDate(0, 0, 8))
	_, err = progress.Record(ctx, "usr-1", ProgressUpdate{BookID: "dracula", CurrentPage: 60, TotalPages: 400, SessionDurationMinutes: intPtr(20)})
	require.NoError(t, err)

	f.clock.Set(day0.AddDate(0, 0, 9))
	_, err = progress.Record(ctx, "usr-1", ProgressUpdate{BookID: bookID, CurrentPage: 280, TotalPages: 280, SessionStartPage: intPtr(250), SessionDurationMinutes: intPtr(40)})
	require.NoError(t, err)
	progress.Wait()

	f.clock.Set(day0.AddDate(0, 0, 10))
	summary, err := f.stats().GetStats(ctx, "usr-1")
	require.NoError(t, err)

	assert.Equal(t, 2, summary.CurrentStreak)
	assert.Equal(t, 2, summary.LongestStreak)
	assert.Equal(t, 1, summary.BooksInProgress)
	assert.Equal(t, 1, summary.TotalBooksCompleted)
	assert.Equal(t, 89, summary.TotalPagesRead)
	assert.Equal(t, 60, summary.TotalReadingTimeMinutes)

	assert.Equal(t, 40, summary.ThisWeekPages)
	assert.Equal(t, 60, summary.ThisWeekMinutes)
	assert.Equal(t, 2, summary.DaysActiveThisWeek)
	assert.InDelta(t, 20.0, summary.AveragePagesPerActiveDay, 0.001)
	assert.Len(t, summary.WeeklyHistory, 2)

	cal := summary.StreakCalendar
	require.Len(t, cal, calendarDays)
	assert.Equal(t, domain.DateOnly(day0.AddDate(0, 0, 10), time.UTC), cal[len(cal)-1].Date)
	assert.False(t, cal[len(cal)-1].HasRead)

	yesterday := cal[len(cal)-2]
	assert.True(t, yesterday.HasRead)
	assert.Equal(t, 30, yesterday.PagesRead)

	first := cal[len(cal)-11]
	assert.Equal(t, domain.DateOnly(day0, time.UTC), first.Date)
	assert.Equal(t, 49, first.PagesRead)
	assert.Equal(t, 4, first.Intensity)
}

func TestStatsService_WeeklyWindow(t *testing.T) {
	d := domain.DateOnly(day0, time.UTC)
	weekLater := day0.AddDate(0, 0, 7)
	weekLaterMidnight := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		history    []domain.HistoryEntry
		now        time.Time
		wantPages  int
		wantDays   int
		wantWeekly int
		wantAvg    float64
	}{
		{
			name:    "day seven back drops out after midnight",
			history: []domain.HistoryEntry{{Date: d, PagesRead: 10}},
			now:     weekLater,
		},
		{
			name:       "day seven back is kept at midnight",
			history:    []domain.HistoryEntry{{Date: d, PagesRead: 10}},
			now:        weekLaterMidnight,
			wantPages:  10,
			wantDays:   1,
			wantWeekly: 1,
			wantAvg:    10,
		},
		{
			name:       "day six back is kept",
			history:    []domain.HistoryEntry{{Date: d.AddDays(1), PagesRead: 10}},
			now:        weekLater,
			wantPages:  10,
			wantDays:   1,
			wantWeekly: 1,
			wantAvg:    10,
		},
		{
			name: "zero activity day still counts as active",
			history: []domain.HistoryEntry{
				{Date: d.AddDays(6), BooksRead: []string{bookID}},
				{Date: d.AddDays(7), PagesRead: 12, MinutesRead: 15},
			},
			now:        weekLater,
			wantPages:  12,
			wantDays:   2,
			wantWeekly: 2,
			wantAvg:    6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()

			us := domain.NewUserStats("usr-1", day0)
			us.ReadingHistory = tt.history
			require.NoError(t, f.store.SaveUserStats(ctx, us))

			f.clock.Set(tt.now)
			summary, err := f.stats().GetStats(ctx, "usr-1")
			require.NoError(t, err)

			assert.Equal(t, tt.wantPages, summary.ThisWeekPages)
			assert.Equal(t, tt.wantDays, summary.DaysActiveThisWeek)
			assert.Len(t, summary.WeeklyHistory, tt.wantWeekly)
			assert.InDelta(t, tt.wantAvg, summary.AveragePagesPerActiveDay, 0.001)
		})
	}
}

func TestStatsService_RepeatedPageCountsAsActiveDay(t *testing.T) {
	f := newFixture(t)
	progress := f.progress()
	ctx := context.Background()

	_, err := progress.Record(ctx, "usr-1", ProgressUpdate{BookID: bookID, CurrentPage: 10, TotalPages: 280})
	require.NoError(t, err)

	f.clock.Set(day0.AddDate(0, 0, 1))
	_, err = progress.Record(ctx, "usr-1", ProgressUpdate{BookID: bookID, CurrentPage: 10, TotalPages: 280})
	require.NoError(t, err)
	progress.Wait()

	summary, err := f.stats().GetStats(ctx, "usr-1")
	require.NoError(t, err)

	assert.Equal(t, 2, summary.CurrentStreak)
	assert.Len(t, summary.WeeklyHistory, 2)
	assert.Equal(t, 2, summary.DaysActiveThisWeek)
	assert.Equal(t, 1, summary.ThisWeekPages)
}

func TestBuildStreakCalendar_Intensity(t *testing.T) {
	today := domain.NewDate(2025, 3, 10)
	stats := &domain.UserStats{ReadingHistory: []domain.HistoryEntry{
		{Date: today.AddDays(-2), PagesRead: 10},
		{Date: today.AddDays(-1), PagesRead: 40},
		{Date: today, PagesRead: 0, MinutesRead: 5},
	}}

	cal := buildStreakCalendar(stats, today)
	require.Len(t, cal, calendarDays)

	assert.Equal(t, 1, cal[calendarDays-3].Intensity)
	assert.Equal(t, 4, cal[calendarDays-2].Intensity)
	assert.Equal(t, 1, cal[calendarDays-1].Intensity)
	assert.True(t, cal[calendarDays-1].HasRead)
	assert.Equal(t, 0, cal[0].Intensity)
}

func TestStatsService_UpdatePreferences(t *testing.T) {
	f := newFixture(t)
	svc := f.stats()
	ctx := context.Background()

	off := false
	at := "07:30"
	stats, err := svc.UpdatePreferences(ctx, "usr-1", PreferencesUpdate{ReminderEnabled: &off, ReminderTime: &at})
	require.NoError(t, err)
	assert.False(t, stats.ReminderEnabled)
	assert.Equal(t, "07:30", stats.ReminderTime)

	on := true
	stats, err = svc.UpdatePreferences(ctx, "usr-1", PreferencesUpdate{ReminderEnabled: &on})
	require.NoError(t, err)
	assert.True(t, stats.ReminderEnabled)
	assert.Equal(t, "07:30", stats.ReminderTime)

	bad := "25:00"
	_, err = svc.UpdatePreferences(ctx, "usr-1", PreferencesUpdate{ReminderTime: &bad})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

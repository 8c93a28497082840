package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimirswell/mimirswell-server/internal/domain"
	domainerrors "github.com/mimirswell/mimirswell-server/internal/errors"
	"github.com/mimirswell/mimirswell-server/internal/events"
)

const bookID = "frankenstein"

func TestProgressService_FirstReport(t *testing.T) {
	f := newFixture(t)
	f.createUser(t, "usr-1", "reader@example.com", "Astrid")
	svc := f.progress()
	ctx := context.Background()

	rec, err := svc.Record(ctx, "usr-1", ProgressUpdate{
		BookID:                 bookID,
		CurrentPage:            5,
		TotalPages:             280,
		SessionStartPage:       intPtr(1),
		SessionDurationMinutes: intPtr(12),
	})
	require.NoError(t, err)
	svc.Wait()

	assert.Equal(t, domain.ProgressID("usr-1", bookID), rec.ID)
	assert.Equal(t, 5, rec.CurrentPage)
	assert.False(t, rec.Completed)
	assert.Equal(t, day0, rec.FirstReadAt)
	assert.Equal(t, day0, rec.LastReadAt)
	assert.Equal(t, 12, rec.TotalTimeSpentMinutes)
	require.Len(t, rec.ReadingSessions, 1)
	assert.Equal(t, 4, rec.ReadingSessions[0].PagesRead)

	stats, err := f.store.GetUserStats(ctx, "usr-1")
	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Equal(t, 1, stats.CurrentStreak)
	assert.Equal(t, 4, stats.TotalPagesRead)
	assert.Equal(t, 12, stats.TotalReadingTimeMinutes)

	item, err := f.store.GetLibraryItem(ctx, "usr-1", bookID)
	require.NoError(t, err)
	assert.Equal(t, domain.LibraryStatusReading, item.Status)

	updates := f.events.OfType(events.TypeProgressUpdated)
	require.Len(t, updates, 1)
	assert.Equal(t, "usr-1", updates[0].UserID)
	assert.Empty(t, f.events.OfType(events.TypeBookCompleted))
	assert.Zero(t, f.notifier.CompletionCount())
}

func TestProgressService_CompletionNextDay(t *testing.T) {
	f := newFixture(t)
	f.createUser(t, "usr-1", "reader@example.com", "Astrid")
	svc := f.progress()
	ctx := context.Background()

	_, err := svc.Record(ctx, "usr-1", ProgressUpdate{BookID: bookID, CurrentPage: 270, TotalPages: 280})
	require.NoError(t, err)

	f.clock.Advance(24 * time.Hour)
	rec, err := svc.Record(ctx, "usr-1", ProgressUpdate{BookID: bookID, CurrentPage: 280, TotalPages: 280})
	require.NoError(t, err)
	svc.Wait()

	assert.True(t, rec.Completed)
	require.NotNil(t, rec.CompletedAt)
	assert.Equal(t, day0.Add(24*time.Hour), *rec.CompletedAt)

	stats, err := f.store.GetUserStats(ctx, "usr-1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.CurrentStreak)
	assert.Equal(t, 1, stats.TotalBooksCompleted)
	assert.Equal(t, 11, stats.TotalPagesRead)

	item, err := f.store.GetLibraryItem(ctx, "usr-1", bookID)
	require.NoError(t, err)
	assert.Equal(t, domain.LibraryStatusCompleted, item.Status)

	assert.Len(t, f.events.OfType(events.TypeBookCompleted), 1)
	require.Equal(t, 1, f.notifier.CompletionCount())
	sent := f.notifier.Completions[0]
	assert.Equal(t, "Frankenstein", sent.BookName)
	assert.Equal(t, "Horror", sent.Genre)
	assert.Equal(t, testAppURL+"/search", sent.Link)

	t.Run("completion is sticky and fires once", func(t *testing.T) {
		rec, err := svc.Record(ctx, "usr-1", ProgressUpdate{BookID: bookID, CurrentPage: 100, TotalPages: 280})
		require.NoError(t, err)
		svc.Wait()

		assert.True(t, rec.Completed)
		assert.Equal(t, 100, rec.CurrentPage)
		assert.Equal(t, 1, f.notifier.CompletionCount())
		assert.Len(t, f.events.OfType(events.TypeBookCompleted), 1)

		item, err := f.store.GetLibraryItem(ctx, "usr-1", bookID)
		require.NoError(t, err)
		assert.Equal(t, domain.LibraryStatusCompleted, item.Status)
	})
}

func TestProgressService_EpochBumpsAfterLapse(t *testing.T) {
	f := newFixture(t)
	svc := f.progress()
	ctx := context.Background()

	_, err := svc.Record(ctx, "usr-1", ProgressUpdate{BookID: bookID, CurrentPage: 10, TotalPages: 280})
	require.NoError(t, err)

	f.clock.Advance(3 * 24 * time.Hour)
	rec, err := svc.Record(ctx, "usr-1", ProgressUpdate{BookID: bookID, CurrentPage: 20, TotalPages: 280})
	require.NoError(t, err)
	assert.Equal(t, 0, rec.ReminderEpoch)

	f.clock.Advance(8 * 24 * time.Hour)
	rec, err = svc.Record(ctx, "usr-1", ProgressUpdate{BookID: bookID, CurrentPage: 30, TotalPages: 280})
	require.NoError(t, err)
	assert.Equal(t, 1, rec.ReminderEpoch)
	assert.Equal(t, 0, rec.DaysInactive)
}

func TestProgressService_StatsFailureDoesNotFailWrite(t *testing.T) {
	f := newFixture(t)
	svc := NewProgressService(failingStats{f.store}, nil, nil, f.events, f.clock, time.UTC, f.logger)
	ctx := context.Background()

	rec, err := svc.Record(ctx, "usr-1", ProgressUpdate{BookID: bookID, CurrentPage: 10, TotalPages: 280})
	require.NoError(t, err)
	assert.Equal(t, 10, rec.CurrentPage)

	saved, err := f.store.GetProgress(ctx, "usr-1", bookID)
	require.NoError(t, err)
	assert.Equal(t, 10, saved.CurrentPage)

	stats, err := f.store.GetUserStats(ctx, "usr-1")
	require.NoError(t, err)
	assert.Nil(t, stats)
}

func TestProgressService_Validation(t *testing.T) {
	f := newFixture(t)
	svc := f.progress()

	_, err := svc.Record(context.Background(), "usr-1", ProgressUpdate{BookID: bookID, CurrentPage: 0, TotalPages: 280})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = f.store.GetProgress(context.Background(), "usr-1", bookID)
	assert.Error(t, err)
}

func TestProgressService_GetAndList(t *testing.T) {
	f := newFixture(t)
	svc := f.progress()
	ctx := context.Background()

	_, err := svc.Get(ctx, "usr-1", bookID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	_, err = svc.Record(ctx, "usr-1", ProgressUpdate{BookID: "dracula", CurrentPage: 3, TotalPages: 400})
	require.NoError(t, err)
	f.clock.Advance(time.Hour)
	_, err = svc.Record(ctx, "usr-1", ProgressUpdate{BookID: bookID, CurrentPage: 7, TotalPages: 280})
	require.NoError(t, err)

	rec, err := svc.Get(ctx, "usr-1", bookID)
	require.NoError(t, err)
	assert.Equal(t, 7, rec.CurrentPage)

	all, err := svc.List(ctx, "usr-1")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, bookID, all[0].BookID)
	assert.Equal(t, "dracula", all[1].BookID)
}

func TestProgressService_InvalidatesHero(t *testing.T) {
	f := newFixture(t)
	f.createUser(t, "usr-1", "reader@example.com", "Astrid")
	hero := f.hero()
	svc := NewProgressService(f.store, nil, hero, f.events, f.clock, time.UTC, f.logger)
	ctx := context.Background()

	before, err := hero.HeroFor(ctx, "usr-1")
	require.NoError(t, err)
	assert.Equal(t, HeroVariantNew, before.Variant)

	_, err = svc.Record(ctx, "usr-1", ProgressUpdate{BookID: bookID, CurrentPage: 7, TotalPages: 280})
	require.NoError(t, err)

	after, err := hero.HeroFor(ctx, "usr-1")
	require.NoError(t, err)
	assert.Equal(t, HeroVariantContinue, after.Variant)
	require.NotNil(t, after.Book)
	assert.Equal(t, bookID, after.Book.ID)
}

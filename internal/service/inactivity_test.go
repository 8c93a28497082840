package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimirswell/mimirswell-server/internal/domain"
	"github.com/mimirswell/mimirswell-server/internal/events"
	"github.com/mimirswell/mimirswell-server/internal/notify"
)

func (f *fixture) seedProgress(t *testing.T, userID, bookID string, lastRead time.Time) *domain.ProgressRecord {
	t.Helper()
	rec := domain.NewProgressRecord(userID, bookID, lastRead)
	rec.CurrentPage = 40
	rec.TotalPages = 300
	rec.LastReadAt = lastRead
	rec.UpdatedAt = lastRead
	require.NoError(t, f.store.SaveProgress(context.Background(), rec))
	return rec
}

func TestInactivityScanner_Tiers(t *testing.T) {
	tests := []struct {
		name     string
		inactive int
		wantType string
	}{
		{"ten days", 10, "inactive_7_days"},
		{"fifteen days", 15, "inactive_14_days"},
		{"twenty one days", 21, "inactive_21_days"},
		{"thirty days", 30, "inactive_28_days"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.createUser(t, "usr-1", "astrid@example.com", "Astrid")
			f.seedProgress(t, "usr-1", "dracula", day0)
			f.clock.Set(day0.AddDate(0, 0, tt.inactive))

			res, err := f.scanner().Scan(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 1, res.Processed)
			assert.Equal(t, 1, res.RemindersSent)
			assert.Empty(t, res.Errors)
			require.Len(t, res.Details, 1)
			assert.Equal(t, "Astrid", res.Details[0].UserName)
			assert.NotEmpty(t, res.Details[0].BookName)
			assert.Equal(t, tt.inactive, res.Details[0].DaysInactive)
			assert.Equal(t, tt.wantType, res.Details[0].ReminderType)

			logs, err := f.store.ListReminderLogs(context.Background(), "usr-1")
			require.NoError(t, err)
			require.Len(t, logs, 1)
			assert.Equal(t, tt.wantType, logs[0].ReminderType)
			assert.Equal(t, tt.inactive, logs[0].DaysInactive)
			assert.True(t, logs[0].AutomationResponse.Success)
			assert.Equal(t, notify.MessageSent, logs[0].AutomationResponse.Message)
		})
	}
}

func TestInactivityScanner_Payload(t *testing.T) {
	f := newFixture(t)
	f.createUser(t, "usr-1", "astrid@example.com", "Astrid")
	f.seedProgress(t, "usr-1", "dracula", day0)
	f.clock.Set(day0.AddDate(0, 0, 10))

	_, err := f.scanner().Scan(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, f.notifier.ReminderCount())
	assert.Equal(t, notify.ReminderPayload{
		Name:         "Astrid",
		Email:        "astrid@example.com",
		BookName:     "Dracula",
		StartDate:    "March 3, 2025",
		DaysInactive: 10,
		ResumeLink:   testAppURL + "/read/dracula",
	}, f.notifier.Reminders[0])

	assert.Len(t, f.events.OfType(events.TypeReminderSent), 1)
	assert.Len(t, f.events.OfType(events.TypeScanCompleted), 1)

	rec, err := f.store.GetProgress(context.Background(), "usr-1", "dracula")
	require.NoError(t, err)
	assert.Equal(t, 10, rec.DaysInactive)
}

func TestInactivityScanner_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.createUser(t, "usr-1", "astrid@example.com", "Astrid")
	f.seedProgress(t, "usr-1", "dracula", day0)
	f.clock.Set(day0.AddDate(0, 0, 10))
	scanner := f.scanner()
	ctx := context.Background()

	first, err := scanner.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.RemindersSent)

	second, err := scanner.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.RemindersSent)
	assert.Equal(t, 1, second.Skipped)
	assert.Equal(t, 1, f.notifier.ReminderCount())

	// The next tier still fires once.
	f.clock.Set(day0.AddDate(0, 0, 15))
	third, err := scanner.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, third.RemindersSent)
	assert.Equal(t, 2, f.notifier.ReminderCount())
}

func TestInactivityScanner_BelowThresholdOnlyRefreshes(t *testing.T) {
	f := newFixture(t)
	f.createUser(t, "usr-1", "astrid@example.com", "Astrid")
	f.seedProgress(t, "usr-1", "dracula", day0)
	f.clock.Set(day0.AddDate(0, 0, 3))

	res, err := f.scanner().Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)
	assert.Zero(t, res.RemindersSent)
	assert.Zero(t, res.Skipped)
	assert.Zero(t, f.notifier.ReminderCount())

	rec, err := f.store.GetProgress(context.Background(), "usr-1", "dracula")
	require.NoError(t, err)
	assert.Equal(t, 3, rec.DaysInactive)
}

func TestInactivityScanner_Skips(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.createUser(t, "usr-noemail", "", "Nameless")
	f.seedProgress(t, "usr-noemail", "dracula", day0)

	f.createUser(t, "usr-optout", "optout@example.com", "Opt Out")
	f.seedProgress(t, "usr-optout", "dracula", day0)
	optOut := domain.NewUserStats("usr-optout", day0)
	optOut.ReminderEnabled = false
	require.NoError(t, f.store.SaveUserStats(ctx, optOut))

	f.createUser(t, "usr-missing-book", "reader@example.com", "Reader")
	f.seedProgress(t, "usr-missing-book", "no-such-book", day0)

	f.seedProgress(t, "usr-ghost", "dracula", day0)

	completed := f.seedProgress(t, "usr-missing-book", "dracula", day0)
	completed.Completed = true
	require.NoError(t, f.store.SaveProgress(ctx, completed))

	f.clock.Set(day0.AddDate(0, 0, 10))
	res, err := f.scanner().Scan(ctx)
	require.NoError(t, err)

	assert.Equal(t, 4, res.Processed)
	assert.Equal(t, 4, res.Skipped)
	assert.Zero(t, res.RemindersSent)
	assert.Empty(t, res.Errors)
	assert.Zero(t, f.notifier.ReminderCount())
}

func TestInactivityScanner_FailedDispatchIsLogged(t *testing.T) {
	f := newFixture(t)
	f.notifier.Fail = "HTTP 502"
	f.createUser(t, "usr-1", "astrid@example.com", "Astrid")
	f.seedProgress(t, "usr-1", "dracula", day0)
	f.clock.Set(day0.AddDate(0, 0, 8))
	ctx := context.Background()

	res, err := f.scanner().Scan(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.RemindersSent)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, domain.ProgressID("usr-1", "dracula")+": send inactive_7_days to astrid@example.com: HTTP 502", res.Errors[0])
	assert.Empty(t, res.Details)
	assert.Empty(t, f.events.OfType(events.TypeReminderSent))

	logs, err := f.store.ListReminderLogs(ctx, "usr-1")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.False(t, logs[0].AutomationResponse.Success)
	assert.Equal(t, "HTTP 502", logs[0].AutomationResponse.Message)

	// The ledger slot is taken; a retry scan does not resend.
	f.notifier.Fail = ""
	res, err = f.scanner().Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, f.notifier.ReminderCount())
}

func TestInactivityScanner_RemindsAgainAfterResume(t *testing.T) {
	f := newFixture(t)
	f.createUser(t, "usr-1", "astrid@example.com", "Astrid")
	progress := f.progress()
	scanner := f.scanner()
	ctx := context.Background()

	_, err := progress.Record(ctx, "usr-1", ProgressUpdate{BookID: "dracula", CurrentPage: 10, TotalPages: 400})
	require.NoError(t, err)

	f.clock.Advance(8 * 24 * time.Hour)
	res, err := scanner.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.RemindersSent)

	// Reader comes back, then lapses again.
	_, err = progress.Record(ctx, "usr-1", ProgressUpdate{BookID: "dracula", CurrentPage: 20, TotalPages: 400})
	require.NoError(t, err)
	f.clock.Advance(8 * 24 * time.Hour)

	res, err = scanner.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.RemindersSent)

	logs, err := f.store.ListReminderLogs(ctx, "usr-1")
	require.NoError(t, err)
	require.Len(t, logs, 2)
	epochs := []int{logs[0].Epoch, logs[1].Epoch}
	assert.ElementsMatch(t, []int{0, 1}, epochs)
}

func TestInactivityScanner_StopsOnCancel(t *testing.T) {
	f := newFixture(t)
	f.createUser(t, "usr-1", "astrid@example.com", "Astrid")
	f.seedProgress(t, "usr-1", "dracula", day0)
	f.clock.Set(day0.AddDate(0, 0, 10))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.scanner().Scan(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, f.notifier.ReminderCount())
}

package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mimirswell/mimirswell-server/internal/cache"
	"github.com/mimirswell/mimirswell-server/internal/clock"
	"github.com/mimirswell/mimirswell-server/internal/content"
	"github.com/mimirswell/mimirswell-server/internal/domain"
	"github.com/mimirswell/mimirswell-server/internal/events"
	"github.com/mimirswell/mimirswell-server/internal/notify"
	"github.com/mimirswell/mimirswell-server/internal/store"
)

const testAppURL = "https://mimirswell.test"

// day0 is a Monday morning in UTC.
var day0 = time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store    store.Store
	clock    *clock.Mock
	catalog  *content.Catalog
	notifier *notify.Recorder
	events   *events.Recorder
	logger   *slog.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	catalog, err := content.New(content.Options{})
	require.NoError(t, err)

	return &fixture{
		store:    st,
		clock:    clock.NewMock(day0),
		catalog:  catalog,
		notifier: &notify.Recorder{},
		events:   &events.Recorder{},
		logger:   slog.New(slog.DiscardHandler),
	}
}

func (f *fixture) completion() *CompletionService {
	return NewCompletionService(f.store, f.catalog, f.notifier, testAppURL, f.logger)
}

func (f *fixture) hero() *HeroService {
	return NewHeroService(f.store, f.catalog, cache.NewTTL[*domain.HeroContent](time.Hour, f.clock), f.clock, time.UTC, f.logger)
}

func (f *fixture) progress() *ProgressService {
	return NewProgressService(f.store, f.completion(), nil, f.events, f.clock, time.UTC, f.logger)
}

func (f *fixture) stats() *StatsService {
	return NewStatsService(f.store, f.clock, time.UTC, f.logger)
}

func (f *fixture) scanner() *InactivityScanner {
	return NewInactivityScanner(f.store, f.catalog, f.notifier, f.events, f.clock, time.UTC, testAppURL, f.logger)
}

func (f *fixture) createUser(t *testing.T, userID, email, name string) *domain.User {
	t.Helper()
	u := &domain.User{ID: userID, Email: email, Name: name, CreatedAt: day0, UpdatedAt: day0}
	require.NoError(t, f.store.CreateUser(context.Background(), u))
	return u
}

func intPtr(n int) *int { return &n }

// failingStats wraps a store and fails every stats write.
type failingStats struct {
	store.Store
}

func (failingStats) SaveUserStats(context.Context, *domain.UserStats) error {
	return store.ErrInvalidInput.WithMessage("stats unavailable")
}

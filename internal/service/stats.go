package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"

	"github.com/mimirswell/mimirswell-server/internal/clock"
	"github.com/mimirswell/mimirswell-server/internal/domain"
	"github.com/mimirswell/mimirswell-server/internal/store"
)

const (
	// statsWindowDays is the rolling window for the "this week" figures.
	statsWindowDays = 7

	// calendarDays is the span of the streak calendar (12 weeks).
	calendarDays = 84
)

// StatsService provides a reader's streak and activity summary.
type StatsService struct {
	store  store.Store
	clock  clock.Clock
	loc    *time.Location
	logger *slog.Logger
}

// NewStatsService creates a new stats service.
func NewStatsService(st store.Store, clk clock.Clock, loc *time.Location, logger *slog.Logger) *StatsService {
	if loc == nil {
		loc = time.UTC
	}
	return &StatsService{
		store:  st,
		clock:  clk,
		loc:    loc,
		logger: logger,
	}
}

// GetStats returns the summary for userID, creating an empty stats record on
// first access.
func (s *StatsService) GetStats(ctx context.Context, userID string) (*domain.StatsSummary, error) {
	now := s.clock.Now()

	var (
		userStats            *domain.UserStats
		inProgress, finished int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		userStats, err = s.loadOrCreate(gctx, userID, now)
		return err
	})
	g.Go(func() error {
		var err error
		inProgress, finished, err = s.store.CountUserProgress(gctx, userID)
		if err != nil {
			return storeError(err, "count reading progress")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	today := domain.DateOnly(now, s.loc)
	window := userStats.HistoryWithin(now.Add(-statsWindowDays*24*time.Hour), s.loc)

	summary := &domain.StatsSummary{
		CurrentStreak:           userStats.CurrentStreak,
		LongestStreak:           userStats.LongestStreak,
		LastReadDate:            userStats.LastReadDate,
		StreakStartDate:         userStats.StreakStartDate,
		TotalBooksCompleted:     finished,
		TotalPagesRead:          userStats.TotalPagesRead,
		TotalReadingTimeMinutes: userStats.TotalReadingTimeMinutes,
		BooksInProgress:         inProgress,
		WeeklyHistory:           window,
		StreakCalendar:          buildStreakCalendar(userStats, today),
		LastActivityAt:          userStats.LastActivityAt,
		ReminderEnabled:         userStats.ReminderEnabled,
		ReminderTime:            userStats.ReminderTime,
		DaysActiveThisWeek:      len(window),
	}

	// Every history entry is an active day, including re-reads that added no pages.
	activePages := make(stats.Float64Data, 0, len(window))
	for _, e := range window {
		summary.ThisWeekPages += e.PagesRead
		summary.ThisWeekMinutes += e.MinutesRead
		activePages = append(activePages, float64(e.PagesRead))
	}
	if len(activePages) > 0 {
		if mean, err := stats.Mean(activePages); err == nil {
			if rounded, err := stats.Round(mean, 1); err == nil {
				summary.AveragePagesPerActiveDay = rounded
			}
		}
	}

	return summary, nil
}

func (s *StatsService) loadOrCreate(ctx context.Context, userID string, now time.Time) (*domain.UserStats, error) {
	userStats, err := s.store.GetUserStats(ctx, userID)
	if err != nil {
		return nil, storeError(err, "get user stats")
	}
	if userStats != nil {
		return userStats, nil
	}

	userStats = domain.NewUserStats(userID, now)
	if err := s.store.SaveUserStats(ctx, userStats); err != nil {
		return nil, storeError(err, "create user stats")
	}
	s.logger.Debug("created user stats", "user_id", userID)
	return userStats, nil
}

// buildStreakCalendar lays out the past 12 weeks of reading, oldest first.
// Intensity scales 1-4 against the busiest day in the span.
func buildStreakCalendar(userStats *domain.UserStats, today domain.Date) []domain.StreakDay {
	start := today.AddDays(-(calendarDays - 1))

	daily := make(map[domain.Date]domain.HistoryEntry)
	var maxPages int
	for _, e := range userStats.HistorySince(start) {
		daily[e.Date] = e
		maxPages = max(maxPages, e.PagesRead)
	}

	calendar := make([]domain.StreakDay, 0, calendarDays)
	for i := range calendarDays {
		date := start.AddDays(i)
		e, hasRead := daily[date]

		intensity := 0
		if hasRead && maxPages > 0 {
			ratio := float64(e.PagesRead) / float64(maxPages)
			intensity = min(int(ratio*3)+1, 4)
		} else if hasRead {
			intensity = 1
		}

		calendar = append(calendar, domain.StreakDay{
			Date:        date,
			HasRead:     hasRead,
			PagesRead:   e.PagesRead,
			MinutesRead: e.MinutesRead,
			Intensity:   intensity,
		})
	}
	return calendar
}

// PreferencesUpdate changes reminder preferences. Nil fields are left as is.
type PreferencesUpdate struct {
	ReminderEnabled *bool   `json:"reminderEnabled,omitempty"`
	ReminderTime    *string `json:"reminderTime,omitempty" validate:"omitempty,hhmm"`
}

// UpdatePreferences applies u to the reader's stats record.
func (s *StatsService) UpdatePreferences(ctx context.Context, userID string, u PreferencesUpdate) (*domain.UserStats, error) {
	if err := validate.Validate(u); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	userStats, err := s.loadOrCreate(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	if u.ReminderEnabled != nil {
		userStats.ReminderEnabled = *u.ReminderEnabled
	}
	if u.ReminderTime != nil {
		userStats.ReminderTime = *u.ReminderTime
	}
	userStats.UpdatedAt = now

	if err := s.store.SaveUserStats(ctx, userStats); err != nil {
		return nil, storeError(err, "save reminder preferences")
	}

	s.logger.Info("updated reminder preferences",
		"user_id", userID,
		"reminder_enabled", userStats.ReminderEnabled,
		"reminder_time", userStats.ReminderTime,
	)
	return userStats, nil
}

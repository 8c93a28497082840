package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mimirswell/mimirswell-server/internal/clock"
	"github.com/mimirswell/mimirswell-server/internal/content"
	"github.com/mimirswell/mimirswell-server/internal/domain"
	"github.com/mimirswell/mimirswell-server/internal/events"
	"github.com/mimirswell/mimirswell-server/internal/id"
	"github.com/mimirswell/mimirswell-server/internal/notify"
	"github.com/mimirswell/mimirswell-server/internal/store"
)

// reminderDateLayout formats the reading start date in reminder emails.
const reminderDateLayout = "January 2, 2006"

// InactivityScanner finds readers who have stalled on a book and sends one
// reminder per inactivity tier.
type InactivityScanner struct {
	store    store.Store
	books    content.BookLookup
	notifier notify.Notifier
	events   events.Publisher
	clock    clock.Clock
	loc      *time.Location
	appURL   string
	logger   *slog.Logger
}

// NewInactivityScanner creates a scanner. appURL is the public web app
// origin used for resume links; loc is the zone start dates are rendered in.
func NewInactivityScanner(
	st store.Store,
	books content.BookLookup,
	notifier notify.Notifier,
	publisher events.Publisher,
	clk clock.Clock,
	loc *time.Location,
	appURL string,
	logger *slog.Logger,
) *InactivityScanner {
	if publisher == nil {
		publisher = events.Noop{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &InactivityScanner{
		store:    st,
		books:    books,
		notifier: notifier,
		events:   publisher,
		clock:    clk,
		loc:      loc,
		appURL:   appURL,
		logger:   logger,
	}
}

// ReminderSentData is the payload of reminder.sent events.
type ReminderSentData struct {
	ReminderType string `json:"reminderType"`
	DaysInactive int    `json:"daysInactive"`
	Epoch        int    `json:"epoch"`
}

// scanState caches per-user lookups for the duration of one scan.
type scanState struct {
	users map[string]*domain.User
	stats map[string]*domain.UserStats
}

// Scan walks every incomplete progress record, refreshes its cached
// inactivity and dispatches due reminders. One failing record never aborts
// the scan; its error is collected in the result. A canceled ctx stops the
// scan and returns the partial result with the context error.
func (s *InactivityScanner) Scan(ctx context.Context) (*domain.ScanResult, error) {
	now := s.clock.Now()
	result := &domain.ScanResult{Errors: []string{}, Details: []domain.ReminderDetail{}}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records, err := s.store.ListIncompleteProgress(ctx)
	if err != nil {
		return nil, storeError(err, "list incomplete progress")
	}

	s.logger.Info("inactivity scan started", "records", len(records))

	state := &scanState{
		users: make(map[string]*domain.User),
		stats: make(map[string]*domain.UserStats),
	}

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("inactivity scan canceled", "processed", result.Processed)
			return result, err
		}
		result.Processed++
		s.processRecord(ctx, state, rec, result)
	}

	s.publish(ctx, events.Event{
		Type:       events.TypeScanCompleted,
		OccurredAt: s.clock.Now(),
		Data:       result,
	})

	s.logger.Info("inactivity scan finished",
		"processed", result.Processed,
		"reminders_sent", result.RemindersSent,
		"skipped", result.Skipped,
		"errors", len(result.Errors),
		"duration", s.clock.Now().Sub(now),
	)
	return result, nil
}

func (s *InactivityScanner) processRecord(ctx context.Context, state *scanState, rec *domain.ProgressRecord, result *domain.ScanResult) {
	now := s.clock.Now()
	days := rec.InactiveDays(now)

	if days != rec.DaysInactive {
		if err := s.store.SetDaysInactive(ctx, rec.UserID, rec.BookID, days); err != nil {
			recordError(result, rec, "refresh inactivity: %v", err)
		}
	}

	tier, due := domain.TierFor(days)
	if !due {
		return
	}

	key := domain.ReminderKey{
		UserID:       rec.UserID,
		BookID:       rec.BookID,
		ReminderType: tier.Type(),
		Epoch:        rec.ReminderEpoch,
	}
	sent, err := s.store.HasReminder(ctx, key)
	if err != nil {
		recordError(result, rec, "check reminder %s: %v", key.ReminderType, err)
		return
	}
	if sent {
		result.Skipped++
		return
	}

	user, ok := s.eligibleUser(ctx, state, rec, result)
	if !ok {
		result.Skipped++
		return
	}

	book, ok := s.books.GetBookByID(rec.BookID)
	if !ok {
		s.logger.Debug("skipping reminder for book missing from catalog", "book_id", rec.BookID)
		result.Skipped++
		return
	}

	res := s.notifier.SendReminder(ctx, notify.ReminderPayload{
		Name:         user.DisplayName(),
		Email:        user.Email,
		BookName:     book.Title,
		StartDate:    rec.FirstReadAt.In(s.loc).Format(reminderDateLayout),
		DaysInactive: days,
		ResumeLink:   s.appURL + "/read/" + rec.BookID,
	})

	logID, err := id.Generate(id.PrefixReminder)
	if err != nil {
		recordError(result, rec, "generate reminder id: %v", err)
		return
	}
	entry := &domain.ReminderLog{
		ID:           logID,
		UserID:       rec.UserID,
		UserEmail:    user.Email,
		UserName:     user.DisplayName(),
		BookID:       rec.BookID,
		BookName:     book.Title,
		ReminderType: key.ReminderType,
		Epoch:        key.Epoch,
		DaysInactive: days,
		SentAt:       now,
		AutomationResponse: domain.AutomationResponse{
			Success: res.Success,
			Message: res.Message,
		},
	}
	if err := s.store.CreateReminderLog(ctx, entry); err != nil {
		if errors.Is(err, store.ErrReminderLogged) {
			result.Skipped++
			return
		}
		recordError(result, rec, "log reminder %s: %v", key.ReminderType, err)
		return
	}

	if !res.Success {
		s.logger.Warn("reminder automation failed",
			"user_id", rec.UserID,
			"book_id", rec.BookID,
			"reminder_type", key.ReminderType,
			"reason", res.Message,
		)
		recordError(result, rec, "send %s to %s: %s", key.ReminderType, user.Email, res.Message)
		return
	}

	result.RemindersSent++
	result.Details = append(result.Details, domain.ReminderDetail{
		UserName:     user.DisplayName(),
		BookName:     book.Title,
		DaysInactive: days,
		ReminderType: key.ReminderType,
	})
	s.publish(ctx, events.Event{
		Type:       events.TypeReminderSent,
		UserID:     rec.UserID,
		BookID:     rec.BookID,
		OccurredAt: now,
		Data: ReminderSentData{
			ReminderType: key.ReminderType,
			DaysInactive: days,
			Epoch:        key.Epoch,
		},
	})
}

// eligibleUser returns the user when they have an email address and have not
// turned reminders off.
func (s *InactivityScanner) eligibleUser(ctx context.Context, state *scanState, rec *domain.ProgressRecord, result *domain.ScanResult) (*domain.User, bool) {
	userID := rec.UserID
	user, ok := state.users[userID]
	if !ok {
		u, err := s.store.GetUser(ctx, userID)
		switch {
		case errors.Is(err, store.ErrNotFound):
		case err != nil:
			recordError(result, rec, "get user %s: %v", userID, err)
		default:
			user = u
		}
		state.users[userID] = user

		userStats, err := s.store.GetUserStats(ctx, userID)
		if err != nil {
			recordError(result, rec, "get stats for %s: %v", userID, err)
		}
		state.stats[userID] = userStats
	}

	if user == nil || user.Email == "" {
		return nil, false
	}
	if st := state.stats[userID]; st != nil && !st.ReminderEnabled {
		return nil, false
	}
	return user, true
}

// recordError appends a per-record failure keyed by the progress id.
func recordError(result *domain.ScanResult, rec *domain.ProgressRecord, format string, args ...any) {
	result.Errors = append(result.Errors, rec.ID+": "+fmt.Sprintf(format, args...))
}

func (s *InactivityScanner) publish(ctx context.Context, evt events.Event) {
	if err := s.events.Publish(ctx, evt); err != nil {
		s.logger.Warn("failed to publish event", "type", evt.Type, "error", err)
	}
}

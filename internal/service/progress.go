package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/mimirswell/mimirswell-server/internal/clock"
	"github.com/mimirswell/mimirswell-server/internal/domain"
	domainerrors "github.com/mimirswell/mimirswell-server/internal/errors"
	"github.com/mimirswell/mimirswell-server/internal/events"
	"github.com/mimirswell/mimirswell-server/internal/store"
)

// completionTimeout bounds the background completion notice.
const completionTimeout = 15 * time.Second

// ProgressService ingests page reports and keeps progress, library shelves
// and streak stats in step.
//
// The progress write is authoritative. The library, stats, event and
// completion follow-ups are best effort: their failures are logged and the
// request still succeeds.
type ProgressService struct {
	store      store.Store
	completion *CompletionService
	hero       *HeroService
	events     events.Publisher
	clock      clock.Clock
	loc        *time.Location
	logger     *slog.Logger

	background sync.WaitGroup
}

// NewProgressService creates a progress service. completion may be nil to
// disable automatic completion notices and hero may be nil when no landing
// block is cached. loc is the zone calendar days are observed in.
func NewProgressService(
	st store.Store,
	completion *CompletionService,
	hero *HeroService,
	publisher events.Publisher,
	clk clock.Clock,
	loc *time.Location,
	logger *slog.Logger,
) *ProgressService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ProgressService{
		store:      st,
		completion: completion,
		hero:       hero,
		events:     publisher,
		clock:      clk,
		loc:        loc,
		logger:     logger,
	}
}

// ProgressUpdatedData is the payload of progress.updated events.
type ProgressUpdatedData struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	PagesRead   int  `json:"pagesRead"`
	Minutes     int  `json:"minutes"`
	Completed   bool `json:"completed"`
}

// Record applies a page report for userID and returns the updated record.
func (s *ProgressService) Record(ctx context.Context, userID string, u ProgressUpdate) (*domain.ProgressRecord, error) {
	if err := validate.Validate(u); err != nil {
		return nil, err
	}

	prior, err := s.store.GetProgress(ctx, userID, u.BookID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, storeError(err, "get reading progress")
		}
		prior = nil
	}

	now := s.clock.Now()
	change, err := NormalizeSession(u, prior, now)
	if err != nil {
		return nil, err
	}

	record := prior
	if record == nil {
		record = domain.NewProgressRecord(userID, u.BookID, now)
	}
	completedNow := record.Apply(change, now)

	if err := s.store.SaveProgress(ctx, record); err != nil {
		return nil, storeError(err, "save reading progress")
	}

	minutes := 0
	if change.Session != nil {
		minutes = change.Session.DurationMinutes
	}

	if err := syncLibraryStatus(ctx, s.store, userID, u.BookID, record.Completed, now); err != nil {
		s.logger.Warn("failed to update library status",
			"user_id", userID,
			"book_id", u.BookID,
			"error", err,
		)
	}

	if err := s.updateStats(ctx, userID, StreakInput{
		BookID:           u.BookID,
		PagesRead:        change.PagesRead,
		MinutesRead:      minutes,
		BookCompletedNow: completedNow,
	}, now); err != nil {
		s.logger.Warn("failed to update reading stats",
			"user_id", userID,
			"book_id", u.BookID,
			"error", err,
		)
	}

	if s.hero != nil {
		s.hero.Invalidate(ctx, userID)
	}

	s.publish(ctx, events.Event{
		Type:       events.TypeProgressUpdated,
		UserID:     userID,
		BookID:     u.BookID,
		OccurredAt: now,
		Data: ProgressUpdatedData{
			CurrentPage: record.CurrentPage,
			TotalPages:  record.TotalPages,
			PagesRead:   change.PagesRead,
			Minutes:     minutes,
			Completed:   record.Completed,
		},
	})

	if completedNow {
		s.publish(ctx, events.Event{
			Type:       events.TypeBookCompleted,
			UserID:     userID,
			BookID:     u.BookID,
			OccurredAt: now,
		})
		s.notifyCompletion(userID, u.BookID)
	}

	s.logger.Debug("recorded reading progress",
		"user_id", userID,
		"book_id", u.BookID,
		"current_page", record.CurrentPage,
		"pages_read", change.PagesRead,
		"completed_now", completedNow,
	)

	return record, nil
}

func (s *ProgressService) updateStats(ctx context.Context, userID string, in StreakInput, now time.Time) error {
	stats, err := s.store.GetUserStats(ctx, userID)
	if err != nil {
		return err
	}
	stats = UpdateStreak(stats, userID, in, now, s.loc)
	return s.store.SaveUserStats(ctx, stats)
}

func (s *ProgressService) publish(ctx context.Context, evt events.Event) {
	if err := s.events.Publish(ctx, evt); err != nil {
		s.logger.Warn("failed to publish event", "type", evt.Type, "error", err)
	}
}

// notifyCompletion sends the completion notice without holding up the
// request.
func (s *ProgressService) notifyCompletion(userID, bookID string) {
	if s.completion == nil {
		return
	}
	s.background.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), completionTimeout)
		defer cancel()
		if _, err := s.completion.NotifyCompleted(ctx, userID, CompletionRequest{BookID: bookID}); err != nil {
			s.logger.Warn("completion notice failed", "user_id", userID, "book_id", bookID, "error", err)
		}
	})
}

// Wait blocks until background completion notices have finished.
func (s *ProgressService) Wait() {
	s.background.Wait()
}

// Get returns the reader's record for one book.
func (s *ProgressService) Get(ctx context.Context, userID, bookID string) (*domain.ProgressRecord, error) {
	record, err := s.store.GetProgress(ctx, userID, bookID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("no reading progress for this book")
		}
		return nil, storeError(err, "get reading progress")
	}
	return record, nil
}

// List returns every record for the reader, most recently read first.
func (s *ProgressService) List(ctx context.Context, userID string) ([]*domain.ProgressRecord, error) {
	records, err := s.store.ListUserProgress(ctx, userID)
	if err != nil {
		return nil, storeError(err, "list reading progress")
	}
	sortByLastRead(records)
	return records, nil
}

// sortByLastRead orders records most recently read first.
func sortByLastRead(records []*domain.ProgressRecord) {
	slices.SortStableFunc(records, func(a, b *domain.ProgressRecord) int {
		return b.LastReadAt.Compare(a.LastReadAt)
	})
}

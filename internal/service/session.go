package service

import (
	"time"

	"github.com/mimirswell/mimirswell-server/internal/domain"
)

// ProgressUpdate is a raw page-position report from a reader.
//
// SessionStartPage and SessionDurationMinutes are optional; zero is treated
// the same as absent.
type ProgressUpdate struct {
	BookID                 string `json:"bookId" validate:"required"`
	CurrentPage            int    `json:"currentPage" validate:"required,gt=0"`
	TotalPages             int    `json:"totalPages" validate:"required,gt=0"`
	SessionStartPage       *int   `json:"sessionStartPage,omitempty" validate:"omitempty,gte=0"`
	SessionDurationMinutes *int   `json:"sessionDurationMinutes,omitempty" validate:"omitempty,gte=0"`
}

func (u ProgressUpdate) startPage() (int, bool) {
	if u.SessionStartPage != nil && *u.SessionStartPage > 0 {
		return *u.SessionStartPage, true
	}
	return 0, false
}

func (u ProgressUpdate) duration() (int, bool) {
	if u.SessionDurationMinutes != nil && *u.SessionDurationMinutes > 0 {
		return *u.SessionDurationMinutes, true
	}
	return 0, false
}

// NormalizeSession validates u and derives the progress change it implies
// against prior, which is nil for a reader's first report on the book.
//
// pagesRead is measured from the explicit session start page, else from the
// prior position, else from page 1. A current page past the end of the book
// is clamped to totalPages.
func NormalizeSession(u ProgressUpdate, prior *domain.ProgressRecord, now time.Time) (domain.ProgressChange, error) {
	if err := validate.Validate(u); err != nil {
		return domain.ProgressChange{}, err
	}

	current := min(u.CurrentPage, u.TotalPages)

	var baseline int
	start, hasStart := u.startPage()
	switch {
	case hasStart:
		baseline = start
	case prior != nil:
		baseline = prior.CurrentPage
	default:
		baseline = current - 1
	}

	change := domain.ProgressChange{
		CurrentPage: current,
		TotalPages:  u.TotalPages,
		PagesRead:   max(0, current-baseline),
	}

	if minutes, ok := u.duration(); ok {
		sessionStart := 1
		switch {
		case hasStart:
			sessionStart = start
		case prior != nil && prior.CurrentPage > 0:
			sessionStart = prior.CurrentPage
		}
		change.Session = &domain.ReadingSession{
			StartedAt:       now.Add(-time.Duration(minutes) * time.Minute),
			EndedAt:         now,
			StartPage:       sessionStart,
			EndPage:         current,
			PagesRead:       change.PagesRead,
			DurationMinutes: minutes,
		}
	}

	return change, nil
}

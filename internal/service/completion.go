package service

import (
	"context"
	"log/slog"

	"github.com/mimirswell/mimirswell-server/internal/content"
	domainerrors "github.com/mimirswell/mimirswell-server/internal/errors"
	"github.com/mimirswell/mimirswell-server/internal/notify"
	"github.com/mimirswell/mimirswell-server/internal/store"
)

// CompletionService sends the celebration notice when a reader finishes a
// book. Delivery is fire-and-forget: a failed webhook never fails the caller.
type CompletionService struct {
	store    store.Store
	books    content.BookLookup
	notifier notify.Notifier
	appURL   string
	logger   *slog.Logger
}

// NewCompletionService creates a completion notifier. appURL is the public
// web app origin used for the "find your next book" link.
func NewCompletionService(st store.Store, books content.BookLookup, notifier notify.Notifier, appURL string, logger *slog.Logger) *CompletionService {
	return &CompletionService{
		store:    st,
		books:    books,
		notifier: notifier,
		appURL:   appURL,
		logger:   logger,
	}
}

// CompletionRequest identifies the finished book.
type CompletionRequest struct {
	BookID string `json:"bookId" validate:"required"`
}

// CompletionResult reports whether the automation accepted the notice.
type CompletionResult struct {
	AutomationTriggered bool   `json:"automationTriggered"`
	Message             string `json:"message"`
}

// NotifyCompleted sends the completion notice for bookID to userID.
func (s *CompletionService) NotifyCompleted(ctx context.Context, userID string, req CompletionRequest) (*CompletionResult, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, storeError(err, "get user")
	}
	book, ok := s.books.GetBookByID(req.BookID)
	if !ok {
		return nil, domainerrors.NotFoundf("book %s not found", req.BookID)
	}

	res := s.notifier.SendCompletion(ctx, notify.CompletionPayload{
		Name:     user.DisplayName(),
		Email:    user.Email,
		BookName: book.Title,
		Genre:    book.PrimaryGenre(),
		Link:     s.appURL + "/search",
	})
	if !res.Success {
		s.logger.Warn("completion automation failed",
			"user_id", userID,
			"book_id", req.BookID,
			"reason", res.Message,
		)
		return &CompletionResult{Message: "Book completion recorded, but automation failed"}, nil
	}

	s.logger.Info("completion automation sent", "user_id", userID, "book_id", req.BookID)
	return &CompletionResult{
		AutomationTriggered: true,
		Message:             "Book completion recorded and celebration email sent!",
	}, nil
}

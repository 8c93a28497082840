package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/mimirswell/mimirswell-server/internal/clock"
	"github.com/mimirswell/mimirswell-server/internal/content"
	"github.com/mimirswell/mimirswell-server/internal/domain"
	domainerrors "github.com/mimirswell/mimirswell-server/internal/errors"
	"github.com/mimirswell/mimirswell-server/internal/id"
	"github.com/mimirswell/mimirswell-server/internal/store"
)

// LibraryService manages a reader's saved books.
type LibraryService struct {
	store  store.Store
	books  content.BookLookup
	clock  clock.Clock
	logger *slog.Logger
}

// NewLibraryService creates a library service.
func NewLibraryService(st store.Store, books content.BookLookup, clk clock.Clock, logger *slog.Logger) *LibraryService {
	return &LibraryService{
		store:  st,
		books:  books,
		clock:  clk,
		logger: logger,
	}
}

// AddLibraryRequest saves a book, optionally on a specific shelf.
type AddLibraryRequest struct {
	BookID string               `json:"bookId" validate:"required"`
	Status domain.LibraryStatus `json:"status,omitempty" validate:"omitempty,libstatus"`
}

// LikeRequest sets or clears the liked flag.
type LikeRequest struct {
	BookID string `json:"bookId" validate:"required"`
	Liked  bool   `json:"liked"`
}

// List returns the user's library, newest first. An empty status returns
// every item.
func (s *LibraryService) List(ctx context.Context, userID string, status domain.LibraryStatus) ([]*domain.LibraryItem, error) {
	if status != "" && !status.Valid() {
		return nil, domainerrors.ValidationWithDetails("invalid status",
			map[string]string{"status": "must be one of: saved reading completed"})
	}

	items, err := s.store.ListLibrary(ctx, userID)
	if err != nil {
		return nil, storeError(err, "list library")
	}
	slices.SortStableFunc(items, func(a, b *domain.LibraryItem) int {
		return b.AddedAt.Compare(a.AddedAt)
	})
	if status == "" {
		return items, nil
	}

	filtered := make([]*domain.LibraryItem, 0, len(items))
	for _, it := range items {
		if it.Status == status {
			filtered = append(filtered, it)
		}
	}
	return filtered, nil
}

// Add saves a book to the library or moves it to another shelf.
// New items default to the saved shelf.
func (s *LibraryService) Add(ctx context.Context, userID string, req AddLibraryRequest) (*domain.LibraryItem, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}
	if _, ok := s.books.GetBookByID(req.BookID); !ok {
		return nil, domainerrors.NotFoundf("book %s not found", req.BookID)
	}

	item, err := s.getOrNew(ctx, userID, req.BookID)
	if err != nil {
		return nil, err
	}
	if req.Status != "" {
		item.Status = req.Status
	}
	item.UpdatedAt = s.clock.Now()

	if err := s.store.SaveLibraryItem(ctx, item); err != nil {
		return nil, storeError(err, "save library item")
	}
	return item, nil
}

// Remove deletes a book from the library.
func (s *LibraryService) Remove(ctx context.Context, userID, bookID string) error {
	if bookID == "" {
		return domainerrors.ValidationWithDetails("invalid bookId", map[string]string{"bookId": "is required"})
	}
	if err := s.store.DeleteLibraryItem(ctx, userID, bookID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("book is not in your library")
		}
		return storeError(err, "delete library item")
	}
	return nil
}

// SetLiked toggles the liked flag, saving the book first if needed.
func (s *LibraryService) SetLiked(ctx context.Context, userID string, req LikeRequest) (*domain.LibraryItem, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	item, err := s.getOrNew(ctx, userID, req.BookID)
	if err != nil {
		return nil, err
	}
	item.Liked = req.Liked
	item.UpdatedAt = s.clock.Now()

	if err := s.store.SaveLibraryItem(ctx, item); err != nil {
		return nil, storeError(err, "save library item")
	}
	return item, nil
}

func (s *LibraryService) getOrNew(ctx context.Context, userID, bookID string) (*domain.LibraryItem, error) {
	item, err := s.store.GetLibraryItem(ctx, userID, bookID)
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, storeError(err, "get library item")
	}
	return newLibraryItem(userID, bookID, domain.LibraryStatusSaved, s.clock.Now())
}

func newLibraryItem(userID, bookID string, status domain.LibraryStatus, now time.Time) (*domain.LibraryItem, error) {
	itemID, err := id.Generate(id.PrefixLibrary)
	if err != nil {
		return nil, fmt.Errorf("generate library item ID: %w", err)
	}
	return &domain.LibraryItem{
		ID:        itemID,
		UserID:    userID,
		BookID:    bookID,
		Status:    status,
		AddedAt:   now,
		UpdatedAt: now,
	}, nil
}

// syncLibraryStatus puts the book on the reading or completed shelf after a
// progress write, adding it to the library if it is not there yet.
func syncLibraryStatus(ctx context.Context, st store.Store, userID, bookID string, completed bool, now time.Time) error {
	status := domain.LibraryStatusReading
	if completed {
		status = domain.LibraryStatusCompleted
	}

	item, err := st.GetLibraryItem(ctx, userID, bookID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		item, err = newLibraryItem(userID, bookID, status, now)
		if err != nil {
			return err
		}
	case err != nil:
		return err
	case item.Status == status:
		return nil
	default:
		item.Status = status
		item.UpdatedAt = now
	}
	return st.SaveLibraryItem(ctx, item)
}

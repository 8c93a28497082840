package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/mimirswell/mimirswell-server/internal/domain"
)

const libraryPrefix = "library:"

func libraryKey(userID, bookID string) []byte {
	return []byte(libraryPrefix + domain.LibraryItemID(userID, bookID))
}

// GetLibraryItem retrieves one book from a user's library.
func (s *Badger) GetLibraryItem(ctx context.Context, userID, bookID string) (*domain.LibraryItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var item domain.LibraryItem
	err := s.get(libraryKey(userID, bookID), &item)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrLibraryItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get library item: %w", err)
	}
	return &item, nil
}

// SaveLibraryItem creates or replaces a library item.
func (s *Badger) SaveLibraryItem(ctx context.Context, item *domain.LibraryItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.set(libraryKey(item.UserID, item.BookID), item)
}

// DeleteLibraryItem removes a book from a user's library.
func (s *Badger) DeleteLibraryItem(ctx context.Context, userID, bookID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := libraryKey(userID, bookID)
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrLibraryItemNotFound
			}
			return err
		}
		return txn.Delete(key)
	})
}

// ListLibrary returns every item in a user's library.
func (s *Badger) ListLibrary(ctx context.Context, userID string) ([]*domain.LibraryItem, error) {
	return scan[domain.LibraryItem](ctx, s.db, libraryPrefix+userID+":", nil)
}

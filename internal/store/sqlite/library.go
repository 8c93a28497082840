package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/mimirswell/mimirswell-server/internal/domain"
	"github.com/mimirswell/mimirswell-server/internal/store"
)

type libraryRow struct {
	UserID    string `db:"user_id"`
	BookID    string `db:"book_id"`
	ID        string `db:"id"`
	Status    string `db:"status"`
	Liked     bool   `db:"liked"`
	AddedAt   string `db:"added_at"`
	UpdatedAt string `db:"updated_at"`
}

func (r *libraryRow) toDomain() (*domain.LibraryItem, error) {
	added, err := parseTime(r.AddedAt)
	if err != nil {
		return nil, err
	}
	updated, err := parseTime(r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &domain.LibraryItem{
		ID:        r.ID,
		UserID:    r.UserID,
		BookID:    r.BookID,
		Status:    domain.LibraryStatus(r.Status),
		Liked:     r.Liked,
		AddedAt:   added,
		UpdatedAt: updated,
	}, nil
}

// GetLibraryItem retrieves one book from a user's library.
func (s *Store) GetLibraryItem(ctx context.Context, userID, bookID string) (*domain.LibraryItem, error) {
	var row libraryRow
	err := s.db.GetContext(ctx, &row, `
		SELECT user_id, book_id, id, status, liked, added_at, updated_at
		FROM library_items WHERE user_id = ? AND book_id = ?`, userID, bookID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrLibraryItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain()
}

// SaveLibraryItem creates or replaces a library item.
func (s *Store) SaveLibraryItem(ctx context.Context, item *domain.LibraryItem) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO library_items (user_id, book_id, id, status, liked, added_at, updated_at)
		VALUES (:user_id, :book_id, :id, :status, :liked, :added_at, :updated_at)
		ON CONFLICT(user_id, book_id) DO UPDATE SET
			status = excluded.status,
			liked = excluded.liked,
			updated_at = excluded.updated_at`,
		libraryRow{
			UserID:    item.UserID,
			BookID:    item.BookID,
			ID:        item.ID,
			Status:    string(item.Status),
			Liked:     item.Liked,
			AddedAt:   formatTime(item.AddedAt),
			UpdatedAt: formatTime(item.UpdatedAt),
		})
	return err
}

// DeleteLibraryItem removes a book from a user's library.
func (s *Store) DeleteLibraryItem(ctx context.Context, userID, bookID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM library_items WHERE user_id = ? AND book_id = ?`, userID, bookID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrLibraryItemNotFound
	}
	return nil
}

// ListLibrary returns every item in a user's library, newest first.
func (s *Store) ListLibrary(ctx context.Context, userID string) ([]*domain.LibraryItem, error) {
	var rows []libraryRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT user_id, book_id, id, status, liked, added_at, updated_at
		FROM library_items WHERE user_id = ? ORDER BY added_at DESC`, userID); err != nil {
		return nil, err
	}

	items := make([]*domain.LibraryItem, 0, len(rows))
	for i := range rows {
		item, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

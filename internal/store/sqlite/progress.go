package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mimirswell/mimirswell-server/internal/domain"
	"github.com/mimirswell/mimirswell-server/internal/store"
)

type progressRow struct {
	UserID                string         `db:"user_id"`
	BookID                string         `db:"book_id"`
	ID                    string         `db:"id"`
	CurrentPage           int            `db:"current_page"`
	TotalPages            int            `db:"total_pages"`
	Completed             bool           `db:"completed"`
	CompletedAt           sql.NullString `db:"completed_at"`
	FirstReadAt           string         `db:"first_read_at"`
	LastReadAt            string         `db:"last_read_at"`
	LastSessionEndedAt    sql.NullString `db:"last_session_ended_at"`
	DaysInactive          int            `db:"days_inactive"`
	ReadingSessions       string         `db:"reading_sessions"`
	TotalTimeSpentMinutes int            `db:"total_time_spent_minutes"`
	ReminderEpoch         int            `db:"reminder_epoch"`
	CreatedAt             string         `db:"created_at"`
	UpdatedAt             string         `db:"updated_at"`
}

const progressColumns = `user_id, book_id, id, current_page, total_pages, completed, completed_at,
	first_read_at, last_read_at, last_session_ended_at, days_inactive, reading_sessions,
	total_time_spent_minutes, reminder_epoch, created_at, updated_at`

func newProgressRow(p *domain.ProgressRecord) (progressRow, error) {
	sessions := p.ReadingSessions
	if sessions == nil {
		sessions = []domain.ReadingSession{}
	}
	encoded, err := jsonColumn(sessions)
	if err != nil {
		return progressRow{}, fmt.Errorf("encode sessions: %w", err)
	}
	return progressRow{
		UserID:                p.UserID,
		BookID:                p.BookID,
		ID:                    p.ID,
		CurrentPage:           p.CurrentPage,
		TotalPages:            p.TotalPages,
		Completed:             p.Completed,
		CompletedAt:           nullTimeString(p.CompletedAt),
		FirstReadAt:           formatTime(p.FirstReadAt),
		LastReadAt:            formatTime(p.LastReadAt),
		LastSessionEndedAt:    nullTimeString(p.LastSessionEndedAt),
		DaysInactive:          p.DaysInactive,
		ReadingSessions:       encoded,
		TotalTimeSpentMinutes: p.TotalTimeSpentMinutes,
		ReminderEpoch:         p.ReminderEpoch,
		CreatedAt:             formatTime(p.CreatedAt),
		UpdatedAt:             formatTime(p.UpdatedAt),
	}, nil
}

func (r *progressRow) toDomain() (*domain.ProgressRecord, error) {
	p := &domain.ProgressRecord{
		ID:                    r.ID,
		UserID:                r.UserID,
		BookID:                r.BookID,
		CurrentPage:           r.CurrentPage,
		TotalPages:            r.TotalPages,
		Completed:             r.Completed,
		DaysInactive:          r.DaysInactive,
		TotalTimeSpentMinutes: r.TotalTimeSpentMinutes,
		ReminderEpoch:         r.ReminderEpoch,
	}

	var err error
	if p.CompletedAt, err = parseNullableTime(r.CompletedAt); err != nil {
		return nil, err
	}
	if p.FirstReadAt, err = parseTime(r.FirstReadAt); err != nil {
		return nil, err
	}
	if p.LastReadAt, err = parseTime(r.LastReadAt); err != nil {
		return nil, err
	}
	if p.LastSessionEndedAt, err = parseNullableTime(r.LastSessionEndedAt); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(r.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(r.ReadingSessions), &p.ReadingSessions); err != nil {
		return nil, fmt.Errorf("decode sessions for %s: %w", r.ID, err)
	}
	return p, nil
}

func (s *Store) selectProgress(ctx context.Context, query string, args ...any) ([]*domain.ProgressRecord, error) {
	var rows []progressRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	results := make([]*domain.ProgressRecord, 0, len(rows))
	for i := range rows {
		p, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	return results, nil
}

// GetProgress retrieves reading progress for a user+book.
func (s *Store) GetProgress(ctx context.Context, userID, bookID string) (*domain.ProgressRecord, error) {
	var row progressRow
	err := s.db.GetContext(ctx, &row,
		`SELECT `+progressColumns+` FROM reading_progress WHERE user_id = ? AND book_id = ?`, userID, bookID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrProgressNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain()
}

// SaveProgress creates or replaces reading progress.
func (s *Store) SaveProgress(ctx context.Context, progress *domain.ProgressRecord) error {
	row, err := newProgressRow(progress)
	if err != nil {
		return err
	}

	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO reading_progress (`+progressColumns+`)
		VALUES (:user_id, :book_id, :id, :current_page, :total_pages, :completed, :completed_at,
			:first_read_at, :last_read_at, :last_session_ended_at, :days_inactive, :reading_sessions,
			:total_time_spent_minutes, :reminder_epoch, :created_at, :updated_at)
		ON CONFLICT(user_id, book_id) DO UPDATE SET
			current_page = excluded.current_page,
			total_pages = excluded.total_pages,
			completed = excluded.completed,
			completed_at = excluded.completed_at,
			first_read_at = excluded.first_read_at,
			last_read_at = excluded.last_read_at,
			last_session_ended_at = excluded.last_session_ended_at,
			days_inactive = excluded.days_inactive,
			reading_sessions = excluded.reading_sessions,
			total_time_spent_minutes = excluded.total_time_spent_minutes,
			reminder_epoch = excluded.reminder_epoch,
			updated_at = excluded.updated_at`, row)
	return err
}

// ListUserProgress retrieves all progress records for a user.
func (s *Store) ListUserProgress(ctx context.Context, userID string) ([]*domain.ProgressRecord, error) {
	return s.selectProgress(ctx,
		`SELECT `+progressColumns+` FROM reading_progress WHERE user_id = ? ORDER BY last_read_at DESC`, userID)
}

// ListIncompleteProgress retrieves every record not yet completed, across all users.
func (s *Store) ListIncompleteProgress(ctx context.Context) ([]*domain.ProgressRecord, error) {
	return s.selectProgress(ctx,
		`SELECT `+progressColumns+` FROM reading_progress WHERE completed = 0`)
}

// CountUserProgress counts a user's incomplete and completed records.
func (s *Store) CountUserProgress(ctx context.Context, userID string) (inProgress, completed int, err error) {
	err = s.db.QueryRowxContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN completed = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN completed = 1 THEN 1 ELSE 0 END), 0)
		FROM reading_progress WHERE user_id = ?`, userID).Scan(&inProgress, &completed)
	return inProgress, completed, err
}

// SetDaysInactive refreshes the cached inactivity counter.
func (s *Store) SetDaysInactive(ctx context.Context, userID, bookID string, days int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reading_progress SET days_inactive = ? WHERE user_id = ? AND book_id = ?`, days, userID, bookID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrProgressNotFound
	}
	return nil
}

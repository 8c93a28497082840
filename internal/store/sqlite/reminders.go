package sqlite

import (
	"context"

	"github.com/mimirswell/mimirswell-server/internal/domain"
	"github.com/mimirswell/mimirswell-server/internal/store"
)

type reminderRow struct {
	ID           string `db:"id"`
	UserID       string `db:"user_id"`
	UserEmail    string `db:"user_email"`
	UserName     string `db:"user_name"`
	BookID       string `db:"book_id"`
	BookName     string `db:"book_name"`
	ReminderType string `db:"reminder_type"`
	Epoch        int    `db:"epoch"`
	DaysInactive int    `db:"days_inactive"`
	SentAt       string `db:"sent_at"`
	Success      bool   `db:"success"`
	Message      string `db:"message"`
}

// HasReminder reports whether a reminder was already logged for key.
func (s *Store) HasReminder(ctx context.Context, key domain.ReminderKey) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `
		SELECT COUNT(1) FROM reminder_logs
		WHERE user_id = ? AND book_id = ? AND reminder_type = ? AND epoch = ?`,
		key.UserID, key.BookID, key.ReminderType, key.Epoch)
	return n > 0, err
}

// CreateReminderLog appends a ledger row. The UNIQUE constraint on the slot
// turns a duplicate into ErrReminderLogged.
func (s *Store) CreateReminderLog(ctx context.Context, log *domain.ReminderLog) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO reminder_logs (id, user_id, user_email, user_name, book_id, book_name,
			reminder_type, epoch, days_inactive, sent_at, success, message)
		VALUES (:id, :user_id, :user_email, :user_name, :book_id, :book_name,
			:reminder_type, :epoch, :days_inactive, :sent_at, :success, :message)`,
		reminderRow{
			ID:           log.ID,
			UserID:       log.UserID,
			UserEmail:    log.UserEmail,
			UserName:     log.UserName,
			BookID:       log.BookID,
			BookName:     log.BookName,
			ReminderType: log.ReminderType,
			Epoch:        log.Epoch,
			DaysInactive: log.DaysInactive,
			SentAt:       formatTime(log.SentAt),
			Success:      log.AutomationResponse.Success,
			Message:      log.AutomationResponse.Message,
		})
	if isUniqueViolation(err) {
		return store.ErrReminderLogged.WithCause(err)
	}
	return err
}

// ListReminderLogs returns every ledger row for a user, oldest first.
func (s *Store) ListReminderLogs(ctx context.Context, userID string) ([]*domain.ReminderLog, error) {
	var rows []reminderRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, user_email, user_name, book_id, book_name, reminder_type,
			epoch, days_inactive, sent_at, success, message
		FROM reminder_logs WHERE user_id = ? ORDER BY sent_at`, userID); err != nil {
		return nil, err
	}

	logs := make([]*domain.ReminderLog, 0, len(rows))
	for _, r := range rows {
		sentAt, err := parseTime(r.SentAt)
		if err != nil {
			return nil, err
		}
		logs = append(logs, &domain.ReminderLog{
			ID:           r.ID,
			UserID:       r.UserID,
			UserEmail:    r.UserEmail,
			UserName:     r.UserName,
			BookID:       r.BookID,
			BookName:     r.BookName,
			ReminderType: r.ReminderType,
			Epoch:        r.Epoch,
			DaysInactive: r.DaysInactive,
			SentAt:       sentAt,
			AutomationResponse: domain.AutomationResponse{
				Success: r.Success,
				Message: r.Message,
			},
		})
	}
	return logs, nil
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/mimirswell/mimirswell-server/internal/domain"
)

const reminderPrefix = "reminder:"

// HasReminder reports whether a reminder was already logged for key.
func (s *Badger) HasReminder(ctx context.Context, key domain.ReminderKey) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return s.exists([]byte(reminderPrefix + key.String()))
}

// CreateReminderLog appends a ledger row. Returns ErrReminderLogged if the
// slot is already taken, which keeps repeated scans idempotent.
func (s *Badger) CreateReminderLog(ctx context.Context, log *domain.ReminderLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("marshal reminder log: %w", err)
	}

	key := []byte(reminderPrefix + log.Key().String())
	return s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			return ErrReminderLogged
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, data)
	})
}

// ListReminderLogs returns every ledger row for a user.
func (s *Badger) ListReminderLogs(ctx context.Context, userID string) ([]*domain.ReminderLog, error) {
	return scan[domain.ReminderLog](ctx, s.db, reminderPrefix+userID+":", nil)
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/mimirswell/mimirswell-server/internal/domain"
)

// Badger wraps a Badger database instance.
type Badger struct {
	db     *badger.DB
	logger *slog.Logger

	// Generic entities
	Users *Entity[domain.User]
}

// New creates a Badger-backed store at path.
func New(path string, logger *slog.Logger) (*Badger, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	s := &Badger{
		db:     db,
		logger: logger,
	}
	s.initUsers()

	if logger != nil {
		logger.Info("Badger database opened successfully", "path", path)
	}

	return s, nil
}

// Close gracefully closes the database connection.
func (s *Badger) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing database connection")
	}
	return s.db.Close()
}

// Ping reports whether the database is open.
func (s *Badger) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return errors.New("badger db is closed")
	}
	return nil
}

// get retrieves a value by key.
func (s *Badger) get(key []byte, dest any) error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, dest)
		})
	})
}

// set stores a value by key.
func (s *Badger) set(key []byte, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

// exists checks if a key exists.
func (s *Badger) exists(key []byte) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		return err
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// scan decodes every value under prefix, stopping on the first decode error.
func scan[T any](ctx context.Context, db *badger.DB, prefix string, keep func(*T) bool) ([]*T, error) {
	var results []*T
	p := []byte(prefix)

	err := db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = p
		opts.PrefetchValues = true

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			v := new(T)
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, v)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			if keep == nil || keep(v) {
				results = append(results, v)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// initUsers initializes the Users entity on the store.
// Uses case-insensitive email indexing via normalizeEmail transformation.
func (s *Badger) initUsers() {
	s.Users = NewEntity[domain.User](s, "user:").
		WithIndexTransform("email",
			func(u *domain.User) []string {
				if email := normalizeEmail(u.Email); email != "" {
					return []string{email}
				}
				return nil
			},
			normalizeEmail,
		)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

package sqlite

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/mimirswell/mimirswell-server/internal/store"
	"github.com/mimirswell/mimirswell-server/internal/store/storetest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	s, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	var journalMode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("expected wal, got %s", journalMode)
	}

	var tables int
	if err := s.db.Get(&tables, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table'
		AND name IN ('users', 'reading_progress', 'user_stats', 'reminder_logs', 'library_items')`); err != nil {
		t.Fatalf("count tables: %v", err)
	}
	if tables != 5 {
		t.Errorf("expected 5 tables, got %d", tables)
	}
}

func TestOpen_IsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "twice.db")

	first, err := Open(dbPath, nil)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	first.Close()

	second, err := Open(dbPath, nil)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	second.Close()
}

func TestSQLiteStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return newTestStore(t)
	})
}

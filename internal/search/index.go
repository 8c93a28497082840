package search

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/mimirswell/mimirswell-server/internal/domain"
)

// SearchIndex wraps a Bleve index with catalog operations.
//
// All public methods are safe for concurrent use. The mutex guards the index
// handle while Replace swaps it.
type SearchIndex struct {
	index  bleve.Index
	path   string // empty for an in-memory index
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the search index.
type Options struct {
	DataPath string       // Directory for index storage; empty keeps the index in memory
	Logger   *slog.Logger // Uses a discard logger if nil
}

// mappingVersion is incremented whenever the index mapping changes so stale
// on-disk indexes are rebuilt on startup.
const mappingVersion = "1"

// NewSearchIndex creates or opens a search index.
// A corrupted or outdated on-disk index is removed and recreated.
func NewSearchIndex(opts Options) (*SearchIndex, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if opts.DataPath == "" {
		index, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create memory index: %w", err)
		}
		return &SearchIndex{index: index, logger: logger}, nil
	}

	indexPath := filepath.Join(opts.DataPath, "catalog.bleve")
	versionPath := filepath.Join(opts.DataPath, "catalog.version")

	var index bleve.Index
	needsRebuild := false

	indexExists := false
	if _, statErr := os.Stat(indexPath); statErr == nil {
		indexExists = true
	}

	if indexExists {
		existingVersion, readErr := os.ReadFile(versionPath)
		if readErr != nil || string(existingVersion) != mappingVersion {
			logger.Info("search index mapping version changed, will rebuild",
				"old_version", string(existingVersion),
				"new_version", mappingVersion,
			)
			needsRebuild = true
		}
	}

	if !needsRebuild && indexExists {
		var err error
		index, err = bleve.Open(indexPath)
		if err != nil {
			logger.Warn("failed to open existing index, will recreate",
				"path", indexPath,
				"error", err,
			)
			needsRebuild = true
		}
	}

	if needsRebuild {
		if removeErr := os.RemoveAll(indexPath); removeErr != nil {
			return nil, fmt.Errorf("remove old index: %w", removeErr)
		}
		index = nil
	}

	if index == nil {
		var err error
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if writeErr := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); writeErr != nil {
			logger.Warn("failed to write search version file", "error", writeErr)
		}
		logger.Info("created new search index", "path", indexPath, "mapping_version", mappingVersion)
	} else {
		logger.Info("opened existing search index", "path", indexPath)
	}

	return &SearchIndex{
		index:  index,
		path:   indexPath,
		logger: logger,
	}, nil
}

// Close closes the index and releases resources.
func (s *SearchIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexBooks indexes books in batches.
func (s *SearchIndex) IndexBooks(books []*domain.Book) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return indexBatches(s.index, books)
}

func indexBatches(index bleve.Index, books []*domain.Book) error {
	const batchSize = 500

	for i := 0; i < len(books); i += batchSize {
		end := min(i+batchSize, len(books))

		batch := index.NewBatch()
		for _, b := range books[i:end] {
			if err := batch.Index(b.ID, NewBookDocument(b).ToMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", b.ID, err)
			}
		}
		if err := index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}

// DeleteBook removes a book from the index.
func (s *SearchIndex) DeleteBook(id string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Delete(id)
}

// DocumentCount returns the total number of indexed documents.
func (s *SearchIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Replace drops the current index and indexes books into a fresh one.
// Used when the catalog is reloaded.
//
// Searches block until the new index is populated.
func (s *SearchIndex) Replace(books []*domain.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}

	var (
		index bleve.Index
		err   error
	)
	if s.path == "" {
		index, err = bleve.NewMemOnly(buildIndexMapping())
	} else {
		if err := os.RemoveAll(s.path); err != nil {
			return fmt.Errorf("remove index: %w", err)
		}
		index, err = bleve.New(s.path, buildIndexMapping())
	}
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	s.index = index

	if err := indexBatches(index, books); err != nil {
		return err
	}

	s.logger.Info("rebuilt search index", "documents", len(books))
	return nil
}

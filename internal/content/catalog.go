// Package content serves the book catalog: loading, lookup, genre listings,
// recommendations and full-text search.
package content

import (
	"cmp"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/mimirswell/mimirswell-server/internal/domain"
	"github.com/mimirswell/mimirswell-server/internal/search"
)

//go:embed catalog.json
var defaultCatalog []byte

// Default list sizes, matching the web client's shelves.
const (
	DefaultLatestLimit  = 6
	DefaultSimilarLimit = 4
	DefaultSearchLimit  = 50
)

// ErrEmptyCatalog is returned when a catalog file holds no books.
var ErrEmptyCatalog = errors.New("catalog contains no books")

// BookLookup resolves catalog books by ID.
type BookLookup interface {
	GetBookByID(id string) (*domain.Book, bool)
}

// Options configures a Catalog.
type Options struct {
	// Path of a JSON catalog file. Empty uses the embedded catalog.
	Path string
	// Index is optional. Without it Search falls back to substring matching.
	Index  *search.SearchIndex
	Logger *slog.Logger
}

// Catalog is an in-memory, reloadable book catalog.
type Catalog struct {
	path   string
	index  *search.SearchIndex
	logger *slog.Logger

	mu    sync.RWMutex
	books []*domain.Book
	byID  map[string]*domain.Book
}

var _ BookLookup = (*Catalog)(nil)

// New loads the catalog and indexes it.
func New(opts Options) (*Catalog, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	c := &Catalog{
		path:   opts.Path,
		index:  opts.Index,
		logger: logger,
	}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Path returns the catalog file path, or "" for the embedded catalog.
func (c *Catalog) Path() string { return c.path }

type catalogFile struct {
	Books []*domain.Book `json:"books"`
}

// Parse decodes a catalog document and normalizes every book: descriptions
// become Markdown and genre slugs are derived from genre names.
func Parse(data []byte) ([]*domain.Book, error) {
	var f catalogFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(f.Books) == 0 {
		return nil, ErrEmptyCatalog
	}

	seen := make(map[string]struct{}, len(f.Books))
	for i, b := range f.Books {
		if b == nil || strings.TrimSpace(b.ID) == "" {
			return nil, fmt.Errorf("book %d: missing id", i)
		}
		if strings.TrimSpace(b.Title) == "" {
			return nil, fmt.Errorf("book %s: missing title", b.ID)
		}
		if _, dup := seen[b.ID]; dup {
			return nil, fmt.Errorf("book %s: duplicate id", b.ID)
		}
		seen[b.ID] = struct{}{}

		b.Description = htmlToMarkdown(b.Description)
		b.GenreSlugs = make([]string, 0, len(b.Genres))
		for _, g := range b.Genres {
			if slug := Slugify(g); slug != "" {
				b.GenreSlugs = append(b.GenreSlugs, slug)
			}
		}
	}
	return f.Books, nil
}

// Reload re-reads the catalog source. On failure the current catalog stays
// in place.
func (c *Catalog) Reload() error {
	data := defaultCatalog
	if c.path != "" {
		var err error
		data, err = os.ReadFile(c.path)
		if err != nil {
			return fmt.Errorf("read catalog: %w", err)
		}
	}

	books, err := Parse(data)
	if err != nil {
		return err
	}

	if c.index != nil {
		if err := c.index.Replace(books); err != nil {
			return fmt.Errorf("index catalog: %w", err)
		}
	}

	byID := make(map[string]*domain.Book, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}

	c.mu.Lock()
	c.books = books
	c.byID = byID
	c.mu.Unlock()

	source := c.path
	if source == "" {
		source = "embedded"
	}
	c.logger.Info("catalog loaded", "source", source, "books", len(books))
	return nil
}

// GetAllBooks returns every book in catalog order.
func (c *Catalog) GetAllBooks() []*domain.Book {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.books)
}

// GetBookByID returns the book with id.
func (c *Catalog) GetBookByID(id string) (*domain.Book, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.byID[id]
	return b, ok
}

func (c *Catalog) filter(keep func(*domain.Book) bool) []*domain.Book {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*domain.Book, 0)
	for _, b := range c.books {
		if keep(b) {
			out = append(out, b)
		}
	}
	return out
}

// Featured returns books flagged as featured.
func (c *Catalog) Featured() []*domain.Book {
	return c.filter(func(b *domain.Book) bool { return b.Featured })
}

// Popular returns books flagged as popular.
func (c *Catalog) Popular() []*domain.Book {
	return c.filter(func(b *domain.Book) bool { return b.Popular })
}

// Latest returns the n most recently published books.
func (c *Catalog) Latest(n int) []*domain.Book {
	if n <= 0 {
		n = DefaultLatestLimit
	}
	books := c.GetAllBooks()
	// ISO dates sort lexically.
	slices.SortStableFunc(books, func(a, b *domain.Book) int {
		return cmp.Compare(b.PublishedDate, a.PublishedDate)
	})
	return books[:min(n, len(books))]
}

// ByGenre returns books in a genre, matched by slug or display name.
func (c *Catalog) ByGenre(genre string) []*domain.Book {
	slug := Slugify(genre)
	if slug == "" {
		return []*domain.Book{}
	}
	return c.filter(func(b *domain.Book) bool { return slices.Contains(b.GenreSlugs, slug) })
}

// Similar returns up to n other books sharing at least one genre with bookID.
func (c *Catalog) Similar(bookID string, n int) []*domain.Book {
	if n <= 0 {
		n = DefaultSimilarLimit
	}
	book, ok := c.GetBookByID(bookID)
	if !ok {
		return []*domain.Book{}
	}

	out := c.filter(func(b *domain.Book) bool {
		if b.ID == bookID {
			return false
		}
		return slices.ContainsFunc(b.GenreSlugs, func(s string) bool {
			return slices.Contains(book.GenreSlugs, s)
		})
	})
	return out[:min(n, len(out))]
}

// Genres lists every genre with its book count, sorted by name.
func (c *Catalog) Genres() []domain.Genre {
	c.mu.RLock()
	defer c.mu.RUnlock()

	bySlug := make(map[string]*domain.Genre)
	for _, b := range c.books {
		for i, name := range b.Genres {
			if i >= len(b.GenreSlugs) {
				break
			}
			slug := b.GenreSlugs[i]
			g, ok := bySlug[slug]
			if !ok {
				g = &domain.Genre{Name: name, Slug: slug}
				bySlug[slug] = g
			}
			g.BookCount++
		}
	}

	out := make([]domain.Genre, 0, len(bySlug))
	for _, g := range bySlug {
		out = append(out, *g)
	}
	slices.SortFunc(out, func(a, b domain.Genre) int { return cmp.Compare(a.Name, b.Name) })
	return out
}

// SearchFilters narrows a catalog search.
type SearchFilters struct {
	Query     string
	Genre     string // slug or display name
	SortBy    string // relevance, title, rating, published
	SortOrder string // asc or desc
	Limit     int
}

// Search finds books matching filters, best match first.
func (c *Catalog) Search(ctx context.Context, f SearchFilters) ([]*domain.Book, error) {
	if f.Limit <= 0 {
		f.Limit = DefaultSearchLimit
	}
	genre := ""
	if f.Genre != "" {
		genre = Slugify(f.Genre)
	}

	if c.index == nil {
		return c.scan(f.Query, genre, f.Limit), nil
	}

	res, err := c.index.Search(ctx, search.SearchParams{
		Query:     f.Query,
		GenreSlug: genre,
		Limit:     f.Limit,
		SortBy:    f.SortBy,
		SortOrder: f.SortOrder,
	})
	if err != nil {
		return nil, fmt.Errorf("search catalog: %w", err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	books := make([]*domain.Book, 0, len(res.Hits))
	for _, hit := range res.Hits {
		// A reload can race the index swap; drop hits that no longer exist.
		if b, ok := c.byID[hit.ID]; ok {
			books = append(books, b)
		}
	}
	return books, nil
}

// scan is the index-free search: case-insensitive substring match on title,
// author and description.
func (c *Catalog) scan(query, genreSlug string, limit int) []*domain.Book {
	q := strings.ToLower(strings.TrimSpace(query))
	out := c.filter(func(b *domain.Book) bool {
		if genreSlug != "" && !slices.Contains(b.GenreSlugs, genreSlug) {
			return false
		}
		if q == "" {
			return true
		}
		return strings.Contains(strings.ToLower(b.Title), q) ||
			strings.Contains(strings.ToLower(b.Author), q) ||
			strings.Contains(strings.ToLower(b.Description), q)
	})
	return out[:min(limit, len(out))]
}

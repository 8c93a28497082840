package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimirswell/mimirswell-server/internal/domain"
)

func testBooks() []*domain.Book {
	return []*domain.Book{
		{ID: "b1", Title: "The Hobbit", Author: "J.R.R. Tolkien", Description: "A dragon and a burglar.",
			Genres: []string{"Fantasy"}, GenreSlugs: []string{"fantasy"}, Rating: 4.7, PublishedDate: "1937-09-21"},
		{ID: "b2", Title: "Dune", Author: "Frank Herbert", Description: "Spice and sandworms on Arrakis.",
			Genres: []string{"Science Fiction"}, GenreSlugs: []string{"science-fiction"}, Rating: 4.5, PublishedDate: "1965-08-01"},
		{ID: "b3", Title: "Atomic Habits", Author: "James Clear", Description: "Tiny changes, remarkable results.",
			Genres: []string{"Self Help"}, GenreSlugs: []string{"self-help"}, Rating: 4.8, PublishedDate: "2018-10-16"},
	}
}

func setupTestIndex(t *testing.T, dataPath string) *SearchIndex {
	t.Helper()

	index, err := NewSearchIndex(Options{DataPath: dataPath})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	require.NoError(t, index.IndexBooks(testBooks()))
	return index
}

func hitIDs(res *SearchResult) []string {
	ids := make([]string, len(res.Hits))
	for i, h := range res.Hits {
		ids[i] = h.ID
	}
	return ids
}

func TestNewSearchIndex_Memory(t *testing.T) {
	index := setupTestIndex(t, "")

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
}

func TestNewSearchIndex_ReopensOnDisk(t *testing.T) {
	dir := t.TempDir()

	index, err := NewSearchIndex(Options{DataPath: dir})
	require.NoError(t, err)
	require.NoError(t, index.IndexBooks(testBooks()))
	require.NoError(t, index.Close())

	reopened, err := NewSearchIndex(Options{DataPath: dir})
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
}

func TestSearch_ByTitle(t *testing.T) {
	index := setupTestIndex(t, "")

	res, err := index.Search(context.Background(), SearchParams{Query: "hobbit"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Hits)
	assert.Equal(t, "b1", res.Hits[0].ID)
	assert.Equal(t, "The Hobbit", res.Hits[0].Title)
}

func TestSearch_ByAuthorAndDescription(t *testing.T) {
	index := setupTestIndex(t, "")

	res, err := index.Search(context.Background(), SearchParams{Query: "herbert"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b2"}, hitIDs(res))

	res, err = index.Search(context.Background(), SearchParams{Query: "sandworms"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b2"}, hitIDs(res))
}

func TestSearch_Fuzzy(t *testing.T) {
	index := setupTestIndex(t, "")

	res, err := index.Search(context.Background(), SearchParams{Query: "dume"})
	require.NoError(t, err)
	assert.Contains(t, hitIDs(res), "b2")
}

func TestSearch_GenreFilter(t *testing.T) {
	index := setupTestIndex(t, "")

	res, err := index.Search(context.Background(), SearchParams{GenreSlug: "self-help"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b3"}, hitIDs(res))

	res, err = index.Search(context.Background(), SearchParams{Query: "hobbit", GenreSlug: "self-help"})
	require.NoError(t, err)
	assert.Empty(t, res.Hits)
}

func TestSearch_Sorting(t *testing.T) {
	index := setupTestIndex(t, "")

	tests := []struct {
		sortBy string
		order  string
		want   []string
	}{
		{SortTitle, "asc", []string{"b3", "b2", "b1"}},
		{SortRating, "desc", []string{"b3", "b1", "b2"}},
		{SortPublished, "asc", []string{"b1", "b2", "b3"}},
	}
	for _, tt := range tests {
		t.Run(tt.sortBy+"_"+tt.order, func(t *testing.T) {
			res, err := index.Search(context.Background(), SearchParams{SortBy: tt.sortBy, SortOrder: tt.order})
			require.NoError(t, err)
			assert.Equal(t, tt.want, hitIDs(res))
		})
	}
}

func TestReplace(t *testing.T) {
	index := setupTestIndex(t, "")

	require.NoError(t, index.Replace([]*domain.Book{{ID: "b9", Title: "Middlemarch", Author: "George Eliot"}}))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	res, err := index.Search(context.Background(), SearchParams{Query: "hobbit"})
	require.NoError(t, err)
	assert.Empty(t, res.Hits)
}

func TestPublishYear(t *testing.T) {
	assert.Equal(t, 1965, publishYear("1965-08-01"))
	assert.Equal(t, 2001, publishYear("2001"))
	assert.Equal(t, 0, publishYear(""))
	assert.Equal(t, 0, publishYear("n/a"))
}

package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Sort orders accepted by SearchParams.SortBy.
const (
	SortRelevance = "relevance"
	SortTitle     = "title"
	SortRating    = "rating"
	SortPublished = "published"
)

// SearchParams configures a search query.
type SearchParams struct {
	Query     string // Free text; empty matches every book
	GenreSlug string // Exact genre filter

	Limit  int
	Offset int

	SortBy    string
	SortOrder string // "asc" or "desc"
}

// SearchResult holds the matching book IDs in rank order.
type SearchResult struct {
	Query  string      `json:"query"`
	Total  uint64      `json:"total"`
	TookMs int64       `json:"tookMs"`
	Hits   []SearchHit `json:"hits"`
}

// SearchHit is a single match.
type SearchHit struct {
	ID         string            `json:"id"`
	Score      float64           `json:"score"`
	Title      string            `json:"title"`
	Author     string            `json:"author"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// Search executes a search query.
func (s *SearchIndex) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	if params.Limit <= 0 {
		params.Limit = 20
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(buildSearchQuery(params), params.Limit, params.Offset, false)
	addSorting(req, params)

	if params.Query != "" {
		req.Highlight = bleve.NewHighlight()
		req.Highlight.AddField("title")
		req.Highlight.AddField("author")
	}
	req.Fields = []string{"title", "author"}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &SearchResult{
		Query:  params.Query,
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]SearchHit, 0, len(res.Hits)),
	}

	for _, hit := range res.Hits {
		h := SearchHit{ID: hit.ID, Score: hit.Score}
		if t, ok := hit.Fields["title"].(string); ok {
			h.Title = t
		}
		if a, ok := hit.Fields["author"].(string); ok {
			h.Author = a
		}
		if len(hit.Fragments) > 0 {
			h.Highlights = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					h.Highlights[field] = fragments[0]
				}
			}
		}
		result.Hits = append(result.Hits, h)
	}

	return result, nil
}

// buildSearchQuery constructs the Bleve query from params.
//
// Title matches rank above author matches, which rank above description and
// genre matches. A fuzzy title clause tolerates single-character typos and a
// prefix clause serves type-ahead.
func buildSearchQuery(params SearchParams) query.Query {
	var queries []query.Query

	if q := strings.TrimSpace(params.Query); q != "" {
		titleMatch := bleve.NewMatchQuery(q)
		titleMatch.SetField("title")
		titleMatch.SetBoost(3.0)

		authorMatch := bleve.NewMatchQuery(q)
		authorMatch.SetField("author")
		authorMatch.SetBoost(2.0)

		descMatch := bleve.NewMatchQuery(q)
		descMatch.SetField("description")

		genreMatch := bleve.NewMatchQuery(q)
		genreMatch.SetField("genres")

		fuzzy := bleve.NewFuzzyQuery(strings.ToLower(q))
		fuzzy.SetFuzziness(1)
		fuzzy.SetField("title")
		fuzzy.SetBoost(0.8)

		textQueries := []query.Query{titleMatch, authorMatch, descMatch, genreMatch, fuzzy}

		if len(q) >= 2 {
			prefix := bleve.NewPrefixQuery(strings.ToLower(q))
			prefix.SetField("title")
			prefix.SetBoost(0.5)
			textQueries = append(textQueries, prefix)
		}

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	if params.GenreSlug != "" {
		gq := bleve.NewTermQuery(params.GenreSlug)
		gq.SetField("genre_slugs")
		queries = append(queries, gq)
	}

	switch len(queries) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return queries[0]
	default:
		return bleve.NewConjunctionQuery(queries...)
	}
}

// addSorting configures sort order.
func addSorting(req *bleve.SearchRequest, params SearchParams) {
	desc := params.SortOrder == "desc"
	switch params.SortBy {
	case SortTitle:
		if desc {
			req.SortBy([]string{"-title_sort"})
		} else {
			req.SortBy([]string{"title_sort"})
		}
	case SortRating:
		if params.SortOrder == "asc" {
			req.SortBy([]string{"rating", "title_sort"})
		} else {
			req.SortBy([]string{"-rating", "title_sort"})
		}
	case SortPublished:
		if params.SortOrder == "asc" {
			req.SortBy([]string{"publish_year", "title_sort"})
		} else {
			req.SortBy([]string{"-publish_year", "title_sort"})
		}
	default:
		req.SortBy([]string{"-_score", "title_sort"})
	}
}

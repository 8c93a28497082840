// Package search provides full-text search over the book catalog using Bleve.
package search

import (
	"strconv"
	"strings"

	"github.com/mimirswell/mimirswell-server/internal/domain"
)

// BookDocument is the indexed form of a catalog book.
//
// Description is searchable but never stored; hits are resolved back to the
// catalog by ID.
type BookDocument struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	Description string   `json:"description,omitempty"`
	Genres      []string `json:"genres,omitempty"`
	GenreSlugs  []string `json:"genre_slugs,omitempty"`
	Rating      float64  `json:"rating"`
	PublishYear int      `json:"publish_year,omitempty"`
	Featured    bool     `json:"featured"`
	Popular     bool     `json:"popular"`
}

// NewBookDocument converts a catalog book into an index document.
func NewBookDocument(b *domain.Book) *BookDocument {
	return &BookDocument{
		ID:          b.ID,
		Title:       b.Title,
		Author:      b.Author,
		Description: b.Description,
		Genres:      b.Genres,
		GenreSlugs:  b.GenreSlugs,
		Rating:      b.Rating,
		PublishYear: publishYear(b.PublishedDate),
		Featured:    b.Featured,
		Popular:     b.Popular,
	}
}

// ToMap converts the document to a map keyed by the mapping's field names.
// Bleve would otherwise index the Go field names.
func (d *BookDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":         d.ID,
		"title":      d.Title,
		"title_sort": strings.ToLower(d.Title),
		"author":     d.Author,
		"rating":     d.Rating,
		"featured":   d.Featured,
		"popular":    d.Popular,
	}
	if d.Description != "" {
		m["description"] = d.Description
	}
	if len(d.Genres) > 0 {
		m["genres"] = d.Genres
	}
	if len(d.GenreSlugs) > 0 {
		m["genre_slugs"] = d.GenreSlugs
	}
	if d.PublishYear > 0 {
		m["publish_year"] = d.PublishYear
	}
	return m
}

// publishYear extracts the leading year of a "2006-01-02" or "2006" date.
func publishYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}

package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve mapping for book documents.
//
// Title and author carry English stemming and term vectors for highlighting;
// genre slugs and the sort key use the keyword analyzer for exact matching.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	// --- Text fields ---

	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Analyzer = en.AnalyzerName
	titleFieldMapping.Store = true
	titleFieldMapping.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("title", titleFieldMapping)

	authorFieldMapping := bleve.NewTextFieldMapping()
	authorFieldMapping.Analyzer = en.AnalyzerName
	authorFieldMapping.Store = true
	authorFieldMapping.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("author", authorFieldMapping)

	// Description - searchable but not stored (too large)
	descFieldMapping := bleve.NewTextFieldMapping()
	descFieldMapping.Analyzer = en.AnalyzerName
	descFieldMapping.Store = false
	docMapping.AddFieldMappingsAt("description", descFieldMapping)

	genresFieldMapping := bleve.NewTextFieldMapping()
	genresFieldMapping.Analyzer = en.AnalyzerName
	genresFieldMapping.Store = false
	docMapping.AddFieldMappingsAt("genres", genresFieldMapping)

	// --- Keyword fields ---

	idFieldMapping := bleve.NewTextFieldMapping()
	idFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("id", idFieldMapping)

	genreSlugsFieldMapping := bleve.NewTextFieldMapping()
	genreSlugsFieldMapping.Analyzer = keyword.Name
	genreSlugsFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("genre_slugs", genreSlugsFieldMapping)

	titleSortFieldMapping := bleve.NewTextFieldMapping()
	titleSortFieldMapping.Analyzer = keyword.Name
	titleSortFieldMapping.Store = false
	docMapping.AddFieldMappingsAt("title_sort", titleSortFieldMapping)

	// --- Numeric and boolean fields ---

	ratingFieldMapping := bleve.NewNumericFieldMapping()
	ratingFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("rating", ratingFieldMapping)

	yearFieldMapping := bleve.NewNumericFieldMapping()
	yearFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("publish_year", yearFieldMapping)

	docMapping.AddFieldMappingsAt("featured", bleve.NewBooleanFieldMapping())
	docMapping.AddFieldMappingsAt("popular", bleve.NewBooleanFieldMapping())

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}

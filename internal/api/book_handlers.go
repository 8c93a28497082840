package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/mimirswell/mimirswell-server/internal/content"
	"github.com/mimirswell/mimirswell-server/internal/domain"
	domainerrors "github.com/mimirswell/mimirswell-server/internal/errors"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books",
		Summary:     "List books",
		Description: "Lists catalog books, optionally narrowed to a shelf or genre",
		Tags:        []string{"Books"},
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/search",
		Summary:     "Search books",
		Description: "Full-text search over title, author, description and genres",
		Tags:        []string{"Books"},
	}, s.handleSearchBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}",
		Summary:     "Get book",
		Description: "Returns a catalog book with similar titles",
		Tags:        []string{"Books"},
	}, s.handleGetBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "listGenres",
		Method:      http.MethodGet,
		Path:        "/api/v1/genres",
		Summary:     "List genres",
		Description: "Lists every genre with its book count",
		Tags:        []string{"Books"},
	}, s.handleListGenres)

	huma.Register(s.api, huma.Operation{
		OperationID: "getHomeHero",
		Method:      http.MethodGet,
		Path:        "/api/v1/home/hero",
		Summary:     "Home hero block",
		Description: "Returns the home page hero, personalised when the caller is signed in",
		Tags:        []string{"Books"},
	}, s.handleGetHero)
}

// ListBooksInput selects which books to list.
type ListBooksInput struct {
	Shelf string `query:"shelf" enum:"all,featured,popular,latest" default:"all" doc:"Which shelf to list"`
	Genre string `query:"genre" doc:"Genre slug or name"`
	Limit int    `query:"limit" minimum:"0" maximum:"100" doc:"Maximum books for the latest shelf"`
}

// BooksOutput wraps a list of books.
type BooksOutput struct {
	Body []*domain.Book
}

// SearchBooksInput contains search parameters.
type SearchBooksInput struct {
	Query string `query:"q" doc:"Search text"`
	Genre string `query:"genre" doc:"Genre slug or name"`
	Sort  string `query:"sort" enum:"relevance,title,rating,published" default:"relevance" doc:"Sort field"`
	Order string `query:"order" enum:"asc,desc" doc:"Sort direction; rating and published default to desc"`
	Limit int    `query:"limit" minimum:"0" maximum:"100" doc:"Maximum results"`
}

// GetBookInput identifies a catalog book.
type GetBookInput struct {
	ID string `path:"id" doc:"Catalog book ID"`
}

// BookDetailResponse is a book with recommendations.
type BookDetailResponse struct {
	Book    *domain.Book   `json:"book" doc:"The requested book"`
	Similar []*domain.Book `json:"similar" doc:"Books sharing a genre"`
}

// BookDetailOutput wraps the book detail.
type BookDetailOutput struct {
	Body BookDetailResponse
}

// GenresOutput wraps the genre list.
type GenresOutput struct {
	Body []domain.Genre
}

// HeroOutput wraps the hero block.
type HeroOutput struct {
	Body *domain.HeroContent
}

func (s *Server) handleListBooks(_ context.Context, input *ListBooksInput) (*BooksOutput, error) {
	catalog := s.services.Catalog

	var books []*domain.Book
	switch {
	case input.Genre != "":
		books = catalog.ByGenre(input.Genre)
	case input.Shelf == "featured":
		books = catalog.Featured()
	case input.Shelf == "popular":
		books = catalog.Popular()
	case input.Shelf == "latest":
		books = catalog.Latest(input.Limit)
	default:
		books = catalog.GetAllBooks()
	}
	return &BooksOutput{Body: books}, nil
}

func (s *Server) handleSearchBooks(ctx context.Context, input *SearchBooksInput) (*BooksOutput, error) {
	books, err := s.services.Catalog.Search(ctx, content.SearchFilters{
		Query:     input.Query,
		Genre:     input.Genre,
		SortBy:    input.Sort,
		SortOrder: input.Order,
		Limit:     input.Limit,
	})
	if err != nil {
		s.logger.Error("catalog search failed", "query", input.Query, "error", err)
		return nil, domainerrors.Internal("search failed")
	}
	return &BooksOutput{Body: books}, nil
}

func (s *Server) handleGetBook(_ context.Context, input *GetBookInput) (*BookDetailOutput, error) {
	book, ok := s.services.Catalog.GetBookByID(input.ID)
	if !ok {
		return nil, domainerrors.NotFoundf("book %q not found", input.ID)
	}

	return &BookDetailOutput{Body: BookDetailResponse{
		Book:    book,
		Similar: s.services.Catalog.Similar(book.ID, content.DefaultSimilarLimit),
	}}, nil
}

func (s *Server) handleListGenres(_ context.Context, _ *struct{}) (*GenresOutput, error) {
	return &GenresOutput{Body: s.services.Catalog.Genres()}, nil
}

func (s *Server) handleGetHero(ctx context.Context, _ *struct{}) (*HeroOutput, error) {
	hero, err := s.services.Hero.HeroFor(ctx, optionalUserID(ctx))
	if err != nil {
		return nil, err
	}
	return &HeroOutput{Body: hero}, nil
}

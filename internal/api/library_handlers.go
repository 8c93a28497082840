package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/mimirswell/mimirswell-server/internal/domain"
	"github.com/mimirswell/mimirswell-server/internal/service"
)

func (s *Server) registerLibraryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listLibrary",
		Method:      http.MethodGet,
		Path:        "/api/v1/library",
		Summary:     "List library",
		Description: "Returns the caller's saved, reading and completed books, newest first",
		Tags:        []string{"Library"},
		Security:    []map[string][]string{{"bearer": {}}, {"cookie": {}}},
	}, s.handleListLibrary)

	huma.Register(s.api, huma.Operation{
		OperationID: "addToLibrary",
		Method:      http.MethodPost,
		Path:        "/api/v1/library",
		Summary:     "Add to library",
		Description: "Saves a book to the caller's library or moves it to another shelf",
		Tags:        []string{"Library"},
		Security:    []map[string][]string{{"bearer": {}}, {"cookie": {}}},
	}, s.handleAddToLibrary)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeFromLibrary",
		Method:      http.MethodDelete,
		Path:        "/api/v1/library",
		Summary:     "Remove from library",
		Description: "Removes a book from the caller's library",
		Tags:        []string{"Library"},
		Security:    []map[string][]string{{"bearer": {}}, {"cookie": {}}},
	}, s.handleRemoveFromLibrary)

	huma.Register(s.api, huma.Operation{
		OperationID: "likeBook",
		Method:      http.MethodPost,
		Path:        "/api/v1/library/like",
		Summary:     "Like or unlike a book",
		Description: "Sets the liked flag, saving the book first if needed",
		Tags:        []string{"Library"},
		Security:    []map[string][]string{{"bearer": {}}, {"cookie": {}}},
	}, s.handleLikeBook)
}

// ListLibraryInput filters the library by shelf.
type ListLibraryInput struct {
	Status string `query:"status" enum:"saved,reading,completed" doc:"Only return items on this shelf"`
}

// LibraryListOutput wraps the library items.
type LibraryListOutput struct {
	Body []*domain.LibraryItem
}

// AddToLibraryInput wraps the add request for Huma.
type AddToLibraryInput struct {
	Body struct {
		BookID string `json:"bookId" doc:"Catalog book ID"`
		Status string `json:"status,omitempty" enum:"saved,reading,completed" doc:"Shelf, defaults to saved"`
	}
}

// LibraryItemOutput wraps one library item.
type LibraryItemOutput struct {
	Body *domain.LibraryItem
}

// RemoveFromLibraryInput identifies the book to remove.
type RemoveFromLibraryInput struct {
	BookID string `query:"bookId" required:"true" doc:"Catalog book ID"`
}

// RemoveFromLibraryOutput acknowledges a removal.
type RemoveFromLibraryOutput struct {
	Body struct {
		Message string `json:"message" doc:"Confirmation message"`
	}
}

// LikeBookInput wraps the like request for Huma.
type LikeBookInput struct {
	Body struct {
		BookID string `json:"bookId" doc:"Catalog book ID"`
		Liked  bool   `json:"liked" doc:"New liked state"`
	}
}

func (s *Server) handleListLibrary(ctx context.Context, input *ListLibraryInput) (*LibraryListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	items, err := s.services.Library.List(ctx, userID, domain.LibraryStatus(input.Status))
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*domain.LibraryItem{}
	}
	return &LibraryListOutput{Body: items}, nil
}

func (s *Server) handleAddToLibrary(ctx context.Context, input *AddToLibraryInput) (*LibraryItemOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	item, err := s.services.Library.Add(ctx, userID, service.AddLibraryRequest{
		BookID: input.Body.BookID,
		Status: domain.LibraryStatus(input.Body.Status),
	})
	if err != nil {
		return nil, err
	}
	return &LibraryItemOutput{Body: item}, nil
}

func (s *Server) handleRemoveFromLibrary(ctx context.Context, input *RemoveFromLibraryInput) (*RemoveFromLibraryOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Library.Remove(ctx, userID, input.BookID); err != nil {
		return nil, err
	}

	out := &RemoveFromLibraryOutput{}
	out.Body.Message = "Removed from library"
	return out, nil
}

func (s *Server) handleLikeBook(ctx context.Context, input *LikeBookInput) (*LibraryItemOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	item, err := s.services.Library.SetLiked(ctx, userID, service.LikeRequest{
		BookID: input.Body.BookID,
		Liked:  input.Body.Liked,
	})
	if err != nil {
		return nil, err
	}
	return &LibraryItemOutput{Body: item}, nil
}

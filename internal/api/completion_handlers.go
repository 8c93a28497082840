package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/mimirswell/mimirswell-server/internal/service"
)

func (s *Server) registerCompletionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "bookCompleted",
		Method:      http.MethodPost,
		Path:        "/api/v1/book-completed",
		Summary:     "Send a book completion notice",
		Description: "Triggers the congratulation email for a finished book. Succeeds even when the automation is unavailable",
		Tags:        []string{"Progress"},
		Security:    []map[string][]string{{"bearer": {}}, {"cookie": {}}},
	}, s.handleBookCompleted)
}

// BookCompletedInput wraps the completion request for Huma.
type BookCompletedInput struct {
	Body struct {
		BookID string `json:"bookId" doc:"Catalog book ID"`
	}
}

// BookCompletedOutput wraps the completion result.
type BookCompletedOutput struct {
	Body *service.CompletionResult
}

func (s *Server) handleBookCompleted(ctx context.Context, input *BookCompletedInput) (*BookCompletedOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Completion.NotifyCompleted(ctx, userID, service.CompletionRequest{
		BookID: input.Body.BookID,
	})
	if err != nil {
		return nil, err
	}
	return &BookCompletedOutput{Body: result}, nil
}

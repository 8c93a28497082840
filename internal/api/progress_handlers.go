package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/mimirswell/mimirswell-server/internal/domain"
	domainerrors "github.com/mimirswell/mimirswell-server/internal/errors"
	"github.com/mimirswell/mimirswell-server/internal/http/response"
	"github.com/mimirswell/mimirswell-server/internal/service"
)

func (s *Server) registerProgressRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "recordProgress",
		Method:      http.MethodPost,
		Path:        "/api/v1/progress",
		Summary:     "Record reading progress",
		Description: "Stores the reader's current page, logs the session and updates the reading streak",
		Tags:        []string{"Progress"},
		Security:    []map[string][]string{{"bearer": {}}, {"cookie": {}}},
	}, s.handleRecordProgress)

	huma.Register(s.api, huma.Operation{
		OperationID: "getProgress",
		Method:      http.MethodGet,
		Path:        "/api/v1/progress",
		Summary:     "Get reading progress",
		Description: "Returns the record for one book (null when not started), or every record for the caller when bookId is omitted",
		Tags:        []string{"Progress"},
		Security:    []map[string][]string{{"bearer": {}}, {"cookie": {}}},
	}, s.handleGetProgress)
}

// RecordProgressRequest is the page report sent by the reader.
type RecordProgressRequest struct {
	BookID                 string `json:"bookId" doc:"Catalog book ID"`
	CurrentPage            int    `json:"currentPage" doc:"Page the reader is on"`
	TotalPages             int    `json:"totalPages" doc:"Total pages in the book"`
	SessionStartPage       *int   `json:"sessionStartPage,omitempty" doc:"Page the current session started on"`
	SessionDurationMinutes *int   `json:"sessionDurationMinutes,omitempty" doc:"Minutes spent in the current session"`
}

// RecordProgressInput wraps the page report for Huma.
type RecordProgressInput struct {
	Body RecordProgressRequest
}

// ProgressOutput wraps a single progress record.
type ProgressOutput struct {
	Body *domain.ProgressRecord
}

// GetProgressInput selects one book or all books.
type GetProgressInput struct {
	BookID string `query:"bookId" doc:"Catalog book ID; omit to list every record"`
}

// GetProgressOutput holds either one record or the caller's full list.
type GetProgressOutput struct {
	Body any
}

func (s *Server) handleRecordProgress(ctx context.Context, input *RecordProgressInput) (*ProgressOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	rec, err := s.services.Progress.Record(ctx, userID, service.ProgressUpdate{
		BookID:                 input.Body.BookID,
		CurrentPage:            input.Body.CurrentPage,
		TotalPages:             input.Body.TotalPages,
		SessionStartPage:       input.Body.SessionStartPage,
		SessionDurationMinutes: input.Body.SessionDurationMinutes,
	})
	if err != nil {
		return nil, err
	}
	return &ProgressOutput{Body: rec}, nil
}

func (s *Server) handleGetProgress(ctx context.Context, input *GetProgressInput) (*GetProgressOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if input.BookID != "" {
		rec, err := s.services.Progress.Get(ctx, userID, input.BookID)
		if errors.Is(err, domainerrors.ErrNotFound) {
			// Not started yet: success with null data.
			return &GetProgressOutput{Body: response.Null{}}, nil
		}
		if err != nil {
			return nil, err
		}
		return &GetProgressOutput{Body: rec}, nil
	}

	records, err := s.services.Progress.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []*domain.ProgressRecord{}
	}
	return &GetProgressOutput{Body: records}, nil
}

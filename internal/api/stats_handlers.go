package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/mimirswell/mimirswell-server/internal/domain"
	"github.com/mimirswell/mimirswell-server/internal/service"
)

func (s *Server) registerStatsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getStats",
		Method:      http.MethodGet,
		Path:        "/api/v1/stats",
		Summary:     "Reading statistics",
		Description: "Returns streaks, totals, this week's activity and the streak calendar",
		Tags:        []string{"Stats"},
		Security:    []map[string][]string{{"bearer": {}}, {"cookie": {}}},
	}, s.handleGetStats)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateReminderPreferences",
		Method:      http.MethodPatch,
		Path:        "/api/v1/stats/preferences",
		Summary:     "Update reminder preferences",
		Description: "Enables or disables reminders and sets the preferred reminder time",
		Tags:        []string{"Stats"},
		Security:    []map[string][]string{{"bearer": {}}, {"cookie": {}}},
	}, s.handleUpdatePreferences)

	huma.Register(s.api, huma.Operation{
		OperationID: "exportStats",
		Method:      http.MethodGet,
		Path:        "/api/v1/stats/export",
		Summary:     "Export reading history",
		Description: "Downloads reading history and progress as an XLSX workbook",
		Tags:        []string{"Stats"},
		Security:    []map[string][]string{{"bearer": {}}, {"cookie": {}}},
	}, s.handleExportStats)
}

// StatsOutput wraps the statistics summary.
type StatsOutput struct {
	Body *domain.StatsSummary
}

// UpdatePreferencesInput wraps the preference patch for Huma.
type UpdatePreferencesInput struct {
	Body struct {
		ReminderEnabled *bool   `json:"reminderEnabled,omitempty" doc:"Whether inactivity reminders are sent"`
		ReminderTime    *string `json:"reminderTime,omitempty" doc:"Preferred reminder time, HH:MM"`
	}
}

// PreferencesResponse echoes the stored preferences.
type PreferencesResponse struct {
	ReminderEnabled bool   `json:"reminderEnabled" doc:"Whether inactivity reminders are sent"`
	ReminderTime    string `json:"reminderTime" doc:"Preferred reminder time, HH:MM"`
}

// PreferencesOutput wraps the preference response.
type PreferencesOutput struct {
	Body PreferencesResponse
}

// ExportOutput is a raw workbook download.
type ExportOutput struct {
	ContentType        string `header:"Content-Type"`
	ContentDisposition string `header:"Content-Disposition"`
	Body               []byte
}

func (s *Server) handleGetStats(ctx context.Context, _ *struct{}) (*StatsOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	summary, err := s.services.Stats.GetStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &StatsOutput{Body: summary}, nil
}

func (s *Server) handleUpdatePreferences(ctx context.Context, input *UpdatePreferencesInput) (*PreferencesOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	stats, err := s.services.Stats.UpdatePreferences(ctx, userID, service.PreferencesUpdate{
		ReminderEnabled: input.Body.ReminderEnabled,
		ReminderTime:    input.Body.ReminderTime,
	})
	if err != nil {
		return nil, err
	}

	return &PreferencesOutput{Body: PreferencesResponse{
		ReminderEnabled: stats.ReminderEnabled,
		ReminderTime:    stats.ReminderTime,
	}}, nil
}

func (s *Server) handleExportStats(ctx context.Context, _ *struct{}) (*ExportOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := s.services.Export.WriteXLSX(ctx, userID, &buf); err != nil {
		return nil, err
	}

	return &ExportOutput{
		ContentType:        service.ExportContentType,
		ContentDisposition: fmt.Sprintf(`attachment; filename="reading-history-%s.xlsx"`, userID),
		Body:               buf.Bytes(),
	}, nil
}

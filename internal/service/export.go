package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mimirswell/mimirswell-server/internal/domain"
	"github.com/mimirswell/mimirswell-server/internal/store"
)

// Sheet names in the exported workbook.
const (
	SheetHistory  = "History"
	SheetProgress = "Progress"
)

// ExportContentType is the media type of the exported workbook.
const ExportContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var (
	historyHeaders  = []any{"Date", "Pages Read", "Minutes Read", "Books"}
	progressHeaders = []any{
		"Book ID", "Current Page", "Total Pages", "Percent Complete", "Completed",
		"First Read", "Last Read", "Reading Minutes", "Sessions",
	}
)

// ExportService renders a reader's history as a spreadsheet.
type ExportService struct {
	store  store.Store
	loc    *time.Location
	logger *slog.Logger
}

// NewExportService creates an export service.
func NewExportService(st store.Store, loc *time.Location, logger *slog.Logger) *ExportService {
	if loc == nil {
		loc = time.UTC
	}
	return &ExportService{store: st, loc: loc, logger: logger}
}

// WriteXLSX writes the user's reading history and per-book progress as an
// XLSX workbook to w.
func (s *ExportService) WriteXLSX(ctx context.Context, userID string, w io.Writer) error {
	userStats, err := s.store.GetUserStats(ctx, userID)
	if err != nil {
		return storeError(err, "get user stats")
	}
	records, err := s.store.ListUserProgress(ctx, userID)
	if err != nil {
		return storeError(err, "list reading progress")
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Debug("failed to close workbook", "error", err)
		}
	}()

	if err := f.SetSheetName("Sheet1", SheetHistory); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeRow(f, SheetHistory, 1, historyHeaders); err != nil {
		return err
	}
	if userStats != nil {
		for i, e := range userStats.ReadingHistory {
			row := []any{e.Date.String(), e.PagesRead, e.MinutesRead, strings.Join(e.BooksRead, ", ")}
			if err := writeRow(f, SheetHistory, i+2, row); err != nil {
				return err
			}
		}
	}

	if _, err := f.NewSheet(SheetProgress); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	if err := writeRow(f, SheetProgress, 1, progressHeaders); err != nil {
		return err
	}
	for i, p := range records {
		row := []any{
			p.BookID,
			p.CurrentPage,
			p.TotalPages,
			fmt.Sprintf("%.1f", p.PercentComplete()),
			yesNo(p.Completed),
			s.formatTime(p.FirstReadAt),
			s.formatTime(p.LastReadAt),
			p.TotalTimeSpentMinutes,
			len(p.ReadingSessions),
		}
		if err := writeRow(f, SheetProgress, i+2, row); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}

	s.logger.Info("exported reading stats",
		"user_id", userID,
		"history_rows", historyRows(userStats),
		"progress_rows", len(records),
	)
	return nil
}

func (s *ExportService) formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(s.loc).Format("2006-01-02 15:04")
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func historyRows(st *domain.UserStats) int {
	if st == nil {
		return 0
	}
	return len(st.ReadingHistory)
}

package api

import (
	"github.com/mimirswell/mimirswell-server/internal/content"
	"github.com/mimirswell/mimirswell-server/internal/service"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Auth       *service.AuthService
	Progress   *service.ProgressService
	Stats      *service.StatsService
	Export     *service.ExportService
	Inactivity *service.InactivityScanner
	Library    *service.LibraryService
	Completion *service.CompletionService
	Hero       *service.HeroService
	Catalog    *content.Catalog
}

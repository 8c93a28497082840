package providers

import (
	"time"

	"github.com/samber/do/v2"

	"github.com/mimirswell/mimirswell-server/internal/auth"
	"github.com/mimirswell/mimirswell-server/internal/clock"
	"github.com/mimirswell/mimirswell-server/internal/config"
	"github.com/mimirswell/mimirswell-server/internal/content"
	"github.com/mimirswell/mimirswell-server/internal/logger"
	"github.com/mimirswell/mimirswell-server/internal/service"
)

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokens := do.MustInvoke[*auth.TokenService](i)
	limiter := do.MustInvoke[*LoginLimiterHandle](i)
	clk := do.MustInvoke[clock.Clock](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokens, limiter.Limiter, clk, log.Logger), nil
}

// ProvideCompletionService provides the book completion notice service.
func ProvideCompletionService(i do.Injector) (*service.CompletionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	catalog := do.MustInvoke[*content.Catalog](i)
	notifier := do.MustInvoke[*NotifierHandle](i)
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCompletionService(storeHandle.Store, catalog, notifier.Client, cfg.App.URL, log.Logger), nil
}

// ProvideHeroService provides the home page hero service.
func ProvideHeroService(i do.Injector) (*service.HeroService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	catalog := do.MustInvoke[*content.Catalog](i)
	heroCache := do.MustInvoke[*HeroCacheHandle](i)
	clk := do.MustInvoke[clock.Clock](i)
	loc := do.MustInvoke[*time.Location](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewHeroService(storeHandle.Store, catalog, heroCache.Cache, clk, loc, log.Logger), nil
}

// ProgressServiceHandle waits for in-flight completion notices on shutdown.
type ProgressServiceHandle struct {
	*service.ProgressService
}

// Shutdown implements do.Shutdownable.
func (h *ProgressServiceHandle) Shutdown() error {
	h.Wait()
	return nil
}

// ProvideProgressService provides the reading progress service.
func ProvideProgressService(i do.Injector) (*ProgressServiceHandle, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	completion := do.MustInvoke[*service.CompletionService](i)
	hero := do.MustInvoke[*service.HeroService](i)
	publisher := do.MustInvoke[*PublisherHandle](i)
	clk := do.MustInvoke[clock.Clock](i)
	loc := do.MustInvoke[*time.Location](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := service.NewProgressService(storeHandle.Store, completion, hero, publisher.Publisher, clk, loc, log.Logger)
	return &ProgressServiceHandle{ProgressService: svc}, nil
}

// ProvideStatsService provides the reading statistics service.
func ProvideStatsService(i do.Injector) (*service.StatsService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	clk := do.MustInvoke[clock.Clock](i)
	loc := do.MustInvoke[*time.Location](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewStatsService(storeHandle.Store, clk, loc, log.Logger), nil
}

// ProvideExportService provides the spreadsheet export service.
func ProvideExportService(i do.Injector) (*service.ExportService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	loc := do.MustInvoke[*time.Location](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewExportService(storeHandle.Store, loc, log.Logger), nil
}

// ProvideInactivityScanner provides the inactive reader scan.
func ProvideInactivityScanner(i do.Injector) (*service.InactivityScanner, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	catalog := do.MustInvoke[*content.Catalog](i)
	notifier := do.MustInvoke[*NotifierHandle](i)
	publisher := do.MustInvoke[*PublisherHandle](i)
	clk := do.MustInvoke[clock.Clock](i)
	loc := do.MustInvoke[*time.Location](i)
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewInactivityScanner(
		storeHandle.Store, catalog, notifier.Client, publisher.Publisher,
		clk, loc, cfg.App.URL, log.Logger,
	), nil
}

// ProvideLibraryService provides the personal library service.
func ProvideLibraryService(i do.Injector) (*service.LibraryService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	catalog := do.MustInvoke[*content.Catalog](i)
	clk := do.MustInvoke[clock.Clock](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewLibraryService(storeHandle.Store, catalog, clk, log.Logger), nil
}

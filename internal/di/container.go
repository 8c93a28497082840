// Package di wires the Mimir's Well server together with samber/do.
package di

import (
	"github.com/samber/do/v2"

	"github.com/mimirswell/mimirswell-server/internal/auth"
	"github.com/mimirswell/mimirswell-server/internal/config"
	"github.com/mimirswell/mimirswell-server/internal/di/providers"
	"github.com/mimirswell/mimirswell-server/internal/logger"
	"github.com/mimirswell/mimirswell-server/internal/scheduler"
	"github.com/mimirswell/mimirswell-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideClock)
	do.Provide(injector, providers.ProvideLocation)

	// Storage and catalog
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideCatalog)

	// Outbound integrations
	do.Provide(injector, providers.ProvideNotifier)
	do.Provide(injector, providers.ProvidePublisher)
	do.Provide(injector, providers.ProvideHeroCache)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)
	do.Provide(injector, providers.ProvideLoginLimiter)

	// Business services
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideCompletionService)
	do.Provide(injector, providers.ProvideHeroService)
	do.Provide(injector, providers.ProvideProgressService)
	do.Provide(injector, providers.ProvideStatsService)
	do.Provide(injector, providers.ProvideExportService)
	do.Provide(injector, providers.ProvideInactivityScanner)
	do.Provide(injector, providers.ProvideLibraryService)

	// Workers
	do.Provide(injector, providers.ProvideScheduler)
	do.Provide(injector, providers.ProvideCatalogWatcher)

	// Server
	do.Provide(injector, providers.ProvideServices)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes the API server and its background workers.
// Optional workers start only when the configuration asks for them.
func Bootstrap(injector *do.RootScope) error {
	cfg, err := do.Invoke[*config.Config](injector)
	if err != nil {
		return err
	}
	if _, err := do.Invoke[*logger.Logger](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*auth.TokenService](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}

	if cfg.Cron.Enabled {
		if _, err := do.Invoke[*scheduler.Scheduler](injector); err != nil {
			return err
		}
	}
	if cfg.Catalog.Watch && cfg.Catalog.Path != "" {
		if _, err := do.Invoke[*providers.CatalogWatcherHandle](injector); err != nil {
			return err
		}
	}
	return nil
}

// Scanner resolves only what a one-off inactivity scan needs.
func Scanner(injector *do.RootScope) (*service.InactivityScanner, error) {
	return do.Invoke[*service.InactivityScanner](injector)
}

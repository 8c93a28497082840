package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/mimirswell/mimirswell-server/internal/config"
	"github.com/mimirswell/mimirswell-server/internal/content"
	"github.com/mimirswell/mimirswell-server/internal/logger"
	"github.com/mimirswell/mimirswell-server/internal/scheduler"
	"github.com/mimirswell/mimirswell-server/internal/service"
	"github.com/mimirswell/mimirswell-server/internal/watcher"
)

// ProvideScheduler provides and starts the daily inactivity scan.
// Only invoke it when cron is enabled.
func ProvideScheduler(i do.Injector) (*scheduler.Scheduler, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	scanner := do.MustInvoke[*service.InactivityScanner](i)

	s, err := scheduler.New(scanner, scheduler.Options{
		Schedule: cfg.Cron.Schedule,
		Location: cfg.Location(),
	}, log.Logger)
	if err != nil {
		return nil, err
	}
	s.Start()

	log.Info("Inactivity scan scheduled",
		"schedule", cfg.Cron.Schedule,
		"timezone", cfg.Cron.Timezone,
		"next_run", s.NextRun(),
	)

	return s, nil
}

// CatalogWatcherHandle wraps the catalog file watcher with shutdown capability.
type CatalogWatcherHandle struct {
	*watcher.Watcher
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *CatalogWatcherHandle) Shutdown() error {
	h.cancel()
	return h.Watcher.Stop()
}

// ProvideCatalogWatcher reloads the catalog when its file changes.
// Only invoke it when a catalog path is configured.
func ProvideCatalogWatcher(i do.Injector) (*CatalogWatcherHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)
	catalog := do.MustInvoke[*content.Catalog](i)

	w, err := watcher.New(log.Logger, watcher.Options{})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := w.Start(ctx); err != nil {
			log.Error("Catalog watcher stopped", "error", err)
		}
	}()
	go func() {
		if err := catalog.Follow(ctx, w); err != nil {
			log.Error("Catalog reload loop stopped", "error", err)
		}
	}()

	log.Info("Watching catalog file", "path", catalog.Path())

	return &CatalogWatcherHandle{Watcher: w, cancel: cancel}, nil
}

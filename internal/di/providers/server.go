package providers

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/mimirswell/mimirswell-server/internal/api"
	"github.com/mimirswell/mimirswell-server/internal/config"
	"github.com/mimirswell/mimirswell-server/internal/content"
	"github.com/mimirswell/mimirswell-server/internal/logger"
	"github.com/mimirswell/mimirswell-server/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideServices gathers the services the HTTP handlers depend on.
func ProvideServices(i do.Injector) (*api.Services, error) {
	progress := do.MustInvoke[*ProgressServiceHandle](i)

	return &api.Services{
		Auth:       do.MustInvoke[*service.AuthService](i),
		Progress:   progress.ProgressService,
		Stats:      do.MustInvoke[*service.StatsService](i),
		Export:     do.MustInvoke[*service.ExportService](i),
		Inactivity: do.MustInvoke[*service.InactivityScanner](i),
		Library:    do.MustInvoke[*service.LibraryService](i),
		Completion: do.MustInvoke[*service.CompletionService](i),
		Hero:       do.MustInvoke[*service.HeroService](i),
		Catalog:    do.MustInvoke[*content.Catalog](i),
	}, nil
}

// ProvideHTTPServer provides the HTTP server and starts it in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	services := do.MustInvoke[*api.Services](i)
	log := do.MustInvoke[*logger.Logger](i)

	apiServer := api.NewServer(storeHandle.Store, services, api.Options{
		CORSOrigins:  cfg.Server.CORSOrigins,
		CronSecret:   cfg.Cron.Secret,
		SecureCookie: cfg.Auth.SecureCookie,
	}, log.Logger)

	if cfg.Cron.Secret == "" {
		log.Warn("CRON_SECRET not set, the inactivity scan endpoint is open")
	}

	srv := &http.Server{
		Addr:         net.JoinHostPort("", cfg.Server.Port),
		Handler:      apiServer,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}

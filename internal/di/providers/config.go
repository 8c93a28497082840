// Package providers contains dependency injection providers for the Mimir's Well server.
package providers

import (
	"time"

	"github.com/samber/do/v2"

	"github.com/mimirswell/mimirswell-server/internal/clock"
	"github.com/mimirswell/mimirswell-server/internal/config"
	"github.com/mimirswell/mimirswell-server/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting Mimir's Well server",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"storage", cfg.Storage.Driver,
		"timezone", cfg.Cron.Timezone,
	)

	return log, nil
}

// ProvideClock provides the wall clock.
func ProvideClock(i do.Injector) (clock.Clock, error) {
	return clock.New(), nil
}

// ProvideLocation provides the timezone that calendar days are computed in.
func ProvideLocation(i do.Injector) (*time.Location, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return cfg.Location(), nil
}

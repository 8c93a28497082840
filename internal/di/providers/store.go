package providers

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/mimirswell/mimirswell-server/internal/config"
	"github.com/mimirswell/mimirswell-server/internal/logger"
	"github.com/mimirswell/mimirswell-server/internal/store"
	"github.com/mimirswell/mimirswell-server/internal/store/mongostore"
	"github.com/mimirswell/mimirswell-server/internal/store/sqlite"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the configured storage backend.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	var (
		st  store.Store
		err error
	)
	switch cfg.Storage.Driver {
	case config.StorageSQLite:
		st, err = sqlite.Open(cfg.Storage.Path, log.Logger)
	case config.StorageMongo:
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		st, err = mongostore.Open(ctx, mongostore.Config{
			URI:         cfg.Storage.MongoURI,
			Database:    cfg.Storage.MongoDatabase,
			MaxPoolSize: cfg.Storage.MongoMaxPoolSize,
			MaxRetry:    cfg.Storage.MongoMaxRetry,
		}, log.Logger)
	default:
		st, err = store.New(cfg.Storage.Path, log.Logger)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Storage.Driver, err)
	}

	location := cfg.Storage.Path
	if cfg.Storage.Driver == config.StorageMongo {
		location = mongostore.MaskURI(cfg.Storage.MongoURI)
	}
	log.Info("Store opened", "driver", cfg.Storage.Driver, "location", location)

	return &StoreHandle{Store: st}, nil
}

// dataDir is where local state such as a generated signing secret lives.
// Remote stores have none.
func dataDir(cfg *config.Config) string {
	switch cfg.Storage.Driver {
	case config.StorageBadger:
		return cfg.Storage.Path
	case config.StorageSQLite:
		return filepath.Dir(cfg.Storage.Path)
	default:
		return ""
	}
}

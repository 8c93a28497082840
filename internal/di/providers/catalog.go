package providers

import (
	"github.com/samber/do/v2"

	"github.com/mimirswell/mimirswell-server/internal/config"
	"github.com/mimirswell/mimirswell-server/internal/content"
	"github.com/mimirswell/mimirswell-server/internal/logger"
	"github.com/mimirswell/mimirswell-server/internal/search"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.SearchIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve catalog index. It lives next to the
// local store, or in memory when storage is remote.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.NewSearchIndex(search.Options{
		DataPath: dataDir(cfg),
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)

	return &SearchIndexHandle{SearchIndex: index}, nil
}

// ProvideCatalog loads the book catalog and indexes it.
func ProvideCatalog(i do.Injector) (*content.Catalog, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)

	catalog, err := content.New(content.Options{
		Path:   cfg.Catalog.Path,
		Index:  indexHandle.SearchIndex,
		Logger: log.Logger,
	})
	if err != nil {
		return nil, err
	}

	source := catalog.Path()
	if source == "" {
		source = "embedded"
	}
	log.Info("Catalog loaded", "source", source, "books", len(catalog.GetAllBooks()))

	return catalog, nil
}

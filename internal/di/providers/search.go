package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/librisapp/libris-server/internal/config"
	"github.com/librisapp/libris-server/internal/logger"
	"github.com/librisapp/libris-server/internal/search"
	"github.com/librisapp/libris-server/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.Index
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the bleve full-text index and hooks it into
// the store so catalog writes keep the index current.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	index, err := search.NewIndex(search.Options{
		DataPath: cfg.Data.BasePath,
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	storeHandle.SetSearchIndexer(index)

	count, err := index.DocumentCount()
	if err == nil {
		log.Info("Search index ready", "documents", count)
	}

	return &SearchIndexHandle{Index: index}, nil
}

// TriggerSearchReindexIfNeeded rebuilds an empty index from a non-empty
// catalog, recovering from index deletion or mapping upgrades.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	log := do.MustInvoke[*logger.Logger](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	bookService := do.MustInvoke[*service.BookService](i)

	count, err := indexHandle.DocumentCount()
	if err != nil || count > 0 {
		return
	}

	indexed, err := bookService.ReindexCatalog(context.Background())
	if err != nil {
		log.Warn("Startup reindex failed", "error", err)
		return
	}
	if indexed > 0 {
		log.Info("Rebuilt empty search index", "books", indexed)
	}
}

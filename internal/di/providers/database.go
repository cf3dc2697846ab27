package providers

import (
	"context"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/vojaudio/voj-server/internal/config"
	"github.com/vojaudio/voj-server/internal/logger"
	"github.com/vojaudio/voj-server/internal/search"
	"github.com/vojaudio/voj-server/internal/service"
	"github.com/vojaudio/voj-server/internal/store"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the database store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dbPath := filepath.Join(cfg.Data.BasePath, "db")
	db, err := store.New(dbPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", dbPath)
	return &StoreHandle{Store: db}, nil
}

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.BookIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve search index, wired to the store for
// automatic indexing on writes.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	index, err := search.NewBookIndex(search.Options{
		DataPath: cfg.Data.BasePath,
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	storeHandle.SetSearchIndexer(index)

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)

	return &SearchIndexHandle{BookIndex: index}, nil
}

// RebuildSearchIndexIfEmpty reindexes the catalog when the index has no
// documents but the store does. Called once after all services are wired.
func RebuildSearchIndexIfEmpty(i do.Injector) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	bookService := do.MustInvoke[*service.BookService](i)
	log := do.MustInvoke[*logger.Logger](i)

	docCount, _ := indexHandle.DocumentCount()
	if docCount > 0 {
		return
	}

	go func() {
		if err := bookService.RebuildSearchIndex(context.Background()); err != nil {
			log.Warn("Search index rebuild failed", "error", err)
			return
		}
		rebuilt, _ := indexHandle.DocumentCount()
		if rebuilt > 0 {
			log.Info("Search index rebuilt", "documents", rebuilt)
		}
	}()
}

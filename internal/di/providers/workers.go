package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/pagewise/pagewise-server/internal/catalog"
	"github.com/pagewise/pagewise-server/internal/config"
	"github.com/pagewise/pagewise-server/internal/logger"
)

// CatalogWatcherHandle wraps the catalog watcher with its context for
// lifecycle management. Watcher is nil when watching is disabled.
type CatalogWatcherHandle struct {
	*catalog.Watcher
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *CatalogWatcherHandle) Shutdown() error {
	if h.Watcher == nil {
		return nil
	}
	h.cancel()
	return h.Stop()
}

// ProvideIngester provides the catalog ingester for the active retriever backend.
func ProvideIngester(i do.Injector) (*catalog.Ingester, error) {
	log := do.MustInvoke[*logger.Logger](i)
	r := do.MustInvoke[*RetrieverHandle](i)

	return catalog.NewIngester(r.Target(), r.Backend, log.With("component", "catalog")), nil
}

// ProvideCatalogWatcher provides the watcher that re-ingests the catalog CSV
// when it changes.
func ProvideCatalogWatcher(i do.Injector) (*CatalogWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Catalog.CSVPath == "" || !cfg.Catalog.Watch {
		return &CatalogWatcherHandle{cancel: func() {}}, nil
	}

	ingester := do.MustInvoke[*catalog.Ingester](i)
	w, err := catalog.NewWatcher(cfg.Catalog.CSVPath, ingester, catalog.WatcherOptions{}, log.With("component", "catalog"))
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)

	return &CatalogWatcherHandle{Watcher: w, cancel: cancel}, nil
}

// IngestCatalogIfEmpty loads the configured CSV in the background when the
// search index has no documents yet.
// Should be called after all services are wired.
func IngestCatalogIfEmpty(i do.Injector) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	r := do.MustInvoke[*RetrieverHandle](i)

	if cfg.Catalog.CSVPath == "" || r.Index == nil {
		return
	}
	if docCount, err := r.Index.DocumentCount(); err != nil || docCount > 0 {
		return
	}

	log.Info("Search index is empty, ingesting catalog", "path", cfg.Catalog.CSVPath)

	ingester := do.MustInvoke[*catalog.Ingester](i)
	go func() {
		if _, err := ingester.IngestFile(context.Background(), cfg.Catalog.CSVPath, true); err != nil {
			log.Error("Initial catalog ingest failed", "error", err)
		}
	}()
}

// Package di provides dependency injection configuration for the Pagewise server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/pagewise/pagewise-server/internal/auth"
	"github.com/pagewise/pagewise-server/internal/catalog"
	"github.com/pagewise/pagewise-server/internal/config"
	"github.com/pagewise/pagewise-server/internal/di/providers"
	"github.com/pagewise/pagewise-server/internal/history"
	"github.com/pagewise/pagewise-server/internal/logger"
	"github.com/pagewise/pagewise-server/internal/recommend"
	"github.com/pagewise/pagewise-server/internal/service"
	"github.com/pagewise/pagewise-server/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSlogLogger)
	do.Provide(injector, providers.ProvideValidator)

	// Storage layer
	do.Provide(injector, providers.ProvideDatabase)
	do.Provide(injector, providers.ProvideHistoryStore)
	do.Provide(injector, providers.ProvideRetriever)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)
	do.Provide(injector, providers.ProvideVerifier)

	// Business services
	do.Provide(injector, providers.ProvideSearchService)
	do.Provide(injector, providers.ProvideBookService)
	do.Provide(injector, providers.ProvideHistoryService)
	do.Provide(injector, providers.ProvideLoginService)
	do.Provide(injector, providers.ProvideRecommendEngine)

	// Workers
	do.Provide(injector, providers.ProvideIngester)
	do.Provide(injector, providers.ProvideCatalogWatcher)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) (err error) {
	// Providers report failures through MustInvoke panics.
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
				return
			}
			panic(r)
		}
	}()

	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*validation.Validator](injector)
	_ = do.MustInvoke[*providers.DatabaseHandle](injector)
	_ = do.MustInvoke[*history.Store](injector)
	_ = do.MustInvoke[*providers.RetrieverHandle](injector)
	_ = do.MustInvoke[auth.Verifier](injector)

	// Business services
	_ = do.MustInvoke[*service.SearchService](injector)
	_ = do.MustInvoke[*service.BookService](injector)
	_ = do.MustInvoke[*service.HistoryService](injector)
	_ = do.MustInvoke[*service.LoginService](injector)
	_ = do.MustInvoke[*recommend.Engine](injector)

	// Workers
	_ = do.MustInvoke[*catalog.Ingester](injector)
	_ = do.MustInvoke[*providers.CatalogWatcherHandle](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	// Seed the index on first start
	providers.IngestCatalogIfEmpty(injector)

	return nil
}

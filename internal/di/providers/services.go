package providers

import (
	"github.com/samber/do/v2"

	"github.com/pagewise/pagewise-server/internal/auth"
	"github.com/pagewise/pagewise-server/internal/config"
	"github.com/pagewise/pagewise-server/internal/history"
	"github.com/pagewise/pagewise-server/internal/logger"
	"github.com/pagewise/pagewise-server/internal/recommend"
	"github.com/pagewise/pagewise-server/internal/service"
	"github.com/pagewise/pagewise-server/internal/validation"
)

// ProvideValidator provides the request validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideSearchService provides the catalog search service.
func ProvideSearchService(i do.Injector) (*service.SearchService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	r := do.MustInvoke[*RetrieverHandle](i)

	return service.NewSearchService(r.Breaker, cfg.Recommend.RetrieverTimeout, log.With("component", "search")), nil
}

// ProvideBookService provides the fuzzy title lookup service.
func ProvideBookService(i do.Injector) (*service.BookService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	r := do.MustInvoke[*RetrieverHandle](i)

	return service.NewBookService(r.Breaker, service.BookOptions{
		Candidates: cfg.Retriever.BookCandidates,
		Cutoff:     cfg.Retriever.FuzzyCutoff,
		Timeout:    cfg.Recommend.RetrieverTimeout,
	}, log.With("component", "book")), nil
}

// ProvideHistoryService provides the validated view-history service.
func ProvideHistoryService(i do.Injector) (*service.HistoryService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	views := do.MustInvoke[*history.Store](i)
	validator := do.MustInvoke[*validation.Validator](i)

	return service.NewHistoryService(views, validator, log.With("component", "history")), nil
}

// ProvideLoginService provides the login service.
func ProvideLoginService(i do.Injector) (*service.LoginService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	verifier := do.MustInvoke[auth.Verifier](i)
	db := do.MustInvoke[*DatabaseHandle](i)
	validator := do.MustInvoke[*validation.Validator](i)

	return service.NewLoginService(verifier, db.Database, validator, log.With("component", "login")), nil
}

// ProvideRecommendEngine provides the recommendation engine.
func ProvideRecommendEngine(i do.Injector) (*recommend.Engine, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	views := do.MustInvoke[*history.Store](i)
	r := do.MustInvoke[*RetrieverHandle](i)

	engine := recommend.NewEngine(views, r.Breaker, recommend.Options{
		Seeds:            cfg.Recommend.Seeds,
		TopGenres:        cfg.Recommend.TopGenres,
		DefaultLimit:     cfg.Recommend.DefaultLimit,
		MaxLimit:         cfg.Recommend.MaxLimit,
		RetrieverTimeout: cfg.Recommend.RetrieverTimeout,
	}, log.With("component", "recommend"))

	log.Info("Recommendation engine ready", "seeds", engine.Seeds())
	return engine, nil
}

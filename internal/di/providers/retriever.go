package providers

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/pagewise/pagewise-server/internal/catalog"
	"github.com/pagewise/pagewise-server/internal/config"
	"github.com/pagewise/pagewise-server/internal/logger"
	"github.com/pagewise/pagewise-server/internal/retriever"
	"github.com/pagewise/pagewise-server/internal/search"
	"github.com/pagewise/pagewise-server/internal/vector"
)

// RetrieverHandle holds the candidate backend and the circuit breaker in
// front of it.
type RetrieverHandle struct {
	*retriever.Breaker
	Backend string
	Index   *search.Index // set for the bleve backend
	Vectors *vector.Store // set for the pgvector backend
}

// Target is the index catalog ingestion writes to.
func (h *RetrieverHandle) Target() catalog.Target {
	if h.Index != nil {
		return h.Index
	}
	return h.Vectors
}

// Ping checks the backend directly, bypassing the breaker.
func (h *RetrieverHandle) Ping(ctx context.Context) error {
	if h.Index != nil {
		return h.Index.Ping(ctx)
	}
	return h.Vectors.Ping(ctx)
}

// Shutdown implements do.Shutdownable.
func (h *RetrieverHandle) Shutdown() error {
	var errs []error
	if h.Index != nil {
		errs = append(errs, h.Index.Close())
	}
	if h.Vectors != nil {
		errs = append(errs, h.Vectors.Close())
	}
	return errors.Join(errs...)
}

// ProvideRetriever opens the configured candidate backend.
func ProvideRetriever(i do.Injector) (*RetrieverHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	handle := &RetrieverHandle{Backend: cfg.Retriever.Backend}
	var backend retriever.Retriever

	switch cfg.Retriever.Backend {
	case config.RetrieverBackendBleve:
		index, err := search.NewIndex(search.Options{
			DataPath: filepath.Join(cfg.Data.BasePath, "search"),
			Logger:   log.Logger,
		})
		if err != nil {
			return nil, err
		}
		docCount, _ := index.DocumentCount()
		log.Info("Search index initialized", "documents", docCount)
		handle.Index = index
		backend = index

	case config.RetrieverBackendPgvector:
		vectors, err := OpenVectorStore(context.Background(), cfg, log)
		if err != nil {
			return nil, err
		}
		handle.Vectors = vectors
		backend = vectors

	default:
		return nil, fmt.Errorf("unknown retriever backend %q", cfg.Retriever.Backend)
	}

	handle.Breaker = retriever.NewBreaker(backend, retriever.BreakerOptions{
		Name:        cfg.Retriever.Backend,
		MaxFailures: cfg.Retriever.BreakerFailures,
		OpenTimeout: cfg.Retriever.BreakerTimeout,
	}, log.Logger)

	return handle, nil
}

// OpenVectorStore connects to Postgres and makes sure the embedding table
// exists.
func OpenVectorStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (*vector.Store, error) {
	embedder, err := vector.NewOpenAIEmbedder(vector.EmbedderConfig{
		APIKey:     cfg.OpenAI.APIKey,
		BaseURL:    cfg.OpenAI.BaseURL,
		Model:      cfg.OpenAI.Model,
		Dimensions: cfg.OpenAI.Dimensions,
		MaxRetries: -1,
	})
	if err != nil {
		return nil, err
	}

	vectors, err := vector.Open(ctx, cfg.Postgres.DSN, cfg.Postgres.Table, embedder, log.Logger)
	if err != nil {
		return nil, err
	}
	if err := vectors.EnsureSchema(ctx); err != nil {
		_ = vectors.Close()
		return nil, err
	}

	log.Info("Vector store initialized",
		"table", cfg.Postgres.Table,
		"model", cfg.OpenAI.Model,
		"dimensions", embedder.Dimensions(),
	)
	return vectors, nil
}

package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/pagewise/pagewise-server/internal/domain"
	"github.com/pagewise/pagewise-server/internal/metrics"
)

// Target is an index that can hold catalog records.
type Target interface {
	Upsert(ctx context.Context, books []domain.BookRecord) (int, error)
	Replace(ctx context.Context, books []domain.BookRecord) (int, error)
}

// Ingester loads catalog files into a Target.
type Ingester struct {
	target Target
	name   string // metrics label
	logger *slog.Logger
}

// NewIngester creates an ingester writing to target.
func NewIngester(target Target, name string, logger *slog.Logger) *Ingester {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Ingester{target: target, name: name, logger: logger}
}

// IngestFile reads path and writes its books. With replace the target ends up
// holding exactly the file's books; otherwise they are upserted.
func (i *Ingester) IngestFile(ctx context.Context, path string, replace bool) (int, error) {
	start := time.Now()

	books, err := ReadFile(path)
	if err != nil {
		metrics.RecordIngest(i.name, 0, err)
		return 0, err
	}

	n, err := i.Ingest(ctx, books, replace)
	if err != nil {
		return n, err
	}

	i.logger.Info("catalog ingested",
		"path", path,
		"target", i.name,
		"books", n,
		"replace", replace,
		"duration", time.Since(start),
	)
	return n, nil
}

// Ingest writes books to the target.
func (i *Ingester) Ingest(ctx context.Context, books []domain.BookRecord, replace bool) (int, error) {
	var (
		n   int
		err error
	)
	if replace {
		n, err = i.target.Replace(ctx, books)
	} else {
		n, err = i.target.Upsert(ctx, books)
	}
	metrics.RecordIngest(i.name, n, err)
	if err != nil {
		i.logger.Error("catalog ingest failed", "target", i.name, "written", n, "error", err)
	}
	return n, err
}

package search

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"

	"github.com/pagewise/pagewise-server/internal/domain"
)

// Index wraps a Bleve index of the book catalog.
//
// Thread safety: All public methods are safe for concurrent use.
// The mutex protects against index corruption during rebuild operations.
type Index struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex // Protects index operations during rebuild
}

// Options configures the search index.
type Options struct {
	DataPath string       // Directory for index storage
	Logger   *slog.Logger // Logger for operations (uses discard if nil)
}

// mappingVersion is incremented whenever the index mapping changes.
// This triggers an automatic rebuild on startup when the version doesn't match.
const mappingVersion = "1"

const batchSize = 500

// NewIndex creates or opens a search index.
// If the existing index is corrupted or has an outdated mapping, it's removed and recreated.
func NewIndex(opts Options) (*Index, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if err := os.MkdirAll(opts.DataPath, 0o755); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}

	indexPath := filepath.Join(opts.DataPath, "catalog.bleve")
	versionPath := filepath.Join(opts.DataPath, "catalog.version")

	var index bleve.Index
	var err error
	needsRebuild := false

	indexExists := false
	if _, statErr := os.Stat(indexPath); statErr == nil {
		indexExists = true
	}

	if indexExists {
		existingVersion, readErr := os.ReadFile(versionPath)
		if readErr != nil || string(existingVersion) != mappingVersion {
			logger.Info("catalog index mapping version changed, will rebuild",
				"old_version", string(existingVersion),
				"new_version", mappingVersion,
			)
			needsRebuild = true
		}
	}

	if !needsRebuild && indexExists {
		index, err = bleve.Open(indexPath)
		if err != nil {
			logger.Warn("failed to open existing index, will recreate",
				"path", indexPath,
				"error", err,
			)
			needsRebuild = true
		}
	}

	if needsRebuild {
		if removeErr := os.RemoveAll(indexPath); removeErr != nil {
			return nil, fmt.Errorf("remove old index: %w", removeErr)
		}
		index = nil
	}

	if index == nil {
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if writeErr := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); writeErr != nil {
			logger.Warn("failed to write catalog index version file", "error", writeErr)
		}
		logger.Info("created new catalog index", "path", indexPath, "mapping_version", mappingVersion)
	} else {
		logger.Info("opened existing catalog index", "path", indexPath)
	}

	return &Index{
		index:  index,
		path:   indexPath,
		logger: logger,
	}, nil
}

// NewMemoryIndex creates an index that is never written to disk.
func NewMemoryIndex(logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create memory index: %w", err)
	}
	return &Index{index: index, logger: logger}, nil
}

// Close closes the index and releases resources.
func (s *Index) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// Upsert indexes catalog records in batches of 500 and returns the
// number written. Books without a title are skipped. Re-indexing a book
// with the same title and author replaces the earlier document.
func (s *Index) Upsert(ctx context.Context, books []domain.BookRecord) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	written := 0

	for i := 0; i < len(books); i += batchSize {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		end := min(i+batchSize, len(books))

		batch := s.index.NewBatch()
		for _, book := range books[i:end] {
			if book.Title == "" {
				continue
			}
			doc := NewBookDocument(book, now)
			if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
				return written, fmt.Errorf("batch index %s: %w", doc.ID, err)
			}
		}

		size := batch.Size()
		if err := s.index.Batch(batch); err != nil {
			return written, fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
		written += size
	}

	return written, nil
}

// DeleteBook removes a book from the index.
func (s *Index) DeleteBook(title, author string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Delete(NewBookDocument(domain.BookRecord{Title: title, Author: author}, time.Time{}).ID)
}

// DocumentCount returns the total number of indexed documents.
func (s *Index) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Ping reports whether the index can serve reads.
func (s *Index) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.DocumentCount()
	return err
}

// Rebuild drops the existing index and creates a new empty one.
//
// This acquires an exclusive lock and blocks all other operations.
func (s *Index) Rebuild() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}

	var (
		index bleve.Index
		err   error
	)
	if s.path == "" {
		index, err = bleve.NewMemOnly(buildIndexMapping())
	} else {
		if err := os.RemoveAll(s.path); err != nil {
			return fmt.Errorf("remove index: %w", err)
		}
		index, err = bleve.New(s.path, buildIndexMapping())
	}
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	s.index = index
	s.logger.Info("rebuilt catalog index", "path", s.path)

	return nil
}

// Replace rebuilds the index so it holds exactly books.
func (s *Index) Replace(ctx context.Context, books []domain.BookRecord) (int, error) {
	if err := s.Rebuild(); err != nil {
		return 0, err
	}
	return s.Upsert(ctx, books)
}

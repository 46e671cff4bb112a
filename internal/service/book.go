package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/pagewise/pagewise-server/internal/domain"
	domainerrors "github.com/pagewise/pagewise-server/internal/errors"
	"github.com/pagewise/pagewise-server/internal/fuzzy"
	"github.com/pagewise/pagewise-server/internal/retriever"
)

// ErrBookNotFound is returned when no catalog title is close enough.
var ErrBookNotFound = domainerrors.NotFound("Book not found")

// BookOptions configures a BookService.
type BookOptions struct {
	Candidates int     // retriever hits considered per lookup
	Cutoff     float64 // minimum fuzzy score
	Timeout    time.Duration
}

// BookService looks up a single book by approximate title.
type BookService struct {
	retriever retriever.Retriever
	opts      BookOptions
	logger    *slog.Logger
}

// NewBookService creates a new book service.
func NewBookService(r retriever.Retriever, opts BookOptions, logger *slog.Logger) *BookService {
	if opts.Candidates <= 0 {
		opts.Candidates = 5
	}
	if opts.Cutoff <= 0 {
		opts.Cutoff = fuzzy.DefaultCutoff
	}
	return &BookService{retriever: r, opts: opts, logger: logger}
}

// FindByTitle asks the retriever for a short list of candidates and returns
// the one whose title best matches. A retriever failure is reported as not
// found.
func (s *BookService) FindByTitle(ctx context.Context, title string) (*domain.BookRecord, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, domainerrors.Validation("title is required")
	}

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	results, err := s.retriever.Query(ctx, []string{title}, s.opts.Candidates)
	if err != nil {
		s.logger.Warn("book lookup failed", "title", title, "error", err)
		return nil, ErrBookNotFound
	}
	if len(results) == 0 {
		return nil, ErrBookNotFound
	}

	books := retriever.Books(results[0])
	titles := make([]string, len(books))
	for i, b := range books {
		titles[i] = b.Title
	}

	match, ok := fuzzy.Best(title, titles, s.opts.Cutoff)
	if !ok {
		s.logger.Debug("no book above cutoff", "title", title, "candidates", len(books))
		return nil, ErrBookNotFound
	}

	book := books[match.Index]
	return &book, nil
}

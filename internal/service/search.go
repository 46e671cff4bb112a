// Package service holds the request-level operations behind the HTTP API.
package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/pagewise/pagewise-server/internal/domain"
	"github.com/pagewise/pagewise-server/internal/retriever"
)

// Search defaults.
const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 50
)

// SearchRequest is a free-text catalog query. UserID is only logged; search
// never touches view history.
type SearchRequest struct {
	UserID string
	Query  string
	Limit  int
}

// SearchService runs catalog queries against the candidate retriever.
type SearchService struct {
	retriever retriever.Retriever
	timeout   time.Duration
	logger    *slog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(r retriever.Retriever, timeout time.Duration, logger *slog.Logger) *SearchService {
	return &SearchService{
		retriever: r,
		timeout:   timeout,
		logger:    logger,
	}
}

// Search returns up to req.Limit books ranked by the retriever. A blank query
// or a retriever failure yields an empty slice.
func (s *SearchService) Search(ctx context.Context, req SearchRequest) []domain.BookRecord {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return []domain.BookRecord{}
	}

	limit := req.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	limit = min(limit, MaxSearchLimit)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	results, err := s.retriever.Query(ctx, []string{query}, limit)
	if err != nil {
		s.logger.Warn("search failed",
			"query", query,
			"user_id", req.UserID,
			"error", err,
		)
		return []domain.BookRecord{}
	}
	if len(results) == 0 {
		return []domain.BookRecord{}
	}

	books := retriever.Books(results[0])
	if len(books) > limit {
		books = books[:limit]
	}

	s.logger.Debug("search completed",
		"query", query,
		"user_id", req.UserID,
		"results", len(books),
	)
	return books
}

package recommend

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/pagewise/pagewise-server/internal/domain"
	"github.com/pagewise/pagewise-server/internal/genre"
	"github.com/pagewise/pagewise-server/internal/metrics"
	"github.com/pagewise/pagewise-server/internal/retriever"
)

// Defaults applied by NewEngine to zero option values.
const (
	DefaultTopGenres        = 3
	DefaultLimit            = 5
	DefaultMaxLimit         = 50
	DefaultRetrieverTimeout = 3 * time.Second
)

// HistoryReader reads a user's view history, oldest first.
type HistoryReader interface {
	GetHistory(ctx context.Context, userID string) ([]domain.ViewEntry, error)
}

// Options configures an Engine.
type Options struct {
	Seeds            []string      // cold-start genres; genre.DefaultSeeds when empty
	TopGenres        int           // genres combined into the personalized query
	DefaultLimit     int           // used when the caller passes limit <= 0
	MaxLimit         int           // upper bound on limit
	RetrieverTimeout time.Duration // per retriever call
}

// Engine produces recommendations. It holds no per-request state and never
// returns an error: retriever failures fall back to the cold-start list, and
// a failed cold start yields an empty list.
type Engine struct {
	history   HistoryReader
	retriever retriever.Retriever
	opts      Options
	logger    *slog.Logger
}

// NewEngine creates an Engine.
func NewEngine(history HistoryReader, r retriever.Retriever, opts Options, logger *slog.Logger) *Engine {
	opts.Seeds = genre.Seeds(opts.Seeds)
	if opts.TopGenres <= 0 {
		opts.TopGenres = DefaultTopGenres
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = DefaultLimit
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = DefaultMaxLimit
	}
	if opts.DefaultLimit > opts.MaxLimit {
		opts.DefaultLimit = opts.MaxLimit
	}
	if opts.RetrieverTimeout <= 0 {
		opts.RetrieverTimeout = DefaultRetrieverTimeout
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Engine{history: history, retriever: r, opts: opts, logger: logger}
}

// Seeds returns the cold-start genres.
func (e *Engine) Seeds() []string {
	return append([]string(nil), e.opts.Seeds...)
}

// Recommend returns up to limit books for userID. Books the user has viewed
// are never included.
func (e *Engine) Recommend(ctx context.Context, userID string, limit int) []domain.BookRecord {
	limit = e.clampLimit(limit)

	entries, err := e.history.GetHistory(ctx, userID)
	if err != nil {
		e.logger.Warn("history lookup failed, using cold start",
			"user_id", userID,
			"error", err,
		)
		metrics.RecordFallback(metrics.FallbackHistoryError)
		return e.coldStart(ctx, userID, limit, nil)
	}
	if len(entries) == 0 {
		return e.coldStart(ctx, userID, limit, nil)
	}

	viewed := domain.HistoryLog(entries).Titles()
	books, err := e.personalized(ctx, entries, viewed, limit)
	if err != nil {
		e.logger.Warn("personalized retrieval failed, using cold start",
			"user_id", userID,
			"error", err,
		)
		metrics.RecordFallback(metrics.FallbackRetrieverError)
		return e.coldStart(ctx, userID, limit, viewed)
	}
	if len(books) == 0 {
		e.logger.Info("no personalized candidates, using cold start", "user_id", userID)
		metrics.RecordFallback(metrics.FallbackNoCandidates)
		return e.coldStart(ctx, userID, limit, viewed)
	}

	metrics.RecordRecommendation(metrics.PathPersonalized, len(books))
	return books
}

func (e *Engine) personalized(ctx context.Context, entries []domain.ViewEntry, viewed map[string]struct{}, limit int) ([]domain.BookRecord, error) {
	top := TopGenres(Aggregate(entries), e.opts.TopGenres)
	if len(top) == 0 {
		return nil, nil
	}

	results, err := e.query(ctx, []string{strings.Join(top, ", ")}, limit+len(viewed))
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	c := newCollector(limit, viewed)
	for _, book := range retriever.Books(results[0]) {
		if c.add(book) {
			break
		}
	}
	return c.books, nil
}

// coldStart queries every seed genre at once and interleaves the ranked
// lists: the best hit of each seed, then the second of each, and so on.
func (e *Engine) coldStart(ctx context.Context, userID string, limit int, excluded map[string]struct{}) []domain.BookRecord {
	results, err := e.query(ctx, e.opts.Seeds, limit+len(excluded))
	if err != nil {
		e.logger.Warn("cold start retrieval failed, returning no recommendations",
			"user_id", userID,
			"error", err,
		)
		metrics.RecordRecommendation(metrics.PathColdStart, 0)
		return []domain.BookRecord{}
	}

	lists := make([][]domain.BookRecord, len(results))
	longest := 0
	for i, candidates := range results {
		lists[i] = retriever.Books(candidates)
		longest = max(longest, len(lists[i]))
	}

	c := newCollector(limit, excluded)
	for rank := 0; rank < longest; rank++ {
		for _, list := range lists {
			if rank < len(list) && c.add(list[rank]) {
				metrics.RecordRecommendation(metrics.PathColdStart, len(c.books))
				return c.books
			}
		}
	}

	metrics.RecordRecommendation(metrics.PathColdStart, len(c.books))
	return c.books
}

func (e *Engine) query(ctx context.Context, texts []string, topK int) ([][]retriever.Candidate, error) {
	ctx, cancel := context.WithTimeout(ctx, e.opts.RetrieverTimeout)
	defer cancel()
	return e.retriever.Query(ctx, texts, topK)
}

func (e *Engine) clampLimit(limit int) int {
	if limit <= 0 {
		return e.opts.DefaultLimit
	}
	return min(limit, e.opts.MaxLimit)
}

// collector accumulates unique, non-excluded books up to a limit.
type collector struct {
	limit    int
	excluded map[string]struct{}
	seen     map[string]struct{}
	books    []domain.BookRecord
}

func newCollector(limit int, excluded map[string]struct{}) *collector {
	return &collector{
		limit:    limit,
		excluded: excluded,
		seen:     make(map[string]struct{}, limit),
		books:    make([]domain.BookRecord, 0, limit),
	}
}

// add appends book unless it is excluded or already present, and reports
// whether the limit has been reached.
func (c *collector) add(book domain.BookRecord) bool {
	if len(c.books) >= c.limit {
		return true
	}
	key := domain.TitleKey(book.Title)
	if key == "" {
		return false
	}
	if _, skip := c.excluded[key]; skip {
		return false
	}
	if _, dup := c.seen[key]; dup {
		return false
	}
	c.seen[key] = struct{}{}
	c.books = append(c.books, book)
	return len(c.books) >= c.limit
}

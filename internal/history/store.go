// Package history keeps each user's bounded log of recently viewed books.
package history

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/pagewise/pagewise-server/internal/domain"
	"github.com/pagewise/pagewise-server/internal/genre"
	"github.com/pagewise/pagewise-server/internal/metrics"
)

// DefaultCapacity is the number of views kept per user.
const DefaultCapacity = 5

const lockStripes = 256

// Backend persists history logs. Implementations must make SaveHistory a
// single atomic replacement so readers never see a partial log.
type Backend interface {
	LoadHistory(ctx context.Context, userID string) (domain.HistoryLog, error)
	SaveHistory(ctx context.Context, userID string, log domain.HistoryLog) error
}

// Options configures a Store.
type Options struct {
	Capacity int
	Now      func() time.Time
}

// Store records views and serves snapshots of the history log.
// Writes for the same user are serialized; different users proceed in parallel.
type Store struct {
	backend  Backend
	capacity int
	now      func() time.Time
	locks    keyedMutex
	logger   *slog.Logger
}

// NewStore creates a history store over backend.
func NewStore(backend Backend, opts Options, logger *slog.Logger) *Store {
	if opts.Capacity < 1 {
		opts.Capacity = DefaultCapacity
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		backend:  backend,
		capacity: opts.Capacity,
		now:      opts.Now,
		logger:   logger,
	}
}

// Capacity returns the per-user history bound.
func (s *Store) Capacity() int {
	return s.capacity
}

// RecordView appends a view to userID's history.
//
// Missing arguments make the call a no-op with a warning. Viewing the same
// title as the most recent entry is also a no-op. The only error returned
// is a backend failure.
func (s *Store) RecordView(ctx context.Context, userID, title string, genres any) error {
	userID = strings.TrimSpace(userID)
	title = strings.TrimSpace(title)
	names := genre.Normalize(genres)

	if userID == "" || title == "" || len(names) == 0 {
		s.logger.Warn("dropping incomplete view",
			"user_id", userID,
			"title", title,
			"genres", len(names),
		)
		metrics.RecordHistoryWrite(metrics.HistoryDropped)
		return nil
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	current, err := s.backend.LoadHistory(ctx, userID)
	if err != nil {
		metrics.RecordHistoryWrite(metrics.HistoryFailed)
		return fmt.Errorf("load history: %w", err)
	}

	next, changed := current.Push(domain.ViewEntry{
		Title:     title,
		Genres:    names,
		Timestamp: s.now().UTC(),
	}, s.capacity)
	if !changed {
		s.logger.Debug("repeat view ignored", "user_id", userID, "title", title)
		metrics.RecordHistoryWrite(metrics.HistoryDuplicate)
		return nil
	}

	if err := s.backend.SaveHistory(ctx, userID, next); err != nil {
		metrics.RecordHistoryWrite(metrics.HistoryFailed)
		return fmt.Errorf("save history: %w", err)
	}

	metrics.RecordHistoryWrite(metrics.HistoryRecorded)
	return nil
}

// GetHistory returns a copy of userID's history, oldest first, holding at
// most Capacity entries even if the backend kept more under an older
// setting. Unknown users get an empty slice.
func (s *Store) GetHistory(ctx context.Context, userID string) ([]domain.ViewEntry, error) {
	log, err := s.backend.LoadHistory(ctx, strings.TrimSpace(userID))
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return log.Recent(s.capacity).Clone(), nil
}

// keyedMutex is a fixed set of mutexes striped by key hash.
type keyedMutex struct {
	stripes [lockStripes]sync.Mutex
}

func (k *keyedMutex) lock(key string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	mu := &k.stripes[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}

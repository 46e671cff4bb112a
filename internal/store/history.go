package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/pagewise/pagewise-server/internal/domain"
)

// LoadHistory returns the stored history for userID, or an empty log.
func (s *Store) LoadHistory(ctx context.Context, userID string) (domain.HistoryLog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := buildKey(historyPrefix, userID)
	defer releaseKey(key)

	var log domain.HistoryLog
	if err := s.get(key, &log); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return domain.HistoryLog{}, nil
		}
		return nil, fmt.Errorf("get history %q: %w", userID, err)
	}
	return log, nil
}

// SaveHistory replaces the stored history for userID in one transaction.
func (s *Store) SaveHistory(ctx context.Context, userID string, log domain.HistoryLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := buildKey(historyPrefix, userID)
	defer releaseKey(key)

	if err := s.set(key, log); err != nil {
		return fmt.Errorf("set history %q: %w", userID, err)
	}
	return nil
}

// CountHistories returns the number of users with a stored history.
func (s *Store) CountHistories(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.countPrefix(historyPrefix)
}

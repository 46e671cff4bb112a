package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/pagewise/pagewise-server/internal/domain"
)

// LoadHistory returns the stored history for userID, or an empty log.
func (s *Store) LoadHistory(ctx context.Context, userID string) (domain.HistoryLog, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT entries FROM view_history WHERE user_id = ?`, userID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.HistoryLog{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query history %q: %w", userID, err)
	}

	var log domain.HistoryLog
	if err := json.Unmarshal([]byte(raw), &log); err != nil {
		return nil, fmt.Errorf("decode history %q: %w", userID, err)
	}
	if log == nil {
		log = domain.HistoryLog{}
	}
	return log, nil
}

// SaveHistory replaces the stored history for userID with a single upsert.
func (s *Store) SaveHistory(ctx context.Context, userID string, log domain.HistoryLog) error {
	if log == nil {
		log = domain.HistoryLog{}
	}
	data, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO view_history (user_id, entries, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			entries = excluded.entries,
			updated_at = excluded.updated_at`,
		userID, string(data), formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("upsert history %q: %w", userID, err)
	}
	return nil
}

// CountHistories returns the number of users with a stored history.
func (s *Store) CountHistories(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM view_history`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count histories: %w", err)
	}
	return n, nil
}

// Package memory is a process-local history and user store for development and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/pagewise/pagewise-server/internal/domain"
	"github.com/pagewise/pagewise-server/internal/store"
)

// Store keeps logs in a map. Saved logs are never mutated in place, so a
// loaded log stays a consistent snapshot after later writes.
type Store struct {
	mu        sync.RWMutex
	histories map[string]domain.HistoryLog
	users     map[string]domain.UserProfile
}

// New creates an empty store.
func New() *Store {
	return &Store{
		histories: make(map[string]domain.HistoryLog),
		users:     make(map[string]domain.UserProfile),
	}
}

// LoadHistory returns the stored log for userID, or an empty log.
func (s *Store) LoadHistory(ctx context.Context, userID string) (domain.HistoryLog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if log, ok := s.histories[userID]; ok {
		return log, nil
	}
	return domain.HistoryLog{}, nil
}

// SaveHistory swaps in a copy of log.
func (s *Store) SaveHistory(ctx context.Context, userID string, log domain.HistoryLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	snapshot := log.Clone()

	s.mu.Lock()
	s.histories[userID] = snapshot
	s.mu.Unlock()
	return nil
}

// SaveUser inserts or refreshes a profile, keeping the first CreatedAt.
func (s *Store) SaveUser(ctx context.Context, user *domain.UserProfile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil || user.UID == "" {
		return store.ErrInvalidUser
	}

	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	record := *user
	record.CreatedAt = now
	if existing, ok := s.users[user.UID]; ok {
		record.CreatedAt = existing.CreatedAt
	}
	record.LastLoginAt = now
	s.users[user.UID] = record

	user.CreatedAt = record.CreatedAt
	user.LastLoginAt = record.LastLoginAt
	return nil
}

// GetUser returns the profile for uid or store.ErrUserNotFound.
func (s *Store) GetUser(ctx context.Context, uid string) (*domain.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[uid]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return &user, nil
}

// Ping always succeeds unless ctx is done.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

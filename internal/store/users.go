package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/pagewise/pagewise-server/internal/domain"
)

// SaveUser inserts or refreshes a profile. CreatedAt is kept from the first
// save; LastLoginAt is set to now.
func (s *Store) SaveUser(ctx context.Context, user *domain.UserProfile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil || user.UID == "" {
		return ErrInvalidUser
	}

	key := buildKey(userPrefix, user.UID)
	defer releaseKey(key)

	now := time.Now().UTC()

	return s.db.Update(func(txn *badger.Txn) error {
		record := *user
		record.CreatedAt = now
		record.LastLoginAt = now

		item, err := txn.Get(key)
		switch {
		case err == nil:
			var existing domain.UserProfile
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &existing)
			}); err != nil {
				return fmt.Errorf("decode user %q: %w", user.UID, err)
			}
			if !existing.CreatedAt.IsZero() {
				record.CreatedAt = existing.CreatedAt
			}
		case !errors.Is(err, badger.ErrKeyNotFound):
			return fmt.Errorf("get user %q: %w", user.UID, err)
		}

		data, err := json.Marshal(&record)
		if err != nil {
			return fmt.Errorf("failed to marshal user: %w", err)
		}
		if err := txn.Set(key, data); err != nil {
			return err
		}

		user.CreatedAt = record.CreatedAt
		user.LastLoginAt = record.LastLoginAt
		return nil
	})
}

// GetUser returns the profile for uid or ErrUserNotFound.
func (s *Store) GetUser(ctx context.Context, uid string) (*domain.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := buildKey(userPrefix, uid)
	defer releaseKey(key)

	var user domain.UserProfile
	if err := s.get(key, &user); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user %q: %w", uid, err)
	}
	return &user, nil
}

// CountUsers returns the number of stored profiles.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.countPrefix(userPrefix)
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pagewise/pagewise-server/internal/domain"
	"github.com/pagewise/pagewise-server/internal/store"
)

// userColumns is the ordered list of columns selected in user queries.
// Must match the scan order in scanUser.
const userColumns = `uid, email, name, photo_url, created_at, last_login_at`

// scanUser scans a sql.Row (or sql.Rows via its Scan method) into a domain.UserProfile.
func scanUser(scanner interface{ Scan(dest ...any) error }) (*domain.UserProfile, error) {
	var (
		u           domain.UserProfile
		createdAt   string
		lastLoginAt string
	)

	if err := scanner.Scan(&u.UID, &u.Email, &u.Name, &u.PhotoURL, &createdAt, &lastLoginAt); err != nil {
		return nil, err
	}

	var err error
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if u.LastLoginAt, err = parseTime(lastLoginAt); err != nil {
		return nil, fmt.Errorf("parse last_login_at: %w", err)
	}
	return &u, nil
}

// SaveUser inserts or refreshes a profile. created_at is kept from the
// first save; last_login_at is set to now.
func (s *Store) SaveUser(ctx context.Context, user *domain.UserProfile) error {
	if user == nil || user.UID == "" {
		return store.ErrInvalidUser
	}

	now := formatTime(time.Now())
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (uid, email, name, photo_url, created_at, last_login_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(uid) DO UPDATE SET
			email = excluded.email,
			name = excluded.name,
			photo_url = excluded.photo_url,
			last_login_at = excluded.last_login_at`,
		user.UID, user.Email, user.Name, user.PhotoURL, now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert user %q: %w", user.UID, err)
	}

	saved, err := s.GetUser(ctx, user.UID)
	if err != nil {
		return err
	}
	user.CreatedAt = saved.CreatedAt
	user.LastLoginAt = saved.LastLoginAt
	return nil
}

// GetUser returns the profile for uid or store.ErrUserNotFound.
func (s *Store) GetUser(ctx context.Context, uid string) (*domain.UserProfile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE uid = ?`, uid)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %q: %w", uid, err)
	}
	return u, nil
}

// CountUsers returns the number of stored profiles.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

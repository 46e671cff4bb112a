package store

import (
	domainerrors "github.com/pagewise/pagewise-server/internal/errors"
)

// Sentinel errors shared by every persistence backend.
var (
	ErrUserNotFound = domainerrors.NotFound("user not found")
	ErrInvalidUser  = domainerrors.Validation("user profile requires a uid")
)

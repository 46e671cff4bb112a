package service

import (
	"context"
	"log/slog"

	"github.com/pagewise/pagewise-server/internal/auth"
	"github.com/pagewise/pagewise-server/internal/domain"
	domainerrors "github.com/pagewise/pagewise-server/internal/errors"
	"github.com/pagewise/pagewise-server/internal/validation"
)

// UserStore persists signed-in user profiles.
type UserStore interface {
	SaveUser(ctx context.Context, user *domain.UserProfile) error
	GetUser(ctx context.Context, uid string) (*domain.UserProfile, error)
}

// LoginUser is the profile the client received from its identity provider.
type LoginUser struct {
	UID         string `json:"uid" validate:"required,notblank"`
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
	DisplayName string `json:"displayName,omitempty"`
	PhotoURL    string `json:"photoURL,omitempty"`
}

// LoginRequest is the body of a login call.
type LoginRequest struct {
	User *LoginUser `json:"user"`
}

// LoginService exchanges a verified identity token for a stored profile.
type LoginService struct {
	verifier  auth.Verifier
	users     UserStore
	validator *validation.Validator
	logger    *slog.Logger
}

// NewLoginService creates a new login service.
func NewLoginService(verifier auth.Verifier, users UserStore, validator *validation.Validator, logger *slog.Logger) *LoginService {
	return &LoginService{
		verifier:  verifier,
		users:     users,
		validator: validator,
		logger:    logger,
	}
}

// Login verifies token, checks that it was issued to req.User.UID and stores
// the profile. The token is checked first, so an unauthenticated caller never
// learns anything about the body. Failing to store the profile is logged and
// does not fail the login.
func (s *LoginService) Login(ctx context.Context, token string, req LoginRequest) (*domain.UserProfile, error) {
	identity, err := s.verifier.Verify(ctx, token)
	if err != nil {
		return nil, err
	}

	if req.User == nil {
		return nil, domainerrors.Validation("User data is missing")
	}
	if err := s.validator.Validate(req.User); err != nil {
		return nil, err
	}
	if req.User.UID != identity.UID {
		s.logger.Warn("login uid mismatch", "token_uid", identity.UID, "body_uid", req.User.UID)
		return nil, domainerrors.Unauthorized("User ID mismatch")
	}

	profile := &domain.UserProfile{
		UID:      identity.UID,
		Email:    firstNonEmpty(req.User.Email, identity.Email),
		Name:     firstNonEmpty(req.User.DisplayName, identity.Name),
		PhotoURL: firstNonEmpty(req.User.PhotoURL, identity.Picture),
	}

	if err := s.users.SaveUser(ctx, profile); err != nil {
		s.logger.Error("failed to store user profile", "uid", profile.UID, "error", err)
	} else {
		s.logger.Info("user logged in", "uid", profile.UID)
	}

	return profile, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

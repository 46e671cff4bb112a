package service

import (
	"context"
	"log/slog"

	"github.com/pagewise/pagewise-server/internal/domain"
	domainerrors "github.com/pagewise/pagewise-server/internal/errors"
	"github.com/pagewise/pagewise-server/internal/genre"
	"github.com/pagewise/pagewise-server/internal/validation"
)

// HistoryRecorder is the bounded per-user view log.
type HistoryRecorder interface {
	RecordView(ctx context.Context, userID, title string, genres any) error
	GetHistory(ctx context.Context, userID string) ([]domain.ViewEntry, error)
}

// RecordViewRequest is a client report that a user opened a book.
// Genres may be a list or a string encoding of one.
type RecordViewRequest struct {
	UserID string `json:"userId" validate:"required,notblank,max=256"`
	Title  string `json:"title" validate:"required,notblank,max=512"`
	Genres any    `json:"genres"`
}

// HistoryService validates view reports before they reach the history store.
type HistoryService struct {
	history   HistoryRecorder
	validator *validation.Validator
	logger    *slog.Logger
}

// NewHistoryService creates a new history service.
func NewHistoryService(history HistoryRecorder, validator *validation.Validator, logger *slog.Logger) *HistoryService {
	return &HistoryService{history: history, validator: validator, logger: logger}
}

// RecordView validates req and appends it to the user's history.
func (s *HistoryService) RecordView(ctx context.Context, req RecordViewRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}
	if len(genre.Normalize(req.Genres)) == 0 {
		return domainerrors.ValidationWithDetails("validation failed", map[string]string{
			"genres": "This field is required",
		})
	}

	if err := s.history.RecordView(ctx, req.UserID, req.Title, req.Genres); err != nil {
		s.logger.Error("failed to record view",
			"user_id", req.UserID,
			"title", req.Title,
			"error", err,
		)
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to record view")
	}
	return nil
}

// GetHistory returns the user's views, oldest first.
func (s *HistoryService) GetHistory(ctx context.Context, userID string) ([]domain.ViewEntry, error) {
	entries, err := s.history.GetHistory(ctx, userID)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to load history")
	}
	return entries, nil
}

package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/pagewise/pagewise-server/internal/domain"
	"github.com/pagewise/pagewise-server/internal/service"
)

func (s *Server) registerHistoryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "recordView",
		Method:      http.MethodPost,
		Path:        "/history",
		Summary:     "Record a view",
		Description: "Appends a book to the user's recent view history. Repeating the most recent title is a no-op.",
		Tags:        []string{"History"},
	}, s.handleRecordView)

	huma.Register(s.api, huma.Operation{
		OperationID: "getHistory",
		Method:      http.MethodGet,
		Path:        "/history/{userId}",
		Summary:     "Get view history",
		Description: "Returns the user's recent views, oldest first",
		Tags:        []string{"History"},
	}, s.handleGetHistory)
}

// RecordViewInput wraps the view report for Huma.
type RecordViewInput struct {
	Body service.RecordViewRequest
}

// StatusResponse acknowledges a write.
type StatusResponse struct {
	Status string `json:"status" example:"ok" doc:"Always ok"`
}

// StatusOutput wraps the acknowledgement for Huma.
type StatusOutput struct {
	Body StatusResponse
}

func (s *Server) handleRecordView(ctx context.Context, input *RecordViewInput) (*StatusOutput, error) {
	if err := s.services.History.RecordView(ctx, input.Body); err != nil {
		return nil, err
	}
	return &StatusOutput{Body: StatusResponse{Status: statusOK}}, nil
}

// GetHistoryInput contains parameters for reading a history.
type GetHistoryInput struct {
	UserID string `path:"userId" doc:"User ID"`
}

// HistoryResponse contains a user's views in API responses.
type HistoryResponse struct {
	UserID  string             `json:"userId" doc:"User ID"`
	History []domain.ViewEntry `json:"history" doc:"Views, oldest first"`
}

// HistoryOutput wraps the history response for Huma.
type HistoryOutput struct {
	Body HistoryResponse
}

func (s *Server) handleGetHistory(ctx context.Context, input *GetHistoryInput) (*HistoryOutput, error) {
	entries, err := s.services.History.GetHistory(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []domain.ViewEntry{}
	}
	return &HistoryOutput{Body: HistoryResponse{UserID: input.UserID, History: entries}}, nil
}

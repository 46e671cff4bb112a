package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/pagewise/pagewise-server/internal/domain"
)

func (s *Server) registerRecommendationRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getRecommendations",
		Method:      http.MethodGet,
		Path:        "/recommendations/{userId}",
		Summary:     "Get recommendations",
		Description: "Recommends books from the genres of the user's recent views. Users without history get a popular-genre mix. Never fails because the catalog backend is down.",
		Tags:        []string{"Recommendations"},
	}, s.handleGetRecommendations)
}

// RecommendationsInput contains parameters for a recommendation request.
type RecommendationsInput struct {
	UserID string `path:"userId" doc:"User ID"`
	Limit  int    `query:"limit" minimum:"0" doc:"Maximum books to return (default 5)"`
}

// RecommendationsOutput wraps the recommended books for Huma.
type RecommendationsOutput struct {
	Body []domain.BookRecord
}

func (s *Server) handleGetRecommendations(ctx context.Context, input *RecommendationsInput) (*RecommendationsOutput, error) {
	books := s.services.Recommend.Recommend(ctx, input.UserID, input.Limit)
	return &RecommendationsOutput{Body: books}, nil
}

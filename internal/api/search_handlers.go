package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/pagewise/pagewise-server/internal/domain"
	"github.com/pagewise/pagewise-server/internal/service"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchBooks",
		Method:      http.MethodGet,
		Path:        "/search",
		Summary:     "Search books",
		Description: "Free-text search over the catalog. Searching never records view history.",
		Tags:        []string{"Catalog"},
	}, s.handleSearch)
}

// SearchInput contains parameters for searching the catalog.
type SearchInput struct {
	Query  string `query:"q" doc:"Search text"`
	Limit  int    `query:"limit" minimum:"0" doc:"Maximum results (default 10, max 50)"`
	UserID string `query:"userId" doc:"Caller, used for logging only"`
}

// SearchResponse contains search results in API responses.
type SearchResponse struct {
	Results []domain.BookRecord `json:"results" doc:"Matching books, best first"`
}

// SearchOutput wraps the search response for Huma.
type SearchOutput struct {
	Body SearchResponse
}

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	results := s.services.Search.Search(ctx, service.SearchRequest{
		UserID: input.UserID,
		Query:  input.Query,
		Limit:  input.Limit,
	})

	return &SearchOutput{Body: SearchResponse{Results: results}}, nil
}

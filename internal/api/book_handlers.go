package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/pagewise/pagewise-server/internal/domain"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getBookByTitle",
		Method:      http.MethodGet,
		Path:        "/book/{title}",
		Summary:     "Get book by title",
		Description: "Returns the catalog book whose title best matches, tolerating typos and partial titles",
		Tags:        []string{"Catalog"},
	}, s.handleGetBook)
}

// GetBookInput contains parameters for a title lookup.
type GetBookInput struct {
	Title string `path:"title" doc:"Approximate book title"`
}

// BookOutput wraps a book for Huma.
type BookOutput struct {
	Body domain.BookRecord
}

func (s *Server) handleGetBook(ctx context.Context, input *GetBookInput) (*BookOutput, error) {
	book, err := s.services.Book.FindByTitle(ctx, input.Title)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: *book}, nil
}

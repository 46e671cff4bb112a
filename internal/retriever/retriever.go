// Package retriever defines the nearest-neighbor candidate lookup used by
// search and recommendations, plus the conversion of raw index metadata
// into catalog records.
package retriever

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pagewise/pagewise-server/internal/domain"
	"github.com/pagewise/pagewise-server/internal/genre"
)

// ErrUnavailable marks a retriever failure: the backend is down, timed out
// or the circuit is open. Callers recover from it instead of surfacing it.
var ErrUnavailable = errors.New("candidate retriever unavailable")

// Metadata keys written by catalog ingestion.
const (
	MetaAuthor     = "author"
	MetaNumPages   = "num_pages"
	MetaCoverImage = "cover_image_uri"
	MetaDetails    = "book_details"
	MetaGenres     = "genres"
	MetaAvailable  = "available"
)

// Candidate is one ranked hit from a retriever.
type Candidate struct {
	ID       string
	Title    string
	Score    float64
	Metadata map[string]any
}

// Retriever returns, for each query text, up to topK candidates ranked by the
// backend's own relevance order.
type Retriever interface {
	Query(ctx context.Context, texts []string, topK int) ([][]Candidate, error)
}

// Func adapts a plain function to Retriever.
type Func func(ctx context.Context, texts []string, topK int) ([][]Candidate, error)

// Query calls f.
func (f Func) Query(ctx context.Context, texts []string, topK int) ([][]Candidate, error) {
	return f(ctx, texts, topK)
}

// Book converts the candidate into a catalog record. Missing metadata falls
// back to zero values, except available which defaults to true.
func (c Candidate) Book() domain.BookRecord {
	b := domain.NewBookRecord(c.Title)
	md := c.Metadata

	b.Author = stringValue(md[MetaAuthor])
	b.NumPages = intValue(md[MetaNumPages])
	b.CoverImageURI = stringValue(md[MetaCoverImage])
	b.Details = stringValue(md[MetaDetails])
	b.Genres = genre.Normalize(md[MetaGenres])
	if v, ok := md[MetaAvailable]; ok {
		b.Available = boolValue(v, true)
	}
	return b
}

// Books converts a ranked candidate list.
func Books(candidates []Candidate) []domain.BookRecord {
	books := make([]domain.BookRecord, 0, len(candidates))
	for _, c := range candidates {
		if strings.TrimSpace(c.Title) == "" {
			continue
		}
		books = append(books, c.Book())
	}
	return books
}

func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func intValue(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case int32:
		return int(t)
	case int64:
		return int(t)
	case float32:
		return int(t)
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0
		}
		return int(t)
	case string:
		s := strings.TrimSpace(t)
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return int(f)
		}
	}
	return 0
}

func boolValue(v any, def bool) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(t)); err == nil {
			return b
		}
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	}
	return def
}

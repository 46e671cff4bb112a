package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/pagewise/pagewise-server/internal/retriever"
)

// Query returns up to topK candidates for each text, best match first.
// It implements retriever.Retriever.
func (s *Index) Query(ctx context.Context, texts []string, topK int) ([][]retriever.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([][]retriever.Candidate, len(texts))
	for i, text := range texts {
		if topK <= 0 || strings.TrimSpace(text) == "" {
			results[i] = []retriever.Candidate{}
			continue
		}

		req := bleve.NewSearchRequestOptions(buildQuery(text), topK, 0, false)
		req.SortBy([]string{"-_score", fieldTitle})
		req.Fields = storedFields

		res, err := s.index.SearchInContext(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("execute search %q: %w", text, err)
		}

		hits := make([]retriever.Candidate, 0, len(res.Hits))
		for _, hit := range res.Hits {
			hits = append(hits, hitToCandidate(hit.ID, hit.Score, hit.Fields))
		}
		results[i] = hits
	}

	return results, nil
}

// buildQuery matches text against title, genres, details and author.
//
// Recommendation queries are comma-joined genre names, so genres are boosted
// close to titles; details only break ties between otherwise equal hits.
func buildQuery(text string) query.Query {
	text = strings.TrimSpace(text)

	titleMatch := bleve.NewMatchQuery(text)
	titleMatch.SetField(fieldTitle)
	titleMatch.SetBoost(3.0)

	genreMatch := bleve.NewMatchQuery(text)
	genreMatch.SetField(retriever.MetaGenres)
	genreMatch.SetBoost(2.0)

	authorMatch := bleve.NewMatchQuery(text)
	authorMatch.SetField(retriever.MetaAuthor)
	authorMatch.SetBoost(1.0)

	detailsMatch := bleve.NewMatchQuery(text)
	detailsMatch.SetField(retriever.MetaDetails)
	detailsMatch.SetBoost(0.5)

	queries := []query.Query{titleMatch, genreMatch, authorMatch, detailsMatch}

	// Typo tolerance on single-word queries. The fuzziness applies to the
	// analyzed tokens, so it compares stems with stems.
	if !strings.ContainsAny(text, " ,") && len(text) >= 4 {
		fuzzy := bleve.NewMatchQuery(text)
		fuzzy.SetFuzziness(1)
		fuzzy.SetField(fieldTitle)
		fuzzy.SetBoost(0.8)
		queries = append(queries, fuzzy)
	}

	return bleve.NewDisjunctionQuery(queries...)
}

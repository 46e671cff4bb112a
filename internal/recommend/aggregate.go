// Package recommend turns a user's view history into book recommendations.
package recommend

import (
	"cmp"
	"slices"

	"github.com/pagewise/pagewise-server/internal/domain"
	"github.com/pagewise/pagewise-server/internal/genre"
)

// GenreWeight is a genre's accumulated recency weight.
type GenreWeight struct {
	Genre  string
	Weight int
}

// Aggregate weighs the genres of entries, ordered oldest to newest.
//
// The newest entry contributes len(entries), the one before it one less, and
// the oldest contributes 1. A genre listed twice in one entry counts once for
// it. The result is sorted by weight descending; equal weights keep the order
// in which genres are first met walking from newest to oldest.
func Aggregate(entries []domain.ViewEntry) []GenreWeight {
	n := len(entries)
	if n == 0 {
		return []GenreWeight{}
	}

	weights := make([]GenreWeight, 0)
	index := make(map[string]int)

	for i := range n {
		entry := entries[n-1-i]
		weight := n - i

		seen := make(map[string]struct{}, len(entry.Genres))
		for _, g := range entry.Genres {
			key := genreKey(g)
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			if pos, ok := index[key]; ok {
				weights[pos].Weight += weight
				continue
			}
			index[key] = len(weights)
			weights = append(weights, GenreWeight{Genre: g, Weight: weight})
		}
	}

	slices.SortStableFunc(weights, func(a, b GenreWeight) int {
		return cmp.Compare(b.Weight, a.Weight)
	})
	return weights
}

// TopGenres returns the names of the first n weights.
func TopGenres(weights []GenreWeight, n int) []string {
	n = min(n, len(weights))
	out := make([]string, n)
	for i := range n {
		out[i] = weights[i].Genre
	}
	return out
}

func genreKey(g string) string {
	if slug := genre.Slugify(g); slug != "" {
		return slug
	}
	return domain.TitleKey(g)
}

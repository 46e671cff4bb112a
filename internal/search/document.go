// Package search provides the default candidate retriever: a Bleve full-text
// index over the book catalog, with English stemming, genre boosting and
// fuzzy title matching.
package search

import (
	"time"

	"github.com/pagewise/pagewise-server/internal/domain"
	"github.com/pagewise/pagewise-server/internal/genre"
	"github.com/pagewise/pagewise-server/internal/id"
	"github.com/pagewise/pagewise-server/internal/retriever"
)

// Index field names. The metadata fields reuse the retriever metadata keys so
// a hit's stored fields can be handed to retriever.Candidate unchanged.
const (
	fieldTitle      = "title"
	fieldGenreSlugs = "genre_slugs"
	fieldIngestedAt = "ingested_at"
)

// BookDocument is the document structure for the Bleve index.
type BookDocument struct {
	ID            string
	Title         string
	Author        string
	Details       string
	Genres        []string
	GenreSlugs    []string
	NumPages      int
	CoverImageURI string
	Available     bool
	IngestedAt    int64 // Unix millis
}

// NewBookDocument converts a catalog record to an index document.
func NewBookDocument(book domain.BookRecord, ingestedAt time.Time) *BookDocument {
	slugs := make([]string, 0, len(book.Genres))
	for _, g := range book.Genres {
		if slug := genre.Slugify(g); slug != "" {
			slugs = append(slugs, slug)
		}
	}

	return &BookDocument{
		ID:            id.BookID(book.Title, book.Author),
		Title:         book.Title,
		Author:        book.Author,
		Details:       book.Details,
		Genres:        book.Genres,
		GenreSlugs:    slugs,
		NumPages:      book.NumPages,
		CoverImageURI: book.CoverImageURI,
		Available:     book.Available,
		IngestedAt:    ingestedAt.UnixMilli(),
	}
}

// ToMap converts the document to a map with the field names used in the
// index mapping.
func (d *BookDocument) ToMap() map[string]any {
	m := map[string]any{
		fieldTitle:               d.Title,
		retriever.MetaAvailable:  d.Available,
		fieldIngestedAt:          d.IngestedAt,
		retriever.MetaNumPages:   d.NumPages,
		retriever.MetaGenres:     d.Genres,
		fieldGenreSlugs:          d.GenreSlugs,
		retriever.MetaAuthor:     d.Author,
		retriever.MetaDetails:    d.Details,
		retriever.MetaCoverImage: d.CoverImageURI,
	}

	// Bleve skips empty strings anyway; dropping them keeps stored fields lean.
	for _, key := range []string{retriever.MetaAuthor, retriever.MetaDetails, retriever.MetaCoverImage} {
		if m[key] == "" {
			delete(m, key)
		}
	}
	if len(d.Genres) == 0 {
		delete(m, retriever.MetaGenres)
		delete(m, fieldGenreSlugs)
	}

	return m
}

// storedFields are loaded for every hit.
var storedFields = []string{
	fieldTitle,
	retriever.MetaAuthor,
	retriever.MetaNumPages,
	retriever.MetaCoverImage,
	retriever.MetaDetails,
	retriever.MetaGenres,
	retriever.MetaAvailable,
}

// hitToCandidate converts a hit's stored fields into a retriever candidate.
func hitToCandidate(docID string, score float64, fields map[string]any) retriever.Candidate {
	title, _ := fields[fieldTitle].(string)

	metadata := make(map[string]any, len(fields))
	for k, v := range fields {
		if k != fieldTitle {
			metadata[k] = v
		}
	}

	return retriever.Candidate{
		ID:       docID,
		Title:    title,
		Score:    score,
		Metadata: metadata,
	}
}

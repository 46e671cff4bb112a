// Package domain contains the core entities shared by the catalog, history and recommendation packages.
package domain

import (
	"strings"
	"unicode"
)

// BookRecord is a catalog item as returned to API callers.
type BookRecord struct {
	Title         string   `json:"title"`
	Author        string   `json:"author"`
	NumPages      int      `json:"numPages"`
	CoverImageURI string   `json:"coverImageUri"`
	Details       string   `json:"details"`
	Genres        []string `json:"genres"`
	Available     bool     `json:"available"`
}

// NewBookRecord returns a record for title with the catalog defaults applied.
func NewBookRecord(title string) BookRecord {
	return BookRecord{
		Title:     strings.TrimSpace(title),
		Genres:    []string{},
		Available: true,
	}
}

// TitleKey folds a title for equality checks: surrounding space is dropped,
// inner whitespace runs collapse to one space and case is folded.
// "  The  Hobbit " and "the hobbit" share a key.
func TitleKey(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	space := false
	for _, r := range strings.TrimSpace(title) {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// Package catalog loads the book catalog from CSV and writes it to a
// candidate index.
package catalog

import (
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/gocarina/gocsv"

	"github.com/pagewise/pagewise-server/internal/domain"
	"github.com/pagewise/pagewise-server/internal/genre"
)

// Row is one line of the catalog CSV. Missing columns decode as empty.
type Row struct {
	Title         string `csv:"book_title"`
	Genres        string `csv:"genres"`
	Author        string `csv:"author"`
	NumPages      string `csv:"num_pages"`
	CoverImageURI string `csv:"cover_image_uri"`
	Details       string `csv:"book_details"`
	Available     string `csv:"available"`
}

// ReadFile reads a catalog CSV from disk.
func ReadFile(path string) ([]domain.BookRecord, error) {
	//#nosec G304 -- path comes from operator configuration
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	return ReadCSV(f)
}

// ReadCSV decodes catalog rows. Rows without a title are skipped.
func ReadCSV(r io.Reader) ([]domain.BookRecord, error) {
	var rows []*Row
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("decode catalog csv: %w", err)
	}

	books := make([]domain.BookRecord, 0, len(rows))
	for _, row := range rows {
		if book, ok := row.Book(); ok {
			books = append(books, book)
		}
	}
	return books, nil
}

// Book converts the row into a catalog record.
func (r *Row) Book() (domain.BookRecord, bool) {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		return domain.BookRecord{}, false
	}

	b := domain.NewBookRecord(title)
	b.Author = strings.TrimSpace(r.Author)
	b.NumPages = parsePages(r.NumPages)
	b.CoverImageURI = strings.TrimSpace(r.CoverImageURI)
	b.Details = htmlToText(strings.TrimSpace(r.Details))
	b.Genres = genre.Normalize(r.Genres)
	b.Available = parseAvailable(r.Available)
	return b, true
}

func parsePages(s string) int {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 && !math.IsInf(f, 0) {
		return int(f)
	}
	return 0
}

// parseAvailable treats anything but an explicit false as available.
func parseAvailable(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "false", "0", "no", "n":
		return false
	default:
		return true
	}
}

// htmlTagPattern matches the tags publishers leave in descriptions.
var htmlTagPattern = regexp.MustCompile(`<(p|br|div|span|b|i|strong|em|a|ul|ol|li|h[1-6]|blockquote)[\s>/]`)

// htmlToText converts HTML descriptions to Markdown. Plain text is returned
// unchanged.
func htmlToText(s string) string {
	if s == "" || !htmlTagPattern.MatchString(strings.ToLower(s)) {
		return s
	}

	markdown, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return s
	}
	return strings.TrimSpace(markdown)
}

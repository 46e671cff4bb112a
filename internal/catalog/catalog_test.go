package catalog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagewise/pagewise-server/internal/domain"
	"github.com/pagewise/pagewise-server/internal/search"
)

const sampleCSV = `book_title,book_details,cover_image_uri,author,num_pages,genres,available
Dune,"<p>Desert <b>planet</b> politics.</p>",https://covers/dune.jpg,Frank Herbert,412,"['Science Fiction', 'Adventure']",True
Emma,A matchmaker in a village.,,Jane Austen,474.0,"Classics, Romance",False
,Untitled row,,,,,
Foundation,,,Isaac Asimov,not-a-number,"[""Science Fiction""]",
`

func TestReadCSV(t *testing.T) {
	books, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, books, 3)

	dune := books[0]
	assert.Equal(t, "Dune", dune.Title)
	assert.Equal(t, "Frank Herbert", dune.Author)
	assert.Equal(t, 412, dune.NumPages)
	assert.Equal(t, "https://covers/dune.jpg", dune.CoverImageURI)
	assert.Equal(t, []string{"Science Fiction", "Adventure"}, dune.Genres)
	assert.Equal(t, "Desert **planet** politics.", dune.Details)
	assert.True(t, dune.Available)

	emma := books[1]
	assert.Equal(t, 474, emma.NumPages)
	assert.Equal(t, []string{"Classics", "Romance"}, emma.Genres)
	assert.Equal(t, "A matchmaker in a village.", emma.Details)
	assert.False(t, emma.Available)

	foundation := books[2]
	assert.Equal(t, 0, foundation.NumPages)
	assert.Equal(t, []string{"Science Fiction"}, foundation.Genres)
	assert.True(t, foundation.Available, "blank availability defaults to true")
}

func TestReadCSV_MissingColumns(t *testing.T) {
	books, err := ReadCSV(strings.NewReader("book_title,genres\nDune,sci-fi\n"))
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, []string{"sci-fi"}, books[0].Genres)
	assert.True(t, books[0].Available)
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

// recordingTarget remembers what it was asked to write.
type recordingTarget struct {
	upserted [][]domain.BookRecord
	replaced [][]domain.BookRecord
}

func (r *recordingTarget) Upsert(_ context.Context, books []domain.BookRecord) (int, error) {
	r.upserted = append(r.upserted, books)
	return len(books), nil
}

func (r *recordingTarget) Replace(_ context.Context, books []domain.BookRecord) (int, error) {
	r.replaced = append(r.replaced, books)
	return len(books), nil
}

func writeCatalog(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "books.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIngester_IngestFile(t *testing.T) {
	path := writeCatalog(t, t.TempDir(), sampleCSV)
	target := &recordingTarget{}
	ingester := NewIngester(target, "test", nil)

	n, err := ingester.IngestFile(context.Background(), path, false)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Len(t, target.upserted, 1)
	assert.Empty(t, target.replaced)

	_, err = ingester.IngestFile(context.Background(), path, true)
	require.NoError(t, err)
	assert.Len(t, target.replaced, 1)
}

func TestIngester_IntoSearchIndex(t *testing.T) {
	path := writeCatalog(t, t.TempDir(), sampleCSV)
	index, err := search.NewMemoryIndex(nil)
	require.NoError(t, err)
	defer index.Close()

	_, err = NewIngester(index, "bleve", nil).IngestFile(context.Background(), path, true)
	require.NoError(t, err)

	results, err := index.Query(context.Background(), []string{"science fiction"}, 5)
	require.NoError(t, err)
	titles := make([]string, 0, len(results[0]))
	for _, c := range results[0] {
		titles = append(titles, c.Title)
	}
	assert.ElementsMatch(t, []string{"Dune", "Foundation"}, titles[:2])
}

func TestWatcher_ReingestsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := writeCatalog(t, dir, "book_title,genres\nDune,sci-fi\n")

	index, err := search.NewMemoryIndex(nil)
	require.NoError(t, err)
	defer index.Close()

	w, err := NewWatcher(path, NewIngester(index, "bleve", nil), WatcherOptions{SettleDelay: 20 * time.Millisecond}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)
	defer w.Stop()

	writeCatalog(t, dir, "book_title,genres\nDune,sci-fi\nEmma,romance\nFoundation,sci-fi\n")

	assert.Eventually(t, func() bool {
		count, err := index.DocumentCount()
		return err == nil && count == 3
	}, 5*time.Second, 20*time.Millisecond)
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	path := writeCatalog(t, t.TempDir(), "book_title\n")
	w, err := NewWatcher(path, NewIngester(&recordingTarget{}, "test", nil), WatcherOptions{}, nil)
	require.NoError(t, err)

	w.Start(context.Background())
	require.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}

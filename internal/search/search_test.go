package search

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagewise/pagewise-server/internal/domain"
	"github.com/pagewise/pagewise-server/internal/retriever"
)

var testCatalog = []domain.BookRecord{
	{Title: "Dune", Author: "Frank Herbert", NumPages: 412, Genres: []string{"sci-fi", "adventure"}, Details: "Desert planet politics.", Available: true},
	{Title: "Foundation", Author: "Isaac Asimov", NumPages: 255, Genres: []string{"sci-fi"}, Details: "A galactic empire declines.", Available: true},
	{Title: "The Great Gatsby", Author: "F. Scott Fitzgerald", NumPages: 180, Genres: []string{"classics", "fiction"}, Details: "Jazz age excess.", Available: false},
	{Title: "Emma", Author: "Jane Austen", NumPages: 474, Genres: []string{"classics", "romance"}, Details: "A matchmaker in a village.", Available: true},
	{Title: "The Hobbit", Author: "J.R.R. Tolkien", NumPages: 310, Genres: []string{"fantasy", "adventure"}, Details: "A journey there and back again.", CoverImageURI: "https://covers.example.com/hobbit.jpg", Available: true},
}

// setupTestIndex creates a temporary search index for testing.
func setupTestIndex(t *testing.T) *Index {
	t.Helper()

	index, err := NewIndex(Options{DataPath: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	return index
}

func seed(t *testing.T, index *Index) {
	t.Helper()
	n, err := index.Upsert(context.Background(), testCatalog)
	require.NoError(t, err)
	require.Equal(t, len(testCatalog), n)
}

func titles(candidates []retriever.Candidate) []string {
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.Title
	}
	return out
}

func TestNewIndex(t *testing.T) {
	index := setupTestIndex(t)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
	assert.NoError(t, index.Ping(context.Background()))
}

func TestUpsert_ReindexReplacesDocument(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)
	seed(t, index)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(len(testCatalog)), count)
}

func TestUpsert_SkipsUntitled(t *testing.T) {
	index := setupTestIndex(t)

	n, err := index.Upsert(context.Background(), []domain.BookRecord{{Title: ""}, {Title: "Emma"}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestQuery_GenreText(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)

	results, err := index.Query(context.Background(), []string{"sci-fi"}, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.GreaterOrEqual(t, len(results[0]), 2)

	assert.ElementsMatch(t, []string{"Dune", "Foundation"}, titles(results[0][:2]))
}

func TestQuery_OneListPerText(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)

	results, err := index.Query(context.Background(), []string{"classics", "fantasy", "  "}, 1)
	require.NoError(t, err)
	require.Len(t, results, 3)

	require.Len(t, results[0], 1)
	assert.Contains(t, []string{"The Great Gatsby", "Emma"}, results[0][0].Title)
	require.Len(t, results[1], 1)
	assert.Equal(t, "The Hobbit", results[1][0].Title)
	assert.Empty(t, results[2])
}

func TestQuery_TopKZero(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)

	results, err := index.Query(context.Background(), []string{"sci-fi"}, 0)
	require.NoError(t, err)
	assert.Empty(t, results[0])
}

func TestQuery_StoredMetadataBecomesBook(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)

	results, err := index.Query(context.Background(), []string{"hobbit"}, 1)
	require.NoError(t, err)
	require.Len(t, results[0], 1)

	book := results[0][0].Book()
	assert.Equal(t, "The Hobbit", book.Title)
	assert.Equal(t, "J.R.R. Tolkien", book.Author)
	assert.Equal(t, 310, book.NumPages)
	assert.Equal(t, []string{"fantasy", "adventure"}, book.Genres)
	assert.Equal(t, "https://covers.example.com/hobbit.jpg", book.CoverImageURI)
	assert.True(t, book.Available)
}

func TestQuery_UnavailableFlagSurvives(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)

	results, err := index.Query(context.Background(), []string{"gatsby"}, 1)
	require.NoError(t, err)
	require.Len(t, results[0], 1)
	assert.False(t, results[0][0].Book().Available)
}

func TestQuery_FuzzyTitle(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)

	results, err := index.Query(context.Background(), []string{"fundation"}, 1)
	require.NoError(t, err)
	require.Len(t, results[0], 1)
	assert.Equal(t, "Foundation", results[0][0].Title)
}

func TestReplace(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)

	n, err := index.Replace(context.Background(), testCatalog[:2])
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}

func TestDeleteBook(t *testing.T) {
	index := setupTestIndex(t)
	seed(t, index)

	require.NoError(t, index.DeleteBook("dune", "frank herbert"))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(len(testCatalog)-1), count)
}

func TestNewIndex_ReopensAndRebuildsOnVersionChange(t *testing.T) {
	dir := t.TempDir()

	index, err := NewIndex(Options{DataPath: dir})
	require.NoError(t, err)
	seed(t, index)
	require.NoError(t, index.Close())

	index, err = NewIndex(Options{DataPath: dir})
	require.NoError(t, err)
	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(len(testCatalog)), count)
	require.NoError(t, index.Close())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "catalog.version"), []byte("0"), 0o644))

	index, err = NewIndex(Options{DataPath: dir})
	require.NoError(t, err)
	defer index.Close()
	count, err = index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestMemoryIndex(t *testing.T) {
	index, err := NewMemoryIndex(nil)
	require.NoError(t, err)
	defer index.Close()

	seed(t, index)
	n, err := index.Replace(context.Background(), testCatalog[:1])
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestImplementsRetriever(t *testing.T) {
	var _ retriever.Retriever = (*Index)(nil)
}

package vector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagewise/pagewise-server/internal/domain"
)

type embeddingRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions"`
}

// fakeOpenAI serves /embeddings and answers each input with a vector whose
// first element is the input's length. Data is returned in reverse order.
func fakeOpenAI(t *testing.T, requests *atomic.Int32) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/embeddings") {
			http.NotFound(w, r)
			return
		}
		requests.Add(1)

		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		data := make([]map[string]any, 0, len(req.Input))
		for i := len(req.Input) - 1; i >= 0; i-- {
			data = append(data, map[string]any{
				"object":    "embedding",
				"index":     i,
				"embedding": []float64{float64(len(req.Input[i])), float64(req.Dimensions)},
			})
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  req.Model,
			"usage":  map[string]any{"prompt_tokens": 1, "total_tokens": 1},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestEmbedder(t *testing.T, baseURL string) *OpenAIEmbedder {
	t.Helper()
	e, err := NewOpenAIEmbedder(EmbedderConfig{
		APIKey:     "test-key",
		BaseURL:    baseURL + "/v1/",
		Model:      "text-embedding-3-small",
		Dimensions: 2,
		MaxRetries: 0,
	})
	require.NoError(t, err)
	return e
}

func TestNewOpenAIEmbedder_RequiresKey(t *testing.T) {
	_, err := NewOpenAIEmbedder(EmbedderConfig{})
	assert.ErrorIs(t, err, ErrAPIKeyNotSet)
}

func TestEmbed_KeepsInputOrder(t *testing.T) {
	var requests atomic.Int32
	e := newTestEmbedder(t, fakeOpenAI(t, &requests).URL)

	vectors, err := e.Embed(context.Background(), []string{"a", "bbb", "cc"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)

	assert.Equal(t, []float32{1, 2}, vectors[0])
	assert.Equal(t, []float32{3, 2}, vectors[1])
	assert.Equal(t, []float32{2, 2}, vectors[2])
	assert.Equal(t, int32(1), requests.Load())
}

func TestEmbed_Batches(t *testing.T) {
	var requests atomic.Int32
	e := newTestEmbedder(t, fakeOpenAI(t, &requests).URL)

	texts := make([]string, 250)
	for i := range texts {
		texts[i] = strings.Repeat("x", i%7+1)
	}

	vectors, err := e.Embed(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, 250)
	assert.Equal(t, int32(3), requests.Load())

	for i, v := range vectors {
		assert.Equal(t, float32(len(texts[i])), v[0], "vector %d", i)
	}
}

func TestEmbed_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	e := newTestEmbedder(t, srv.URL)
	_, err := e.Embed(context.Background(), []string{"dune"})
	assert.Error(t, err)
}

func TestEmbeddingText(t *testing.T) {
	assert.Equal(t, "Dune", EmbeddingText(domain.BookRecord{Title: "Dune"}))
	assert.Equal(t, "Dune sci-fi, adventure",
		EmbeddingText(domain.BookRecord{Title: "Dune", Genres: []string{"sci-fi", "adventure"}}))
}

func TestOpen_RejectsBadTableName(t *testing.T) {
	_, err := Open(context.Background(), "postgres://unused", "books; drop table x", nil, nil)
	assert.Error(t, err)
}

// keywordEmbedder places texts on two axes: science fiction and everything else.
type keywordEmbedder struct{}

func (keywordEmbedder) Dimensions() int { return 2 }

func (keywordEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if strings.Contains(strings.ToLower(text), "sci-fi") {
			out[i] = []float32{1, 0.1}
		} else {
			out[i] = []float32{0.1, 1}
		}
	}
	return out, nil
}

// TestStore_Postgres needs a database with the vector extension available.
func TestStore_Postgres(t *testing.T) {
	dsn := os.Getenv("PAGEWISE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("PAGEWISE_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()

	store, err := Open(ctx, dsn, "pagewise_vector_test", keywordEmbedder{}, nil)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.EnsureSchema(ctx))

	books := []domain.BookRecord{
		{Title: "Dune", Author: "Frank Herbert", Genres: []string{"sci-fi"}, NumPages: 412, Available: true},
		{Title: "Emma", Author: "Jane Austen", Genres: []string{"romance"}, Available: false},
	}
	n, err := store.Replace(ctx, books)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	results, err := store.Query(ctx, []string{"sci-fi", "romance"}, 1)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Len(t, results[0], 1)
	require.Len(t, results[1], 1)

	dune := results[0][0].Book()
	assert.Equal(t, "Dune", dune.Title)
	assert.Equal(t, 412, dune.NumPages)
	assert.Equal(t, []string{"sci-fi"}, dune.Genres)

	emma := results[1][0].Book()
	assert.Equal(t, "Emma", emma.Title)
	assert.False(t, emma.Available)
}

package retriever

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidateBook(t *testing.T) {
	c := Candidate{
		Title: " The Hobbit ",
		Metadata: map[string]any{
			MetaAuthor:     "J.R.R. Tolkien",
			MetaNumPages:   "310",
			MetaCoverImage: "https://covers.example.com/hobbit.jpg",
			MetaDetails:    "A hobbit goes on an adventure.",
			MetaGenres:     "['Fantasy', 'Classics']",
			MetaAvailable:  "False",
		},
	}

	b := c.Book()
	assert.Equal(t, "The Hobbit", b.Title)
	assert.Equal(t, "J.R.R. Tolkien", b.Author)
	assert.Equal(t, 310, b.NumPages)
	assert.Equal(t, "https://covers.example.com/hobbit.jpg", b.CoverImageURI)
	assert.Equal(t, []string{"Fantasy", "Classics"}, b.Genres)
	assert.False(t, b.Available)
}

func TestCandidateBook_Defaults(t *testing.T) {
	b := Candidate{Title: "Untitled"}.Book()

	assert.True(t, b.Available)
	assert.Equal(t, []string{}, b.Genres)
	assert.Zero(t, b.NumPages)
	assert.Empty(t, b.Author)
}

func TestCandidateBook_NumericMetadata(t *testing.T) {
	b := Candidate{Title: "Dune", Metadata: map[string]any{
		MetaNumPages:  float64(412),
		MetaAvailable: true,
		MetaGenres:    []any{"sci-fi", "classics"},
	}}.Book()

	assert.Equal(t, 412, b.NumPages)
	assert.True(t, b.Available)
	assert.Equal(t, []string{"sci-fi", "classics"}, b.Genres)

	assert.Zero(t, intValue("not a number"))
	assert.Equal(t, 12, intValue("12.0"))
}

func TestBooks_SkipsUntitled(t *testing.T) {
	books := Books([]Candidate{{Title: "A"}, {Title: "  "}, {Title: "B"}})

	require.Len(t, books, 2)
	assert.Equal(t, "B", books[1].Title)
}

func newTestBreaker(next Retriever, failures uint32, timeout time.Duration) *Breaker {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewBreaker(next, BreakerOptions{Name: "test", MaxFailures: failures, OpenTimeout: timeout}, logger)
}

func TestBreaker_PassesResults(t *testing.T) {
	want := [][]Candidate{{{Title: "Dune"}}}
	b := newTestBreaker(Func(func(context.Context, []string, int) ([][]Candidate, error) {
		return want, nil
	}), 2, time.Second)

	got, err := b.Query(context.Background(), []string{"sci-fi"}, 3)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, "closed", b.State())
}

func TestBreaker_WrapsErrorsAsUnavailable(t *testing.T) {
	boom := errors.New("connection refused")
	b := newTestBreaker(Func(func(context.Context, []string, int) ([][]Candidate, error) {
		return nil, boom
	}), 5, time.Second)

	_, err := b.Query(context.Background(), []string{"sci-fi"}, 3)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, boom)
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	calls := 0
	b := newTestBreaker(Func(func(context.Context, []string, int) ([][]Candidate, error) {
		calls++
		return nil, errors.New("down")
	}), 2, time.Minute)

	for range 2 {
		_, _ = b.Query(context.Background(), []string{"x"}, 1)
	}
	_, err := b.Query(context.Background(), []string{"x"}, 1)

	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, calls, "open circuit must not call the backend")
	assert.Equal(t, "open", b.State())
}

func TestBreaker_CallerCancellationDoesNotTrip(t *testing.T) {
	b := newTestBreaker(Func(func(ctx context.Context, _ []string, _ int) ([][]Candidate, error) {
		return nil, ctx.Err()
	}), 1, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for range 3 {
		_, err := b.Query(ctx, []string{"x"}, 1)
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, "closed", b.State())
}

func TestBreaker_RecoversAfterTimeout(t *testing.T) {
	fail := true
	b := newTestBreaker(Func(func(context.Context, []string, int) ([][]Candidate, error) {
		if fail {
			return nil, errors.New("down")
		}
		return [][]Candidate{{{Title: "Back"}}}, nil
	}), 1, 50*time.Millisecond)

	_, _ = b.Query(context.Background(), []string{"x"}, 1)
	require.Equal(t, "open", b.State())

	fail = false
	time.Sleep(80 * time.Millisecond)

	got, err := b.Query(context.Background(), []string{"x"}, 1)
	require.NoError(t, err)
	assert.Equal(t, "Back", got[0][0].Title)
	assert.Equal(t, "closed", b.State())
}

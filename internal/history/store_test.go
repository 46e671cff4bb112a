package history

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagewise/pagewise-server/internal/domain"
	"github.com/pagewise/pagewise-server/internal/store/memory"
)

func newTestStore(t *testing.T, capacity int) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	return NewStore(memory.New(), Options{
		Capacity: capacity,
		Now: func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			clock = clock.Add(time.Second)
			return clock
		},
	}, logger)
}

type failingBackend struct {
	loadErr error
	saveErr error
}

func (f failingBackend) LoadHistory(context.Context, string) (domain.HistoryLog, error) {
	return domain.HistoryLog{}, f.loadErr
}

func (f failingBackend) SaveHistory(context.Context, string, domain.HistoryLog) error {
	return f.saveErr
}

func TestRecordView_AppendsAndReads(t *testing.T) {
	s := newTestStore(t, 5)
	ctx := context.Background()

	require.NoError(t, s.RecordView(ctx, "u1", "Dune", []string{"sci-fi", "adventure"}))
	require.NoError(t, s.RecordView(ctx, "u1", "Foundation", "['sci-fi']"))

	got, err := s.GetHistory(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Dune", got[0].Title)
	assert.Equal(t, []string{"sci-fi"}, got[1].Genres)
	assert.True(t, got[1].Timestamp.After(got[0].Timestamp))
}

func TestRecordView_BoundedByCapacity(t *testing.T) {
	s := newTestStore(t, 5)
	ctx := context.Background()

	for i := range 12 {
		require.NoError(t, s.RecordView(ctx, "u1", fmt.Sprintf("Book %d", i), []string{"g"}))
		got, err := s.GetHistory(ctx, "u1")
		require.NoError(t, err)
		assert.LessOrEqual(t, len(got), 5)
	}

	got, err := s.GetHistory(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Book 7", got[0].Title)
	assert.Equal(t, "Book 11", got[4].Title)
}

func TestRecordView_RepeatOfLatestIsNoop(t *testing.T) {
	s := newTestStore(t, 5)
	ctx := context.Background()

	require.NoError(t, s.RecordView(ctx, "u1", "Dune", []string{"sci-fi"}))
	require.NoError(t, s.RecordView(ctx, "u1", "Dune", []string{"sci-fi"}))
	require.NoError(t, s.RecordView(ctx, "u1", "dune ", []string{"sci-fi"}))

	got, err := s.GetHistory(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestRecordView_IncompleteCallsAreDropped(t *testing.T) {
	s := newTestStore(t, 5)
	ctx := context.Background()

	assert.NoError(t, s.RecordView(ctx, "", "Dune", []string{"sci-fi"}))
	assert.NoError(t, s.RecordView(ctx, "u1", "  ", []string{"sci-fi"}))
	assert.NoError(t, s.RecordView(ctx, "u1", "Dune", nil))
	assert.NoError(t, s.RecordView(ctx, "u1", "Dune", "[]"))

	got, err := s.GetHistory(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRecordView_MalformedGenresKeptAsRaw(t *testing.T) {
	s := newTestStore(t, 5)
	ctx := context.Background()

	require.NoError(t, s.RecordView(ctx, "u1", "Dune", "['sci-fi"))

	got, err := s.GetHistory(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"['sci-fi"}, got[0].Genres)
}

func TestGetHistory_UnknownUser(t *testing.T) {
	s := newTestStore(t, 5)

	got, err := s.GetHistory(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestGetHistory_ReturnsCopy(t *testing.T) {
	s := newTestStore(t, 5)
	ctx := context.Background()
	require.NoError(t, s.RecordView(ctx, "u1", "Dune", []string{"sci-fi"}))

	got, err := s.GetHistory(ctx, "u1")
	require.NoError(t, err)
	got[0].Genres[0] = "changed"

	again, err := s.GetHistory(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "sci-fi", again[0].Genres[0])
}

func TestGetHistory_ClipsLogSavedUnderLargerCapacity(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	backend := memory.New()
	ctx := context.Background()

	var saved domain.HistoryLog
	for i := range 7 {
		saved = append(saved, domain.ViewEntry{Title: fmt.Sprintf("Book %d", i), Genres: []string{"fiction"}})
	}
	require.NoError(t, backend.SaveHistory(ctx, "u1", saved))

	s := NewStore(backend, Options{Capacity: 3}, logger)
	got, err := s.GetHistory(ctx, "u1")
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, "Book 4", got[0].Title)
	assert.Equal(t, "Book 6", got[2].Title)

	// The next write rewrites the log at the current bound.
	require.NoError(t, s.RecordView(ctx, "u1", "Book 7", "fiction"))
	stored, err := backend.LoadHistory(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, stored, 3)
	assert.Equal(t, "Book 7", stored[2].Title)
}

func TestRecordView_BackendErrors(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	boom := errors.New("disk full")

	s := NewStore(failingBackend{loadErr: boom}, Options{}, logger)
	assert.ErrorIs(t, s.RecordView(context.Background(), "u1", "Dune", "sci-fi"), boom)

	s = NewStore(failingBackend{saveErr: boom}, Options{}, logger)
	assert.ErrorIs(t, s.RecordView(context.Background(), "u1", "Dune", "sci-fi"), boom)
	assert.Equal(t, DefaultCapacity, s.Capacity())
}

func TestRecordView_ConcurrentWritesStayBounded(t *testing.T) {
	s := newTestStore(t, 5)
	ctx := context.Background()

	var wg sync.WaitGroup
	for w := range 8 {
		wg.Go(func() {
			for i := range 50 {
				title := fmt.Sprintf("w%d-%d", w, i)
				assert.NoError(t, s.RecordView(ctx, "shared", title, []string{"g"}))
			}
		})
	}
	wg.Wait()

	got, err := s.GetHistory(ctx, "shared")
	require.NoError(t, err)
	assert.Len(t, got, 5)
	for i := 1; i < len(got); i++ {
		assert.NotEqual(t, got[i-1].Title, got[i].Title)
	}
}

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	var k keyedMutex
	counter := 0

	var wg sync.WaitGroup
	for range 100 {
		wg.Go(func() {
			unlock := k.lock("user")
			counter++
			unlock()
		})
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
}

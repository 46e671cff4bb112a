package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagewise/pagewise-server/internal/domain"
	"github.com/pagewise/pagewise-server/internal/store"
)

func TestLoadHistory_Unknown(t *testing.T) {
	s := New()

	log, err := s.LoadHistory(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, log)
	assert.Empty(t, log)
}

func TestSaveHistory_StoresCopy(t *testing.T) {
	s := New()
	ctx := context.Background()

	log := domain.HistoryLog{{Title: "Dune", Genres: []string{"sci-fi"}}}
	require.NoError(t, s.SaveHistory(ctx, "u1", log))

	log[0].Title = "changed"
	log[0].Genres[0] = "changed"

	got, err := s.LoadHistory(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Dune", got[0].Title)
	assert.Equal(t, "sci-fi", got[0].Genres[0])
}

func TestLoadedSnapshotSurvivesLaterWrites(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.SaveHistory(ctx, "u1", domain.HistoryLog{{Title: "A"}}))
	snapshot, err := s.LoadHistory(ctx, "u1")
	require.NoError(t, err)

	require.NoError(t, s.SaveHistory(ctx, "u1", domain.HistoryLog{{Title: "B"}, {Title: "C"}}))

	assert.Len(t, snapshot, 1)
	assert.Equal(t, "A", snapshot[0].Title)
}

func TestUsers(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.GetUser(ctx, "uid-1")
	assert.ErrorIs(t, err, store.ErrUserNotFound)
	assert.ErrorIs(t, s.SaveUser(ctx, nil), store.ErrInvalidUser)

	first := &domain.UserProfile{UID: "uid-1", Name: "Reader"}
	require.NoError(t, s.SaveUser(ctx, first))
	require.NoError(t, s.SaveUser(ctx, &domain.UserProfile{UID: "uid-1", Name: "Renamed"}))

	got, err := s.GetUser(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, first.CreatedAt, got.CreatedAt)
}

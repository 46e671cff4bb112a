package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"The Great Gatsby", "great gatsby"},
		{"  A  Tale of Two Cities ", "tale of two cities"},
		{"Les Misérables", "les miserables"},
		{"Harry Potter: The Philosopher's Stone", "harry potter the philosophers stone"},
		{"The", "the"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeTitle(tt.input))
		})
	}
}

func TestRatio(t *testing.T) {
	assert.Equal(t, 1.0, Ratio("dune", "dune"))
	assert.Equal(t, 0.0, Ratio("", "dune"))
	assert.InDelta(t, 0.75, Ratio("dune", "dine"), 0.001)
}

func TestScore(t *testing.T) {
	assert.Equal(t, 1.0, Score("Gatsby", "The Great Gatsby"))
	assert.Equal(t, 1.0, Score("the great gatsby", "The Great Gatsby"))
	assert.Greater(t, Score("Great Gatsbe", "The Great Gatsby"), 0.9)
	assert.Less(t, Score("Emma", "The Great Gatsby"), DefaultCutoff)
}

func TestScore_ShortQueriesSkipWordWindows(t *testing.T) {
	// "it" is a whole word of the title but too short to be trusted alone.
	assert.Less(t, Score("it", "It Ends With Us"), DefaultCutoff)
}

func TestBest(t *testing.T) {
	titles := []string{"Gatsby's Girl", "The Great Gatsby", "Emma"}

	m, ok := Best("Gatsby", titles, DefaultCutoff)
	assert.True(t, ok)
	assert.Equal(t, 1, m.Index)
	assert.Equal(t, 1.0, m.Score)
}

func TestBest_TieBreaksOnWholeTitle(t *testing.T) {
	titles := []string{"Dune Messiah", "Dune"}

	m, ok := Best("dune", titles, DefaultCutoff)
	assert.True(t, ok)
	assert.Equal(t, 1, m.Index)
}

func TestBest_NoMatch(t *testing.T) {
	_, ok := Best("Moby Dick", []string{"Emma", "Dune"}, DefaultCutoff)
	assert.False(t, ok)

	_, ok = Best("  ", []string{"Emma"}, DefaultCutoff)
	assert.False(t, ok)

	_, ok = Best("Emma", nil, DefaultCutoff)
	assert.False(t, ok)
}

// Package fuzzy matches user-typed book titles against catalog titles.
package fuzzy

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultCutoff is the minimum score accepted by Best.
const DefaultCutoff = 0.6

// minPartialLen is the shortest normalized query scored against word windows.
// Shorter queries would match any title containing a common short word.
const minPartialLen = 3

// NormalizeTitle lowercases s, folds diacritics, strips punctuation and a
// leading article, and collapses whitespace.
func NormalizeTitle(s string) string {
	s = strings.ToLower(strings.TrimSpace(fold(s)))

	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsNumber(r):
			b.WriteRune(r)
		case unicode.IsSpace(r), r == '-', r == '_', r == '/':
			b.WriteRune(' ')
		}
	}
	words := strings.Fields(b.String())

	if len(words) > 1 {
		switch words[0] {
		case "the", "a", "an":
			words = words[1:]
		}
	}
	return strings.Join(words, " ")
}

func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Ratio is the normalized Levenshtein similarity of a and b in [0,1].
func Ratio(a, b string) float64 {
	if a == b {
		return 1
	}
	la, lb := len([]rune(a)), len([]rune(b))
	if la == 0 || lb == 0 {
		return 0
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(max(la, lb))
}

// Score compares a query with a title after normalizing both. It is the
// better of the whole-string ratio and the best ratio between the query and
// any run of consecutive title words of the same length as the query.
func Score(query, title string) float64 {
	q, t := NormalizeTitle(query), NormalizeTitle(title)
	best := Ratio(q, t)
	if len([]rune(q)) < minPartialLen {
		return best
	}

	qWords := len(strings.Fields(q))
	tWords := strings.Fields(t)
	if qWords >= len(tWords) {
		return best
	}
	for i := 0; i+qWords <= len(tWords); i++ {
		best = max(best, Ratio(q, strings.Join(tWords[i:i+qWords], " ")))
	}
	return best
}

// Match is the result of Best.
type Match struct {
	Index int
	Score float64
}

// Best returns the title with the highest Score at or above cutoff. Ties go to
// the title whose whole-string ratio is higher, then to the earlier title.
func Best(query string, titles []string, cutoff float64) (Match, bool) {
	q := NormalizeTitle(query)
	if q == "" {
		return Match{}, false
	}

	found := false
	var best Match
	var bestFull float64
	for i, title := range titles {
		score := Score(query, title)
		if score < cutoff {
			continue
		}
		full := Ratio(q, NormalizeTitle(title))
		if !found || score > best.Score || (score == best.Score && full > bestFull) {
			best, bestFull, found = Match{Index: i, Score: score}, full, true
		}
	}
	return best, found
}

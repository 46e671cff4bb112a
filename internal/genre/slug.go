// Package genre normalizes genre metadata and holds the default recommendation seeds.
package genre

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldAccents strips combining marks after compatibility decomposition.
var foldAccents = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))

// Slugify reduces a genre label to the key used for dedup and weighting.
// "Science Fiction" -> "science-fiction", "Sci-Fi/Fantasy" -> "sci-fi-fantasy".
func Slugify(s string) string {
	if folded, _, err := transform.String(foldAccents, s); err == nil {
		s = folded
	}

	var b strings.Builder
	b.Grow(len(s))
	pendingHyphen := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r > unicode.MaxASCII:
			// dropped without breaking the word
		case ('a' <= r && r <= 'z') || ('0' <= r && r <= '9'):
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		default:
			pendingHyphen = true
		}
	}
	return b.String()
}

package genre

// DefaultSeeds are the broad categories used to fill recommendations for a
// user with no history. Order matters: results are interleaved seed by seed.
var DefaultSeeds = []string{
	"Fiction",
	"Fantasy",
	"Science Fiction",
	"Mystery",
	"Romance",
}

// Seeds returns configured seeds, or a copy of DefaultSeeds when none are set.
func Seeds(configured []string) []string {
	if seeds := clean(configured); len(seeds) > 0 {
		return seeds
	}
	out := make([]string, len(DefaultSeeds))
	copy(out, DefaultSeeds)
	return out
}

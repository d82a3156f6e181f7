package store

import (
	"fmt"
	"math/rand/v2"
)

// DefaultSeedCount is the number of stars a fresh server starts with.
const DefaultSeedCount = 150

// Seed inserts n stars with coordinates uniformly distributed in [-1, 1)
// on both axes. rng may be nil, in which case a randomly seeded source is
// used. The inserted stars are returned in insertion order.
func Seed(st Store, n int, rng *rand.Rand) []Star {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	seeded := make([]Star, 0, n)
	for i := 0; i < n; i++ {
		x := 2*rng.Float64() - 1
		y := 2*rng.Float64() - 1
		seeded = append(seeded, st.Insert(x, y, fmt.Sprintf("Hello there, I'm star %d!", i)))
	}
	return seeded
}

package params

import (
	"math/rand"

	"github.com/seehuhn/mt19937"
)

// NewSource returns a Mersenne Twister source seeded with seed.
func NewSource(seed int64) rand.Source {
	src := mt19937.New()
	src.Seed(seed)
	return src
}

// NewRand returns a generator backed by NewSource.
func NewRand(seed int64) *rand.Rand {
	return rand.New(NewSource(seed))
}

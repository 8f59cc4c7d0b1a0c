package battle

import "math/rand"

// Source is the randomness used by turn resolution. *rand.Rand satisfies it.
type Source interface {
	Intn(n int) int
	Float64() float64
}

// NewSource returns a deterministic source for a battle seed.
func NewSource(seed uint64) Source {
	return rand.New(rand.NewSource(int64(seed)))
}

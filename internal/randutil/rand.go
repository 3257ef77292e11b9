// Package randutil derives reproducible random streams from one seed.
package randutil

import rand "math/rand/v2"

const goldenRatio64 = 0x9e3779b97f4a7c15

// New returns a PCG generator seeded from seed. Equal seeds give equal
// sequences.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// Streams returns n generators for parallel workers. Stream i depends only
// on seed and i, so results do not change with scheduling.
func Streams(seed int64, n int) []*rand.Rand {
	out := make([]*rand.Rand, n)
	for i := range out {
		u := mix(uint64(seed) + uint64(i+1)*goldenRatio64)
		out[i] = rand.New(rand.NewPCG(u, mix(u^goldenRatio64)))
	}
	return out
}

// mix is the splitmix64 finalizer.
func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

// Package randutil centralises how seeded random streams are derived so that
// training, evaluation and analysis runs are reproducible from a single seed.
package randutil

import (
	rand "math/rand/v2"
)

const (
	goldenRatio64 = 0x9e3779b97f4a7c15
)

// New returns a *rand.Rand seeded deterministically from the provided int64.
func New(seed int64) *rand.Rand {
	return rand.New(NewPCG(seed))
}

// NewPCG returns the PCG source behind New. Callers that need to checkpoint
// the generator keep the source and use MarshalBinary/UnmarshalBinary.
func NewPCG(seed int64) *rand.PCG {
	u := uint64(seed)
	return rand.NewPCG(mix(u), mix(u+goldenRatio64))
}

// Stream derives the seed of an independent stream, e.g. one per worker.
// Streams with different indices never share a PCG state for the same seed.
func Stream(seed int64, index int) int64 {
	return int64(mix(uint64(seed) ^ mix(uint64(index)+goldenRatio64)))
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

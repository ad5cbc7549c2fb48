package core

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"
)

// Rand is the injectable randomness source behind the variable-reward
// mechanics (variable XP multiplier, mystery boxes, quest shuffling).
// Tests substitute a deterministic implementation.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// NewRand returns the default Rand backed by PCG seeded from crypto/rand.
func NewRand() Rand {
	var seed [16]byte
	if _, err := cryptorand.Read(seed[:]); err != nil {
		// Fallback to zero seed if crypto/rand fails (extremely unlikely)
		seed = [16]byte{}
	}
	seed1 := binary.BigEndian.Uint64(seed[:8])
	seed2 := binary.BigEndian.Uint64(seed[8:])
	return &lockedRand{rng: rand.New(rand.NewPCG(seed1, seed2))}
}

// NewSeededRand returns a Rand with a fixed seed for reproducible runs.
func NewSeededRand(seed1, seed2 uint64) Rand {
	return &lockedRand{rng: rand.New(rand.NewPCG(seed1, seed2))}
}

// lockedRand guards a *rand.Rand, which is not safe for concurrent use.
type lockedRand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (r *lockedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

func (r *lockedRand) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(n)
}

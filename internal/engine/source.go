package engine

import (
	crand "crypto/rand"
	"math/rand/v2"
)

// Source is the random source injected into a game session. Both the
// sector shuffle and the spin velocity draw from it.
type Source interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
	// IntN returns a value in [0, n).
	IntN(n int) int
}

// Seeded wraps a PCG generator so runs are reproducible from one seed.
type Seeded struct {
	r *rand.Rand
}

// NewSeeded returns a deterministic source.
func NewSeeded(seed uint64) *Seeded {
	return &Seeded{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *Seeded) Float64() float64 { return s.r.Float64() }

func (s *Seeded) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	return s.r.IntN(n)
}

// NewCrypto returns a ChaCha8 source seeded from the operating system.
func NewCrypto() *Seeded {
	var seed [32]byte
	// Read never returns an error since Go 1.24.
	_, _ = crand.Read(seed[:])
	return &Seeded{r: rand.New(rand.NewChaCha8(seed))}
}

// Package random provides the seedable random source shared by board
// generation and dice rolls.
//
// A Source built from the same seed always produces the same sequence, which
// keeps games reproducible in tests. Production code draws the seed from
// crypto/rand with NewSeed.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
	"sync"
)

// Source is the random number source the game depends on.
type Source interface {
	// Intn returns a uniform integer in [0, n). It panics if n <= 0.
	Intn(n int) int
	// Shuffle permutes n elements using swap (Fisher-Yates).
	Shuffle(n int, swap func(i, j int))
}

type lockedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a deterministic Source safe for concurrent use.
func New(seed int64) Source {
	return &lockedSource{
		rng: rand.New(rand.NewSource(seed)), //nolint: gosec // game randomness, not security
	}
}

func (that *lockedSource) Intn(n int) int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.rng.Intn(n)
}

func (that *lockedSource) Shuffle(n int, swap func(i, j int)) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.rng.Shuffle(n, swap)
}

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}

	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// RollDie returns a uniform value in [1, sides].
func RollDie(src Source, sides int) int {
	return src.Intn(sides) + 1
}

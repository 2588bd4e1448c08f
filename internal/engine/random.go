package engine

import (
	"math/rand/v2"
	"sync"
	"time"

	"veritas/internal/evidence"
)

// lockedRandom serializes access to a source shared by concurrent Analyze calls.
type lockedRandom struct {
	mu  sync.Mutex
	src evidence.Random
}

func (l *lockedRandom) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Float64()
}

// NewRandom returns a seeded source. A zero seed uses the clock.
func NewRandom(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

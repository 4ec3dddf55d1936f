package engine

import (
	"math/rand"
	"time"
)

// Rand is the uniform [0,1) source used for event selection. It is
// injectable so tests can drive selection deterministically.
type Rand interface {
	Float64() float64
}

// Clock supplies timestamps for history entries and save snapshots.
type Clock interface {
	Now() time.Time
}

// NewRand returns a seeded math/rand source.
func NewRand(seed int64) Rand {
	return rand.New(rand.NewSource(seed))
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }

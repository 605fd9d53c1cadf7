// Package refgen produces booking references and seat labels from an
// injectable random source so tests can run deterministically.
package refgen

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
)

const (
	refPrefix   = "FBX"
	refAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	refSuffix   = 6

	seatRows    = 30
	seatLetters = "ABCDEF"
)

type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func New() *Generator {
	return NewFromSource(rand.NewSource(time.Now().UnixNano()))
}

func NewFromSource(src rand.Source) *Generator {
	return &Generator{rnd: rand.New(src)}
}

// BookingRef returns a reference like "FBX7K2Q9A". The 36^6 suffix space keeps
// collisions rare, but not impossible: the ledger's unique constraint is the
// actual guarantee and callers must retry on a collision.
func (g *Generator) BookingRef() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	var b strings.Builder
	b.Grow(len(refPrefix) + refSuffix)
	b.WriteString(refPrefix)
	for i := 0; i < refSuffix; i++ {
		b.WriteByte(refAlphabet[g.rnd.Intn(len(refAlphabet))])
	}
	return b.String()
}

// SeatLabel returns a label like "12C" drawn from 30 rows x columns A-F.
// Labels are display tokens only and are not deduplicated per flight;
// seats_available is what gates capacity.
func (g *Generator) SeatLabel() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	return fmt.Sprintf("%d%c", g.rnd.Intn(seatRows)+1, seatLetters[g.rnd.Intn(len(seatLetters))])
}

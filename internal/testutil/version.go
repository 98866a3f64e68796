package testutil

import (
	"fmt"
	"sync"
)

// SequentialGenerator hands out version IDs "v1", "v2", ... for tests.
//
// Unlike session.FixedGenerator it never runs out, and it can be reset so
// the same scenario yields identical IDs on every run.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SequentialGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialGenerator creates a generator whose first ID is "v1".
func NewSequentialGenerator() *SequentialGenerator {
	return &SequentialGenerator{prefix: "v"}
}

// NewPrefixedGenerator creates a generator whose first ID is prefix+"1".
func NewPrefixedGenerator(prefix string) *SequentialGenerator {
	return &SequentialGenerator{prefix: prefix}
}

// Generate returns the next ID.
// Implements session.IDGenerator.
func (g *SequentialGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s%d", g.prefix, g.n)
}

// Count returns how many IDs have been generated.
func (g *SequentialGenerator) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.n
}

// Reset restarts the sequence. The next Generate returns prefix+"1".
func (g *SequentialGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}

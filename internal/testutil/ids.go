package testutil

import (
	"fmt"
	"sync"
)

// SequenceIDGenerator returns "<prefix>-0001", "<prefix>-0002", ... so run IDs
// in golden output and ledgers are stable.
//
// Safe for concurrent use. Under parallel execution the order in which runs
// draw IDs is not fixed; compare sets, not positions.
type SequenceIDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceIDGenerator creates a generator. An empty prefix means "run".
func NewSequenceIDGenerator(prefix string) *SequenceIDGenerator {
	if prefix == "" {
		prefix = "run"
	}
	return &SequenceIDGenerator{prefix: prefix}
}

// Generate returns the next ID.
func (g *SequenceIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}

// FixedIDGenerator returns the same ID every time.
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator creates a generator for id, "run-fixed" when empty.
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = "run-fixed"
	}
	return &FixedIDGenerator{id: id}
}

// Generate returns the fixed ID.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}

package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequenceIDGenerator(t *testing.T) {
	g := NewSequenceIDGenerator("")
	assert.Equal(t, "run-0001", g.Generate())
	assert.Equal(t, "run-0002", g.Generate())

	g = NewSequenceIDGenerator("suite")
	assert.Equal(t, "suite-0001", g.Generate())
}

func TestSequenceIDGeneratorConcurrent(t *testing.T) {
	g := NewSequenceIDGenerator("run")
	const workers = 50

	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := map[string]bool{}
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := g.Generate()
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	require.Len(t, seen, workers)
	assert.True(t, seen["run-0050"])
}

func TestFixedIDGenerator(t *testing.T) {
	assert.Equal(t, "run-fixed", NewFixedIDGenerator("").Generate())
	g := NewFixedIDGenerator("abc")
	assert.Equal(t, "abc", g.Generate())
	assert.Equal(t, "abc", g.Generate())
}

func TestSteppingClock(t *testing.T) {
	start := time.Date(2026, time.October, 14, 9, 0, 0, 0, time.UTC)
	c := NewSteppingClock(start, time.Second)

	assert.Equal(t, start, c.Now())
	assert.Equal(t, start.Add(time.Second), c.Now())
	c.Reset()
	assert.Equal(t, start, c.Now())
}

package alloc

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortWithBufferSortsAndIsStable(t *testing.T) {
	pool := NewScratchPool()

	type entry struct {
		key, original int
	}
	entries := []entry{{2, 0}, {1, 1}, {2, 2}, {1, 3}, {0, 4}}

	less := func(i, j int) bool { return entries[i].key < entries[j].key }
	swap := func(i, j int) { entries[i], entries[j] = entries[j], entries[i] }

	pool.SortWithBuffer("worker-a", len(entries), less, swap)

	require.True(t, sort.SliceIsSorted(entries, func(i, j int) bool { return entries[i].key < entries[j].key }))
	// Stability: equal keys keep their relative original order (the
	// single key-0 entry sorts to position 0).
	assert.Equal(t, 1, entries[1].original)
	assert.Equal(t, 3, entries[2].original)
	assert.Equal(t, 0, entries[3].original)
	assert.Equal(t, 2, entries[4].original)
}

func TestSortWithBufferLargePermutation(t *testing.T) {
	pool := NewScratchPool()

	// A fixed scrambled sequence long enough to exercise several merge
	// widths and multi-element permutation cycles.
	vals := make([]int, 257)
	for i := range vals {
		vals[i] = (i * 131) % len(vals)
	}

	pool.SortWithBuffer("worker-perm", len(vals),
		func(i, j int) bool { return vals[i] < vals[j] },
		func(i, j int) { vals[i], vals[j] = vals[j], vals[i] })

	for i, v := range vals {
		require.Equal(t, i, v)
	}
}

func TestScratchGrowsMonotonicallyAndIsSized(t *testing.T) {
	pool := NewScratchPool()

	noop := func(i, j int) bool { return false }
	swap := func(i, j int) {}

	pool.SortWithBuffer("worker-b", 10, noop, swap)
	first := pool.ScratchLen("worker-b")
	assert.Equal(t, 20, first, "an n-element sort needs n order entries plus n merge entries")

	pool.SortWithBuffer("worker-b", 2, noop, swap)
	assert.Equal(t, first, pool.ScratchLen("worker-b"), "scratch never shrinks")

	pool.SortWithBuffer("worker-b", 20, noop, swap)
	assert.Equal(t, 40, pool.ScratchLen("worker-b"))
}

func TestSortWithBufferTrivialLengths(t *testing.T) {
	pool := NewScratchPool()
	boom := func(i, j int) bool { t.Fatal("compare called"); return false }
	swap := func(i, j int) { t.Fatal("swap called") }

	pool.SortWithBuffer("worker-c", 0, boom, swap)
	pool.SortWithBuffer("worker-c", 1, boom, swap)
	assert.Equal(t, 0, pool.ScratchLen("worker-c"), "sorts below two elements never touch the scratch")
}

func TestDifferentWorkersDoNotShareBuffers(t *testing.T) {
	pool := NewScratchPool()
	noop := func(i, j int) bool { return false }
	swap := func(i, j int) {}

	pool.SortWithBuffer("alpha", 5, noop, swap)
	pool.SortWithBuffer("beta", 1, noop, swap)

	// Distinct worker tokens may or may not hash to the same bucket;
	// what must hold is that concurrent use from many tokens never
	// races or panics.
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			token := string(rune('a' + i%26))
			vals := []int{3, 1, 2, 0}
			pool.SortWithBuffer(token, len(vals),
				func(a, b int) bool { return vals[a] < vals[b] },
				func(a, b int) { vals[a], vals[b] = vals[b], vals[a] })
		}(i)
	}
	wg.Wait()
}

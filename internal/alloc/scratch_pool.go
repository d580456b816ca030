// Package alloc provides the scratch-buffer pool behind the scoring
// engine's stable sorts. Sort scratch space is worker-local and must
// never be shared across goroutines mid-sort; Go exposes no goroutine
// identity, so the pool keys a fixed-size bucket array by a
// caller-supplied worker token hashed with xxhash. Buffers are sized on
// demand and never shrink, so a steady stream of queries stops
// allocating sort scratch after the first.
package alloc

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// bucketCount bounds how many distinct scratch buffers the pool holds
// concurrently; workers hashing to the same bucket serialize on that
// bucket's mutex, which is fine since each worker only ever sorts once
// per query and max_threads is small (typically 4).
const bucketCount = 64

type scratchBucket struct {
	mu sync.Mutex
	// scratch holds 2n int32 entries for an n-element sort: the first n
	// are the order array, the second n the merge buffer. Grows
	// monotonically, never shrinks.
	scratch []int32
}

// ScratchPool hands out per-worker scratch space for stable sorts.
type ScratchPool struct {
	buckets [bucketCount]*scratchBucket
}

// NewScratchPool creates a pool with all buckets pre-allocated empty.
func NewScratchPool() *ScratchPool {
	p := &ScratchPool{}
	for i := range p.buckets {
		p.buckets[i] = &scratchBucket{}
	}
	return p
}

func (p *ScratchPool) bucketFor(worker string) *scratchBucket {
	h := xxhash.Sum64String(worker)
	return p.buckets[h%uint64(bucketCount)]
}

// SortWithBuffer performs a stable sort of n elements through the
// caller's less/swap pair, drawing all temporary memory from the
// worker's pooled scratch: a bottom-up merge sort runs over an index
// order array held in the scratch (with its second half as the merge
// buffer), and the resulting permutation is applied through swap.
// Elements themselves are never copied out of the caller's slice, so
// pointer-bearing elements stay visible to the garbage collector
// throughout.
func (p *ScratchPool) SortWithBuffer(worker string, n int, less func(i, j int) bool, swap func(i, j int)) {
	if n < 2 {
		return
	}

	b := p.bucketFor(worker)
	b.mu.Lock()
	defer b.mu.Unlock()

	if cap(b.scratch) < 2*n {
		b.scratch = make([]int32, 2*n)
	}
	b.scratch = b.scratch[:cap(b.scratch)]

	order := b.scratch[:n]
	tmp := b.scratch[n : 2*n]
	for i := range order {
		order[i] = int32(i)
	}

	mergeSortOrder(order, tmp, less)

	// Invert order (source indexes) into destinations, then apply the
	// permutation cycle by cycle through the caller's swap.
	dest := tmp
	for k, src := range order {
		dest[src] = int32(k)
	}
	for i := 0; i < n; i++ {
		for dest[i] != int32(i) {
			j := dest[i]
			swap(i, int(j))
			dest[i], dest[j] = dest[j], dest[i]
		}
	}
}

// mergeSortOrder stably sorts order (a permutation of element indexes)
// by the element ordering less encodes, bottom-up, merging through tmp.
// Ties keep their left-to-right order: the right run is only taken when
// strictly less.
func mergeSortOrder(order, tmp []int32, less func(i, j int) bool) {
	n := len(order)
	for width := 1; width < n; width *= 2 {
		for lo := 0; lo < n-width; lo += 2 * width {
			mid := lo + width
			hi := lo + 2*width
			if hi > n {
				hi = n
			}
			mergeRuns(order, tmp, lo, mid, hi, less)
		}
	}
}

func mergeRuns(order, tmp []int32, lo, mid, hi int, less func(i, j int) bool) {
	copy(tmp[lo:hi], order[lo:hi])
	i, j := lo, mid
	for k := lo; k < hi; k++ {
		switch {
		case i >= mid:
			order[k] = tmp[j]
			j++
		case j >= hi:
			order[k] = tmp[i]
			i++
		case less(int(tmp[j]), int(tmp[i])):
			order[k] = tmp[j]
			j++
		default:
			order[k] = tmp[i]
			i++
		}
	}
}

// ScratchLen returns the worker's current scratch capacity in entries,
// for tests and diagnostics only.
func (p *ScratchPool) ScratchLen(worker string) int {
	b := p.bucketFor(worker)
	b.mu.Lock()
	defer b.mu.Unlock()
	return cap(b.scratch)
}

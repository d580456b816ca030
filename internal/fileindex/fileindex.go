// Package fileindex implements the in-memory file index: point
// mutations (create/modify/remove) serialize on a mutex and publish an
// immutable snapshot through an atomic.Pointer, so snapshot reads never
// block. Searches observe a view that corresponds to one point in the
// mutation history.
package fileindex

import (
	"sync"
	"sync/atomic"

	"github.com/fff-nvim/fff-core/internal/debug"
	"github.com/fff-nvim/fff-core/internal/types"
)

// snapshot is the immutable, shareable view of the index at a point in
// time. Readers load it without taking any lock.
type snapshot struct {
	files   []*types.FileItem
	byPath  map[string]int // path -> index into files, for O(1) point lookups
}

func newSnapshot() *snapshot {
	return &snapshot{byPath: make(map[string]int)}
}

// Index is the concurrent file index. Point mutations
// (OnCreateOrModify, RemoveFileByPath, UpdateGitStatuses) take mu and
// publish a freshly built snapshot; GetFiles and IsScanActive never
// block on mu.
type Index struct {
	mu   sync.Mutex // serializes mutations; readers never take this
	snap atomic.Pointer[snapshot]

	scanActive int32 // atomic bool
}

// New creates an empty index.
func New() *Index {
	idx := &Index{}
	idx.snap.Store(newSnapshot())
	return idx
}

// GetFiles returns the current snapshot's files. The returned slice
// must not be mutated; it is shared with concurrent readers.
func (idx *Index) GetFiles() []*types.FileItem {
	return idx.snap.Load().files
}

// Len reports how many files are currently indexed.
func (idx *Index) Len() int {
	return len(idx.snap.Load().files)
}

// IsScanActive reports whether a bulk scan (SetScanActive) is in
// progress.
func (idx *Index) IsScanActive() bool {
	return atomic.LoadInt32(&idx.scanActive) != 0
}

// SetScanActive flips the scan-active flag; the facade sets it for the
// duration of each full scan so IsScanActive can be polled.
func (idx *Index) SetScanActive(active bool) {
	var v int32
	if active {
		v = 1
	}
	atomic.StoreInt32(&idx.scanActive, v)
}

// OnCreateOrModify inserts item if its path is new, or replaces the
// existing entry in place. A replaced entry's frecency scores and git
// status carry over to the new item: a modify event must not reset the
// signals the scoring engine ranks by.
func (idx *Index) OnCreateOrModify(item *types.FileItem) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	cur := idx.snap.Load()
	next := cloneSnapshot(cur)
	upsertInto(next, item)

	idx.snap.Store(next)
	debug.LogIndex("indexed %s (%d files total)", item.Path, len(next.files))
}

// ApplyBatch applies a debounced watcher batch — removals first, then
// upserts — under a single exclusive lock, publishing one snapshot for
// the whole batch. It returns the relative paths of the upserted items
// so the caller can fetch VCS status for just that set with no index
// lock held.
func (idx *Index) ApplyBatch(removePaths []string, upserts []*types.FileItem) []string {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	cur := idx.snap.Load()
	next := cloneSnapshot(cur)

	for _, path := range removePaths {
		removeFrom(next, path)
	}

	touched := make([]string, 0, len(upserts))
	for _, item := range upserts {
		upsertInto(next, item)
		touched = append(touched, item.RelativePath)
	}

	idx.snap.Store(next)
	debug.LogIndex("applied batch: -%d +%d (%d files total)", len(removePaths), len(upserts), len(next.files))
	return touched
}

func upsertInto(s *snapshot, item *types.FileItem) {
	if i, ok := s.byPath[item.Path]; ok {
		prev := s.files[i]
		item.AccessFrecencyScore = prev.AccessFrecencyScore
		item.ModificationFrecencyScore = prev.ModificationFrecencyScore
		item.TotalFrecencyScore = prev.TotalFrecencyScore
		item.GitStatus = prev.GitStatus
		s.files[i] = item
	} else {
		s.byPath[item.Path] = len(s.files)
		s.files = append(s.files, item)
	}
}

func removeFrom(s *snapshot, path string) bool {
	i, ok := s.byPath[path]
	if !ok {
		return false
	}
	last := len(s.files) - 1
	moved := s.files[last]
	s.files[i] = moved
	s.files = s.files[:last]
	delete(s.byPath, path)
	if i != last {
		s.byPath[moved.Path] = i
	}
	return true
}

// RemoveFileByPath deletes the entry for path, if present, compacting
// the file slice with a swap-remove and fixing up the moved entry's
// index.
func (idx *Index) RemoveFileByPath(path string) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	cur := idx.snap.Load()
	if _, ok := cur.byPath[path]; !ok {
		return false
	}

	next := cloneSnapshot(cur)
	removeFrom(next, path)

	idx.snap.Store(next)
	debug.LogIndex("removed %s (%d files remaining)", path, len(next.files))
	return true
}

// ReplaceAll atomically swaps the entire index contents, used after a
// full directory rescan.
func (idx *Index) ReplaceAll(items []*types.FileItem) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	next := newSnapshot()
	next.files = make([]*types.FileItem, len(items))
	copy(next.files, items)
	for i, f := range next.files {
		next.byPath[f.Path] = i
	}

	idx.snap.Store(next)
	debug.LogIndex("replaced index with %d files", len(next.files))
}

// UpdateGitStatuses applies a path->GitStatus map to every currently
// indexed file. Files absent from the map keep whatever status they
// already had, so a partial map (such as the watcher's touched-subset
// fetch) only changes the paths it lists.
func (idx *Index) UpdateGitStatuses(statuses map[string]types.GitStatus) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	cur := idx.snap.Load()
	next := cloneSnapshot(cur)
	next.files = make([]*types.FileItem, len(cur.files))
	for i, f := range cur.files {
		status, ok := statuses[f.RelativePath]
		if !ok {
			next.files[i] = f
			continue
		}
		updated := *f
		updated.GitStatus = status
		next.files[i] = &updated
	}

	idx.snap.Store(next)
}

// cloneSnapshot makes a shallow copy whose files/byPath are new
// containers (so mutating them doesn't race with a concurrent reader
// holding the old snapshot), but whose *FileItem elements are shared
// until individually replaced.
func cloneSnapshot(s *snapshot) *snapshot {
	next := newSnapshot()
	next.files = make([]*types.FileItem, len(s.files))
	copy(next.files, s.files)
	for k, v := range s.byPath {
		next.byPath[k] = v
	}
	return next
}

// Package watcher implements the file-system watcher and event router:
// an fsnotify recursive watch feeding a tick-based debouncer and a
// classifier that decides, per batch, whether to apply targeted index
// mutations or escalate to a full rescan.
//
// The debouncer is a fixed window with a tick rate a quarter of it:
// batches drain on a tick rather than resetting a timer per event, so
// a steady stream of writes still flushes periodically instead of
// being pushed back indefinitely.
package watcher

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/fff-nvim/fff-core/internal/config"
	"github.com/fff-nvim/fff-core/internal/debug"
	"github.com/fff-nvim/fff-core/internal/errors"
	"github.com/fff-nvim/fff-core/internal/fileindex"
	"github.com/fff-nvim/fff-core/internal/types"
	"github.com/fff-nvim/fff-core/internal/vcs"
)

const (
	// DebounceWindow is the default for how long a batch accumulates
	// before it is considered for flushing; config.Index.WatchDebounceMs
	// overrides it.
	DebounceWindow = 500 * time.Millisecond
	// TickRate is the default for how often the debouncer checks whether
	// the window has elapsed since the current batch started;
	// config.Index.WatchTickMs overrides it.
	TickRate = DebounceWindow / 4

	// MaxPathsThreshold is the per-batch affected-path count above which
	// the router gives up on targeted mutation and requests a full
	// rescan instead.
	MaxPathsThreshold = 50
)

// RescanFunc performs a full directory rescan and replaces the index
// contents; supplied by the facade, which owns the root path and the
// ignore-pattern configuration.
type RescanFunc func(ctx context.Context) error

// GitRescanFunc refreshes git status for every currently indexed file.
type GitRescanFunc func(ctx context.Context) error

// Watcher owns the fsnotify handle, the debouncer goroutine, and the
// event classifier. Construct with New, then Start/Stop.
type Watcher struct {
	fsw   *fsnotify.Watcher
	index *fileindex.Index
	vcs   vcs.Provider

	root      string
	rescan    RescanFunc
	gitRescan GitRescanFunc

	debounce    time.Duration
	tickRate    time.Duration
	maxFileSize int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	pending   []fsnotify.Event
	pendingMu sync.Mutex
}

// New builds a watcher rooted at root, taking its debounce window,
// tick rate, and file size cap from cfg (falling back to the package
// defaults when unset). vcsProvider may be nil if the project is not
// under version control, in which case git-status classification and
// refresh are skipped entirely.
func New(root string, cfg *config.Config, index *fileindex.Index, vcsProvider vcs.Provider, rescan RescanFunc, gitRescan GitRescanFunc) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.NewInitError("watcher: create fsnotify watcher", err)
	}

	w := &Watcher{
		fsw:       fsw,
		index:     index,
		vcs:       vcsProvider,
		root:      root,
		rescan:    rescan,
		gitRescan: gitRescan,
		debounce:  DebounceWindow,
		tickRate:  TickRate,
	}
	if cfg != nil {
		if cfg.Index.WatchDebounceMs > 0 {
			w.debounce = time.Duration(cfg.Index.WatchDebounceMs) * time.Millisecond
		}
		if cfg.Index.WatchTickMs > 0 {
			w.tickRate = time.Duration(cfg.Index.WatchTickMs) * time.Millisecond
		}
		w.maxFileSize = cfg.Index.MaxFileSize
	}
	return w, nil
}

// Start adds a recursive watch under root and launches the event-read
// and debounce-tick goroutines.
func (w *Watcher) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)

	if err := w.addRecursive(w.root); err != nil {
		return errors.NewInitError("watcher: add recursive watch", err)
	}

	w.wg.Add(2)
	go w.readEvents()
	go w.tick()

	return nil
}

// Stop halts both goroutines and closes the fsnotify handle.
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	w.fsw.Close()
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if shouldIgnoreDirectory(path) {
				return filepath.SkipDir
			}
			return w.fsw.Add(path)
		}
		return nil
	})
}

func shouldIgnoreDirectory(path string) bool {
	base := filepath.Base(path)
	return base == ".git" || base == "node_modules"
}

func (w *Watcher) readEvents() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() && !shouldIgnoreDirectory(ev.Name) {
					_ = w.fsw.Add(ev.Name)
				}
			}
			w.pendingMu.Lock()
			w.pending = append(w.pending, ev)
			w.pendingMu.Unlock()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			debug.LogWatcher("fsnotify error: %v", err)
		}
	}
}

// tick drains the pending batch every tickRate, as long as it has had
// at least the debounce window to accumulate since the first
// still-unflushed event: flush on tick, but only once the window has
// elapsed.
func (w *Watcher) tick() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.tickRate)
	defer ticker.Stop()

	var batchStart time.Time

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.pendingMu.Lock()
			if len(w.pending) == 0 {
				batchStart = time.Time{}
				w.pendingMu.Unlock()
				continue
			}
			if batchStart.IsZero() {
				batchStart = time.Now()
				w.pendingMu.Unlock()
				continue
			}
			if time.Since(batchStart) < w.debounce {
				w.pendingMu.Unlock()
				continue
			}

			batch := w.pending
			w.pending = nil
			batchStart = time.Time{}
			w.pendingMu.Unlock()

			w.handleBatch(batch)
		}
	}
}

func (w *Watcher) handleBatch(events []fsnotify.Event) {
	var (
		needFullRescan    bool
		needFullGitRescan bool
		pathsToRemove     []string
		pathsToUpsert     []string
		affectedPaths     int
	)

	for _, ev := range events {
		if ev.Op == fsnotify.Chmod {
			continue // pure-access/attribute events never drive reindexing
		}

		path := ev.Name
		affectedPaths++

		if isIgnoreDefinitionPath(path) {
			debug.LogWatcher("ignore definition changed: %s", path)
			needFullRescan = true
			break
		}

		if w.vcs != nil && isUnderDir(path, w.vcs.GitDir()) {
			if w.vcs.IsDotGitChangeAffectingStatus(path) {
				needFullGitRescan = true
			}
		} else if w.shouldIncludePath(path) {
			if _, err := os.Stat(path); err != nil {
				pathsToRemove = append(pathsToRemove, path)
			} else {
				pathsToUpsert = append(pathsToUpsert, path)
			}
		}

		if affectedPaths > MaxPathsThreshold {
			log.Printf("fff: watcher saw %d affected paths in one batch, escalating to full rescan", affectedPaths)
			needFullRescan = true
			break
		}
	}

	if needFullRescan {
		if err := w.rescan(w.ctx); err != nil {
			log.Printf("fff: %v", errors.NewWatcherNoiseError("rescan", "", err))
		}
		return
	}

	// Point mutations require a VCS handle: deciding whether a touched
	// path belongs in the index at all depends on its ignore rules.
	if w.vcs == nil {
		return
	}

	if needFullGitRescan {
		if w.gitRescan == nil {
			return
		}
		if err := w.gitRescan(w.ctx); err != nil {
			log.Printf("fff: %v", errors.NewWatcherNoiseError("git-rescan", "", err))
		}
		return
	}

	// Two-phase: apply the whole batch under one exclusive lock, then
	// query VCS status for the touched paths with no index lock held.
	upserts := make([]*types.FileItem, 0, len(pathsToUpsert))
	for _, path := range pathsToUpsert {
		if item := buildFileItem(w.root, path, w.maxFileSize); item != nil {
			upserts = append(upserts, item)
		}
	}
	touchedRelPaths := w.index.ApplyBatch(pathsToRemove, upserts)

	if len(touchedRelPaths) == 0 {
		return
	}
	statuses := w.vcs.StatusForPaths(touchedRelPaths)
	w.index.UpdateGitStatuses(statuses)
}

// isUnderDir reports whether path is dir itself or lies beneath it.
func isUnderDir(path, dir string) bool {
	if dir == "" {
		return false
	}
	return path == dir || strings.HasPrefix(path, dir+string(filepath.Separator))
}

func (w *Watcher) shouldIncludePath(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		// Removal events reach here with a nonexistent path; they're
		// still eligible for removal handling upstream.
		return !isGitMetadataPath(path)
	}
	if info.IsDir() || isGitMetadataPath(path) {
		return false
	}
	if w.vcs != nil && w.vcs.IsPathIgnored(path) {
		return false
	}
	return true
}

func isGitMetadataPath(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".git" {
			return true
		}
	}
	return false
}

func isIgnoreDefinitionPath(path string) bool {
	base := filepath.Base(path)
	return base == ".gitignore" || base == ".ignore"
}

// buildFileItem stats absPath and builds its index record, or returns
// nil when the path is gone, outside root, or over the size cap
// (maxFileSize 0 disables the cap).
func buildFileItem(root, absPath string, maxFileSize int64) *types.FileItem {
	info, err := os.Stat(absPath)
	if err != nil {
		return nil
	}
	if maxFileSize > 0 && info.Size() > maxFileSize {
		return nil
	}
	rel, err := filepath.Rel(root, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil
	}
	rel = filepath.ToSlash(rel)
	name := filepath.Base(rel)

	return &types.FileItem{
		Path:              absPath,
		RelativePath:      rel,
		RelativePathLower: strings.ToLower(rel),
		FileName:          name,
		FileNameLower:     strings.ToLower(name),
		Size:              info.Size(),
		Modified:          info.ModTime().Unix(),
	}
}

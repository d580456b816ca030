// Package fff is the entry point for embedders: a Picker owns the file
// index, the background watcher, and the VCS provider for one project
// root, and exposes the operations an editor plugin, a CLI, or a
// benchmark needs: Init, Stop, FuzzySearch, IsScanActive, GetFiles,
// RefreshGitStatus.
package fff

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fff-nvim/fff-core/internal/alloc"
	"github.com/fff-nvim/fff-core/internal/config"
	"github.com/fff-nvim/fff-core/internal/debug"
	"github.com/fff-nvim/fff-core/internal/errors"
	"github.com/fff-nvim/fff-core/internal/fileindex"
	"github.com/fff-nvim/fff-core/internal/scoring"
	"github.com/fff-nvim/fff-core/internal/types"
	"github.com/fff-nvim/fff-core/internal/vcs"
	"github.com/fff-nvim/fff-core/internal/watcher"
	"github.com/fff-nvim/fff-core/pkg/location"
)

// Picker is one project's live file index, watcher, and VCS binding.
type Picker struct {
	root   string
	cfg    *config.Config
	index  *fileindex.Index
	vcs    vcs.Provider
	pool   *alloc.ScratchPool
	w      *watcher.Watcher

	mu      sync.Mutex
	started bool
}

// Init builds a Picker for root: loads configuration, performs the
// initial directory scan, opens the VCS provider if root is inside a
// repository, and starts the background watcher unless
// config.Index.WatchMode is false.
func Init(root string) (*Picker, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.NewInitError("fff: resolve root", err)
	}

	cfg, err := config.Load(absRoot)
	if err != nil {
		return nil, errors.NewInitError("fff: load config", err)
	}

	p := &Picker{
		root:  absRoot,
		cfg:   cfg,
		index: fileindex.New(),
		pool:  alloc.NewScratchPool(),
	}

	if provider, err := vcs.Open(absRoot); err == nil {
		p.vcs = provider
	} else {
		debug.Log("FFF", "no VCS repository at %s: %v", absRoot, err)
	}

	if err := p.scan(context.Background()); err != nil {
		return nil, err
	}

	if cfg.Index.WatchMode {
		w, err := watcher.New(absRoot, cfg, p.index, p.vcs, p.rescan, p.refreshGitStatus)
		if err != nil {
			return nil, err
		}
		if err := w.Start(context.Background()); err != nil {
			return nil, err
		}
		p.w = w
	}

	p.mu.Lock()
	p.started = true
	p.mu.Unlock()

	return p, nil
}

// Stop halts the watcher. Safe to call more than once.
func (p *Picker) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return
	}
	if p.w != nil {
		p.w.Stop()
	}
	p.started = false
}

// IsScanActive reports whether a full rescan is currently running.
func (p *Picker) IsScanActive() bool {
	return p.index.IsScanActive()
}

// GetFiles returns every currently indexed file. The returned slice is
// shared and must not be mutated.
func (p *Picker) GetFiles() []*types.FileItem {
	return p.index.GetFiles()
}

// RefreshGitStatus forces a full VCS status refresh across every
// indexed file.
func (p *Picker) RefreshGitStatus(ctx context.Context) error {
	return p.refreshGitStatus(ctx)
}

// FuzzySearch parses any trailing file:line[:col] location suffix off
// query, runs the scoring engine over the current index snapshot, and
// returns the ranked results plus the parsed Location (nil if the
// query had none). maxResults and maxThreads fall back to the loaded
// configuration when zero or negative; reverseOrder flips the ranking
// so the best match sits last, for prompts rendered at the bottom of
// the screen.
func (p *Picker) FuzzySearch(query string, maxResults, maxThreads int, currentFile string, reverseOrder bool) *types.SearchResult {
	bareQuery, loc := location.Parse(query)

	context := &types.ScoringContext{
		Query:        bareQuery,
		CurrentFile:  currentFile,
		MaxResults:   maxResults,
		MaxTypos:     p.cfg.Search.MaxTypos,
		MaxThreads:   maxThreads,
		ReverseOrder: reverseOrder,
	}
	if context.MaxResults <= 0 {
		context.MaxResults = p.cfg.Search.MaxResults
	}
	if context.MaxThreads <= 0 {
		context.MaxThreads = p.cfg.Search.MaxThreads
	}

	files := p.index.GetFiles()
	items, scores, totalMatched := scoring.MatchAndScoreFiles(p.pool, "fuzzy-search", files, context)

	return &types.SearchResult{
		Items:        items,
		Scores:       scores,
		TotalMatched: totalMatched,
		TotalFiles:   len(files),
		Location:     loc,
	}
}

// scan walks root, builds a FileItem for every included path, and
// replaces the index contents wholesale.
func (p *Picker) scan(ctx context.Context) error {
	p.index.SetScanActive(true)
	defer p.index.SetScanActive(false)

	var items []*types.FileItem
	err := filepath.Walk(p.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if shouldSkipDir(info.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		isSymlink := info.Mode()&os.ModeSymlink != 0
		if !info.Mode().IsRegular() && !(isSymlink && p.cfg.Index.FollowSymlinks) {
			return nil
		}
		if p.cfg.Index.MaxFileSize > 0 && info.Size() > p.cfg.Index.MaxFileSize {
			return nil
		}

		rel, err := filepath.Rel(p.root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if !p.cfg.MatchesInclude(rel) {
			return nil
		}
		if p.cfg.Index.RespectGitignore && p.vcs != nil && p.vcs.IsPathIgnored(path) {
			return nil
		}

		name := filepath.Base(rel)
		items = append(items, &types.FileItem{
			Path:              path,
			RelativePath:      rel,
			RelativePathLower: strings.ToLower(rel),
			FileName:          name,
			FileNameLower:     strings.ToLower(name),
			Size:              info.Size(),
			Modified:          info.ModTime().Unix(),
		})
		return nil
	})
	if err != nil {
		return errors.NewInitError("fff: scan", err)
	}

	p.index.ReplaceAll(items)

	if p.vcs != nil {
		_ = p.refreshGitStatus(ctx)
	}
	return nil
}

func (p *Picker) rescan(ctx context.Context) error {
	return p.scan(ctx)
}

func (p *Picker) refreshGitStatus(ctx context.Context) error {
	if p.vcs == nil {
		return nil
	}
	files := p.index.GetFiles()
	relPaths := make([]string, len(files))
	for i, f := range files {
		relPaths[i] = f.RelativePath
	}
	statuses := p.vcs.StatusForPaths(relPaths)
	p.index.UpdateGitStatuses(statuses)
	return nil
}

func shouldSkipDir(name string) bool {
	return name == ".git" || name == "node_modules"
}

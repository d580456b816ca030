// Package config loads project configuration through a cascade:
// .fff.kdl, then .fff.toml, then hardcoded defaults. The surface is
// small on purpose — include/exclude globs, watch toggles, and the
// search defaults (max results, max typos, max threads).
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	toml "github.com/pelletier/go-toml/v2"
	kdl "github.com/sblinch/kdl-go"
)

// Config holds everything the facade and watcher need to run.
type Config struct {
	Root string `toml:"-"`

	Index   Index   `toml:"index"`
	Search  Search  `toml:"search"`
	Include []string `toml:"include"`
	Exclude []string `toml:"exclude"`
}

type Index struct {
	FollowSymlinks   bool `toml:"follow_symlinks"`
	RespectGitignore bool `toml:"respect_gitignore"`
	WatchMode        bool `toml:"watch_mode"`

	// WatchDebounceMs and WatchTickMs tune the watcher's batching; zero
	// means the built-in defaults (500ms window, 125ms tick).
	WatchDebounceMs int `toml:"watch_debounce_ms"`
	WatchTickMs     int `toml:"watch_tick_ms"`

	// MaxFileSize is the largest file, in bytes, the index will admit.
	// Zero disables the cap.
	MaxFileSize int64 `toml:"max_file_size"`
}

type Search struct {
	MaxResults int    `toml:"max_results"`
	MaxTypos   uint16 `toml:"max_typos"`
	MaxThreads int    `toml:"max_threads"`
}

// Default returns the hardcoded configuration a project gets when
// neither .fff.kdl nor .fff.toml exists.
func Default(root string) *Config {
	return &Config{
		Root: root,
		Index: Index{
			FollowSymlinks:   false,
			RespectGitignore: true,
			WatchMode:        true,
			WatchDebounceMs:  500,
			WatchTickMs:      125,
			MaxFileSize:      10 << 20,
		},
		Search: Search{
			MaxResults: 100,
			MaxTypos:   2,
			MaxThreads: max(1, runtime.NumCPU()-1),
		},
		Include: nil,
		Exclude: defaultExclusions(),
	}
}

// Load resolves the cascade for root: .fff.kdl, else .fff.toml, else
// Default(root). A malformed config file is a genuine InitError
// (callers should not silently index the wrong thing); a missing file
// just continues the cascade.
func Load(root string) (*Config, error) {
	if cfg, err := loadKDL(root); err != nil {
		return nil, err
	} else if cfg != nil {
		return cfg, nil
	}

	if cfg, err := loadTOML(root); err != nil {
		return nil, err
	} else if cfg != nil {
		return cfg, nil
	}

	return Default(root), nil
}

func loadTOML(root string) (*Config, error) {
	path := filepath.Join(root, ".fff.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	cfg := Default(root)
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.Root = root
	return cfg, nil
}

func loadKDL(root string) (*Config, error) {
	path := filepath.Join(root, ".fff.kdl")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	doc, err := kdl.Parse(strings.NewReader(string(data)))
	if err != nil {
		return nil, err
	}

	cfg := Default(root)
	for _, n := range doc.Nodes {
		if n.Name == nil {
			continue
		}
		switch n.Name.NodeNameString() {
		case "index":
			applyIndexNode(cfg, n)
		case "search":
			applySearchNode(cfg, n)
		case "include":
			cfg.Include = append(cfg.Include, kdlStringArgs(n)...)
		case "exclude":
			cfg.Exclude = kdlStringArgs(n)
		}
	}
	return cfg, nil
}

// MatchesInclude reports whether relPath should be indexed: it must
// either have no Include patterns configured (meaning "everything"),
// or match at least one; and it must not match any Exclude pattern.
func (c *Config) MatchesInclude(relPath string) bool {
	for _, pattern := range c.Exclude {
		if ok, _ := doublestar.Match(pattern, relPath); ok {
			return false
		}
	}
	if len(c.Include) == 0 {
		return true
	}
	for _, pattern := range c.Include {
		if ok, _ := doublestar.Match(pattern, relPath); ok {
			return true
		}
	}
	return false
}

func defaultExclusions() []string {
	return []string{
		"**/.git/**",
		"**/node_modules/**",
		"**/vendor/**",
		"**/target/**",
		"**/dist/**",
		"**/build/**",
		"**/.cache/**",
		"**/__pycache__/**",
		"**/*.pyc",
		"**/.DS_Store",
	}
}

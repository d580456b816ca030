package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.Root)
	assert.NotEmpty(t, cfg.Exclude)
	assert.True(t, cfg.Index.RespectGitignore)
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	content := "include = [\"**/*.go\"]\nexclude = [\"**/testdata/**\"]\n\n[index]\nwatch_mode = false\n\n[search]\nmax_results = 42\nmax_typos = 3\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".fff.toml"), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.False(t, cfg.Index.WatchMode)
	assert.Equal(t, 42, cfg.Search.MaxResults)
	assert.Equal(t, uint16(3), cfg.Search.MaxTypos)
	assert.Equal(t, []string{"**/*.go"}, cfg.Include)
	assert.Equal(t, []string{"**/testdata/**"}, cfg.Exclude)
}

func TestLoadKDLTakesPrecedenceOverTOML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".fff.toml"), []byte("[search]\nmax_results = 1\n"), 0o644))
	kdlContent := "search {\n  max_results 99\n}\ninclude \"**/*.go\" \"**/*.md\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".fff.kdl"), []byte(kdlContent), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 99, cfg.Search.MaxResults)
	assert.ElementsMatch(t, []string{"**/*.go", "**/*.md"}, cfg.Include)
}

func TestMatchesInclude(t *testing.T) {
	cfg := Default("/project")
	cfg.Include = []string{"**/*.go"}
	cfg.Exclude = []string{"**/vendor/**"}

	assert.True(t, cfg.MatchesInclude("internal/scoring/scoring.go"))
	assert.False(t, cfg.MatchesInclude("README.md"))
	assert.False(t, cfg.MatchesInclude("vendor/lib/pkg.go"))
}

func TestMatchesIncludeEmptyIncludeMeansEverything(t *testing.T) {
	cfg := Default("/project")
	cfg.Include = nil
	cfg.Exclude = []string{"**/*.md"}

	assert.True(t, cfg.MatchesInclude("main.go"))
	assert.False(t, cfg.MatchesInclude("README.md"))
}

func TestDefaultWatcherTuning(t *testing.T) {
	cfg := Default("/project")
	assert.Equal(t, 500, cfg.Index.WatchDebounceMs)
	assert.Equal(t, 125, cfg.Index.WatchTickMs)
	assert.Equal(t, int64(10<<20), cfg.Index.MaxFileSize)
}

func TestLoadTOMLWatcherTuning(t *testing.T) {
	dir := t.TempDir()
	content := "[index]\nwatch_debounce_ms = 250\nwatch_tick_ms = 60\nmax_file_size = 4096\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".fff.toml"), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.Index.WatchDebounceMs)
	assert.Equal(t, 60, cfg.Index.WatchTickMs)
	assert.Equal(t, int64(4096), cfg.Index.MaxFileSize)
}

func TestLoadKDLWatcherTuning(t *testing.T) {
	dir := t.TempDir()
	kdlContent := "index {\n  watch_debounce_ms 250\n  watch_tick_ms 60\n  max_file_size 4096\n}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".fff.kdl"), []byte(kdlContent), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.Index.WatchDebounceMs)
	assert.Equal(t, 60, cfg.Index.WatchTickMs)
	assert.Equal(t, int64(4096), cfg.Index.MaxFileSize)
}

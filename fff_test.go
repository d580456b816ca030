package fff

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestInitScansAndFuzzySearchFinds(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".fff.toml", "[index]\nwatch_mode = false\n")
	writeFile(t, dir, "internal/scoring/scoring.go", "package scoring\n")
	writeFile(t, dir, "README.md", "# readme\n")

	picker, err := Init(dir)
	require.NoError(t, err)
	t.Cleanup(picker.Stop)

	files := picker.GetFiles()
	assert.Len(t, files, 3) // scoring.go, README.md, .fff.toml

	result := picker.FuzzySearch("scoring", 10, 2, "", false)
	require.NotEmpty(t, result.Items)
	assert.Equal(t, "internal/scoring/scoring.go", result.Items[0].RelativePath)
}

func TestFuzzySearchParsesLocationSuffix(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".fff.toml", "[index]\nwatch_mode = false\n")
	writeFile(t, dir, "main.go", "package main\n")

	picker, err := Init(dir)
	require.NoError(t, err)
	t.Cleanup(picker.Stop)

	result := picker.FuzzySearch("main.go:42:8", 10, 2, "", false)
	require.NotNil(t, result.Location)
	assert.Equal(t, int32(42), result.Location.Line)
	assert.Equal(t, int32(8), result.Location.Col)
}

func TestIsScanActiveFalseAfterInit(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".fff.toml", "[index]\nwatch_mode = false\n")

	picker, err := Init(dir)
	require.NoError(t, err)
	t.Cleanup(picker.Stop)

	assert.False(t, picker.IsScanActive())
}

func TestFuzzySearchReverseOrderPutsBestMatchLast(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".fff.toml", "[index]\nwatch_mode = false\n")
	writeFile(t, dir, "internal/watcher/watcher.go", "package watcher\n")
	writeFile(t, dir, "watcher_notes.txt", "notes\n")

	picker, err := Init(dir)
	require.NoError(t, err)
	t.Cleanup(picker.Stop)

	forward := picker.FuzzySearch("watcher", 10, 2, "", false)
	reversed := picker.FuzzySearch("watcher", 10, 2, "", true)

	require.NotEmpty(t, forward.Items)
	require.Equal(t, len(forward.Items), len(reversed.Items))
	assert.Equal(t, forward.Items[0].RelativePath, reversed.Items[len(reversed.Items)-1].RelativePath)
}

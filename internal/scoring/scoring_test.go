package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fff-nvim/fff-core/internal/alloc"
	"github.com/fff-nvim/fff-core/internal/types"
)

func file(path string, totalFrecency int64) *types.FileItem {
	name := path
	if idx := lastSlash(path); idx >= 0 {
		name = path[idx+1:]
	}
	return &types.FileItem{
		Path:                      path,
		RelativePath:              path,
		RelativePathLower:         toLower(path),
		FileName:                  name,
		FileNameLower:             toLower(name),
		TotalFrecencyScore:        totalFrecency,
	}
}

func lastSlash(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' {
			return i
		}
	}
	return -1
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func TestMatchAndScoreFilesShortQueryUsesFrecencyOnly(t *testing.T) {
	pool := alloc.NewScratchPool()
	files := []*types.FileItem{
		{Path: "a", RelativePath: "a", AccessFrecencyScore: 10, ModificationFrecencyScore: 2},
		{Path: "b", RelativePath: "b", AccessFrecencyScore: 1, ModificationFrecencyScore: 1},
	}
	ctx := &types.ScoringContext{Query: "a", MaxResults: 10}

	items, scores, total := MatchAndScoreFiles(pool, "w1", files, ctx)

	require.Equal(t, 2, total)
	require.Len(t, items, 2)
	assert.Equal(t, types.MatchTypeFrecency, scores[0].MatchType)
	assert.Equal(t, "a", items[0].RelativePath, "higher frecency file ranks first")
}

func TestMatchAndScoreFilesExactFilenameBeatsPathOnly(t *testing.T) {
	pool := alloc.NewScratchPool()
	files := []*types.FileItem{
		file("internal/scoring/scoring.go", 0),
		file("internal/other/unrelated.go", 0),
	}
	ctx := &types.ScoringContext{Query: "scoring", MaxResults: 10, MaxTypos: 1, MaxThreads: 2}

	items, scores, total := MatchAndScoreFiles(pool, "w2", files, ctx)

	require.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "internal/scoring/scoring.go", items[0].RelativePath)
	assert.Equal(t, types.MatchTypeExactFilename, scores[0].MatchType)
	assert.True(t, scores[0].ExactMatch)
}

func TestMatchAndScoreFilesSpecialEntryPointBonus(t *testing.T) {
	pool := alloc.NewScratchPool()
	files := []*types.FileItem{
		file("cmd/fffbench/main.go", 0),
	}
	ctx := &types.ScoringContext{Query: "fffbench", MaxResults: 10, MaxTypos: 1, MaxThreads: 2}

	_, scores, _ := MatchAndScoreFiles(pool, "w3", files, ctx)
	require.Len(t, scores, 1)
	assert.Greater(t, scores[0].SpecialFilenameBonus, int32(0))
}

func TestMatchAndScoreFilesCurrentFilePenalty(t *testing.T) {
	pool := alloc.NewScratchPool()
	files := []*types.FileItem{
		file("internal/scoring/scoring.go", 0),
	}
	ctx := &types.ScoringContext{Query: "scoring", CurrentFile: "internal/scoring/scoring.go", MaxResults: 10, MaxTypos: 1, MaxThreads: 2}

	_, scores, _ := MatchAndScoreFiles(pool, "w4", files, ctx)
	require.Len(t, scores, 1)
	assert.Less(t, scores[0].CurrentFilePenalty, int32(0))
}

func TestMatchAndScoreFilesReverseOrderAndTruncation(t *testing.T) {
	pool := alloc.NewScratchPool()
	files := []*types.FileItem{
		{Path: "a", RelativePath: "a", AccessFrecencyScore: 30},
		{Path: "b", RelativePath: "b", AccessFrecencyScore: 20},
		{Path: "c", RelativePath: "c", AccessFrecencyScore: 10},
	}
	ctx := &types.ScoringContext{Query: "x", MaxResults: 2, ReverseOrder: true}

	items, _, total := MatchAndScoreFiles(pool, "w5", files, ctx)
	require.Equal(t, 3, total)
	require.Len(t, items, 2)
	assert.Equal(t, "b", items[0].RelativePath, "reverse order sorts ascending then drops the lowest-scoring entries to fit max results")
	assert.Equal(t, "a", items[1].RelativePath)
}

func scored(total int32, modified int64) scoredFile {
	return scoredFile{
		file:  &types.FileItem{Modified: modified},
		score: types.Score{Total: total},
	}
}

func totals(scores []types.Score) []int32 {
	out := make([]int32, len(scores))
	for i, s := range scores {
		out[i] = s.Total
	}
	return out
}

func TestSortAndTruncateDescendingPartitions(t *testing.T) {
	pool := alloc.NewScratchPool()
	in := []int32{100, 200, 50, 300, 150, 250, 80, 180, 120, 90}
	results := make([]scoredFile, len(in))
	for i, v := range in {
		results[i] = scored(v, 0)
	}
	ctx := &types.ScoringContext{MaxResults: 3}

	_, scores, total := sortAndTruncate(pool, "sort-desc", results, ctx)

	assert.Equal(t, 10, total)
	assert.Equal(t, []int32{300, 250, 200}, totals(scores))
}

func TestSortAndTruncateAscendingPartitions(t *testing.T) {
	pool := alloc.NewScratchPool()
	in := []int32{100, 200, 50, 300, 150, 250, 80, 180, 120, 90}
	results := make([]scoredFile, len(in))
	for i, v := range in {
		results[i] = scored(v, 0)
	}
	ctx := &types.ScoringContext{MaxResults: 3, ReverseOrder: true}

	_, scores, total := sortAndTruncate(pool, "sort-asc", results, ctx)

	assert.Equal(t, 10, total)
	assert.Equal(t, []int32{200, 250, 300}, totals(scores))
}

func TestSortAndTruncateTieBreakByModified(t *testing.T) {
	pool := alloc.NewScratchPool()
	results := []scoredFile{
		scored(100, 5000),
		scored(100, 8000),
		scored(100, 3000),
		scored(200, 1000),
		scored(200, 9000),
	}
	ctx := &types.ScoringContext{MaxResults: 3}

	items, scores, _ := sortAndTruncate(pool, "sort-ties", results, ctx)

	require.Len(t, items, 3)
	assert.Equal(t, []int32{200, 200, 100}, totals(scores))
	assert.Equal(t, int64(9000), items[0].Modified, "newer wins the tie at equal totals")
	assert.Equal(t, int64(1000), items[1].Modified)
	assert.Equal(t, int64(8000), items[2].Modified)
}

func TestFrecencyOnlyScoresKeepOtherFieldsZero(t *testing.T) {
	pool := alloc.NewScratchPool()
	files := []*types.FileItem{
		{Path: "a", RelativePath: "a", AccessFrecencyScore: 3, ModificationFrecencyScore: 2},
	}
	ctx := &types.ScoringContext{Query: "", MaxResults: 5}

	_, scores, _ := MatchAndScoreFiles(pool, "w-frec", files, ctx)

	require.Len(t, scores, 1)
	assert.Equal(t, int32(11), scores[0].Total, "access + 4*modification")
	assert.Equal(t, types.MatchTypeFrecency, scores[0].MatchType)
	assert.Zero(t, scores[0].BaseScore)
	assert.Zero(t, scores[0].FilenameBonus)
	assert.Zero(t, scores[0].FrecencyBoost)
	assert.Zero(t, scores[0].DistancePenalty)
}

func TestSeparatorQueryNeverClassifiesAsFilenameMatch(t *testing.T) {
	pool := alloc.NewScratchPool()
	files := []*types.FileItem{
		file("internal/scoring/scoring.go", 0),
		file("internal/watcher/watcher.go", 0),
	}
	ctx := &types.ScoringContext{Query: "internal/scoring", MaxResults: 10, MaxTypos: 1, MaxThreads: 2}

	_, scores, _ := MatchAndScoreFiles(pool, "w-sep", files, ctx)

	require.NotEmpty(t, scores)
	for _, s := range scores {
		assert.NotEqual(t, types.MatchTypeExactFilename, s.MatchType)
		assert.NotEqual(t, types.MatchTypeFuzzyFilename, s.MatchType)
	}
}

func TestSelectNthPartitionsAroundIndex(t *testing.T) {
	in := []int32{7, 1, 9, 4, 8, 2, 6, 3, 5, 0}
	results := make([]scoredFile, len(in))
	for i, v := range in {
		results[i] = scored(v, 0)
	}
	less := resultLess(true)

	selectNth(results, 6, less)

	for i := 0; i < 6; i++ {
		assert.LessOrEqual(t, results[i].score.Total, results[6].score.Total)
	}
	for i := 7; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i].score.Total, results[6].score.Total)
	}
}

// Package scoring implements the ranking engine: it routes a query
// either to the full fuzzy path+filename composition or to a
// frecency-only ranking, then sorts and truncates the result set using
// a per-worker scratch buffer from internal/alloc.
package scoring

import (
	"sort"
	"strings"

	"github.com/fff-nvim/fff-core/internal/alloc"
	"github.com/fff-nvim/fff-core/internal/matcher"
	"github.com/fff-nvim/fff-core/internal/types"
	"github.com/fff-nvim/fff-core/pkg/pathutil"
)

// parallelThreshold is the haystack/list size above which the filename
// phase switches from the sequential matcher and the scratch-buffer
// stable sort to their parallel/unstable counterparts.
const parallelThreshold = 1000

// specialEntryPointFiles mirrors the closed set of filenames that get a
// small bonus when nothing else matched their name — module/package
// entry points across the languages this tool is likely to index.
var specialEntryPointFiles = map[string]bool{
	"mod.rs": true, "lib.rs": true, "main.rs": true,
	"index.js": true, "index.jsx": true, "index.ts": true, "index.tsx": true,
	"index.mjs": true, "index.cjs": true, "index.vue": true,
	"__init__.py": true, "__main__.py": true,
	"main.go": true, "main.c": true,
	"index.php": true, "main.rb": true, "index.rb": true,
}

func isSpecialEntryPointFile(filename string) bool {
	return specialEntryPointFiles[filename]
}

// MatchAndScoreFiles is the C4 entry point: routes by query length,
// composes path/filename/frecency/distance/current-file scores, sorts,
// and truncates to context.MaxResults.
func MatchAndScoreFiles(pool *alloc.ScratchPool, workerToken string, files []*types.FileItem, context *types.ScoringContext) ([]*types.FileItem, []types.Score, int) {
	if len(context.Query) < 2 {
		return scoreAllByFrecency(pool, workerToken, files, context)
	}
	if len(files) == 0 {
		return nil, nil, 0
	}

	hasUppercase := hasUppercaseLetter(context.Query)
	opts := matcher.Options{
		Prefilter:           true,
		MaxTypos:            context.MaxTypos,
		CaseSensitive:       hasUppercase,
		CapitalizationBonus: capitalizationBonus(hasUppercase),
		MatchingCaseBonus:   matchingCaseBonus(hasUppercase),
	}

	queryHasSeparator := strings.ContainsRune(context.Query, '/') || strings.ContainsRune(context.Query, '\\')

	haystack := make([]string, len(files))
	for i, f := range files {
		haystack[i] = f.RelativePathLower
	}

	pathMatches := matcher.MatchList(context.Query, haystack, opts)

	var filenameMatches []matcher.Match
	if !queryHasSeparator {
		filenameHaystack := make([]string, len(pathMatches))
		for i, m := range pathMatches {
			filenameHaystack[i] = files[m.Index].FileNameLower
		}
		if len(filenameHaystack) > parallelThreshold {
			filenameMatches = matcher.MatchListParallel(context.Query, filenameHaystack, opts, context.MaxThreads)
		} else {
			filenameMatches = matcher.MatchList(context.Query, filenameHaystack, opts)
		}
		sortMatchesByIndex(pool, workerToken, filenameMatches)
	}

	results := make([]scoredFile, 0, len(pathMatches))
	nextFilenameMatch := 0

	for idx, pathMatch := range pathMatches {
		file := files[pathMatch.Index]

		baseScore := pathMatch.Score
		frecencyBoost := saturatingMulDiv100(baseScore, int32(file.TotalFrecencyScore))
		distancePenalty := pathutil.DistancePenalty(context.CurrentFile, file.RelativePath)

		var filenameMatch *matcher.Match
		if nextFilenameMatch < len(filenameMatches) && filenameMatches[nextFilenameMatch].Index == int32(idx) {
			filenameMatch = &filenameMatches[nextFilenameMatch]
			nextFilenameMatch++
		}

		hasSpecialFilenameBonus := false
		var filenameBonus int32
		var matchType types.MatchType

		switch {
		case filenameMatch != nil && filenameMatch.Exact:
			// 40% bonus for an exact filename match.
			filenameBonus = filenameMatch.Score / 5 * 2
			matchType = types.MatchTypeExactFilename

		case filenameMatch != nil && filenameMatch.Score >= pathMatch.Score && !queryHasSeparator:
			// Fuzzy filename match promotes the base score; the bonus is
			// capped at 30.
			baseScore = filenameMatch.Score
			bonus := baseScore / 6
			if bonus > 30 {
				bonus = 30
			}
			filenameBonus = bonus
			matchType = types.MatchTypeFuzzyFilename

		case filenameMatch == nil && isSpecialEntryPointFile(file.FileName):
			// 5% bonus for a special entry-point file (mod.rs, index.ts,
			// __init__.py, ...), well below a real filename match.
			hasSpecialFilenameBonus = true
			filenameBonus = baseScore * 5 / 100
			matchType = types.MatchTypeFuzzyPath

		default:
			matchType = types.MatchTypeFuzzyPath
		}

		currentFilePenalty := currentFilePenalty(file, baseScore, context)

		total := saturatingAdd(baseScore, frecencyBoost, distancePenalty, filenameBonus, currentFilePenalty)

		specialBonus := int32(0)
		if hasSpecialFilenameBonus {
			specialBonus = filenameBonus
		}

		results = append(results, scoredFile{
			file: file,
			score: types.Score{
				Total:                total,
				BaseScore:            baseScore,
				FilenameBonus:        filenameBonus,
				SpecialFilenameBonus: specialBonus,
				FrecencyBoost:        frecencyBoost,
				DistancePenalty:      distancePenalty,
				CurrentFilePenalty:   currentFilePenalty,
				ExactMatch:           pathMatch.Exact || (filenameMatch != nil && filenameMatch.Exact),
				MatchType:            matchType,
			},
		})
	}

	return sortAndTruncate(pool, workerToken, results, context)
}

// scoreAllByFrecency ranks every file by access frecency plus a 4x
// weighted modification frecency, with only the current-file penalty
// applied on top; every other score component stays zero.
func scoreAllByFrecency(pool *alloc.ScratchPool, workerToken string, files []*types.FileItem, context *types.ScoringContext) ([]*types.FileItem, []types.Score, int) {
	results := make([]scoredFile, len(files))
	for i, file := range files {
		totalFrecency := saturatingAdd(int32(file.AccessFrecencyScore), saturatingMul(int32(file.ModificationFrecencyScore), 4))
		penalty := currentFilePenalty(file, totalFrecency, context)
		total := saturatingAdd(totalFrecency, penalty)

		results[i] = scoredFile{
			file: file,
			score: types.Score{
				Total:              total,
				CurrentFilePenalty: penalty,
				MatchType:          types.MatchTypeFrecency,
			},
		}
	}
	return sortAndTruncate(pool, workerToken, results, context)
}

func currentFilePenalty(file *types.FileItem, baseScore int32, context *types.ScoringContext) int32 {
	if context.CurrentFile == "" || file.RelativePath != context.CurrentFile {
		return 0
	}
	if file.GitStatus.IsModified() {
		return -(baseScore / 2)
	}
	return -baseScore
}

type scoredFile struct {
	file  *types.FileItem
	score types.Score
}

// sortAndTruncate orders results by total score (ties broken by
// Modified, newest first) or the reverse when context.ReverseOrder is
// set, then truncates to context.MaxResults.
//
// When the candidate set is more than twice the requested size, a full
// sort would waste work on entries that are about to be dropped; the
// slice is first partitioned around the cut point (quickselect, no
// ordering inside the halves) and only the surviving half gets the
// stable sort.
func sortAndTruncate(pool *alloc.ScratchPool, workerToken string, results []scoredFile, context *types.ScoringContext) ([]*types.FileItem, []types.Score, int) {
	totalMatched := len(results)
	k := context.MaxResults
	n := len(results)
	if k <= 0 {
		return nil, nil, totalMatched
	}

	cmp := resultLess(context.ReverseOrder)

	if context.ReverseOrder {
		if n > 2*k {
			// Ascending: the top-k live at the tail after partitioning
			// around n-k; only they need ordering.
			selectNth(results, n-k, cmp)
			results = results[n-k:]
		}
	} else if n > 2*k {
		selectNth(results, k-1, cmp)
		results = results[:k]
	}

	pool.SortWithBuffer(workerToken, len(results),
		func(i, j int) bool { return cmp(results[i], results[j]) },
		func(i, j int) { results[i], results[j] = results[j], results[i] })

	if len(results) > k {
		if context.ReverseOrder {
			results = results[len(results)-k:]
		} else {
			results = results[:k]
		}
	}

	items := make([]*types.FileItem, len(results))
	scores := make([]types.Score, len(results))
	for i, r := range results {
		items[i] = r.file
		scores[i] = r.score
	}
	return items, scores, totalMatched
}

// resultLess builds the strict-weak ordering over results: total score
// first, file modification time as the tie-breaker. Descending mode
// prefers newer files on ties; ascending mode reverses the tie-breaker
// too, so truncating the front drops the same entries descending mode
// would.
func resultLess(reverse bool) func(a, b scoredFile) bool {
	if reverse {
		return func(a, b scoredFile) bool {
			if a.score.Total != b.score.Total {
				return a.score.Total < b.score.Total
			}
			return a.file.Modified < b.file.Modified
		}
	}
	return func(a, b scoredFile) bool {
		if a.score.Total != b.score.Total {
			return a.score.Total > b.score.Total
		}
		return a.file.Modified > b.file.Modified
	}
}

// selectNth partially orders results so that results[nth] holds the
// element a full sort under less would put there, everything before it
// compares no greater, and everything after compares no smaller.
// Hoare-style quickselect with a middle pivot.
func selectNth(results []scoredFile, nth int, less func(a, b scoredFile) bool) {
	lo, hi := 0, len(results)-1
	for lo < hi {
		pivot := results[(lo+hi)/2]
		i, j := lo, hi
		for i <= j {
			for less(results[i], pivot) {
				i++
			}
			for less(pivot, results[j]) {
				j--
			}
			if i <= j {
				results[i], results[j] = results[j], results[i]
				i++
				j--
			}
		}
		if nth <= j {
			hi = j
		} else if nth >= i {
			lo = i
		} else {
			return
		}
	}
}

// sortMatchesByIndex restores haystack order over the filename matches
// so the cursor walk in the composition loop stays monotone. Past
// parallelThreshold the cheaper unstable sort is used; index values are
// unique, so stability cannot change the outcome there.
func sortMatchesByIndex(pool *alloc.ScratchPool, workerToken string, matches []matcher.Match) {
	if len(matches) > parallelThreshold {
		sort.Slice(matches, func(i, j int) bool { return matches[i].Index < matches[j].Index })
		return
	}
	pool.SortWithBuffer(workerToken+":filename-sort", len(matches),
		func(i, j int) bool { return matches[i].Index < matches[j].Index },
		func(i, j int) { matches[i], matches[j] = matches[j], matches[i] })
}

func hasUppercaseLetter(s string) bool {
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			return true
		}
	}
	return false
}

func capitalizationBonus(hasUppercase bool) int32 {
	if hasUppercase {
		return 8
	}
	return 0
}

func matchingCaseBonus(hasUppercase bool) int32 {
	if hasUppercase {
		return 4
	}
	return 0
}

func saturatingAdd(vals ...int32) int32 {
	var total int64
	for _, v := range vals {
		total += int64(v)
	}
	return clampInt32(total)
}

func saturatingMul(a, b int32) int32 {
	return clampInt32(int64(a) * int64(b))
}

func saturatingMulDiv100(a, b int32) int32 {
	return clampInt32(int64(a) * int64(b) / 100)
}

func clampInt32(v int64) int32 {
	const maxInt32 = int64(1<<31 - 1)
	const minInt32 = -int64(1 << 31)
	if v > maxInt32 {
		return 1<<31 - 1
	}
	if v < minInt32 {
		return -(1 << 31)
	}
	return int32(v)
}

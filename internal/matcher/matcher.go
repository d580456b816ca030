// Package matcher implements the string-matching primitive the scoring
// engine builds on: MatchList and MatchListParallel score every
// haystack entry against a query and return {index, score, exact}
// triples in haystack order. Matching is subsequence-based with a typo
// budget; go-edlib's Levenshtein distance is available as a stricter
// second gate.
package matcher

import (
	"strings"

	"github.com/hbollon/go-edlib"
	"golang.org/x/sync/errgroup"
)

// Options configures one MatchList/MatchListParallel call: a cheap
// prefilter, a typo budget, and the two smart-case bonuses.
type Options struct {
	Prefilter           bool
	MaxTypos            uint16
	CapitalizationBonus int32
	MatchingCaseBonus   int32
	// CaseSensitive enables case-sensitive substring/subsequence testing;
	// the scoring engine sets this when the query contains an uppercase
	// character (smart case).
	CaseSensitive bool
}

// Match is one haystack entry that matched the query.
type Match struct {
	Index int32
	Score int32
	Exact bool
}

const (
	scorePerChar       = 16
	scoreConsecutive    = 8
	scoreBoundary       = 12
	scoreExactBase      = 200
	penaltyPerGap       = 2
	penaltyLeadingGap   = 1
	penaltyPerTypo      = 40
	maxGapPenalty       = 60
	maxLeadingPenalty   = 40
)

// MatchList matches query against every haystack entry sequentially,
// returning one Match per entry that matched (prefilter/typo-budget
// permitting), in haystack order.
func MatchList(query string, haystack []string, opts Options) []Match {
	if query == "" {
		return nil
	}
	out := make([]Match, 0, len(haystack))
	for i, h := range haystack {
		if m, ok := matchOne(query, h, opts); ok {
			m.Index = int32(i)
			out = append(out, m)
		}
	}
	return out
}

// MatchListParallel shards haystack across maxThreads workers. Results
// preserve haystack order: each worker returns matches for its
// contiguous shard, and the shards are concatenated start to end.
func MatchListParallel(query string, haystack []string, opts Options, maxThreads int) []Match {
	if query == "" || len(haystack) == 0 {
		return nil
	}
	if maxThreads < 1 {
		maxThreads = 1
	}
	if maxThreads > len(haystack) {
		maxThreads = len(haystack)
	}

	shardResults := make([][]Match, maxThreads)
	chunk := (len(haystack) + maxThreads - 1) / maxThreads

	var g errgroup.Group
	g.SetLimit(maxThreads)
	for w := 0; w < maxThreads; w++ {
		start := w * chunk
		if start >= len(haystack) {
			break
		}
		end := start + chunk
		if end > len(haystack) {
			end = len(haystack)
		}

		g.Go(func() error {
			local := make([]Match, 0, end-start)
			for i := start; i < end; i++ {
				if m, ok := matchOne(query, haystack[i], opts); ok {
					m.Index = int32(i)
					local = append(local, m)
				}
			}
			shardResults[w] = local
			return nil
		})
	}
	_ = g.Wait()

	total := 0
	for _, s := range shardResults {
		total += len(s)
	}
	out := make([]Match, 0, total)
	for _, s := range shardResults {
		out = append(out, s...)
	}
	return out
}

func matchOne(query, candidate string, opts Options) (Match, bool) {
	if opts.Prefilter && !passesPrefilter(query, candidate, opts.CaseSensitive) {
		return Match{}, false
	}

	if idx, ok := exactSubstring(query, candidate, opts.CaseSensitive); ok {
		score := scoreExactBase + int32(len(query))*scorePerChar - int32(idx)*penaltyLeadingGap
		score += caseBonuses(query, candidate, opts)
		return Match{Score: score, Exact: true}, true
	}

	positions, missing := greedySubsequence(query, candidate, opts.CaseSensitive)
	if missing > int(opts.MaxTypos) {
		return Match{}, false
	}
	if missing > 0 && !typosWithinEditBudget(query, candidate, positions, opts) {
		return Match{}, false
	}

	score := subsequenceScore(positions, len(query)-missing, missing, candidate)
	score += caseBonuses(query, candidate, opts)
	return Match{Score: score, Exact: false}, true
}

// passesPrefilter does a cheap set-membership check: every distinct
// query character (case-folded unless caseSensitive) must appear
// somewhere in candidate. It is a coarse rejection and does not account
// for the typo budget.
func passesPrefilter(query, candidate string, caseSensitive bool) bool {
	if !caseSensitive {
		query = strings.ToLower(query)
		candidate = strings.ToLower(candidate)
	}
	var present [256]bool
	for i := 0; i < len(candidate); i++ {
		present[candidate[i]] = true
	}
	for i := 0; i < len(query); i++ {
		if !present[query[i]] {
			return false
		}
	}
	return true
}

func exactSubstring(query, candidate string, caseSensitive bool) (int, bool) {
	if caseSensitive {
		idx := strings.Index(candidate, query)
		return idx, idx >= 0
	}
	idx := strings.Index(strings.ToLower(candidate), strings.ToLower(query))
	return idx, idx >= 0
}

// greedySubsequence walks candidate left to right, greedily consuming
// the next unmatched query character whenever it matches. It returns
// the matched positions (in candidate) and how many query characters
// were never consumed — the typo count gated against MaxTypos.
func greedySubsequence(query, candidate string, caseSensitive bool) ([]int, int) {
	q, c := query, candidate
	if !caseSensitive {
		q = strings.ToLower(query)
		c = strings.ToLower(candidate)
	}

	positions := make([]int, 0, len(q))
	qi := 0
	for ci := 0; ci < len(c) && qi < len(q); ci++ {
		if c[ci] == q[qi] {
			positions = append(positions, ci)
			qi++
		}
	}
	return positions, len(q) - qi
}

func subsequenceScore(positions []int, matched, missing int, candidate string) int32 {
	if matched == 0 {
		return 0
	}

	score := int32(matched) * scorePerChar

	leadingGap := positions[0]
	lp := int32(leadingGap) * penaltyLeadingGap
	if lp > maxLeadingPenalty {
		lp = maxLeadingPenalty
	}
	score -= lp

	gapPenalty := int32(0)
	for i := 1; i < len(positions); i++ {
		gap := positions[i] - positions[i-1] - 1
		if gap == 0 {
			score += scoreConsecutive
			continue
		}
		gapPenalty += int32(gap) * penaltyPerGap
	}
	if gapPenalty > maxGapPenalty {
		gapPenalty = maxGapPenalty
	}
	score -= gapPenalty

	for _, pos := range positions {
		if pos == 0 || isBoundary(candidate[pos-1]) {
			score += scoreBoundary
		}
	}

	score -= int32(missing) * penaltyPerTypo
	if score < 0 {
		score = 0
	}
	return score
}

func isBoundary(b byte) bool {
	switch b {
	case '/', '\\', '_', '-', '.', ' ':
		return true
	default:
		return false
	}
}

// caseBonuses adds the smart-case flat bonuses the scoring engine
// configured: capitalizationBonus applies whenever smart case is
// active at all; matchingCaseBonus rewards characters in query that
// match candidate with identical case. Against an already-lowercased
// haystack it never fires for the query's uppercase characters.
func caseBonuses(query, candidate string, opts Options) int32 {
	if !opts.CaseSensitive {
		return 0
	}
	bonus := opts.CapitalizationBonus

	n := len(query)
	if n > len(candidate) {
		n = len(candidate)
	}
	for i := 0; i < n; i++ {
		if query[i] == candidate[i] {
			bonus += opts.MatchingCaseBonus
		}
	}
	return bonus
}

// typosWithinEditBudget is the second, stricter gate applied when the
// greedy walk spent typos: the query must be within MaxTypos edits of
// the candidate window the walk actually matched against. The greedy
// count only sees unconsumed characters, so it undercounts
// transpositions; the edit distance over the window catches those.
func typosWithinEditBudget(query, candidate string, positions []int, opts Options) bool {
	if len(positions) == 0 {
		return false
	}
	if !opts.CaseSensitive {
		query = strings.ToLower(query)
		candidate = strings.ToLower(candidate)
	}
	window := candidate[positions[0] : positions[len(positions)-1]+1]
	return LevenshteinGate(query, window, opts.MaxTypos)
}

// LevenshteinGate reports whether the edit distance between query and
// candidate is within maxTypos, using go-edlib's Levenshtein distance.
func LevenshteinGate(query, candidate string, maxTypos uint16) bool {
	return edlib.LevenshteinDistance(query, candidate) <= int(maxTypos)
}

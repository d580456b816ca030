// Package pathutil provides small, pure path-comparison helpers used by
// the scoring engine.
package pathutil

import (
	"path/filepath"
	"strings"
)

// MaxDistancePenalty bounds how negative DistancePenalty can get, so an
// arbitrarily deep current file cannot dominate the final ranking.
const MaxDistancePenalty = -20

// DistancePenalty scores how far candidatePath's directory lies from
// currentFile's directory, as a non-positive number in [-20, 0].
//
// currentFile == "" (no current file) always yields 0. Otherwise the two
// directories are split into path-separator-delimited components; the
// penalty is the negative count of currentFile's directory components
// that lie below the common-prefix ancestor, clamped to -20.
func DistancePenalty(currentFile, candidatePath string) int32 {
	if currentFile == "" {
		return 0
	}

	currentDir := filepath.Dir(currentFile)
	candidateDir := filepath.Dir(candidatePath)

	if currentDir == candidateDir {
		return 0
	}

	currentParts := splitNonEmpty(currentDir)
	candidateParts := splitNonEmpty(candidateDir)

	common := commonPrefixLen(currentParts, candidateParts)
	depth := len(currentParts) - common

	if depth <= 0 {
		return 0
	}

	penalty := int32(-depth)
	if penalty < MaxDistancePenalty {
		return MaxDistancePenalty
	}
	return penalty
}

func splitNonEmpty(dir string) []string {
	if dir == "." {
		return nil
	}
	raw := strings.Split(dir, string(filepath.Separator))
	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func commonPrefixLen(a, b []string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

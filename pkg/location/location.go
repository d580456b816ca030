// Package location parses the trailing file:line[:col][-…] or
// file(line[,col]) suffix off a fuzzy-search query, the same grammar an
// editor's "go to file" query box accepts. It never panics on
// malformed input: a parse failure degrades to (query, nil).
package location

import (
	"strconv"
	"strings"

	"github.com/fff-nvim/fff-core/internal/types"
)

// Parse strips a trailing location suffix from query and returns the
// bare path plus the parsed Location, or (query, nil) if no suffix
// could be parsed. Inverted ranges degrade rather than fail: a
// line-line range with end < start becomes Line(start), a same-line
// column range with end < start becomes Line(line).
func Parse(query string) (string, *types.Location) {
	trimmed := strings.TrimRight(query, ":-(")

	if path, loc := parseColonLocation(trimmed); loc != nil {
		return path, loc
	}
	if path, loc := parseVStudioLocation(trimmed); loc != nil {
		return path, loc
	}
	return trimmed, nil
}

func parseColonLocation(query string) (string, *types.Location) {
	path, locPart, ok := splitOnce(query, ':')
	if !ok {
		return "", nil
	}

	if loc := tryParseColonRange(locPart); loc != nil {
		return path, loc
	}
	if loc := tryParseColonPosition(locPart); loc != nil {
		return path, loc
	}
	if line, ok := parseInt(locPart); ok {
		return path, &types.Location{Kind: types.LocationLine, Line: line}
	}

	return "", nil
}

// tryParseColonRange handles the three '-'-containing suffix forms:
// line:col-line:col, line:col-col, and line-line.
func tryParseColonRange(locPart string) *types.Location {
	if !strings.Contains(locPart, "-") {
		return nil
	}

	startPart, endPart, ok := splitOnce(locPart, '-')
	if !ok {
		return nil
	}

	switch {
	case strings.Contains(startPart, ":") && strings.Contains(endPart, ":"):
		return parsePositionRange(startPart, endPart)
	case strings.Contains(startPart, ":"):
		return parseColumnRange(startPart, endPart)
	default:
		return parseSimpleRange(locPart)
	}
}

func parseSimpleRange(locPart string) *types.Location {
	start, end, ok := parseNumberPair(locPart, '-')
	if !ok {
		return nil
	}
	if end < start {
		return &types.Location{Kind: types.LocationLine, Line: start}
	}
	return &types.Location{
		Kind:      types.LocationRange,
		StartLine: start, StartCol: 0,
		EndLine: end, EndCol: 0,
	}
}

func parseColumnRange(startPart, endPart string) *types.Location {
	lineStr, startColStr, ok := splitOnce(startPart, ':')
	if !ok {
		return nil
	}
	line, ok := parseInt(lineStr)
	if !ok {
		return nil
	}
	startCol, ok := parseInt(startColStr)
	if !ok {
		return nil
	}
	endCol, ok := parseInt(endPart)
	if !ok {
		return nil
	}

	if endCol < startCol {
		return &types.Location{Kind: types.LocationLine, Line: line}
	}
	return &types.Location{
		Kind:      types.LocationRange,
		StartLine: line, StartCol: startCol,
		EndLine: line, EndCol: endCol,
	}
}

func parsePositionRange(startPart, endPart string) *types.Location {
	startLine, startCol, ok := parseNumberPair(startPart, ':')
	if !ok {
		return nil
	}
	endLine, endCol, ok := parseNumberPair(endPart, ':')
	if !ok {
		return nil
	}

	if endLine < startLine || (endLine == startLine && endCol < startCol) {
		return &types.Location{Kind: types.LocationPosition, Line: startLine, Col: startCol}
	}
	return &types.Location{
		Kind:      types.LocationRange,
		StartLine: startLine, StartCol: startCol,
		EndLine: endLine, EndCol: endCol,
	}
}

func tryParseColonPosition(locPart string) *types.Location {
	if !strings.Contains(locPart, ":") {
		return nil
	}
	lineStr, colStr, ok := splitOnce(locPart, ':')
	if !ok {
		return nil
	}
	line, ok := parseInt(lineStr)
	if !ok {
		return nil
	}
	col, ok := parseInt(colStr)
	if !ok {
		return nil
	}
	return &types.Location{Kind: types.LocationPosition, Line: line, Col: col}
}

// parseVStudioLocation handles "path(n)" and "path(n,m)".
func parseVStudioLocation(query string) (string, *types.Location) {
	if !strings.HasSuffix(query, ")") {
		return "", nil
	}

	idx := strings.LastIndexByte(query, '(')
	if idx < 0 {
		return "", nil
	}
	path := query[:idx]
	inner := strings.TrimSuffix(query[idx+1:], ")")

	if line, ok := parseInt(inner); ok {
		return path, &types.Location{Kind: types.LocationLine, Line: line}
	}
	if line, col, ok := parseNumberPair(inner, ','); ok {
		return path, &types.Location{Kind: types.LocationPosition, Line: line, Col: col}
	}

	return "", nil
}

// parseNumberPair splits location on the single occurrence of sep and
// parses both halves as integers. More than one occurrence of sep is
// treated as a parse failure (not a range).
func parseNumberPair(s string, sep byte) (int32, int32, bool) {
	first := strings.IndexByte(s, sep)
	if first < 0 {
		return 0, 0, false
	}
	rest := s[first+1:]
	if strings.IndexByte(rest, sep) >= 0 {
		return 0, 0, false
	}
	start, ok := parseInt(s[:first])
	if !ok {
		return 0, 0, false
	}
	end, ok := parseInt(rest)
	if !ok {
		return 0, 0, false
	}
	return start, end, true
}

func splitOnce(s string, sep byte) (string, string, bool) {
	idx := strings.IndexByte(s, sep)
	if idx < 0 {
		return "", "", false
	}
	return s[:idx], s[idx+1:], true
}

func parseInt(s string) (int32, bool) {
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return int32(n), true
}

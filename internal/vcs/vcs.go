// Package vcs defines the Provider contract the watcher and index use
// to query version-control state, plus a default implementation backed
// by go-git. The watcher only ever sees the interface; embedders with
// their own VCS integration can substitute one.
package vcs

import (
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/fff-nvim/fff-core/internal/errors"
	"github.com/fff-nvim/fff-core/internal/types"
)

// Provider is the contract the watcher and facade use to query VCS
// state without depending on a concrete backend; tests supply a fake.
type Provider interface {
	// IsPathIgnored reports whether absPath is excluded by the VCS's
	// ignore rules (.gitignore and friends).
	IsPathIgnored(absPath string) bool

	// StatusForPaths returns the status of each relative path that has
	// one; paths with no entry are omitted (the index leaves their
	// existing status unchanged).
	StatusForPaths(relPaths []string) map[string]types.GitStatus

	// IsDotGitChangeAffectingStatus reports whether a change under the
	// VCS metadata directory (.git/...) should trigger a full status
	// refresh: HEAD, refs, index, packed-refs, sparse-checkout, and
	// merge state files, but not loose objects, logs, or hooks.
	IsDotGitChangeAffectingStatus(absPath string) bool

	// GitDir returns the absolute path to the VCS metadata directory
	// (".git"), or "" if this provider has no repository open.
	GitDir() string
}

// GoGitProvider is the default Provider, backed by go-git against a
// single open worktree.
type GoGitProvider struct {
	repo     *git.Repository
	worktree *git.Worktree
	root     string
	gitDir   string
}

// Open opens the git repository containing root (searching parent
// directories), returning an InitError if none is found or the
// worktree cannot be read.
func Open(root string) (*GoGitProvider, error) {
	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, errors.NewInitError("vcs: open repository", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, errors.NewInitError("vcs: open worktree", err)
	}

	gitDir := filepath.Join(wt.Filesystem.Root(), ".git")

	return &GoGitProvider{repo: repo, worktree: wt, root: wt.Filesystem.Root(), gitDir: gitDir}, nil
}

func (p *GoGitProvider) GitDir() string { return p.gitDir }

func (p *GoGitProvider) IsPathIgnored(absPath string) bool {
	rel, err := filepath.Rel(p.root, absPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}

	patterns, _ := gitignore.ReadPatterns(p.worktree.Filesystem, nil)
	patterns = append(patterns, p.worktree.Excludes...)
	matcher := gitignore.NewMatcher(patterns)

	parts := strings.Split(filepath.ToSlash(rel), "/")
	return matcher.Match(parts, false)
}

func (p *GoGitProvider) StatusForPaths(relPaths []string) map[string]types.GitStatus {
	out := make(map[string]types.GitStatus, len(relPaths))

	status, err := p.worktree.Status()
	if err != nil {
		return out
	}

	wanted := make(map[string]bool, len(relPaths))
	for _, rel := range relPaths {
		wanted[filepath.ToSlash(rel)] = true
	}

	for path, fileStatus := range status {
		slashPath := filepath.ToSlash(path)
		if len(relPaths) > 0 && !wanted[slashPath] {
			continue
		}
		out[slashPath] = classifyStatus(fileStatus)
	}
	return out
}

// classifyStatus maps go-git's Staging/Worktree StatusCode pair onto
// the index-*/working-* taxonomy. A conflict on either side wins;
// otherwise the staging-side classification is preferred when both
// sides report something.
func classifyStatus(fs *git.FileStatus) types.GitStatus {
	if fs.Staging == git.UpdatedButUnmerged || fs.Worktree == git.UpdatedButUnmerged {
		return types.GitStatusConflicted
	}

	if code := classifyStagingCode(fs.Staging); code != types.GitStatusUnknown {
		return code
	}
	if code := classifyWorktreeCode(fs.Worktree); code != types.GitStatusUnknown {
		return code
	}
	return types.GitStatusClean
}

func classifyStagingCode(code git.StatusCode) types.GitStatus {
	switch code {
	case git.Added:
		return types.GitStatusIndexNew
	case git.Modified:
		return types.GitStatusIndexModified
	case git.Renamed:
		return types.GitStatusIndexRenamed
	case git.Copied:
		return types.GitStatusIndexNew
	default:
		return types.GitStatusUnknown
	}
}

func classifyWorktreeCode(code git.StatusCode) types.GitStatus {
	switch code {
	case git.Untracked:
		return types.GitStatusUntracked
	case git.Modified:
		return types.GitStatusWorkingModified
	case git.Deleted:
		return types.GitStatusWorkingModified
	case git.Renamed:
		return types.GitStatusWorkingRenamed
	default:
		return types.GitStatusUnknown
	}
}

// dotGitStatusFiles are the .git-relative file paths whose change
// should trigger a full status refresh; the refs/ directory is matched
// by prefix separately in IsDotGitChangeAffectingStatus.
var dotGitStatusFiles = map[string]bool{
	"index":                true,
	"index.lock":           true,
	"HEAD":                 true,
	"packed-refs":          true,
	"info/exclude":         true,
	"info/sparse-checkout": true,
	"MERGE_HEAD":           true,
	"CHERRY_PICK_HEAD":     true,
	"REVERT_HEAD":          true,
}

func (p *GoGitProvider) IsDotGitChangeAffectingStatus(absPath string) bool {
	rel, err := filepath.Rel(p.gitDir, absPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	rel = filepath.ToSlash(rel)

	if strings.HasPrefix(rel, "objects/") || strings.HasPrefix(rel, "logs/") || strings.HasPrefix(rel, "hooks/") {
		return false
	}
	if strings.HasPrefix(rel, "refs/") {
		return true
	}
	if dotGitStatusFiles[rel] {
		return true
	}
	if dotGitStatusFiles[filepath.Base(rel)] {
		return true
	}
	return false
}

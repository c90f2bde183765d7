// Package gitver reads the identity of the project checkout: commit,
// branch, working tree state and repository name.
package gitver

import (
	"errors"
	"strings"

	"github.com/go-git/go-git/v5"
)

// Identity holds project metadata resolved from git.
type Identity struct {
	Commit string // short SHA: "abc1234"
	Branch string // empty on a detached HEAD
	Dirty  bool
	Name   string // repo name from remote origin, if any
}

// shortLen is the length of abbreviated commit hashes.
const shortLen = 7

// Describe resolves the identity of the repository containing rootDir.
// It returns nil without error when rootDir is not inside a git
// repository or the repository has no commits yet.
func Describe(rootDir string) (*Identity, error) {
	repo, err := git.PlainOpenWithOptions(rootDir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, nil
		}
		return nil, err
	}

	head, err := repo.Head()
	if err != nil {
		return nil, nil // unborn HEAD
	}

	id := &Identity{Commit: head.Hash().String()[:shortLen]}
	if head.Name().IsBranch() {
		id.Branch = head.Name().Short()
	}

	if wt, err := repo.Worktree(); err == nil {
		if status, err := wt.Status(); err == nil {
			id.Dirty = !status.IsClean()
		}
	}

	if remote, err := repo.Remote("origin"); err == nil {
		if urls := remote.Config().URLs; len(urls) > 0 {
			id.Name = repoNameFromRemote(urls[0])
		}
	}

	return id, nil
}

// String renders "branch@commit", with a "+dirty" suffix when the tree
// has uncommitted changes.
func (id *Identity) String() string {
	if id == nil {
		return ""
	}
	s := id.Commit
	if id.Branch != "" {
		s = id.Branch + "@" + s
	}
	if id.Dirty {
		s += "+dirty"
	}
	return s
}

// repoNameFromRemote extracts the repository name from a git remote URL.
// Handles SSH (git@host:org/repo.git) and HTTPS (https://host/org/repo.git).
func repoNameFromRemote(remote string) string {
	remote = strings.TrimSuffix(remote, ".git")

	// SSH: git@host:org/repo
	if idx := strings.LastIndex(remote, ":"); idx != -1 && !strings.Contains(remote, "://") {
		remote = remote[idx+1:]
	}

	if idx := strings.LastIndex(remote, "/"); idx != -1 {
		return remote[idx+1:]
	}
	return remote
}

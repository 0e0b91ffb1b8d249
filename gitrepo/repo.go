// Package gitrepo is the storage layer: it opens repositories, enumerates
// branches and worktrees, fetches remote refs and creates refs, branches and
// worktrees. Reads go through go-git; linked worktrees are created with the
// git binary because go-git does not implement them.
package gitrepo

import (
	"fmt"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	git "github.com/go-git/go-git/v5"
	"github.com/sirupsen/logrus"
)

// DefaultRemote is the remote name used when none is configured.
const DefaultRemote = "origin"

type Repo struct {
	// Root is the directory the repository was opened at: the checkout of a
	// regular repository or linked worktree, or the bare directory itself.
	Root      string
	GitDir    string
	CommonDir string

	bare     bool
	worktree bool
	repo     *git.Repository
	admin    billy.Filesystem
	logger   *logrus.Entry
}

// Open discovers the repository containing path and opens it.
func Open(path string) (*Repo, error) {
	loc, err := discover(path)
	if err != nil {
		return nil, err
	}
	var repo *git.Repository
	if loc.root == loc.gitDir {
		repo, err = git.PlainOpen(loc.root)
	} else {
		repo, err = git.PlainOpenWithOptions(loc.root, &git.PlainOpenOptions{EnableDotGitCommonDir: true})
	}
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", loc.root, err)
	}

	linked := loc.gitDir != loc.commonDir
	bare := false
	if !linked {
		if loc.root == loc.gitDir {
			bare = true
		} else if cfg, err := repo.Config(); err == nil && cfg.Core.IsBare {
			bare = true
		}
	}

	return &Repo{
		Root:      loc.root,
		GitDir:    loc.gitDir,
		CommonDir: loc.commonDir,
		bare:      bare,
		worktree:  linked,
		repo:      repo,
		admin:     osfs.New(loc.commonDir),
		logger:    logrus.WithField("repo", loc.root),
	}, nil
}

// IsBare reports whether the repository has no working directory of its own.
func (r *Repo) IsBare() bool { return r.bare }

// IsWorktree reports whether the repository was opened from a linked worktree.
func (r *Repo) IsWorktree() bool { return r.worktree }

// WorktreeRoot is the directory new worktrees are created in: the parent of
// the shared git directory, so that opening the repository from inside any of
// its worktrees yields the same place.
func (r *Repo) WorktreeRoot() string {
	return filepath.Dir(r.CommonDir)
}

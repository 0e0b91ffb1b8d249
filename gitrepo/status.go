package gitrepo

import (
	"fmt"
	"sort"

	git "github.com/go-git/go-git/v5"
)

// DirtyFiles lists paths with staged or unstaged changes. Untracked files do
// not count.
func (r *Repo) DirtyFiles() ([]string, error) {
	if r.bare {
		return nil, ErrBareRepository
	}
	release := r.shared()
	defer release()
	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open working tree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("working tree status: %w", err)
	}
	files := make([]string, 0, len(status))
	for path, fs := range status {
		if fs.Staging == git.Untracked && fs.Worktree == git.Untracked {
			continue
		}
		if fs.Staging == git.Unmodified && fs.Worktree == git.Unmodified {
			continue
		}
		files = append(files, path)
	}
	sort.Strings(files)
	return files, nil
}

package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	billyutil "github.com/go-git/go-billy/v5/util"
	git "github.com/go-git/go-git/v5"
	"github.com/sirupsen/logrus"
)

const worktreeAdminDir = "worktrees"

// WorktreeRecord describes a linked worktree. Branch is empty and Ranked is
// false when the checked-out branch cannot be resolved (detached HEAD,
// deleted branch, missing directory).
type WorktreeRecord struct {
	Name           string
	Path           string
	Branch         string
	LastCommitTime int64
	Ranked         bool
}

// NormalizeWorktreeName maps a branch name to a worktree name. Worktree names
// are single path segments, so slashes become underscores.
func NormalizeWorktreeName(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), "/", "_")
}

// ValidateWorktreeName rejects names that cannot be used as a single
// directory under the worktree root.
func ValidateWorktreeName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: worktree name required", ErrInvalidName)
	case name == "." || name == "..":
		return fmt.Errorf("%w: worktree name %q", ErrInvalidName, name)
	case strings.ContainsRune(name, '/') || strings.ContainsRune(name, filepath.Separator):
		return fmt.Errorf("%w: worktree name %q contains a path separator", ErrInvalidName, name)
	case strings.HasPrefix(name, "-"):
		return fmt.Errorf("%w: worktree name %q starts with '-'", ErrInvalidName, name)
	}
	return nil
}

type adminEntry struct {
	name string
	path string
}

// adminEntries reads <common>/worktrees/<name>/gitdir for every registered
// worktree, in directory order. Entries without a gitdir are prunable and
// skipped.
func (r *Repo) adminEntries() ([]adminEntry, error) {
	infos, err := r.admin.ReadDir(worktreeAdminDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list worktrees: %w", err)
	}
	entries := make([]adminEntry, 0, len(infos))
	for _, info := range infos {
		if !info.IsDir() {
			continue
		}
		data, err := billyutil.ReadFile(r.admin, r.admin.Join(worktreeAdminDir, info.Name(), "gitdir"))
		if err != nil {
			continue
		}
		dotGit := strings.TrimSpace(string(data))
		if dotGit == "" {
			continue
		}
		if !filepath.IsAbs(dotGit) {
			dotGit = filepath.Join(r.CommonDir, worktreeAdminDir, info.Name(), dotGit)
		}
		entries = append(entries, adminEntry{name: info.Name(), path: filepath.Dir(filepath.Clean(dotGit))})
	}
	return entries, nil
}

// Worktrees lists linked worktrees. Worktrees whose branch resolves come
// first, most recent tip commit first; the rest follow in enumeration order.
func (r *Repo) Worktrees() ([]WorktreeRecord, error) {
	release := r.shared()
	defer release()
	entries, err := r.adminEntries()
	if err != nil {
		return nil, err
	}
	ranked := make([]WorktreeRecord, 0, len(entries))
	var unranked []WorktreeRecord
	for _, e := range entries {
		rec := WorktreeRecord{Name: e.name, Path: e.path}
		if branch, err := r.branchCheckedOutAt(e.name, e.path); err == nil {
			rec.Branch = branch
			if info, ok := r.resolveBranch(LocalBranch, branch, ""); ok {
				rec.LastCommitTime = info.CommitTime
				rec.Ranked = true
			}
		}
		if rec.Ranked {
			ranked = append(ranked, rec)
		} else {
			unranked = append(unranked, rec)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].LastCommitTime > ranked[j].LastCommitTime
	})
	return append(ranked, unranked...), nil
}

// WorktreeBranches maps worktree name to checked-out branch, in the order of
// Worktrees. Worktrees without a resolvable branch are left out.
func (r *Repo) WorktreeBranches() (*WorktreeBranchMap, error) {
	records, err := r.Worktrees()
	if err != nil {
		return nil, err
	}
	m := NewWorktreeBranchMap()
	for _, rec := range records {
		if rec.Branch == "" {
			continue
		}
		m.Set(rec.Name, rec.Branch)
	}
	return m, nil
}

// WorktreeBranch opens the worktree as its own repository and returns the
// short name of the branch its HEAD points at.
func (r *Repo) WorktreeBranch(name string) (string, error) {
	path, err := r.WorktreePath(name)
	if err != nil {
		return "", err
	}
	release := r.shared()
	defer release()
	return r.branchCheckedOutAt(NormalizeWorktreeName(name), path)
}

func (r *Repo) branchCheckedOutAt(name string, path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("worktree %q at %s: %w", name, path, ErrNotFound)
	}
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{EnableDotGitCommonDir: true})
	if err != nil {
		return "", fmt.Errorf("worktree %q: %v: %w", name, err, ErrNotFound)
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("worktree %q has no resolvable HEAD: %w", name, ErrNotFound)
	}
	if !head.Name().IsBranch() {
		return "", fmt.Errorf("worktree %q has a detached HEAD: %w", name, ErrNotFound)
	}
	return head.Name().Short(), nil
}

// WorktreePath returns the directory of the worktree whose name matches the
// normalized form of name.
func (r *Repo) WorktreePath(name string) (string, error) {
	normalized := NormalizeWorktreeName(name)
	entries, err := r.adminEntries()
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if e.name == normalized {
			return e.path, nil
		}
	}
	return "", fmt.Errorf("worktree %q: %w", normalized, ErrNotFound)
}

// WorktreeExists reports whether a worktree with the normalized name exists.
func (r *Repo) WorktreeExists(name string) bool {
	_, err := r.WorktreePath(name)
	return err == nil
}

// WorktreeForBranch returns the first worktree, in enumeration order, that
// has branch checked out.
func (r *Repo) WorktreeForBranch(branch string) (string, error) {
	release := r.shared()
	defer release()
	entries, err := r.adminEntries()
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		checkedOut, err := r.branchCheckedOutAt(e.name, e.path)
		if err != nil {
			continue
		}
		if checkedOut == branch {
			return e.name, nil
		}
	}
	return "", fmt.Errorf("no worktree has branch %q checked out: %w", branch, ErrNotFound)
}

// WorktreeExistsByBranch is the advisory form of WorktreeForBranch.
func (r *Repo) WorktreeExistsByBranch(branch string) bool {
	_, err := r.WorktreeForBranch(branch)
	return err == nil
}

// WorktreeSpec describes a worktree to create under WorktreeRoot.
type WorktreeSpec struct {
	Name   string
	Branch string
	// NewBranch creates Branch at StartPoint (HEAD when empty) instead of
	// checking out an existing branch. The new branch never tracks
	// StartPoint.
	NewBranch  bool
	StartPoint string
}

// AddWorktree creates a linked worktree at WorktreeRoot/<spec.Name>. When
// spec asks for a new branch and the worktree cannot be created, the branch
// is removed again.
func (r *Repo) AddWorktree(ctx context.Context, spec WorktreeSpec) (WorktreeRecord, error) {
	if err := ValidateWorktreeName(spec.Name); err != nil {
		return WorktreeRecord{}, err
	}
	if err := ValidateBranchName(spec.Branch); err != nil {
		return WorktreeRecord{}, err
	}
	path := filepath.Join(r.WorktreeRoot(), spec.Name)

	release := r.shared()
	defer release()

	args := []string{"worktree", "add"}
	if spec.NewBranch {
		if _, ok := r.resolveBranch(LocalBranch, spec.Branch, ""); ok {
			return WorktreeRecord{}, fmt.Errorf("add worktree %q: branch %q already exists", spec.Name, spec.Branch)
		}
		args = append(args, "--no-track", "-b", spec.Branch, path)
		if sp := strings.TrimSpace(spec.StartPoint); sp != "" {
			args = append(args, sp)
		}
	} else {
		args = append(args, path, spec.Branch)
	}
	if _, err := runGit(ctx, r.logger, r.Root, args...); err != nil {
		if spec.NewBranch {
			r.dropOrphanBranch(spec.Branch)
		}
		return WorktreeRecord{}, fmt.Errorf("add worktree %q: %w", spec.Name, err)
	}
	r.logger.WithFields(logrus.Fields{
		"worktree": spec.Name,
		"branch":   spec.Branch,
		"path":     path,
	}).Info("added worktree")
	return WorktreeRecord{Name: spec.Name, Path: path, Branch: spec.Branch}, nil
}

// dropOrphanBranch deletes a branch that git created for a worktree it then
// failed to add. A branch some worktree has checked out is left alone.
func (r *Repo) dropOrphanBranch(branch string) {
	if _, ok := r.resolveBranch(LocalBranch, branch, ""); !ok {
		return
	}
	entries, err := r.adminEntries()
	if err != nil {
		return
	}
	for _, e := range entries {
		if checkedOut, err := r.branchCheckedOutAt(e.name, e.path); err == nil && checkedOut == branch {
			return
		}
	}
	if err := r.deleteBranch(branch); err != nil {
		r.logger.WithError(err).Warn("could not remove branch left by a failed worktree add")
	}
}

// WorktreeBranchMap is an insertion-ordered worktree name -> branch map.
type WorktreeBranchMap struct {
	names    []string
	branches map[string]string
}

func NewWorktreeBranchMap() *WorktreeBranchMap {
	return &WorktreeBranchMap{branches: make(map[string]string)}
}

func (m *WorktreeBranchMap) Set(worktree string, branch string) {
	if _, ok := m.branches[worktree]; !ok {
		m.names = append(m.names, worktree)
	}
	m.branches[worktree] = branch
}

func (m *WorktreeBranchMap) Get(worktree string) (string, bool) {
	b, ok := m.branches[worktree]
	return b, ok
}

func (m *WorktreeBranchMap) Len() int { return len(m.names) }

// Names returns worktree names in insertion order.
func (m *WorktreeBranchMap) Names() []string {
	return append([]string(nil), m.names...)
}

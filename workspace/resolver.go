package workspace

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mrbonezy/gwt/gitrepo"
	"github.com/mrbonezy/gwt/picker"
	"github.com/sirupsen/logrus"
)

type SwitchRequest struct {
	Branch   string
	Worktree string
	// Query pre-fills the picker. Defaults to whichever name did not resolve.
	Query string
}

// Resolver finds the workspace to switch to, asking through Selector when the
// request does not name one that exists.
type Resolver struct {
	Selector picker.Selector
	Logger   *logrus.Entry
}

func (r *Resolver) logger() *logrus.Entry {
	if r.Logger != nil {
		return r.Logger
	}
	return logrus.WithField("component", "workspace")
}

func (r *Resolver) Switch(ctx context.Context, repo *gitrepo.Repo, req SwitchRequest) (Directive, error) {
	if Classify(repo).UsesWorktrees() {
		return r.switchWorktree(ctx, repo, req)
	}
	return r.switchBranch(ctx, repo, req)
}

func (r *Resolver) switchWorktree(ctx context.Context, repo *gitrepo.Repo, req SwitchRequest) (Directive, error) {
	wantWorktree := strings.TrimSpace(req.Worktree)
	wantBranch := strings.TrimSpace(req.Branch)

	// A worktree name match wins; otherwise the worktree holding the branch.
	name := ""
	if wantWorktree != "" && repo.WorktreeExists(wantWorktree) {
		name = wantWorktree
	}
	if name == "" && wantBranch != "" && repo.BranchExists(gitrepo.LocalBranch, wantBranch, "") {
		if wt, err := repo.WorktreeForBranch(wantBranch); err == nil {
			name = wt
		}
	}

	if name == "" {
		picked, err := r.pickWorktree(ctx, repo, firstNonEmpty(req.Query, wantWorktree, wantBranch))
		if err != nil {
			return Directive{}, err
		}
		name = picked
	}

	path, err := repo.WorktreePath(name)
	if err != nil {
		return Directive{}, &ResolutionError{Resource: "worktree", Name: name, Err: err}
	}
	r.logger().WithFields(logrus.Fields{"worktree": name, "path": path}).Debug("resolved worktree")
	return ChangeDir(path), nil
}

func (r *Resolver) pickWorktree(ctx context.Context, repo *gitrepo.Repo, query string) (string, error) {
	records, err := repo.Worktrees()
	if err != nil {
		return "", err
	}
	rec, err := picker.ChooseOne(ctx, r.Selector, records, worktreeLabel, picker.Options{
		Query: query,
		Hint:  "Worktree branch",
	})
	if err != nil {
		return "", selectionError("worktree", err)
	}
	return rec.Name, nil
}

func worktreeLabel(rec gitrepo.WorktreeRecord) string {
	switch {
	case rec.Branch == "":
		return rec.Name + " (no branch)"
	case rec.Branch == rec.Name:
		return rec.Name
	default:
		return fmt.Sprintf("%s -> %s", rec.Name, rec.Branch)
	}
}

func (r *Resolver) switchBranch(ctx context.Context, repo *gitrepo.Repo, req SwitchRequest) (Directive, error) {
	dirty, err := repo.DirtyFiles()
	if err != nil {
		return Directive{}, fmt.Errorf("check working tree: %w", err)
	}
	if len(dirty) > 0 {
		return Directive{}, &DirtyWorkspaceError{Path: repo.Root, Files: dirty}
	}

	wantBranch := strings.TrimSpace(req.Branch)
	if wantBranch != "" && repo.BranchExists(gitrepo.LocalBranch, wantBranch, "") {
		return Checkout(wantBranch), nil
	}

	branches, err := repo.Branches(gitrepo.LocalBranch)
	if err != nil {
		return Directive{}, err
	}
	picked, err := picker.ChooseOne(ctx, r.Selector, branches, func(b gitrepo.BranchInfo) string {
		return b.Name
	}, picker.Options{
		Query: firstNonEmpty(req.Query, wantBranch),
		Hint:  "Branch",
	})
	if err != nil {
		return Directive{}, selectionError("branch", err)
	}
	return Checkout(picked.Name), nil
}

// selectionError keeps cancellation distinct from resolution failures.
func selectionError(resource string, err error) error {
	if IsCancelled(err) {
		return err
	}
	if errors.Is(err, picker.ErrNothingSelected) || errors.Is(err, picker.ErrNoCandidates) {
		return &ResolutionError{Resource: resource, Err: err}
	}
	return err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

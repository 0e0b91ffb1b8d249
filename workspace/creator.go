package workspace

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/mrbonezy/gwt/gitrepo"
	"github.com/sirupsen/logrus"
)

// Creator makes workspaces idempotently. A second call with the same name
// finds the workspace the first call made and reports Existed.
type Creator struct {
	// Remote is synced before anything is created. Defaults to origin.
	Remote string
	// SkipFetch trusts the remote-tracking refs already on disk.
	SkipFetch   bool
	Credentials gitrepo.Credentials
	Logger      *logrus.Entry
}

func (c *Creator) remote() string {
	if r := strings.TrimSpace(c.Remote); r != "" {
		return r
	}
	return gitrepo.DefaultRemote
}

func (c *Creator) logger() *logrus.Entry {
	if c.Logger != nil {
		return c.Logger
	}
	return logrus.WithField("component", "workspace")
}

func (c *Creator) sync(ctx context.Context, repo *gitrepo.Repo) error {
	if c.SkipFetch {
		return nil
	}
	if err := repo.Fetch(ctx, c.remote(), c.Credentials); err != nil {
		return fmt.Errorf("sync remote %s: %w", c.remote(), err)
	}
	return nil
}

// Add creates the workspace the repository's topology calls for.
func (c *Creator) Add(ctx context.Context, repo *gitrepo.Repo, name string) (Directive, AddOutcome, error) {
	if Classify(repo).UsesWorktrees() {
		return c.AddWorktree(ctx, repo, name)
	}
	return c.AddBranch(ctx, repo, name)
}

// AddWorktree makes sure a worktree named after name exists under the
// repository's worktree root. An existing local branch is checked out as is;
// otherwise a new branch starts at the same-named remote branch, or at HEAD
// when the remote has none.
func (c *Creator) AddWorktree(ctx context.Context, repo *gitrepo.Repo, name string) (Directive, AddOutcome, error) {
	name = strings.TrimSpace(name)
	wtName := gitrepo.NormalizeWorktreeName(name)
	if err := gitrepo.ValidateWorktreeName(wtName); err != nil {
		return Directive{}, Existed, &ResolutionError{Resource: "worktree", Name: name, Err: err}
	}
	if err := c.sync(ctx, repo); err != nil {
		return Directive{}, Existed, err
	}
	log := c.logger().WithFields(logrus.Fields{"worktree": wtName, "branch": name})

	if path, err := repo.WorktreePath(wtName); err == nil {
		log.Debug("worktree already exists")
		return ChangeDir(path), Existed, nil
	}

	spec := gitrepo.WorktreeSpec{Name: wtName, Branch: name}
	switch {
	case repo.BranchExists(gitrepo.LocalBranch, name, ""):
		// checked out as is
	case repo.BranchExists(gitrepo.RemoteBranch, name, c.remote()):
		spec.NewBranch = true
		spec.StartPoint = plumbing.NewRemoteReferenceName(c.remote(), name).String()
		log.WithField("start", spec.StartPoint).Debug("anchored on remote branch")
	default:
		spec.NewBranch = true
	}

	rec, err := repo.AddWorktree(ctx, spec)
	if err != nil {
		return Directive{}, Existed, &ResolutionError{Resource: "worktree", Name: name, Err: err}
	}
	log.WithField("path", rec.Path).Info("created worktree")
	return ChangeDir(rec.Path), Added, nil
}

// AddBranch makes sure a branch called name can be checked out. A
// remote-tracking branch counts as existing; git checkout creates the local
// branch from it.
func (c *Creator) AddBranch(ctx context.Context, repo *gitrepo.Repo, name string) (Directive, AddOutcome, error) {
	name = strings.TrimSpace(name)
	if err := gitrepo.ValidateBranchName(name); err != nil {
		return Directive{}, Existed, &ResolutionError{Resource: "branch", Name: name, Err: err}
	}
	if err := c.sync(ctx, repo); err != nil {
		return Directive{}, Existed, err
	}
	log := c.logger().WithField("branch", name)

	if repo.BranchExists(gitrepo.LocalBranch, name, "") {
		log.Debug("local branch already exists")
		return Checkout(name), Existed, nil
	}
	if repo.BranchExists(gitrepo.RemoteBranch, name, c.remote()) {
		log.Debug("remote branch already exists")
		return Checkout(name), Existed, nil
	}

	head, err := repo.HeadCommit()
	if err != nil {
		return Directive{}, Existed, &ResolutionError{Resource: "branch", Name: name, Err: err}
	}
	if _, err := repo.CreateBranch(name, head); err != nil {
		return Directive{}, Existed, &ResolutionError{Resource: "branch", Name: name, Err: err}
	}
	log.WithField("commit", head.String()).Info("created branch")
	return Checkout(name), Added, nil
}

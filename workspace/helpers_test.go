package workspace

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mrbonezy/gwt/gitrepo"
	"github.com/mrbonezy/gwt/gitrepo/gitrepotest"
	"github.com/mrbonezy/gwt/picker"
	"github.com/mrbonezy/gwt/review"
)

// scriptedSelector answers every Select with a fixed result and records the
// requests it saw.
type scriptedSelector struct {
	res      picker.Result
	requests []picker.Request
}

func (s *scriptedSelector) Select(_ context.Context, req picker.Request) (picker.Result, bool, error) {
	s.requests = append(s.requests, req)
	if len(req.Candidates) == 0 {
		return picker.Result{}, false, nil
	}
	return s.res, true, nil
}

// pickLabel selects the candidate with the given label.
type pickLabel struct {
	label    string
	requests []picker.Request
}

func (s *pickLabel) Select(_ context.Context, req picker.Request) (picker.Result, bool, error) {
	s.requests = append(s.requests, req)
	for i, c := range req.Candidates {
		if c == s.label {
			return picker.Result{Key: picker.Accept, Indices: []int{i}}, true, nil
		}
	}
	return picker.Result{Key: picker.Accept}, true, nil
}

type failingSelector struct{ t *testing.T }

func (s failingSelector) Select(context.Context, picker.Request) (picker.Result, bool, error) {
	s.t.Fatalf("selector should not be called")
	return picker.Result{}, false, nil
}

type fakeLister struct {
	prs  []review.PullRequest
	err  error
	seen []review.Repository
}

func (f *fakeLister) List(_ context.Context, repo review.Repository, _ review.State) ([]review.PullRequest, error) {
	f.seen = append(f.seen, repo)
	return f.prs, f.err
}

// project is a bare worktree-first layout with branches main, old,
// feature/mid and spare, and worktrees old and feature_mid.
type project struct {
	origin string
	seed   string
	root   string
}

func newProject(t *testing.T) project {
	t.Helper()
	origin, seed := gitrepotest.InitOrigin(t)
	base := gitrepotest.Epoch
	gitrepotest.Branch(t, seed, "old", base.Add(1*time.Hour))
	gitrepotest.Branch(t, seed, "feature/mid", base.Add(2*time.Hour))
	gitrepotest.Branch(t, seed, "spare", base.Add(3*time.Hour))
	gitrepotest.Git(t, seed, "push", "-q", "origin", "old", "feature/mid", "spare")

	root := gitrepotest.BareProject(t, origin)
	gitrepotest.Worktree(t, root, "old", "old")
	gitrepotest.Worktree(t, root, "feature_mid", "feature/mid")
	return project{origin: origin, seed: seed, root: root}
}

// pushRemoteOnly publishes a branch to origin that the project has not
// fetched yet.
func (p project) pushRemoteOnly(t *testing.T, branch string) string {
	t.Helper()
	gitrepotest.Branch(t, p.seed, branch, gitrepotest.Epoch.Add(5*time.Hour))
	gitrepotest.Git(t, p.seed, "push", "-q", "origin", branch)
	return gitrepotest.Git(t, p.seed, "rev-parse", branch)
}

func openRepo(t *testing.T, path string) *gitrepo.Repo {
	t.Helper()
	repo, err := gitrepo.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	return repo
}

func samePath(t *testing.T, a string, b string) bool {
	t.Helper()
	ra, errA := filepath.EvalSymlinks(a)
	rb, errB := filepath.EvalSymlinks(b)
	if errA != nil || errB != nil {
		t.Fatalf("eval symlinks: %v %v", errA, errB)
	}
	return ra == rb
}

package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mrbonezy/gwt/gitrepo"
	"github.com/mrbonezy/gwt/picker"
	"github.com/mrbonezy/gwt/review"
	"github.com/sirupsen/logrus"
)

type SelectionMode int

const (
	SelectAll SelectionMode = iota
	SelectSingle
	SelectMultiple
)

func ParseSelectionMode(s string) (SelectionMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return SelectAll, nil
	case "single", "one":
		return SelectSingle, nil
	case "multiple", "multi", "many":
		return SelectMultiple, nil
	}
	return SelectAll, fmt.Errorf("unknown selection mode %q (want all, single or multiple)", s)
}

func (m SelectionMode) String() string {
	switch m {
	case SelectSingle:
		return "single"
	case SelectMultiple:
		return "multiple"
	default:
		return "all"
	}
}

type SyncOptions struct {
	State     review.State
	Kind      review.Kind
	Selection SelectionMode
	// Confirm, when set, sees the final batch before anything is created and
	// may cancel it by returning false.
	Confirm func([]review.PullRequest) (bool, error)
}

// Materialized is one pull request whose workspace was found or created.
type Materialized struct {
	PR        review.PullRequest
	Directive Directive
	Outcome   AddOutcome
}

type Report struct {
	Added   []Materialized
	Existed []Materialized
	Failed  []*TaskError
}

// Orchestrator turns pull requests into workspaces. One bad pull request
// fails only its own task; Sync reports the rest.
type Orchestrator struct {
	Lister   review.Lister
	Selector picker.Selector
	Creator  *Creator
	// Open gives each task its own handle on the repository. Defaults to
	// gitrepo.Open.
	Open func(path string) (*gitrepo.Repo, error)
	// Notices receives the human-readable "Added workspace" blocks.
	// Defaults to stderr.
	Notices io.Writer
	Logger  *logrus.Entry
}

func (o *Orchestrator) logger() *logrus.Entry {
	if o.Logger != nil {
		return o.Logger
	}
	return logrus.WithField("component", "pr-sync")
}

func (o *Orchestrator) creator() *Creator {
	if o.Creator != nil {
		return o.Creator
	}
	return &Creator{}
}

func (o *Orchestrator) open(path string) (*gitrepo.Repo, error) {
	if o.Open != nil {
		return o.Open(path)
	}
	return gitrepo.Open(path)
}

func (o *Orchestrator) Sync(ctx context.Context, repo *gitrepo.Repo, opts SyncOptions) (Report, error) {
	prs, err := o.fetch(ctx, repo, opts.State)
	if err != nil {
		return Report{}, err
	}
	candidates, err := o.filter(repo, prs, opts.Kind)
	if err != nil {
		return Report{}, err
	}
	selected, err := o.selectPRs(ctx, candidates, opts.Selection)
	if err != nil {
		return Report{}, err
	}
	if opts.Confirm != nil {
		ok, err := opts.Confirm(selected)
		if err != nil {
			return Report{}, err
		}
		if !ok {
			return Report{}, picker.ErrAborted
		}
	}
	results := o.materialize(ctx, repo.Root, selected)
	return o.report(results), nil
}

func (o *Orchestrator) fetch(ctx context.Context, repo *gitrepo.Repo, state review.State) ([]review.PullRequest, error) {
	if o.Lister == nil {
		return nil, errors.New("no pull request lister configured")
	}
	remote := o.creator().remote()
	remoteURL, err := repo.RemoteURL(remote)
	if err != nil {
		return nil, err
	}
	target, err := review.ParseRemote(remoteURL)
	if err != nil {
		return nil, err
	}
	if state == "" {
		state = review.StateOpen
	}
	prs, err := o.Lister.List(ctx, target, state)
	if err != nil {
		return nil, err
	}
	o.logger().WithFields(logrus.Fields{"repo": target.String(), "count": len(prs)}).Debug("fetched pull requests")
	return prs, nil
}

// filter drops pull requests of the wrong kind and those whose head branch
// already has a workspace: a worktree with it checked out, or in a regular
// repository a local branch of that name.
func (o *Orchestrator) filter(repo *gitrepo.Repo, prs []review.PullRequest, kind review.Kind) ([]review.PullRequest, error) {
	prs = review.FilterKind(prs, kind)

	var taken func(string) bool
	if Classify(repo).UsesWorktrees() {
		m, err := repo.WorktreeBranches()
		if err != nil {
			return nil, err
		}
		checkedOut := make(map[string]bool, m.Len())
		for _, name := range m.Names() {
			branch, _ := m.Get(name)
			checkedOut[branch] = true
		}
		taken = func(branch string) bool { return checkedOut[branch] }
	} else {
		taken = func(branch string) bool { return repo.BranchExists(gitrepo.LocalBranch, branch, "") }
	}

	out := make([]review.PullRequest, 0, len(prs))
	for _, pr := range prs {
		if taken(pr.HeadRef) {
			o.logger().WithFields(logrus.Fields{"pr": pr.Number, "branch": pr.HeadRef}).Debug("skipping pull request with existing workspace")
			continue
		}
		out = append(out, pr)
	}
	return out, nil
}

func (o *Orchestrator) selectPRs(ctx context.Context, prs []review.PullRequest, mode SelectionMode) ([]review.PullRequest, error) {
	if len(prs) == 0 {
		return nil, &ResolutionError{Resource: "pull request", Err: picker.ErrNoCandidates}
	}
	if mode == SelectAll {
		return prs, nil
	}
	chosen, err := picker.Choose(ctx, o.Selector, prs, prLabel, picker.Options{
		Multi: mode == SelectMultiple,
		Hint:  "Pull request",
	})
	if err != nil {
		return nil, selectionError("pull request", err)
	}
	return chosen, nil
}

func prLabel(pr review.PullRequest) string {
	label := fmt.Sprintf("%s #%d", pr.HeadRef, pr.Number)
	if pr.Draft {
		label += " (draft)"
	}
	return label
}

type taskResult struct {
	pr        review.PullRequest
	directive Directive
	outcome   AddOutcome
	err       *TaskError
}

// materialize runs one task per pull request and waits for all of them.
// Results keep the order of prs.
func (o *Orchestrator) materialize(ctx context.Context, path string, prs []review.PullRequest) []taskResult {
	results := make([]taskResult, len(prs))
	var wg sync.WaitGroup
	for i, pr := range prs {
		wg.Add(1)
		go func(i int, pr review.PullRequest) {
			defer wg.Done()
			results[i] = o.runTask(ctx, path, pr)
		}(i, pr)
	}
	wg.Wait()
	return results
}

func (o *Orchestrator) runTask(ctx context.Context, path string, pr review.PullRequest) (res taskResult) {
	res.pr = pr
	fail := func(err error) taskResult {
		res.err = &TaskError{PR: pr.Number, HeadRef: pr.HeadRef, Err: err}
		return res
	}
	defer func() {
		if p := recover(); p != nil {
			res = fail(fmt.Errorf("panic: %v", p))
		}
	}()

	repo, err := o.open(path)
	if err != nil {
		return fail(err)
	}
	directive, outcome, err := o.creator().Add(ctx, repo, pr.HeadRef)
	if err != nil {
		return fail(err)
	}
	res.directive = directive
	res.outcome = outcome
	return res
}

func (o *Orchestrator) report(results []taskResult) Report {
	var rep Report
	notices := o.Notices
	if notices == nil {
		notices = os.Stderr
	}
	nw := newNoticeWriter(notices)

	for _, res := range results {
		if res.err != nil {
			rep.Failed = append(rep.Failed, res.err)
			continue
		}
		m := Materialized{PR: res.pr, Directive: res.directive, Outcome: res.outcome}
		if res.outcome != Added {
			rep.Existed = append(rep.Existed, m)
			continue
		}
		rep.Added = append(rep.Added, m)
		o.logger().WithFields(logrus.Fields{
			"pr":     m.PR.Number,
			"branch": m.PR.HeadRef,
			"url":    m.PR.URL,
			"goto":   m.Directive.String(),
		}).Info("added workspace for pull request")
		nw.write(m)
	}

	if len(rep.Failed) > 0 {
		errs := make([]error, 0, len(rep.Failed))
		for _, f := range rep.Failed {
			errs = append(errs, f)
		}
		o.logger().WithField("failed", len(rep.Failed)).WithError(errors.Join(errs...)).
			Error("some pull requests could not be materialized")
	}
	return rep
}

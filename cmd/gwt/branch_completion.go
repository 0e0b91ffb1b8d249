package main

import (
	"strings"

	"github.com/mrbonezy/gwt/gitrepo"
	"github.com/mrbonezy/gwt/workspace"
)

const (
	completionRecentLimit = 12
	completionLocalLimit  = 40
	completionRemoteLimit = 60
)

// suggestions collects unique completion values matching a prefix, in the
// order they are offered.
type suggestions struct {
	prefix string
	seen   map[string]bool
	out    []string
}

func newSuggestions(prefix string) *suggestions {
	return &suggestions{prefix: strings.TrimSpace(prefix), seen: map[string]bool{}}
}

func (s *suggestions) add(values []string, limit int) {
	added := 0
	for _, value := range values {
		v := strings.TrimSpace(value)
		if v == "" || s.seen[v] || !matchesCompletionPrefix(v, s.prefix) {
			continue
		}
		s.seen[v] = true
		s.out = append(s.out, v)
		added++
		if limit > 0 && added >= limit {
			return
		}
	}
}

// completeBranches offers recently used branches first, then local branches
// by recency, then (for add) remote branches without their remote prefix.
func completeBranches(repoPath string, toComplete string, includeRemote bool) []string {
	repo, err := gitrepo.Open(repoPath)
	if err != nil {
		return []string{}
	}
	s := newSuggestions(toComplete)
	if recent, err := readRecentBranches(repo.CommonDir, completionRecentLimit); err == nil {
		s.add(recent, 0)
	}
	if local, err := repo.Branches(gitrepo.LocalBranch); err == nil {
		s.add(branchNames(local), completionLocalLimit)
	}
	if includeRemote {
		if remote, err := repo.Branches(gitrepo.RemoteBranch); err == nil {
			s.add(trimRemotePrefix(branchNames(remote)), completionRemoteLimit)
		}
	}
	return s.out
}

func completeWorktrees(repoPath string, toComplete string) []string {
	repo, err := gitrepo.Open(repoPath)
	if err != nil {
		return []string{}
	}
	records, err := repo.Worktrees()
	if err != nil {
		return []string{}
	}
	names := make([]string, 0, len(records))
	for _, rec := range records {
		names = append(names, rec.Name)
	}
	s := newSuggestions(toComplete)
	s.add(names, 0)
	return s.out
}

// completeSwitchTargets completes worktree names in worktree-based
// repositories and branch names in regular ones.
func completeSwitchTargets(repoPath string, toComplete string) []string {
	repo, err := gitrepo.Open(repoPath)
	if err != nil {
		return []string{}
	}
	if workspace.Classify(repo).UsesWorktrees() {
		return completeWorktrees(repoPath, toComplete)
	}
	return completeBranches(repoPath, toComplete, false)
}

func branchNames(branches []gitrepo.BranchInfo) []string {
	out := make([]string, 0, len(branches))
	for _, b := range branches {
		out = append(out, b.Name)
	}
	return out
}

// trimRemotePrefix turns "origin/feature" into "feature".
func trimRemotePrefix(refs []string) []string {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if _, name, ok := strings.Cut(ref, "/"); ok && name != "" && !strings.EqualFold(name, "head") {
			out = append(out, name)
		}
	}
	return out
}

func matchesCompletionPrefix(value string, prefix string) bool {
	if strings.TrimSpace(prefix) == "" {
		return true
	}
	valueLower := strings.ToLower(strings.TrimSpace(value))
	prefixLower := strings.ToLower(strings.TrimSpace(prefix))
	return strings.HasPrefix(valueLower, prefixLower)
}

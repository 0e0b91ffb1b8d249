package main

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/mrbonezy/gwt/gitrepo"
	"github.com/mrbonezy/gwt/workspace"
	"github.com/sirupsen/logrus"
)

const recentBranchCacheLimit = 40

type recentBranchCache struct {
	Branches []string `json:"branches"`
}

// recentBranchCachePath keys the cache on the shared git directory, so every
// worktree of a repository reads the same list.
func recentBranchCachePath(commonDir string) (string, error) {
	commonDir = strings.TrimSpace(commonDir)
	if commonDir == "" {
		return "", errors.New("repository directory required")
	}
	home, err := gwtHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "cache", "recent_branches", hashString(commonDir)+".json"), nil
}

func readRecentBranches(commonDir string, limit int) ([]string, error) {
	if limit <= 0 {
		return []string{}, nil
	}
	path, err := recentBranchCachePath(commonDir)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}
	var cache recentBranchCache
	if err := json.Unmarshal(data, &cache); err != nil {
		return nil, err
	}
	out := make([]string, 0, min(limit, len(cache.Branches)))
	seen := make(map[string]bool, len(cache.Branches))
	for _, raw := range cache.Branches {
		b := strings.TrimSpace(raw)
		if b == "" || seen[b] {
			continue
		}
		seen[b] = true
		out = append(out, b)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func writeRecentBranches(commonDir string, branches []string) error {
	path, err := recentBranchCachePath(commonDir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(recentBranchCache{Branches: branches}, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

// recordRecentBranch moves branch to the front of the list.
func recordRecentBranch(commonDir string, branch string) error {
	branch = strings.TrimSpace(branch)
	if strings.TrimSpace(commonDir) == "" || branch == "" {
		return nil
	}
	recent, err := readRecentBranches(commonDir, recentBranchCacheLimit)
	if err != nil {
		return err
	}
	merged := make([]string, 0, len(recent)+1)
	merged = append(merged, branch)
	for _, b := range recent {
		if b == branch {
			continue
		}
		merged = append(merged, b)
		if len(merged) >= recentBranchCacheLimit {
			break
		}
	}
	return writeRecentBranches(commonDir, merged)
}

// recordDirective remembers the branch a directive leads to. Cache failures
// only warn.
func recordDirective(repo *gitrepo.Repo, d workspace.Directive) {
	branch := directiveBranch(repo, d)
	if branch == "" {
		return
	}
	if err := recordRecentBranch(repo.CommonDir, branch); err != nil {
		logrus.WithError(err).Warn("failed to update recent branch cache")
	}
}

func directiveBranch(repo *gitrepo.Repo, d workspace.Directive) string {
	if d.Kind == workspace.CheckoutBranch {
		return d.Target
	}
	records, err := repo.Worktrees()
	if err != nil {
		return ""
	}
	for _, rec := range records {
		if samePath(rec.Path, d.Target) {
			return rec.Branch
		}
	}
	return ""
}

func samePath(a string, b string) bool {
	if filepath.Clean(a) == filepath.Clean(b) {
		return true
	}
	ra, errA := filepath.EvalSymlinks(a)
	rb, errB := filepath.EvalSymlinks(b)
	return errA == nil && errB == nil && ra == rb
}

func hashString(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

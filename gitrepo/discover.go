package gitrepo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// location is where a repository lives on disk. gitDir is the per-checkout
// admin directory; commonDir holds the objects and refs shared by every
// worktree. They only differ for linked worktrees.
type location struct {
	root      string
	gitDir    string
	commonDir string
}

func discover(dir string) (location, error) {
	if strings.TrimSpace(dir) == "" {
		wd, err := os.Getwd()
		if err != nil {
			return location{}, ErrNotInRepository
		}
		dir = wd
	}
	current, err := filepath.Abs(dir)
	if err != nil {
		return location{}, ErrNotInRepository
	}
	for {
		dotGit := filepath.Join(current, ".git")
		info, err := os.Stat(dotGit)
		if err == nil {
			gitDir := dotGit
			if !info.IsDir() {
				gitDir, err = parseGitdirPointer(dotGit, current)
				if err != nil {
					return location{}, err
				}
			}
			return location{root: current, gitDir: gitDir, commonDir: commonDirFor(gitDir)}, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return location{}, err
		}
		if looksLikeGitDir(current) {
			return location{root: current, gitDir: current, commonDir: commonDirFor(current)}, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}
	return location{}, ErrNotInRepository
}

// looksLikeGitDir reports whether dir is itself a git directory, which is
// how bare repositories are laid out.
func looksLikeGitDir(dir string) bool {
	head, err := os.Stat(filepath.Join(dir, "HEAD"))
	if err != nil || head.IsDir() {
		return false
	}
	for _, sub := range []string{"objects", "refs"} {
		info, err := os.Stat(filepath.Join(dir, sub))
		if err != nil || !info.IsDir() {
			return false
		}
	}
	return true
}

func parseGitdirPointer(dotGitFile string, root string) (string, error) {
	data, err := os.ReadFile(dotGitFile)
	if err != nil {
		return "", err
	}
	line := strings.TrimSpace(string(data))
	const prefix = "gitdir:"
	if !strings.HasPrefix(strings.ToLower(line), prefix) {
		return "", fmt.Errorf("invalid .git file format in %s", root)
	}
	target := strings.TrimSpace(line[len(prefix):])
	if target == "" {
		return "", fmt.Errorf("empty gitdir in %s", root)
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(root, target)
	}
	return filepath.Clean(target), nil
}

func commonDirFor(gitDir string) string {
	data, err := os.ReadFile(filepath.Join(gitDir, "commondir"))
	if err != nil {
		return filepath.Clean(gitDir)
	}
	target := strings.TrimSpace(string(data))
	if target == "" {
		return filepath.Clean(gitDir)
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(gitDir, target)
	}
	return filepath.Clean(target)
}

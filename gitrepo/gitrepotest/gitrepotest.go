// Package gitrepotest builds throwaway repositories with the git binary for
// tests.
package gitrepotest

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// Epoch is the commit time used when a test does not care about ordering.
var Epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// RequireGit skips the test when git is not on PATH.
func RequireGit(t testing.TB) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

// Git runs git in dir with a fixed identity and returns trimmed output.
func Git(t testing.TB, dir string, args ...string) string {
	t.Helper()
	return GitAt(t, dir, Epoch, args...)
}

// GitAt is Git with author and committer dates pinned to when.
func GitAt(t testing.TB, dir string, when time.Time, args ...string) string {
	t.Helper()
	full := append([]string{
		"-c", "user.name=Test",
		"-c", "user.email=test@example.test",
		"-c", "init.defaultBranch=main",
		"-c", "commit.gpgsign=false",
	}, args...)
	cmd := exec.Command("git", full...)
	cmd.Dir = dir
	stamp := fmt.Sprintf("%d +0000", when.Unix())
	cmd.Env = append(os.Environ(),
		"GIT_CONFIG_NOSYSTEM=1",
		"GIT_AUTHOR_DATE="+stamp,
		"GIT_COMMITTER_DATE="+stamp,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v in %s failed: %v\n%s", args, dir, err, string(out))
	}
	return strings.TrimSpace(string(out))
}

// WriteFile writes content to dir/name, creating parent directories.
func WriteFile(t testing.TB, dir string, name string, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// Commit writes a file and commits it on the current branch at when.
func Commit(t testing.TB, dir string, file string, when time.Time) {
	t.Helper()
	WriteFile(t, dir, file, when.String()+"\n")
	Git(t, dir, "add", file)
	GitAt(t, dir, when, "commit", "-q", "-m", "update "+file)
}

// InitRepo creates a regular repository on main with one commit.
func InitRepo(t testing.TB) string {
	t.Helper()
	RequireGit(t)
	dir := filepath.Join(t.TempDir(), "repo")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir repo: %v", err)
	}
	Git(t, dir, "init", "-q")
	Git(t, dir, "checkout", "-q", "-B", "main")
	Commit(t, dir, "README.md", Epoch)
	return dir
}

// Branch creates branch with one extra commit at when, then returns to main.
func Branch(t testing.TB, dir string, branch string, when time.Time) {
	t.Helper()
	Git(t, dir, "checkout", "-q", "-b", branch, "main")
	Commit(t, dir, strings.ReplaceAll(branch, "/", "-")+".txt", when)
	Git(t, dir, "checkout", "-q", "main")
}

// InitOrigin returns a bare repository seeded from a regular one, plus the
// seed checkout so tests can push more branches to it later.
func InitOrigin(t testing.TB) (origin string, seed string) {
	t.Helper()
	seed = InitRepo(t)
	origin = filepath.Join(t.TempDir(), "origin.git")
	Git(t, filepath.Dir(origin), "init", "-q", "--bare", origin)
	Git(t, seed, "remote", "add", "origin", origin)
	Git(t, seed, "push", "-q", "origin", "main")
	return origin, seed
}

// Clone clones origin into a regular checkout.
func Clone(t testing.TB, origin string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "clone")
	Git(t, filepath.Dir(dir), "clone", "-q", origin, dir)
	return dir
}

// BareProject lays out origin the way worktree-first projects do: a bare
// clone in <project>/.bare, a .git file pointing at it, and a fetch refspec
// so remote-tracking branches exist.
func BareProject(t testing.TB, origin string) string {
	t.Helper()
	project := filepath.Join(t.TempDir(), "project")
	if err := os.MkdirAll(project, 0o755); err != nil {
		t.Fatalf("mkdir project: %v", err)
	}
	Git(t, project, "clone", "-q", "--bare", origin, ".bare")
	WriteFile(t, project, ".git", "gitdir: ./.bare\n")
	Git(t, project, "config", "remote.origin.fetch", "+refs/heads/*:refs/remotes/origin/*")
	Git(t, project, "fetch", "-q", "origin")
	return project
}

// Worktree adds a linked worktree for an existing branch under project.
func Worktree(t testing.TB, project string, name string, branch string) string {
	t.Helper()
	path := filepath.Join(project, name)
	Git(t, project, "worktree", "add", "-q", path, branch)
	return path
}

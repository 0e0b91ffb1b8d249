//go:build local_e2e

package e2e

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalE2EAddWorktreeFetchesRemoteBranch(t *testing.T) {
	if strings.TrimSpace(os.Getenv("GWT_LOCAL_E2E")) != "1" {
		t.Skip("set GWT_LOCAL_E2E=1 to run local-only e2e tests")
	}

	origin := setupRepo(t)
	project := setupBareProject(t, origin)

	// Published after the project was cloned, so only a fetch can find it.
	runCmd(t, origin, "git", "checkout", "-q", "-b", "late/feature")
	if err := os.WriteFile(filepath.Join(origin, "late.txt"), []byte("late\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	runCmd(t, origin, "git", "add", "late.txt")
	runCmd(t, origin, "git", "commit", "-q", "-m", "late")
	tip := runCmd(t, origin, "git", "rev-parse", "HEAD")
	runCmd(t, origin, "git", "checkout", "-q", "main")

	res := runGWT(t, project, t.TempDir(), "add", "late/feature")
	if res.code != 0 {
		t.Fatalf("add exited %d: %s", res.code, res.stderr)
	}
	wt := filepath.Join(project, "late_feature")
	if got := runCmd(t, wt, "git", "rev-parse", "HEAD"); got != tip {
		t.Fatalf("expected worktree at %s, got %s", tip, got)
	}
}

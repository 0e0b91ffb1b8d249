package gitrepo

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	billyutil "github.com/go-git/go-billy/v5/util"
)

func TestAdminEntries_ResolvesGitdirPointers(t *testing.T) {
	fs := memfs.New()
	write := func(path string, content string) {
		t.Helper()
		if err := billyutil.WriteFile(fs, path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	write("worktrees/abs/gitdir", "/work/abs/.git\n")
	write("worktrees/rel/gitdir", "../../../rel/.git\n")
	write("worktrees/blank/gitdir", "  \n")
	write("worktrees/stray", "not a worktree")
	if err := fs.MkdirAll("worktrees/pruned", 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	r := &Repo{CommonDir: "/project/.bare", admin: fs}
	entries, err := r.adminEntries()
	if err != nil {
		t.Fatalf("adminEntries: %v", err)
	}
	got := make(map[string]string, len(entries))
	for _, e := range entries {
		got[e.name] = e.path
	}
	want := map[string]string{
		"abs": "/work/abs",
		"rel": "/project/rel",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for name, path := range want {
		if got[name] != path {
			t.Fatalf("worktree %s: expected %s, got %s", name, path, got[name])
		}
	}
}

func TestAdminEntries_NoWorktreesDirectory(t *testing.T) {
	r := &Repo{CommonDir: "/project/.git", admin: memfs.New()}
	entries, err := r.adminEntries()
	if err != nil || len(entries) != 0 {
		t.Fatalf("expected no entries, got %v, %v", entries, err)
	}
}

package gitrepo

import (
	"errors"
	"testing"

	"github.com/mrbonezy/gwt/gitrepo/gitrepotest"
)

func TestDirtyFiles_IgnoresUntracked(t *testing.T) {
	dir := gitrepotest.InitRepo(t)
	repo, err := Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	gitrepotest.WriteFile(t, dir, "scratch.txt", "untracked\n")
	files, err := repo.DirtyFiles()
	if err != nil {
		t.Fatalf("dirty files: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("untracked files should not make the tree dirty, got %v", files)
	}

	gitrepotest.WriteFile(t, dir, "README.md", "changed\n")
	files, err = repo.DirtyFiles()
	if err != nil {
		t.Fatalf("dirty files: %v", err)
	}
	if len(files) != 1 || files[0] != "README.md" {
		t.Fatalf("expected README.md dirty, got %v", files)
	}
}

func TestDirtyFiles_StagedCounts(t *testing.T) {
	dir := gitrepotest.InitRepo(t)
	gitrepotest.WriteFile(t, dir, "added.txt", "new\n")
	gitrepotest.Git(t, dir, "add", "added.txt")
	repo, err := Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	files, err := repo.DirtyFiles()
	if err != nil {
		t.Fatalf("dirty files: %v", err)
	}
	if len(files) != 1 || files[0] != "added.txt" {
		t.Fatalf("staged file should make the tree dirty, got %v", files)
	}
}

func TestDirtyFiles_BareRepository(t *testing.T) {
	origin, _ := gitrepotest.InitOrigin(t)
	repo, err := Open(origin)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := repo.DirtyFiles(); !errors.Is(err, ErrBareRepository) {
		t.Fatalf("expected ErrBareRepository, got %v", err)
	}
}

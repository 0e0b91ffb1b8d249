package gitrepo

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/sirupsen/logrus"
)

type BranchKind int

const (
	LocalBranch BranchKind = iota
	RemoteBranch
)

func (k BranchKind) String() string {
	if k == RemoteBranch {
		return "remote"
	}
	return "local"
}

// BranchInfo is a snapshot of a branch. For remote branches returned by
// Branches, Name keeps the remote prefix ("origin/feature"); ResolveBranch
// returns the bare name that was asked for.
type BranchInfo struct {
	Name       string
	Head       plumbing.Hash
	CommitTime int64
}

// Branches lists branches of the given kind, most recently committed first.
// Branches sharing a commit time keep their enumeration order.
func (r *Repo) Branches(kind BranchKind) ([]BranchInfo, error) {
	release := r.shared()
	defer release()
	branches, err := r.enumerateBranches(kind)
	if err != nil {
		return nil, err
	}
	for i := range branches {
		branches[i].CommitTime = r.commitTime(branches[i].Head)
	}
	sort.SliceStable(branches, func(i, j int) bool {
		return branches[i].CommitTime > branches[j].CommitTime
	})
	return branches, nil
}

func (r *Repo) enumerateBranches(kind BranchKind) ([]BranchInfo, error) {
	iter, err := r.repo.References()
	if err != nil {
		return nil, fmt.Errorf("list references: %w", err)
	}
	defer iter.Close()

	out := make([]BranchInfo, 0, 32)
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			return nil
		}
		name := ref.Name()
		switch {
		case kind == LocalBranch && name.IsBranch():
		case kind == RemoteBranch && name.IsRemote():
		default:
			return nil
		}
		out = append(out, BranchInfo{Name: name.Short(), Head: ref.Hash()})
		return nil
	})
	if err != nil && !errors.Is(err, storer.ErrStop) {
		return nil, err
	}
	return out, nil
}

func (r *Repo) commitTime(hash plumbing.Hash) int64 {
	commit, err := r.repo.CommitObject(hash)
	if err != nil {
		return 0
	}
	return commit.Committer.When.Unix()
}

// BranchExists is advisory: any lookup failure reads as false.
func (r *Repo) BranchExists(kind BranchKind, name string, remote string) bool {
	_, ok := r.ResolveBranch(kind, name, remote)
	return ok
}

// ResolveBranch finds a branch by name. Remote branches are looked up under
// remote's namespace, so "feature" resolves refs/remotes/<remote>/feature.
func (r *Repo) ResolveBranch(kind BranchKind, name string, remote string) (BranchInfo, bool) {
	release := r.shared()
	defer release()
	return r.resolveBranch(kind, name, remote)
}

func (r *Repo) resolveBranch(kind BranchKind, name string, remote string) (BranchInfo, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return BranchInfo{}, false
	}
	refName := plumbing.NewBranchReferenceName(name)
	if kind == RemoteBranch {
		if strings.TrimSpace(remote) == "" {
			remote = DefaultRemote
		}
		refName = plumbing.NewRemoteReferenceName(remote, name)
	}
	ref, err := r.repo.Reference(refName, true)
	if err != nil {
		return BranchInfo{}, false
	}
	return BranchInfo{Name: name, Head: ref.Hash(), CommitTime: r.commitTime(ref.Hash())}, true
}

// HeadCommit resolves HEAD to the commit it points at.
func (r *Repo) HeadCommit() (plumbing.Hash, error) {
	release := r.shared()
	defer release()
	head, err := r.repo.Head()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("resolve HEAD: %w", err)
	}
	commit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("resolve HEAD commit: %w", err)
	}
	return commit.Hash, nil
}

// CreateBranch points a new local branch at commit. It fails if the branch exists.
func (r *Repo) CreateBranch(name string, commit plumbing.Hash) (BranchInfo, error) {
	if err := ValidateBranchName(name); err != nil {
		return BranchInfo{}, err
	}
	release := r.shared()
	defer release()
	refName := plumbing.NewBranchReferenceName(name)
	if _, err := r.repo.Reference(refName, false); err == nil {
		return BranchInfo{}, fmt.Errorf("branch %q already exists", name)
	}
	if _, err := r.repo.CommitObject(commit); err != nil {
		return BranchInfo{}, fmt.Errorf("branch %q: commit %s: %w", name, commit, err)
	}
	if err := r.repo.Storer.SetReference(plumbing.NewHashReference(refName, commit)); err != nil {
		return BranchInfo{}, fmt.Errorf("create branch %q: %w", name, err)
	}
	r.logger.WithFields(logrus.Fields{"branch": name, "commit": commit.String()}).Debug("created branch")
	return BranchInfo{Name: name, Head: commit, CommitTime: r.commitTime(commit)}, nil
}

// deleteBranch removes a local branch. Callers hold the store lock.
func (r *Repo) deleteBranch(name string) error {
	if err := r.repo.Storer.RemoveReference(plumbing.NewBranchReferenceName(name)); err != nil {
		return fmt.Errorf("delete branch %q: %w", name, err)
	}
	r.logger.WithField("branch", name).Debug("deleted branch")
	return nil
}

// ValidateBranchName applies the subset of git's ref name rules that matter
// for names typed by hand or copied from a pull request.
func ValidateBranchName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: branch name required", ErrInvalidName)
	}
	invalid := func(reason string) error {
		return fmt.Errorf("%w: branch %q %s", ErrInvalidName, name, reason)
	}
	switch {
	case name == "@":
		return invalid("is reserved")
	case strings.HasPrefix(name, "-"):
		return invalid("starts with '-'")
	case strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/"):
		return invalid("starts or ends with '/'")
	case strings.HasSuffix(name, "."):
		return invalid("ends with '.'")
	case strings.HasSuffix(name, ".lock"):
		return invalid("ends with .lock")
	case strings.Contains(name, ".."):
		return invalid("contains '..'")
	case strings.Contains(name, "//"):
		return invalid("contains '//'")
	case strings.Contains(name, "@{"):
		return invalid("contains '@{'")
	case strings.ContainsAny(name, " ~^:?*[\\"):
		return invalid("contains a forbidden character")
	}
	for _, part := range strings.Split(name, "/") {
		if strings.HasPrefix(part, ".") {
			return invalid("has a component starting with '.'")
		}
	}
	for _, c := range name {
		if c < 0x20 || c == 0x7f {
			return invalid("contains a control character")
		}
	}
	return nil
}

// Package workspace resolves, creates and switches between workspaces: local
// branches in regular repositories and linked worktrees in bare or worktree
// based ones. Every operation ends in a Directive for the calling shell.
package workspace

type Topology int

const (
	Regular Topology = iota
	Bare
	Worktree
)

func (t Topology) String() string {
	switch t {
	case Bare:
		return "bare"
	case Worktree:
		return "worktree"
	default:
		return "regular"
	}
}

// UsesWorktrees reports whether workspaces are worktrees rather than
// branches checked out in place.
func (t Topology) UsesWorktrees() bool {
	return t == Bare || t == Worktree
}

type topologyFlags interface {
	IsBare() bool
	IsWorktree() bool
}

// Classify picks the workflow for repo. Bareness wins over worktree
// membership.
func Classify(repo topologyFlags) Topology {
	switch {
	case repo.IsBare():
		return Bare
	case repo.IsWorktree():
		return Worktree
	default:
		return Regular
	}
}

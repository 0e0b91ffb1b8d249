package workspace

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mrbonezy/gwt/picker"
)

// ResolutionError names the branch, worktree or pull request that could not
// be resolved or created.
type ResolutionError struct {
	Resource string
	Name     string
	Err      error
}

func (e *ResolutionError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%s: %v", e.Resource, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Resource, e.Name, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// DirtyWorkspaceError blocks a branch switch over uncommitted tracked changes.
type DirtyWorkspaceError struct {
	Path  string
	Files []string
}

func (e *DirtyWorkspaceError) Error() string {
	const shown = 5
	files := e.Files
	more := ""
	if len(files) > shown {
		more = fmt.Sprintf(" and %d more", len(files)-shown)
		files = files[:shown]
	}
	return fmt.Sprintf("%s has uncommitted changes (%s%s); commit or stash them first",
		e.Path, strings.Join(files, ", "), more)
}

// TaskError is the failure of one pull request in a batch.
type TaskError struct {
	PR      int
	HeadRef string
	Err     error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("PR #%d (%s): %v", e.PR, e.HeadRef, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }

// IsCancelled reports whether err means the user backed out rather than
// something failing.
func IsCancelled(err error) bool {
	return errors.Is(err, picker.ErrAborted) || errors.Is(err, context.Canceled)
}

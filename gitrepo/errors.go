package gitrepo

import "errors"

var (
	ErrNotInRepository = errors.New("not in a git repository")
	ErrGitNotInstalled = errors.New("git not installed")
	ErrNotFound        = errors.New("not found")
	ErrRemoteNotFound  = errors.New("remote not found")
	ErrInvalidName     = errors.New("invalid name")
	ErrBareRepository  = errors.New("repository has no working tree")
)

package gitrepo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"
)

type gitResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

var lookGit = func() (string, error) {
	return exec.LookPath("git")
}

var allowedGitSubcommands = map[string]struct{}{
	"worktree": {},
}

func runGit(ctx context.Context, logger *logrus.Entry, dir string, args ...string) (gitResult, error) {
	if len(args) == 0 {
		return gitResult{ExitCode: -1}, errors.New("git command is required")
	}
	if _, ok := allowedGitSubcommands[args[0]]; !ok {
		return gitResult{ExitCode: -1}, fmt.Errorf("git subcommand %q is not allowed", args[0])
	}
	gitPath, err := lookGit()
	if err != nil {
		return gitResult{ExitCode: -1}, ErrGitNotInstalled
	}

	cmd := exec.CommandContext(ctx, gitPath, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	res := gitResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode(err),
	}
	if logger != nil {
		logger.WithFields(logrus.Fields{
			"argv":   "git " + strings.Join(args, " "),
			"dir":    dir,
			"exit":   res.ExitCode,
			"stderr": strings.TrimSpace(res.Stderr),
		}).Debug("ran git")
	}
	if err != nil {
		return res, commandError(args, err, res.Stderr)
	}
	return res, nil
}

// commandError prefers git's own stderr over the bare exit status.
func commandError(args []string, err error, stderr string) error {
	msg := strings.TrimSpace(stderr)
	if msg == "" {
		return fmt.Errorf("git %s: %w", args[0], err)
	}
	return fmt.Errorf("git %s: %w: %s", args[0], err, msg)
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return -1
	}
	return exitErr.ExitCode()
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/mrbonezy/gwt/workspace"
	"github.com/sirupsen/logrus"
)

const (
	exitOK        = 0
	exitFailure   = 1
	exitDirty     = 70
	exitCancelled = 130
)

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

func run(args []string, stdout io.Writer, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := newRootCommand(newApp(stdout, stderr))
	if len(args) > 1 {
		cmd.SetArgs(args[1:])
	} else {
		cmd.SetArgs([]string{})
	}
	err := cmd.ExecuteContext(ctx)
	code := exitCode(err)
	switch code {
	case exitOK:
	case exitCancelled:
		logrus.Info("cancelled")
	default:
		fmt.Fprintln(stderr, "gwt error:", err)
	}
	return code
}

// exitCode maps an error to the process status the calling shell sees.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	if workspace.IsCancelled(err) {
		return exitCancelled
	}
	var dirty *workspace.DirtyWorkspaceError
	if errors.As(err, &dirty) {
		return exitDirty
	}
	return exitFailure
}

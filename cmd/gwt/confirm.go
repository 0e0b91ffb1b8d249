package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/mrbonezy/gwt/picker"
	"github.com/mrbonezy/gwt/review"
)

// Batches larger than this ask before creating anything.
const confirmBatchThreshold = 5

const confirmFieldKey = "confirm_result"

func gwtHuhTheme() *huh.Theme {
	t := *huh.ThemeCharm()
	t.Focused.FocusedButton = t.Focused.FocusedButton.Background(lipgloss.Color("#7D56F4"))
	t.Focused.Next = t.Focused.FocusedButton
	return &t
}

func newConfirmForm(title string, description string, result *bool) *huh.Form {
	confirm := huh.NewConfirm().
		Key(confirmFieldKey).
		Title(title).
		Description(description).
		Affirmative("Yes").
		Negative("No").
		Value(result)

	return huh.NewForm(huh.NewGroup(confirm)).
		WithTheme(gwtHuhTheme()).
		WithShowHelp(false)
}

// confirmBatch asks on the terminal before a large batch. Small batches and
// non-interactive sessions go ahead.
func confirmBatch(out io.Writer) func([]review.PullRequest) (bool, error) {
	return func(prs []review.PullRequest) (bool, error) {
		if len(prs) <= confirmBatchThreshold {
			return true, nil
		}
		if !isatty.IsTerminal(os.Stdin.Fd()) || !isatty.IsTerminal(os.Stderr.Fd()) {
			return true, nil
		}
		ok := false
		form := newConfirmForm(
			fmt.Sprintf("Create %d workspaces?", len(prs)),
			batchSummary(prs, 8),
			&ok,
		).WithOutput(out)
		if err := form.Run(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return false, picker.ErrAborted
			}
			return false, err
		}
		return ok, nil
	}
}

func batchSummary(prs []review.PullRequest, limit int) string {
	lines := make([]string, 0, limit+1)
	for i, pr := range prs {
		if i == limit {
			lines = append(lines, fmt.Sprintf("... and %d more", len(prs)-limit))
			break
		}
		lines = append(lines, fmt.Sprintf("#%d %s", pr.Number, pr.HeadRef))
	}
	return strings.Join(lines, "\n")
}

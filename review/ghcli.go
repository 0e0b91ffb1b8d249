package review

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var ErrGHNotInstalled = errors.New("gh not installed")

var runGH = func(ctx context.Context, ghPath string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, ghPath, args...)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if msg := strings.TrimSpace(string(exitErr.Stderr)); msg != "" {
				return nil, fmt.Errorf("%w: %s", err, msg)
			}
		}
		return nil, err
	}
	return out, nil
}

var lookGH = func() (string, error) {
	return exec.LookPath("gh")
}

const ghListLimit = 200

type ghPR struct {
	Number      int    `json:"number"`
	HeadRefName string `json:"headRefName"`
	URL         string `json:"url"`
	IsDraft     bool   `json:"isDraft"`
}

// GHCLILister lists pull requests through an authenticated gh CLI.
type GHCLILister struct{}

func (GHCLILister) List(ctx context.Context, repo Repository, state State) ([]PullRequest, error) {
	ghPath, err := lookGH()
	if err != nil {
		return nil, ErrGHNotInstalled
	}
	target := repo.String()
	if repo.Host != "" && repo.Host != "github.com" {
		target = repo.Host + "/" + target
	}
	out, err := runGH(ctx, ghPath,
		"pr", "list",
		"--repo", target,
		"--state", string(state),
		"--json", "number,headRefName,url,isDraft",
		"--limit", fmt.Sprint(ghListLimit),
	)
	if err != nil {
		return nil, fmt.Errorf("gh pr list for %s: %w", target, err)
	}
	var prs []ghPR
	if err := json.Unmarshal(out, &prs); err != nil {
		return nil, fmt.Errorf("decode gh output: %w", err)
	}
	result := make([]PullRequest, 0, len(prs))
	for _, pr := range prs {
		result = append(result, PullRequest{
			Number:  pr.Number,
			HeadRef: strings.TrimSpace(pr.HeadRefName),
			URL:     strings.TrimSpace(pr.URL),
			Draft:   pr.IsDraft,
		})
	}
	return result, nil
}

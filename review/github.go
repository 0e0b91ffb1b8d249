package review

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v66/github"
	"github.com/sirupsen/logrus"
)

const perPage = 100

// GitHubLister talks to the GitHub REST API. Without a token requests are
// anonymous and subject to the lower rate limit.
type GitHubLister struct {
	Token string
	// BaseURL points at a GitHub Enterprise API. When empty, github.com
	// repositories use the public API and other hosts use
	// https://<host>/api/v3/.
	BaseURL    string
	HTTPClient *http.Client
	Logger     *logrus.Entry
}

func (l *GitHubLister) logger() *logrus.Entry {
	if l.Logger != nil {
		return l.Logger
	}
	return logrus.WithField("component", "review")
}

func (l *GitHubLister) client(repo Repository) (*github.Client, error) {
	client := github.NewClient(l.HTTPClient)
	if token := strings.TrimSpace(l.Token); token != "" {
		client = client.WithAuthToken(token)
	}
	base := strings.TrimSpace(l.BaseURL)
	if base == "" && repo.Host != "" && repo.Host != "github.com" {
		base = "https://" + repo.Host + "/api/v3/"
	}
	if base == "" {
		return client, nil
	}
	client, err := client.WithEnterpriseURLs(base, base)
	if err != nil {
		return nil, fmt.Errorf("github api url %q: %w", base, err)
	}
	return client, nil
}

func (l *GitHubLister) List(ctx context.Context, repo Repository, state State) ([]PullRequest, error) {
	client, err := l.client(repo)
	if err != nil {
		return nil, err
	}
	log := l.logger().WithFields(logrus.Fields{"repo": repo.String(), "state": string(state)})
	if strings.TrimSpace(l.Token) != "" {
		if err := l.reportRateLimit(ctx, client, log); err != nil {
			return nil, err
		}
	}

	opts := &github.PullRequestListOptions{
		State:       string(state),
		ListOptions: github.ListOptions{PerPage: perPage},
	}
	var out []PullRequest
	for {
		page, resp, err := client.PullRequests.List(ctx, repo.Owner, repo.Name, opts)
		if err != nil {
			return nil, fmt.Errorf("list pull requests for %s: %w", repo, err)
		}
		for _, pr := range page {
			out = append(out, PullRequest{
				Number:  pr.GetNumber(),
				HeadRef: pr.GetHead().GetRef(),
				URL:     pr.GetHTMLURL(),
				Draft:   pr.GetDraft(),
			})
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	log.WithField("count", len(out)).Debug("listed pull requests")
	return out, nil
}

// reportRateLimit doubles as a token check: a token the API rejects fails
// here before any listing happens.
func (l *GitHubLister) reportRateLimit(ctx context.Context, client *github.Client, log *logrus.Entry) error {
	limits, _, err := client.RateLimit.Get(ctx)
	if err != nil {
		return fmt.Errorf("read github rate limit (the token might be invalid): %w", err)
	}
	core := limits.GetCore()
	if core == nil {
		return nil
	}
	log.WithFields(logrus.Fields{
		"used":  core.Limit - core.Remaining,
		"limit": core.Limit,
	}).Info("github api rate limit")
	return nil
}

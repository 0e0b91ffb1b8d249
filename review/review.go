// Package review lists pull requests from the code-review service hosting a
// repository's remote.
package review

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
)

var ErrNotHosted = errors.New("remote is not a hosted repository URL")

type PullRequest struct {
	Number  int
	HeadRef string
	URL     string
	Draft   bool
}

// State is the pull request state passed to the service.
type State string

const (
	StateOpen   State = "open"
	StateClosed State = "closed"
	StateAll    State = "all"
)

func ParseState(s string) (State, error) {
	switch st := State(strings.ToLower(strings.TrimSpace(s))); st {
	case StateOpen, StateClosed, StateAll:
		return st, nil
	case "":
		return StateOpen, nil
	}
	return "", fmt.Errorf("unknown pull request state %q (want open, closed or all)", s)
}

// Kind filters on the draft flag.
type Kind int

const (
	KindOpen Kind = iota
	KindDraft
	KindAll
)

func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "open":
		return KindOpen, nil
	case "draft":
		return KindDraft, nil
	case "all":
		return KindAll, nil
	}
	return KindOpen, fmt.Errorf("unknown pull request kind %q (want open, draft or all)", s)
}

func (k Kind) String() string {
	switch k {
	case KindDraft:
		return "draft"
	case KindAll:
		return "all"
	default:
		return "open"
	}
}

func (k Kind) Matches(pr PullRequest) bool {
	switch k {
	case KindAll:
		return true
	case KindDraft:
		return pr.Draft
	default:
		return !pr.Draft
	}
}

// FilterKind keeps the pull requests matching kind, in order.
func FilterKind(prs []PullRequest, kind Kind) []PullRequest {
	out := make([]PullRequest, 0, len(prs))
	for _, pr := range prs {
		if kind.Matches(pr) {
			out = append(out, pr)
		}
	}
	return out
}

// Repository identifies a repository on a hosting service.
type Repository struct {
	Host  string
	Owner string
	Name  string
}

func (r Repository) String() string {
	return r.Owner + "/" + r.Name
}

// ParseRemote extracts host, owner and name from a remote URL such as
// git@github.com:owner/repo.git or https://github.com/owner/repo. The last
// two path segments are owner and name.
func ParseRemote(rawURL string) (Repository, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return Repository{}, fmt.Errorf("%w: empty URL", ErrNotHosted)
	}
	endpoint, err := transport.NewEndpoint(rawURL)
	if err != nil {
		return Repository{}, fmt.Errorf("%w: %v", ErrNotHosted, err)
	}
	if endpoint.Protocol == "file" || endpoint.Host == "" {
		return Repository{}, fmt.Errorf("%w: %s", ErrNotHosted, rawURL)
	}
	p := strings.Trim(path.Clean("/"+endpoint.Path), "/")
	p = strings.TrimSuffix(p, ".git")
	parts := strings.Split(p, "/")
	if len(parts) < 2 {
		return Repository{}, fmt.Errorf("%w: %s has no owner/name path", ErrNotHosted, rawURL)
	}
	owner, name := parts[len(parts)-2], parts[len(parts)-1]
	if owner == "" || name == "" {
		return Repository{}, fmt.Errorf("%w: %s has no owner/name path", ErrNotHosted, rawURL)
	}
	return Repository{Host: strings.ToLower(endpoint.Host), Owner: owner, Name: name}, nil
}

// Lister returns the pull requests of a repository in the given state.
type Lister interface {
	List(ctx context.Context, repo Repository, state State) ([]PullRequest, error)
}

package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/sirupsen/logrus"
)

// Fetch updates refs/remotes/<remote>/* from every branch on the remote.
// Each auth method from creds is tried in turn; only authentication failures
// move on to the next one. Other operations on the same repository wait
// until the fetch is done.
func (r *Repo) Fetch(ctx context.Context, remote string, creds Credentials) error {
	remote = strings.TrimSpace(remote)
	if remote == "" {
		remote = DefaultRemote
	}
	endpoint, remoteURL, err := r.RemoteEndpoint(remote)
	if err != nil {
		return err
	}

	var methods []transport.AuthMethod
	if creds != nil {
		methods = creds.AuthMethods(endpoint)
	}
	if len(methods) == 0 {
		methods = []transport.AuthMethod{nil}
	}

	refSpec := config.RefSpec(fmt.Sprintf("+refs/heads/*:refs/remotes/%s/*", remote))
	log := r.logger.WithFields(logrus.Fields{"remote": remote, "url": remoteURL})
	release := r.exclusive()
	defer release()
	for i, auth := range methods {
		err = r.repo.FetchContext(ctx, &git.FetchOptions{
			RemoteName: remote,
			RefSpecs:   []config.RefSpec{refSpec},
			Auth:       auth,
		})
		if err == nil || errors.Is(err, git.NoErrAlreadyUpToDate) {
			log.Debug("fetched remote")
			return nil
		}
		if !isAuthFailure(err) {
			break
		}
		if auth != nil {
			log.WithField("attempt", i+1).WithError(err).Debug("auth method rejected")
		}
	}
	return fmt.Errorf("fetch %s: %w", remote, err)
}

// RemoteEndpoint parses the first URL configured for remote.
func (r *Repo) RemoteEndpoint(remote string) (*transport.Endpoint, string, error) {
	rem, err := r.repo.Remote(remote)
	if err != nil {
		if errors.Is(err, git.ErrRemoteNotFound) {
			return nil, "", fmt.Errorf("remote %q: %w", remote, ErrRemoteNotFound)
		}
		return nil, "", fmt.Errorf("remote %q: %w", remote, err)
	}
	cfg := rem.Config()
	if cfg == nil || len(cfg.URLs) == 0 {
		return nil, "", fmt.Errorf("remote %q has no URL", remote)
	}
	remoteURL := strings.TrimSpace(cfg.URLs[0])
	endpoint, err := transport.NewEndpoint(remoteURL)
	if err != nil {
		return nil, remoteURL, fmt.Errorf("remote %q: %w", remote, err)
	}
	return endpoint, remoteURL, nil
}

// RemoteURL returns the first URL configured for remote.
func (r *Repo) RemoteURL(remote string) (string, error) {
	_, remoteURL, err := r.RemoteEndpoint(remote)
	if err != nil {
		return "", err
	}
	return remoteURL, nil
}

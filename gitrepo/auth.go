package gitrepo

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	gitssh "github.com/go-git/go-git/v5/plumbing/transport/ssh"
	sshconfig "github.com/kevinburke/ssh_config"
)

var sshConfigGet = func(alias, key string) string {
	return sshconfig.Get(alias, key)
}

var sshConfigGetAll = func(alias, key string) []string {
	return sshconfig.GetAll(alias, key)
}

var sshAgentAuth = func(user string) (transport.AuthMethod, error) {
	return gitssh.NewSSHAgentAuth(user)
}

// Credentials yields the auth methods to try, in order, against a remote.
// An empty result means the remote is fetched anonymously.
type Credentials interface {
	AuthMethods(endpoint *transport.Endpoint) []transport.AuthMethod
}

// DefaultCredentials uses the ssh agent and then ssh key files for ssh
// remotes, and Token as basic auth for http remotes.
type DefaultCredentials struct {
	Token string
	// Home is where ~ in key paths points. Defaults to the user's home.
	Home string
	// KeyNames are tried under ~/.ssh after the host's IdentityFile
	// entries. Defaults to id_ed25519, id_ecdsa and id_rsa.
	KeyNames []string
}

var defaultKeyNames = []string{"id_ed25519", "id_ecdsa", "id_rsa"}

func (c DefaultCredentials) AuthMethods(endpoint *transport.Endpoint) []transport.AuthMethod {
	if endpoint == nil {
		return nil
	}
	if isSSHEndpoint(endpoint) {
		user := sshUser(endpoint)
		var methods []transport.AuthMethod
		if auth, err := sshAgentAuth(user); err == nil {
			methods = append(methods, auth)
		}
		for _, keyPath := range c.keyFiles(endpoint.Host, user) {
			auth, err := gitssh.NewPublicKeysFromFile(user, keyPath, "")
			if err != nil {
				continue
			}
			methods = append(methods, auth)
		}
		return methods
	}
	token := strings.TrimSpace(c.Token)
	if token == "" {
		return nil
	}
	switch strings.ToLower(endpoint.Protocol) {
	case "http", "https":
		return []transport.AuthMethod{&githttp.BasicAuth{Username: "x-access-token", Password: token}}
	}
	return nil
}

func (c DefaultCredentials) home() string {
	if h := strings.TrimSpace(c.Home); h != "" {
		return h
	}
	h, _ := os.UserHomeDir()
	return h
}

// keyFiles returns the readable key files for host, deduplicated, in the
// order ssh would offer them.
func (c DefaultCredentials) keyFiles(host string, user string) []string {
	names := c.KeyNames
	if len(names) == 0 {
		names = defaultKeyNames
	}
	candidates := sshConfigGetAll(host, "IdentityFile")
	for _, name := range names {
		candidates = append(candidates, "~/.ssh/"+name)
	}

	var files []string
	seen := make(map[string]bool, len(candidates))
	for _, raw := range candidates {
		path := c.keyPath(raw, host, user)
		if path == "" || seen[path] {
			continue
		}
		seen[path] = true
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			files = append(files, path)
		}
	}
	return files
}

// keyPath expands an IdentityFile value: the %h, %r and %u tokens, a leading
// ~/, and paths relative to ~/.ssh. "none" and blank values give "".
func (c DefaultCredentials) keyPath(raw string, host string, user string) string {
	value := strings.Trim(strings.TrimSpace(raw), `"'`)
	if value == "" || strings.EqualFold(value, "none") {
		return ""
	}
	pairs := []string{"%%", "%", "%h", host, "%r", user}
	if local := strings.TrimSpace(os.Getenv("USER")); local != "" {
		pairs = append(pairs, "%u", local)
	}
	value = strings.NewReplacer(pairs...).Replace(value)
	if filepath.IsAbs(value) {
		return filepath.Clean(value)
	}
	home := c.home()
	if home == "" {
		return ""
	}
	if rest, ok := strings.CutPrefix(value, "~/"); ok {
		return filepath.Join(home, rest)
	}
	return filepath.Join(home, ".ssh", value)
}

func isSSHEndpoint(endpoint *transport.Endpoint) bool {
	if endpoint == nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(endpoint.Protocol)) {
	case "ssh", "git+ssh", "ssh+git":
		return true
	default:
		return false
	}
}

func sshUser(endpoint *transport.Endpoint) string {
	user := strings.TrimSpace(endpoint.User)
	if user == "" {
		user = strings.TrimSpace(sshConfigGet(endpoint.Host, "User"))
	}
	if user == "" {
		user = "git"
	}
	return user
}

func isAuthFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, transport.ErrAuthenticationRequired) || errors.Is(err, transport.ErrAuthorizationFailed) {
		return true
	}
	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	return strings.Contains(msg, "unable to authenticate") ||
		strings.Contains(msg, "attempted methods") ||
		strings.Contains(msg, "permission denied (publickey)")
}

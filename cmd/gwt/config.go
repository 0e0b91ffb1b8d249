package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mrbonezy/gwt/gitrepo"
)

const (
	backendAPI = "api"
	backendGH  = "gh"

	defaultTokenEnv  = "GWT_GITHUB_TOKEN"
	fallbackTokenEnv = "GITHUB_TOKEN"
)

type Config struct {
	Remote         string `json:"remote"`
	FetchFirst     *bool  `json:"fetch_first,omitempty"`
	PRBackend      string `json:"pr_backend"`
	GitHubTokenEnv string `json:"github_token_env"`
	GitHubAPIURL   string `json:"github_api_url,omitempty"`
}

func DefaultConfig() Config {
	fetch := true
	return Config{
		Remote:         gitrepo.DefaultRemote,
		FetchFirst:     &fetch,
		PRBackend:      backendAPI,
		GitHubTokenEnv: defaultTokenEnv,
	}
}

// LoadConfig reads the config file. A missing file yields the defaults.
func LoadConfig() (Config, error) {
	path, err := configPath()
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return Config{}, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func ConfigExists() (bool, error) {
	path, err := configPath()
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func SaveConfig(cfg Config) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	c.Remote = strings.TrimSpace(c.Remote)
	if c.Remote == "" {
		c.Remote = def.Remote
	}
	if c.FetchFirst == nil {
		c.FetchFirst = def.FetchFirst
	}
	c.PRBackend = strings.ToLower(strings.TrimSpace(c.PRBackend))
	if c.PRBackend == "" {
		c.PRBackend = def.PRBackend
	}
	c.GitHubTokenEnv = strings.TrimSpace(c.GitHubTokenEnv)
	if c.GitHubTokenEnv == "" {
		c.GitHubTokenEnv = def.GitHubTokenEnv
	}
	c.GitHubAPIURL = strings.TrimSpace(c.GitHubAPIURL)
	return c
}

func (c Config) validate() error {
	switch c.PRBackend {
	case backendAPI, backendGH:
		return nil
	}
	return fmt.Errorf("unknown pr_backend %q (want %s or %s)", c.PRBackend, backendAPI, backendGH)
}

func (c Config) fetchFirst() bool {
	return c.FetchFirst == nil || *c.FetchFirst
}

// githubToken reads the token from the configured variable, then GITHUB_TOKEN.
func (c Config) githubToken() string {
	for _, name := range []string{c.GitHubTokenEnv, fallbackTokenEnv} {
		if name == "" {
			continue
		}
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}

func gwtHomeDir() (string, error) {
	home := strings.TrimSpace(os.Getenv("HOME"))
	if home == "" {
		return "", errors.New("HOME not set")
	}
	return filepath.Join(home, ".gwt"), nil
}

func configPath() (string, error) {
	dir, err := gwtHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

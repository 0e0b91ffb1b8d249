package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Remote != "origin" || cfg.PRBackend != backendAPI || cfg.GitHubTokenEnv != defaultTokenEnv {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if !cfg.fetchFirst() {
		t.Fatalf("fetch_first should default to true")
	}
	exists, err := ConfigExists()
	if err != nil || exists {
		t.Fatalf("ConfigExists=%v, %v; want false", exists, err)
	}
}

func TestSaveConfig_RoundTripsAndFillsBlanks(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	fetch := false
	if err := SaveConfig(Config{Remote: " upstream ", FetchFirst: &fetch, PRBackend: "GH"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Remote != "upstream" || cfg.PRBackend != backendGH || cfg.fetchFirst() {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.GitHubTokenEnv != defaultTokenEnv {
		t.Fatalf("blank token env should default, got %q", cfg.GitHubTokenEnv)
	}
}

func TestLoadConfig_RejectsUnknownBackend(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(home, ".gwt", "config.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(`{"pr_backend":"gitlab"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := LoadConfig()
	if err == nil || !strings.Contains(err.Error(), "gitlab") {
		t.Fatalf("expected unknown backend error, got %v", err)
	}
}

func TestGitHubToken_FallsBackToGitHubToken(t *testing.T) {
	cfg := DefaultConfig()

	t.Setenv(defaultTokenEnv, "")
	t.Setenv(fallbackTokenEnv, "fallback")
	if got := cfg.githubToken(); got != "fallback" {
		t.Fatalf("expected fallback token, got %q", got)
	}

	t.Setenv(defaultTokenEnv, "primary")
	if got := cfg.githubToken(); got != "primary" {
		t.Fatalf("expected configured variable to win, got %q", got)
	}

	cfg.GitHubTokenEnv = "MY_TOKEN"
	t.Setenv("MY_TOKEN", "mine")
	if got := cfg.githubToken(); got != "mine" {
		t.Fatalf("expected custom variable, got %q", got)
	}
}

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/mrbonezy/gwt/gitrepo"
	"github.com/mrbonezy/gwt/picker"
	"github.com/mrbonezy/gwt/review"
	"github.com/mrbonezy/gwt/workspace"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// app holds what every command shares: output streams, global flags and the
// collaborators tests replace.
type app struct {
	stdout io.Writer
	stderr io.Writer

	selector  picker.Selector
	newLister func(Config) review.Lister
	confirm   func([]review.PullRequest) (bool, error)

	repoPath  string
	remote    string
	noFetch   bool
	verbosity int

	cfg    Config
	loaded bool
}

func newApp(stdout io.Writer, stderr io.Writer) *app {
	return &app{
		stdout:    stdout,
		stderr:    stderr,
		selector:  picker.TerminalSelector{},
		newLister: newLister,
		confirm:   confirmBatch(stderr),
	}
}

func newLister(cfg Config) review.Lister {
	if cfg.PRBackend == backendGH {
		return review.GHCLILister{}
	}
	return &review.GitHubLister{Token: cfg.githubToken(), BaseURL: cfg.GitHubAPIURL}
}

func newRootCommand(a *app) *cobra.Command {
	var showVersion bool
	root := &cobra.Command{
		Use:   "gwt",
		Short: "Switch between and create git branches and worktrees",
		Long: strings.Join([]string{
			"gwt resolves a branch or worktree and prints the one shell line that takes you there,",
			"either `cd <path>` or `git checkout <branch>`. Wrap it in a shell function that evals it.",
		}, "\n"),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			setupLogging(a.stderr, a.verbosity)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if showVersion {
				fmt.Fprintln(a.stdout, currentVersion())
				return nil
			}
			return cmd.Help()
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.Flags().BoolVar(&showVersion, "version", false, "Print gwt version and exit")

	pf := root.PersistentFlags()
	pf.StringVarP(&a.repoPath, "repo", "C", ".", "Repository path")
	pf.StringVar(&a.remote, "remote", "", "Remote to sync and read pull requests from (default from config, then origin)")
	pf.BoolVar(&a.noFetch, "no-fetch", false, "Skip syncing remote refs before creating workspaces")
	pf.CountVarP(&a.verbosity, "verbose", "v", "Log more (-v info, -vv debug)")

	root.AddCommand(
		newSwitchCommand(a),
		newAddCommand(a),
		newPRCommand(a),
		newConfigCommand(a),
		newCompletionCommand(),
		newVersionCommand(a),
	)
	return root
}

func (a *app) config() (Config, error) {
	if a.loaded {
		return a.cfg, nil
	}
	cfg, err := LoadConfig()
	if err != nil {
		return Config{}, err
	}
	if r := strings.TrimSpace(a.remote); r != "" {
		cfg.Remote = r
	}
	if a.noFetch {
		fetch := false
		cfg.FetchFirst = &fetch
	}
	a.cfg, a.loaded = cfg, true
	return cfg, nil
}

func (a *app) openRepo() (*gitrepo.Repo, error) {
	repo, err := gitrepo.Open(a.repoPath)
	if err != nil {
		return nil, fmt.Errorf("open repository at %s: %w", a.repoPath, err)
	}
	return repo, nil
}

func (a *app) creator(cfg Config) *workspace.Creator {
	return &workspace.Creator{
		Remote:      cfg.Remote,
		SkipFetch:   !cfg.fetchFirst(),
		Credentials: gitrepo.DefaultCredentials{Token: cfg.githubToken()},
	}
}

// emit prints the directive, the only thing gwt ever writes to stdout.
func (a *app) emit(repo *gitrepo.Repo, d workspace.Directive) {
	fmt.Fprintln(a.stdout, d.String())
	recordDirective(repo, d)
}

func newSwitchCommand(a *app) *cobra.Command {
	var req workspace.SwitchRequest
	cmd := &cobra.Command{
		Use:     "switch [name]",
		Aliases: []string{"sw"},
		Short:   "Go to a branch or worktree, picking interactively when it is not found",
		Args:    cobra.MaximumNArgs(1),
		ValidArgsFunction: func(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return completeSwitchTargets(a.repoPath, toComplete), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if strings.TrimSpace(req.Branch) == "" {
					req.Branch = args[0]
				}
				if strings.TrimSpace(req.Worktree) == "" {
					req.Worktree = args[0]
				}
			}
			repo, err := a.openRepo()
			if err != nil {
				return err
			}
			resolver := &workspace.Resolver{Selector: a.selector}
			d, err := resolver.Switch(cmd.Context(), repo, req)
			if err != nil {
				return err
			}
			a.emit(repo, d)
			return nil
		},
	}
	cmd.Flags().StringVarP(&req.Branch, "branch", "b", "", "Branch to switch to")
	cmd.Flags().StringVarP(&req.Worktree, "worktree", "w", "", "Worktree to switch to")
	cmd.Flags().StringVarP(&req.Query, "query", "q", "", "Initial picker query")
	_ = cmd.RegisterFlagCompletionFunc("branch", func(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return completeBranches(a.repoPath, toComplete, false), cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("worktree", func(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return completeWorktrees(a.repoPath, toComplete), cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func newAddCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Create a worktree or branch unless it already exists",
		Long: strings.Join([]string{
			"In a bare or worktree-based repository, add creates the worktree <name> (slashes become",
			"underscores), starting from the remote branch of the same name when there is one.",
			"In a regular repository it creates the branch <name> at HEAD.",
		}, "\n"),
		Args: cobra.ExactArgs(1),
		ValidArgsFunction: func(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return completeBranches(a.repoPath, toComplete, true), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			repo, err := a.openRepo()
			if err != nil {
				return err
			}
			d, outcome, err := a.creator(cfg).Add(cmd.Context(), repo, args[0])
			if err != nil {
				return err
			}
			logrus.WithFields(logrus.Fields{"name": args[0], "outcome": outcome.String()}).Info("workspace ready")
			a.emit(repo, d)
			return nil
		},
	}
}

func newPRCommand(a *app) *cobra.Command {
	var state, kind, selection string
	var yes bool
	cmd := &cobra.Command{
		Use:   "pr",
		Short: "Create workspaces for pull requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := review.ParseState(state)
			if err != nil {
				return err
			}
			k, err := review.ParseKind(kind)
			if err != nil {
				return err
			}
			mode, err := workspace.ParseSelectionMode(selection)
			if err != nil {
				return err
			}
			cfg, err := a.config()
			if err != nil {
				return err
			}
			repo, err := a.openRepo()
			if err != nil {
				return err
			}

			orch := &workspace.Orchestrator{
				Lister:   a.newLister(cfg),
				Selector: a.selector,
				Creator:  a.creator(cfg),
				Notices:  a.stderr,
			}
			opts := workspace.SyncOptions{State: st, Kind: k, Selection: mode}
			if !yes && mode == workspace.SelectAll {
				opts.Confirm = a.confirm
			}
			rep, err := orch.Sync(cmd.Context(), repo, opts)
			if err != nil {
				return err
			}

			ready := append(append([]workspace.Materialized{}, rep.Added...), rep.Existed...)
			for _, m := range ready {
				if err := recordRecentBranch(repo.CommonDir, m.PR.HeadRef); err != nil {
					logrus.WithError(err).Warn("failed to update recent branch cache")
					break
				}
			}
			if len(ready) == 1 {
				fmt.Fprintln(a.stdout, ready[0].Directive.String())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&state, "state", string(review.StateOpen), "Pull request state: open, closed or all")
	cmd.Flags().StringVar(&kind, "kind", review.KindOpen.String(), "Pull request kind: open, draft or all")
	cmd.Flags().StringVar(&selection, "select", workspace.SelectAll.String(), "Which pull requests to materialize: all, single or multiple")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask before creating a large batch")
	_ = cmd.RegisterFlagCompletionFunc("state", cobra.FixedCompletions([]string{"open", "closed", "all"}, cobra.ShellCompDirectiveNoFileComp))
	_ = cmd.RegisterFlagCompletionFunc("kind", cobra.FixedCompletions([]string{"open", "draft", "all"}, cobra.ShellCompDirectiveNoFileComp))
	_ = cmd.RegisterFlagCompletionFunc("select", cobra.FixedCompletions([]string{"all", "single", "multiple"}, cobra.ShellCompDirectiveNoFileComp))
	return cmd
}

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			path, err := configPath()
			if err != nil {
				return err
			}
			exists, err := ConfigExists()
			if err != nil {
				return err
			}
			source := path
			if !exists {
				source = "defaults (" + path + " not found)"
			}
			fmt.Fprintf(a.stderr, "config: %s\n", source)
			fmt.Fprintf(a.stderr, "remote: %s\n", cfg.Remote)
			fmt.Fprintf(a.stderr, "fetch_first: %t\n", cfg.fetchFirst())
			fmt.Fprintf(a.stderr, "pr_backend: %s\n", cfg.PRBackend)
			fmt.Fprintf(a.stderr, "github_token_env: %s (set: %t)\n", cfg.GitHubTokenEnv, cfg.githubToken() != "")
			if cfg.GitHubAPIURL != "" {
				fmt.Fprintf(a.stderr, "github_api_url: %s\n", cfg.GitHubAPIURL)
			}
			return nil
		},
	}
	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the defaults",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			exists, err := ConfigExists()
			if err != nil {
				return err
			}
			path, err := configPath()
			if err != nil {
				return err
			}
			if exists && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := SaveConfig(DefaultConfig()); err != nil {
				return err
			}
			fmt.Fprintf(a.stderr, "Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	cmd.AddCommand(initCmd)
	return cmd
}

func newVersionCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print gwt version",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			fmt.Fprintln(a.stdout, currentVersion())
			return nil
		},
	}
}

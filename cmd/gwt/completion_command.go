package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

const (
	zshCompletionBlockStart = "# >>> gwt completion >>>"
	zshCompletionBlockEnd   = "# <<< gwt completion <<<"
	shellFunctionBlockStart = "# >>> gwt shell function >>>"
	shellFunctionBlockEnd   = "# <<< gwt shell function <<<"
)

// shellFunction wraps the binary so the printed directive runs in the
// calling shell.
const shellFunction = `gwt() {
  local out
  out="$(command gwt "$@")" || return $?
  case "$out" in
    "cd "*|"git checkout "*) eval "$out" ;;
    "") ;;
    *) printf '%s\n' "$out" ;;
  esac
}`

type zshCompletionStatus struct {
	Installed       bool
	Enabled         bool
	FunctionEnabled bool
	ScriptPath      string
	ZshrcPath       string
}

func newCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion",
		Short: "Manage shell completion and the gwt shell function",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, err := detectZshCompletionStatus()
			if err != nil {
				return err
			}
			w := cmd.ErrOrStderr()
			fmt.Fprintf(w, "zsh completion installed: %t\n", status.Installed)
			fmt.Fprintf(w, "zsh completion enabled: %t\n", status.Enabled)
			fmt.Fprintf(w, "zsh shell function enabled: %t\n", status.FunctionEnabled)
			if !status.Installed || !status.Enabled {
				fmt.Fprintln(w, "Install with: gwt completion install")
			}
			if !status.FunctionEnabled {
				fmt.Fprintln(w, "Shell function: gwt completion install --function")
			}
			return nil
		},
	}

	cmd.AddCommand(
		newCompletionScriptCommand("bash", func(c *cobra.Command, buf *bytes.Buffer) error { return c.Root().GenBashCompletionV2(buf, true) }),
		newCompletionScriptCommand("zsh", func(c *cobra.Command, buf *bytes.Buffer) error { return c.Root().GenZshCompletion(buf) }),
		newCompletionScriptCommand("fish", func(c *cobra.Command, buf *bytes.Buffer) error { return c.Root().GenFishCompletion(buf, true) }),
		newCompletionScriptCommand("powershell", func(c *cobra.Command, buf *bytes.Buffer) error {
			return c.Root().GenPowerShellCompletionWithDesc(buf)
		}),
		newCompletionFunctionCommand(),
		newCompletionInstallCommand(),
	)
	return cmd
}

func newCompletionScriptCommand(shell string, gen func(*cobra.Command, *bytes.Buffer) error) *cobra.Command {
	return &cobra.Command{
		Use:   shell,
		Short: "Generate " + shell + " completion script",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var buf bytes.Buffer
			if err := gen(cmd, &buf); err != nil {
				return err
			}
			_, err := cmd.OutOrStdout().Write(buf.Bytes())
			return err
		},
	}
}

func newCompletionFunctionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "function",
		Short: "Print the bash/zsh function that evaluates gwt directives",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, _ = io.WriteString(cmd.OutOrStdout(), shellFunction+"\n")
			return nil
		},
	}
}

func newCompletionInstallCommand() *cobra.Command {
	var withFunction bool
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install zsh completion",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, err := installZshCompletion(cmd.Root(), withFunction)
			if err != nil {
				return err
			}
			w := cmd.ErrOrStderr()
			fmt.Fprintf(w, "Installed completion script: %s\n", status.ScriptPath)
			fmt.Fprintf(w, "Updated zsh config: %s\n", status.ZshrcPath)
			if withFunction {
				fmt.Fprintln(w, "Installed shell function: gwt")
			} else {
				fmt.Fprintln(w, "Shell function unchanged (opt-in via: gwt completion install --function)")
			}
			fmt.Fprintln(w, "Restart shell or run: exec zsh")
			return nil
		},
	}
	cmd.Flags().BoolVar(&withFunction, "function", false, "Also install the gwt shell function")
	return cmd
}

func detectZshCompletionStatus() (zshCompletionStatus, error) {
	home := strings.TrimSpace(os.Getenv("HOME"))
	if home == "" {
		return zshCompletionStatus{}, errors.New("HOME not set")
	}
	status := zshCompletionStatus{
		ScriptPath: filepath.Join(home, ".gwt", "completions", "_gwt"),
		ZshrcPath:  filepath.Join(home, ".zshrc"),
	}

	if info, err := os.Stat(status.ScriptPath); err == nil && info.Size() > 0 {
		status.Installed = true
	}
	data, err := os.ReadFile(status.ZshrcPath)
	if errors.Is(err, os.ErrNotExist) {
		return status, nil
	}
	if err != nil {
		return zshCompletionStatus{}, err
	}
	content := string(data)
	status.Enabled = strings.Contains(content, zshCompletionBlockStart) && strings.Contains(content, zshCompletionBlockEnd)
	status.FunctionEnabled = strings.Contains(content, shellFunctionBlockStart) && strings.Contains(content, shellFunctionBlockEnd)
	return status, nil
}

func installZshCompletion(root *cobra.Command, withFunction bool) (zshCompletionStatus, error) {
	status, err := detectZshCompletionStatus()
	if err != nil {
		return zshCompletionStatus{}, err
	}
	if err := os.MkdirAll(filepath.Dir(status.ScriptPath), 0o755); err != nil {
		return zshCompletionStatus{}, err
	}

	var buf bytes.Buffer
	if err := root.GenZshCompletion(&buf); err != nil {
		return zshCompletionStatus{}, err
	}
	if err := os.WriteFile(status.ScriptPath, buf.Bytes(), 0o644); err != nil {
		return zshCompletionStatus{}, err
	}

	current := ""
	if data, err := os.ReadFile(status.ZshrcPath); err == nil {
		current = string(data)
	} else if !errors.Is(err, os.ErrNotExist) {
		return zshCompletionStatus{}, err
	}

	updated := upsertManagedBlock(current, zshCompletionBlock(), zshCompletionBlockStart, zshCompletionBlockEnd)
	if withFunction {
		updated = upsertManagedBlock(updated, shellFunctionBlock(), shellFunctionBlockStart, shellFunctionBlockEnd)
	}
	if err := os.WriteFile(status.ZshrcPath, []byte(updated), 0o644); err != nil {
		return zshCompletionStatus{}, err
	}
	return detectZshCompletionStatus()
}

func zshCompletionBlock() string {
	return strings.Join([]string{
		zshCompletionBlockStart,
		"fpath+=(\"$HOME/.gwt/completions\")",
		"autoload -Uz compinit",
		"compinit",
		zshCompletionBlockEnd,
		"",
	}, "\n")
}

func shellFunctionBlock() string {
	return strings.Join([]string{
		shellFunctionBlockStart,
		shellFunction,
		"compdef _gwt gwt 2>/dev/null",
		shellFunctionBlockEnd,
		"",
	}, "\n")
}

func upsertManagedBlock(content string, block string, startMarker string, endMarker string) string {
	start := strings.Index(content, startMarker)
	end := strings.Index(content, endMarker)
	if start >= 0 && end >= start {
		end += len(endMarker)
		replaced := content[:start] + block + content[end:]
		return strings.TrimRight(replaced, "\n") + "\n"
	}
	content = strings.TrimRight(content, "\n")
	if content == "" {
		return block
	}
	return content + "\n\n" + block
}

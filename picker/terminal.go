package picker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/junegunn/fzf/src/util"
	"github.com/mattn/go-isatty"
)

var ErrNoTerminal = errors.New("interactive selection needs a terminal")

const maxVisible = 12

var (
	hintStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true)
	normalStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("251"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// TerminalSelector draws the picker on Output (stderr by default) and reads
// keys from the controlling terminal, so stdout stays free for the caller.
type TerminalSelector struct {
	Output io.Writer
}

func (s TerminalSelector) Select(ctx context.Context, req Request) (Result, bool, error) {
	if len(req.Candidates) == 0 {
		return Result{}, false, nil
	}
	out := s.Output
	if out == nil {
		if !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd()) {
			return Result{}, true, ErrNoTerminal
		}
		out = os.Stderr
	}

	p := tea.NewProgram(newSelectModel(req),
		tea.WithContext(ctx),
		tea.WithOutput(out),
		tea.WithInputTTY(),
	)
	final, err := p.Run()
	if err != nil {
		return Result{}, true, fmt.Errorf("picker: %w", err)
	}
	m, ok := final.(selectModel)
	if !ok {
		return Result{}, true, fmt.Errorf("picker: unexpected model %T", final)
	}
	return m.result(), true, nil
}

type selectModel struct {
	req      Request
	matches  []match
	cursor   int
	toggled  map[int]bool
	input    textinput.Model
	slab     *util.Slab
	key      Key
	accepted []int
	done     bool
}

func newSelectModel(req Request) selectModel {
	ti := textinput.New()
	ti.Placeholder = "type to filter..."
	ti.Prompt = "> "
	ti.CharLimit = 256
	ti.Width = 50
	ti.SetValue(req.Query)
	ti.Focus()

	m := selectModel{
		req:     req,
		toggled: make(map[int]bool),
		input:   ti,
		slab:    util.MakeSlab(100*1024, 2048),
	}
	m.refilter()
	return m
}

func (m selectModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "esc":
			m.key = Abort
			m.done = true
			return m, tea.Quit
		case "enter":
			m.key = Accept
			m.accepted = m.acceptedIndices()
			m.done = true
			return m, tea.Quit
		case "up", "ctrl+p":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case "down", "ctrl+n":
			if m.cursor < len(m.matches)-1 {
				m.cursor++
			}
			return m, nil
		case "tab":
			if m.req.Multi && len(m.matches) > 0 {
				idx := m.matches[m.cursor].index
				m.toggled[idx] = !m.toggled[idx]
				if m.cursor < len(m.matches)-1 {
					m.cursor++
				}
			}
			return m, nil
		case "ctrl+a":
			if m.req.Multi {
				for _, mt := range m.matches {
					m.toggled[mt.index] = !m.toggled[mt.index]
				}
			}
			return m, nil
		}
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.refilter()
	}
	return m, cmd
}

func (m *selectModel) refilter() {
	m.matches = rank(m.req.Candidates, m.input.Value(), m.slab)
	if m.cursor >= len(m.matches) {
		m.cursor = len(m.matches) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// acceptedIndices returns the toggled items in candidate order, or the item
// under the cursor when nothing is toggled.
func (m selectModel) acceptedIndices() []int {
	if m.req.Multi {
		var picked []int
		for idx, on := range m.toggled {
			if on {
				picked = append(picked, idx)
			}
		}
		if len(picked) > 0 {
			sort.Ints(picked)
			return picked
		}
	}
	if len(m.matches) == 0 {
		return nil
	}
	return []int{m.matches[m.cursor].index}
}

func (m selectModel) result() Result {
	if m.key == Abort || !m.done {
		return Result{Key: Abort}
	}
	return Result{Key: Accept, Indices: m.accepted}
}

func (m selectModel) View() string {
	if m.done {
		return ""
	}
	var b strings.Builder
	if hint := strings.TrimSpace(m.req.Hint); hint != "" {
		b.WriteString(hintStyle.Render(hint))
		b.WriteString("\n")
	}
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %d/%d", len(m.matches), len(m.req.Candidates))))
	b.WriteString("\n")

	start := 0
	if m.cursor >= maxVisible {
		start = m.cursor - maxVisible + 1
	}
	for i := start; i < len(m.matches) && i < start+maxVisible; i++ {
		idx := m.matches[i].index
		marker := "  "
		if m.req.Multi {
			marker = "○ "
			if m.toggled[idx] {
				marker = "● "
			}
		}
		line := marker + m.req.Candidates[idx]
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString(normalStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}
	if len(m.matches) == 0 {
		b.WriteString(dimStyle.Render("  (no matches)"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	help := "↑/↓ navigate • enter select • esc cancel"
	if m.req.Multi {
		help = "↑/↓ navigate • tab toggle • ctrl+a toggle all • enter select • esc cancel"
	}
	b.WriteString(dimStyle.Render(help))
	return b.String()
}

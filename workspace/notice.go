package workspace

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

var (
	noticeTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	noticeKeyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

type noticeWriter struct {
	w      io.Writer
	styled bool
	out    *termenv.Output
}

func newNoticeWriter(w io.Writer) noticeWriter {
	nw := noticeWriter{w: w}
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		nw.styled = true
		nw.out = termenv.NewOutput(f)
	}
	return nw
}

func (n noticeWriter) write(m Materialized) {
	title := fmt.Sprintf("Added workspace for PR #%d:", m.PR.Number)
	url := m.PR.URL
	key := func(s string) string { return s }
	if n.styled {
		title = noticeTitleStyle.Render(title)
		if url != "" {
			url = n.out.Hyperlink(url, url)
		}
		key = func(s string) string { return noticeKeyStyle.Render(s) }
	}
	fmt.Fprintf(n.w, "%s\n  %s %s\n  %s %s\n  %s %s\n",
		title,
		key("branch:"), m.PR.HeadRef,
		key("url:   "), url,
		key("goto:  "), m.Directive,
	)
}

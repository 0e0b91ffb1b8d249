package workspace

import "strings"

type DirectiveKind int

const (
	ChangeDirectory DirectiveKind = iota
	CheckoutBranch
)

// Directive is the single line of shell the caller evaluates.
type Directive struct {
	Kind   DirectiveKind
	Target string
}

func ChangeDir(path string) Directive {
	return Directive{Kind: ChangeDirectory, Target: path}
}

func Checkout(branch string) Directive {
	return Directive{Kind: CheckoutBranch, Target: branch}
}

func (d Directive) String() string {
	if d.Kind == CheckoutBranch {
		return "git checkout " + shellQuote(d.Target)
	}
	return "cd " + shellQuote(d.Target)
}

// AddOutcome tells whether a create call found the workspace or made it.
type AddOutcome int

const (
	Existed AddOutcome = iota
	Added
)

func (o AddOutcome) String() string {
	if o == Added {
		return "added"
	}
	return "existed"
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, c := range s {
		if !isShellSafe(c) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func isShellSafe(c rune) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	return strings.ContainsRune("-_./:@%+=,", c)
}

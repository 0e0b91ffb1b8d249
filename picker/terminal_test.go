package picker

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func press(m selectModel, msgs ...tea.Msg) selectModel {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(selectModel)
	}
	return m
}

func typed(s string) tea.Msg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestSelectModel_EnterAcceptsCursorItem(t *testing.T) {
	m := newSelectModel(Request{Candidates: []string{"main", "feature/login", "fix/logout"}})
	m = press(m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyEnter})
	res := m.result()
	if res.Key != Accept || len(res.Indices) != 1 || res.Indices[0] != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestSelectModel_QueryFilters(t *testing.T) {
	m := newSelectModel(Request{Candidates: []string{"main", "feature/login", "release"}})
	m = press(m, typed("login"))
	if len(m.matches) != 1 || m.matches[0].index != 1 {
		t.Fatalf("expected only feature/login to match, got %+v", m.matches)
	}
	m = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if res := m.result(); len(res.Indices) != 1 || res.Indices[0] != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestSelectModel_PrefilledQuery(t *testing.T) {
	m := newSelectModel(Request{Candidates: []string{"main", "feature/login"}, Query: "feat"})
	if len(m.matches) != 1 || m.matches[0].index != 1 {
		t.Fatalf("expected prefilled query to filter, got %+v", m.matches)
	}
}

func TestSelectModel_NoMatchAcceptIsEmpty(t *testing.T) {
	m := newSelectModel(Request{Candidates: []string{"main"}, Query: "zzz"})
	m = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	res := m.result()
	if res.Key != Accept || len(res.Indices) != 0 {
		t.Fatalf("expected empty accept, got %+v", res)
	}
}

func TestSelectModel_AbortKeys(t *testing.T) {
	for _, key := range []tea.KeyType{tea.KeyEsc, tea.KeyCtrlC} {
		m := newSelectModel(Request{Candidates: []string{"main"}})
		m = press(m, tea.KeyMsg{Type: key})
		if res := m.result(); res.Key != Abort || len(res.Indices) != 0 {
			t.Fatalf("key %v: expected abort, got %+v", key, res)
		}
	}
}

func TestSelectModel_ToggleOnlyInMultiMode(t *testing.T) {
	single := newSelectModel(Request{Candidates: []string{"a", "b", "c"}})
	single = press(single, tea.KeyMsg{Type: tea.KeyTab}, tea.KeyMsg{Type: tea.KeyCtrlA}, tea.KeyMsg{Type: tea.KeyEnter})
	if res := single.result(); len(res.Indices) != 1 || res.Indices[0] != 0 {
		t.Fatalf("single mode should ignore toggles, got %+v", res)
	}

	multi := newSelectModel(Request{Candidates: []string{"a", "b", "c"}, Multi: true})
	// tab toggles "a" and moves to "b"; tab toggles "b".
	multi = press(multi, tea.KeyMsg{Type: tea.KeyTab}, tea.KeyMsg{Type: tea.KeyTab}, tea.KeyMsg{Type: tea.KeyEnter})
	res := multi.result()
	if len(res.Indices) != 2 || res.Indices[0] != 0 || res.Indices[1] != 1 {
		t.Fatalf("expected a and b, got %+v", res)
	}
}

func TestSelectModel_ToggleAll(t *testing.T) {
	m := newSelectModel(Request{Candidates: []string{"a", "b", "c"}, Multi: true})
	m = press(m, tea.KeyMsg{Type: tea.KeyCtrlA}, tea.KeyMsg{Type: tea.KeyEnter})
	if res := m.result(); len(res.Indices) != 3 {
		t.Fatalf("expected all three, got %+v", res)
	}

	m = newSelectModel(Request{Candidates: []string{"a", "b", "c"}, Multi: true})
	m = press(m, tea.KeyMsg{Type: tea.KeyTab}, tea.KeyMsg{Type: tea.KeyCtrlA}, tea.KeyMsg{Type: tea.KeyEnter})
	res := m.result()
	if len(res.Indices) != 2 || res.Indices[0] != 1 || res.Indices[1] != 2 {
		t.Fatalf("toggle all should flip each item, got %+v", res)
	}
}

func TestRank_ScoresAndDropsMisses(t *testing.T) {
	labels := []string{"docs", "feature/login-page", "login", "main"}
	got := rank(labels, "login", nil)
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %+v", got)
	}
	for _, mt := range got {
		if labels[mt.index] == "docs" || labels[mt.index] == "main" {
			t.Fatalf("unexpected match %q", labels[mt.index])
		}
	}
	if all := rank(labels, "  ", nil); len(all) != len(labels) {
		t.Fatalf("blank query should keep everything, got %+v", all)
	}
}

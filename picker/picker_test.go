package picker

import (
	"context"
	"errors"
	"testing"
)

type fakeSelector struct {
	res   Result
	ok    bool
	err   error
	calls int
	last  Request
}

func (f *fakeSelector) Select(_ context.Context, req Request) (Result, bool, error) {
	f.calls++
	f.last = req
	return f.res, f.ok, f.err
}

type candidate struct {
	name string
	pr   int
}

func label(c candidate) string { return c.name }

func TestChoose_MapsIndicesToItems(t *testing.T) {
	items := []candidate{{"main", 0}, {"feature/login", 2}, {"fix/typo", 3}}
	sel := &fakeSelector{ok: true, res: Result{Key: Accept, Indices: []int{2, 1}}}

	got, err := Choose(context.Background(), sel, items, label, Options{Query: "f", Multi: true, Hint: "pick"})
	if err != nil {
		t.Fatalf("choose: %v", err)
	}
	if len(got) != 2 || got[0].pr != 3 || got[1].pr != 2 {
		t.Fatalf("unexpected selection %+v", got)
	}
	if !sel.last.Multi || sel.last.Query != "f" || sel.last.Hint != "pick" {
		t.Fatalf("request not forwarded: %+v", sel.last)
	}
}

func TestChoose_Outcomes(t *testing.T) {
	items := []candidate{{"main", 0}}
	boom := errors.New("boom")
	cases := []struct {
		name string
		sel  *fakeSelector
		want error
	}{
		{name: "abort", sel: &fakeSelector{ok: true, res: Result{Key: Abort}}, want: ErrAborted},
		{name: "empty accept", sel: &fakeSelector{ok: true, res: Result{Key: Accept}}, want: ErrNothingSelected},
		{name: "no session", sel: &fakeSelector{ok: false}, want: ErrNoCandidates},
		{name: "widget error", sel: &fakeSelector{ok: true, err: boom}, want: boom},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Choose(context.Background(), tc.sel, items, label, Options{})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestChoose_EmptyItemsDoesNotPrompt(t *testing.T) {
	sel := &fakeSelector{ok: true}
	_, err := Choose(context.Background(), sel, nil, label, Options{})
	if !errors.Is(err, ErrNoCandidates) {
		t.Fatalf("expected ErrNoCandidates, got %v", err)
	}
	if sel.calls != 0 {
		t.Fatalf("selector should not be called, got %d calls", sel.calls)
	}
}

func TestChoose_RejectsOutOfRangeIndex(t *testing.T) {
	sel := &fakeSelector{ok: true, res: Result{Key: Accept, Indices: []int{5}}}
	if _, err := Choose(context.Background(), sel, []candidate{{"main", 0}}, label, Options{}); err == nil {
		t.Fatalf("expected an error for an out of range index")
	}
}

func TestChooseOne_ForcesSingleMode(t *testing.T) {
	sel := &fakeSelector{ok: true, res: Result{Key: Accept, Indices: []int{0}}}
	got, err := ChooseOne(context.Background(), sel, []candidate{{"main", 1}}, label, Options{Multi: true})
	if err != nil {
		t.Fatalf("choose one: %v", err)
	}
	if got.pr != 1 || sel.last.Multi {
		t.Fatalf("got %+v multi=%v", got, sel.last.Multi)
	}
}

func TestChoose_FlattensMultilineLabels(t *testing.T) {
	sel := &fakeSelector{ok: true, res: Result{Key: Accept, Indices: []int{0}}}
	_, err := Choose(context.Background(), sel, []candidate{{"two\nlines", 0}}, label, Options{})
	if err != nil {
		t.Fatalf("choose: %v", err)
	}
	if sel.last.Candidates[0] != "two lines" {
		t.Fatalf("expected flattened label, got %q", sel.last.Candidates[0])
	}
}

func TestTerminalSelector_EmptyCandidatesReturnsImmediately(t *testing.T) {
	res, ok, err := TerminalSelector{}.Select(context.Background(), Request{})
	if ok || err != nil || len(res.Indices) != 0 {
		t.Fatalf("expected no session, got res=%+v ok=%v err=%v", res, ok, err)
	}
}

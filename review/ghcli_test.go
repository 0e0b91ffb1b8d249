package review

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func stubGH(t *testing.T, out string, err error) *[]string {
	t.Helper()
	var gotArgs []string
	oldRun, oldLook := runGH, lookGH
	lookGH = func() (string, error) { return "/usr/bin/gh", nil }
	runGH = func(_ context.Context, _ string, args ...string) ([]byte, error) {
		gotArgs = append([]string(nil), args...)
		return []byte(out), err
	}
	t.Cleanup(func() {
		runGH, lookGH = oldRun, oldLook
	})
	return &gotArgs
}

func TestGHCLILister_ParsesJSON(t *testing.T) {
	args := stubGH(t, `[{"number":7,"headRefName":"feature/x","url":"https://github.com/o/r/pull/7","isDraft":true}]`, nil)

	prs, err := GHCLILister{}.List(context.Background(), Repository{Host: "github.com", Owner: "o", Name: "r"}, StateOpen)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := PullRequest{Number: 7, HeadRef: "feature/x", URL: "https://github.com/o/r/pull/7", Draft: true}
	if len(prs) != 1 || prs[0] != want {
		t.Fatalf("unexpected pull requests %+v", prs)
	}
	joined := strings.Join(*args, " ")
	if !strings.Contains(joined, "--repo o/r") || !strings.Contains(joined, "--state open") {
		t.Fatalf("unexpected gh args %q", joined)
	}
}

func TestGHCLILister_EnterpriseHostPrefix(t *testing.T) {
	args := stubGH(t, `[]`, nil)
	if _, err := (GHCLILister{}).List(context.Background(), Repository{Host: "ghe.example.com", Owner: "o", Name: "r"}, StateAll); err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(strings.Join(*args, " "), "--repo ghe.example.com/o/r") {
		t.Fatalf("expected host-qualified repo, got %v", *args)
	}
}

func TestGHCLILister_Errors(t *testing.T) {
	stubGH(t, "", errors.New("exit status 1: not logged in"))
	if _, err := (GHCLILister{}).List(context.Background(), Repository{Owner: "o", Name: "r"}, StateOpen); err == nil || !strings.Contains(err.Error(), "not logged in") {
		t.Fatalf("expected gh error to surface, got %v", err)
	}

	stubGH(t, "not json", nil)
	if _, err := (GHCLILister{}).List(context.Background(), Repository{Owner: "o", Name: "r"}, StateOpen); err == nil {
		t.Fatalf("expected decode error")
	}

	lookGH = func() (string, error) { return "", errors.New("missing") }
	if _, err := (GHCLILister{}).List(context.Background(), Repository{Owner: "o", Name: "r"}, StateOpen); !errors.Is(err, ErrGHNotInstalled) {
		t.Fatalf("expected ErrGHNotInstalled, got %v", err)
	}
}

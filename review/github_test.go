package review

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newGitHubServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestGitHubLister_ListPaginates(t *testing.T) {
	var srv *httptest.Server
	srv = newGitHubServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/repos/octo/tools/pulls" {
			http.NotFound(w, r)
			return
		}
		if got := r.URL.Query().Get("state"); got != "open" {
			t.Errorf("expected state=open, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, `[{"number":3,"draft":true,"html_url":"https://example.test/pull/3","head":{"ref":"feature/c"}}]`)
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<%s/api/v3/repos/octo/tools/pulls?state=open&page=2>; rel="next"`, srv.URL))
		fmt.Fprint(w, `[
			{"number":1,"draft":false,"html_url":"https://example.test/pull/1","head":{"ref":"feature/a"}},
			{"number":2,"draft":true,"html_url":"https://example.test/pull/2","head":{"ref":"feature/b"}}
		]`)
	})

	lister := &GitHubLister{BaseURL: srv.URL + "/"}
	prs, err := lister.List(context.Background(), Repository{Host: "github.com", Owner: "octo", Name: "tools"}, StateOpen)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(prs) != 3 {
		t.Fatalf("expected 3 pull requests, got %+v", prs)
	}
	want := PullRequest{Number: 2, HeadRef: "feature/b", URL: "https://example.test/pull/2", Draft: true}
	if prs[1] != want {
		t.Fatalf("prs[1]=%+v, want %+v", prs[1], want)
	}
	if prs[2].Number != 3 {
		t.Fatalf("expected second page to be appended, got %+v", prs)
	}
}

func TestGitHubLister_TokenChecksRateLimit(t *testing.T) {
	var sawRateLimit bool
	srv := newGitHubServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("expected bearer token, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v3/rate_limit":
			sawRateLimit = true
			fmt.Fprint(w, `{"resources":{"core":{"limit":5000,"remaining":4990,"reset":1700000000}}}`)
		case "/api/v3/repos/octo/tools/pulls":
			fmt.Fprint(w, `[]`)
		default:
			http.NotFound(w, r)
		}
	})

	lister := &GitHubLister{Token: "secret", BaseURL: srv.URL + "/"}
	prs, err := lister.List(context.Background(), Repository{Owner: "octo", Name: "tools"}, StateAll)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(prs) != 0 {
		t.Fatalf("expected no pull requests, got %+v", prs)
	}
	if !sawRateLimit {
		t.Fatalf("expected the rate limit endpoint to be queried")
	}
}

func TestGitHubLister_InvalidToken(t *testing.T) {
	srv := newGitHubServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message":"Bad credentials"}`)
	})

	lister := &GitHubLister{Token: "bad", BaseURL: srv.URL + "/"}
	if _, err := lister.List(context.Background(), Repository{Owner: "octo", Name: "tools"}, StateOpen); err == nil {
		t.Fatalf("expected an error for a rejected token")
	}
}

package github

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/riskibarqy/issue-lottery/internal/domain/lottery"
	"github.com/riskibarqy/issue-lottery/internal/platform/resilience"
)

func TestBuildSearchQuery(t *testing.T) {
	t.Parallel()

	got := buildSearchQuery(lottery.CandidateQuery{
		Repository:    "acme/widgets",
		Labels:        []string{"needs-triage", " ", "area/api"},
		UpdatedBefore: time.Date(2026, 3, 9, 15, 0, 0, 0, time.FixedZone("WIB", 7*3600)),
	})
	want := `repo:acme/widgets is:issue is:open label:"needs-triage","area/api" updated:<=2026-03-09T08:00:00Z`
	if got != want {
		t.Fatalf("unexpected query:\n got=%s\nwant=%s", got, want)
	}
}

func TestClientSearchIssues_MapsItemsAndPagination(t *testing.T) {
	t.Parallel()

	var gotQuery, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/issues" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotQuery = r.URL.Query().Get("q")
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Query().Get("sort") != "updated" || r.URL.Query().Get("order") != "asc" {
			t.Errorf("unexpected sort params %s", r.URL.RawQuery)
		}
		if r.URL.Query().Get("per_page") != "2" || r.URL.Query().Get("page") != "1" {
			t.Errorf("unexpected paging params %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"total_count": 3,
			"items": [
				{"number": 12, "title": "Crash on start", "html_url": "https://github.com/acme/widgets/issues/12",
				 "updated_at": "2026-03-01T10:00:00Z", "labels": [{"name": "needs-triage"}]},
				{"number": 13, "title": "A PR", "html_url": "https://github.com/acme/widgets/pull/13",
				 "updated_at": "2026-03-01T11:00:00Z", "pull_request": {}}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, Token: "secret", HTTPClient: server.Client()})
	page, err := client.SearchIssues(context.Background(), lottery.CandidateQuery{
		Repository: "acme/widgets",
		Labels:     []string{"needs-triage"},
		Page:       1,
		PerPage:    2,
	})
	if err != nil {
		t.Fatalf("search issues: %v", err)
	}

	if !strings.HasPrefix(gotQuery, "repo:acme/widgets is:issue is:open") {
		t.Fatalf("unexpected q parameter %q", gotQuery)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("unexpected authorization header %q", gotAuth)
	}
	if len(page.Items) != 1 {
		t.Fatalf("expected pull requests to be dropped, got %d items", len(page.Items))
	}
	item := page.Items[0]
	if item.Number != 12 || item.URL != "https://github.com/acme/widgets/issues/12" || len(item.Labels) != 1 {
		t.Fatalf("unexpected item %+v", item)
	}
	if !item.UpdatedAt.Equal(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected updated_at %s", item.UpdatedAt)
	}
	if !page.HasMore {
		t.Fatalf("expected more pages when total_count exceeds page*per_page")
	}
}

func TestClientSearchIssues_StopsAtSearchCap(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"total_count": 5000, "items": [{"number": 1, "updated_at": "2026-03-01T10:00:00Z"}]}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, HTTPClient: server.Client()})
	page, err := client.SearchIssues(context.Background(), lottery.CandidateQuery{Repository: "acme/widgets", Page: 10, PerPage: 100})
	if err != nil {
		t.Fatalf("search issues: %v", err)
	}
	if page.HasMore {
		t.Fatalf("expected no more pages past the 1000 result cap")
	}
}

func TestClientSearchIssues_SecondaryRateLimitIsMarked(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		status     int
		retryAfter string
		body       string
		want       bool
	}{
		{name: "message", status: http.StatusForbidden, body: `{"message":"You have exceeded a secondary rate limit."}`, want: true},
		{name: "retry-after", status: http.StatusTooManyRequests, retryAfter: "60", body: `{}`, want: true},
		{name: "plain forbidden", status: http.StatusForbidden, body: `{"message":"Resource not accessible"}`, want: false},
		{name: "server error", status: http.StatusBadGateway, body: `bad gateway`, want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				if tc.retryAfter != "" {
					w.Header().Set("Retry-After", tc.retryAfter)
				}
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client := NewClient(ClientConfig{BaseURL: server.URL, HTTPClient: server.Client()})
			_, err := client.SearchIssues(context.Background(), lottery.CandidateQuery{Repository: "acme/widgets"})
			if err == nil {
				t.Fatalf("expected error")
			}
			if got := errors.Is(err, resilience.ErrSecondaryRateLimit); got != tc.want {
				t.Fatalf("expected secondary rate limit=%v, got %v (%v)", tc.want, got, err)
			}
		})
	}
}

func TestClientSearchIssues_RequiresRepository(t *testing.T) {
	t.Parallel()

	client := NewClient(ClientConfig{})
	if _, err := client.SearchIssues(context.Background(), lottery.CandidateQuery{}); err == nil {
		t.Fatalf("expected error for missing repository")
	}
}

package collect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRedditCollect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/r/cybersecurity/search.json") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if ua := r.Header.Get("User-Agent"); ua != "signalradar-test/1.0" {
			t.Errorf("user agent = %q", ua)
		}
		w.Write([]byte(`{"data": {"children": [
			{"data": {
				"title": "Major SSPM vendor comparison thread",
				"author": "secanalyst",
				"selftext": "Looking at posture management tools...",
				"permalink": "/r/cybersecurity/comments/abc/sspm_thread/",
				"score": 42, "num_comments": 17,
				"created_utc": 1756500000,
				"subreddit": "cybersecurity"
			}},
			{"data": {
				"title": "Deleted user post about sspm",
				"author": "[deleted]",
				"selftext": "",
				"permalink": "/r/cybersecurity/comments/def/gone/",
				"score": 5, "num_comments": 1,
				"created_utc": 1756500000,
				"subreddit": "cybersecurity"
			}}
		]}}`))
	}))
	defer srv.Close()

	rc := NewRedditCollector([]string{"cybersecurity"}, "signalradar-test/1.0",
		NewMatcher(map[string][]string{"SSPM": {"sspm"}}))
	rc.baseURL = srv.URL

	items := rc.Collect(context.Background())
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}

	item := items[0]
	if item.EntityName != "secanalyst" {
		t.Errorf("entity = %q", item.EntityName)
	}
	if item.Kind != "conversation" {
		t.Errorf("kind = %q", item.Kind)
	}
	if item.Engagement != 59 {
		t.Errorf("engagement = %d, want 59", item.Engagement)
	}
	if item.SourceID != "reddit:cybersecurity" {
		t.Errorf("source = %q", item.SourceID)
	}
	if !strings.HasPrefix(item.URL, "https://reddit.com/r/cybersecurity/") {
		t.Errorf("url = %q", item.URL)
	}
}

func TestRedditDeduplicatesAcrossQueries(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"data": {"children": [
			{"data": {
				"title": "same sspm post every query",
				"author": "alice",
				"selftext": "",
				"permalink": "/r/saas/comments/xyz/same/",
				"score": 10, "num_comments": 2,
				"created_utc": 1756500000,
				"subreddit": "saas"
			}}
		]}}`))
	}))
	defer srv.Close()

	rc := NewRedditCollector([]string{"saas"}, "",
		NewMatcher(map[string][]string{"SSPM": {"sspm", "posture management"}}))
	rc.baseURL = srv.URL

	items := rc.Collect(context.Background())
	if calls != 2 {
		t.Errorf("expected 2 search calls, got %d", calls)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 deduplicated item, got %d", len(items))
	}
}

func TestRedditServerErrorReturnsNothing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	rc := NewRedditCollector([]string{"saas"}, "",
		NewMatcher(map[string][]string{"SSPM": {"sspm"}}))
	rc.baseURL = srv.URL

	if items := rc.Collect(context.Background()); len(items) != 0 {
		t.Errorf("expected no items, got %d", len(items))
	}
}

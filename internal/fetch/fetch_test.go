package fetch

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"signalradar/internal/signal"
)

func articlePage() string {
	body := strings.Repeat("A detailed analysis of SaaS security posture management. ", 10)
	return `<!DOCTYPE html><html><head><title>Report</title></head><body>
		<article><h1>Report</h1><p>` + body + `</p></article></body></html>`
}

func TestEnrichFillsEmptyBodies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(articlePage()))
	}))
	defer srv.Close()

	items := []signal.RawItem{
		{SourceID: "rss:test", Kind: signal.KindConversation, EntityName: "Test", Title: "a", URL: srv.URL + "/a"},
		{SourceID: "rss:test", Kind: signal.KindConversation, EntityName: "Test", Title: "b", URL: srv.URL + "/b", Body: "already here"},
	}

	result := New(0).Enrich(items)

	if result.Fetched != 1 || result.AlreadyHad != 1 || result.Failed != 0 {
		t.Fatalf("result = %+v", result)
	}
	if !strings.Contains(items[0].Body, "posture management") {
		t.Errorf("body not extracted: %q", items[0].Body)
	}
	if items[1].Body != "already here" {
		t.Errorf("existing body overwritten: %q", items[1].Body)
	}
}

func TestEnrichSkipsFailedDomain(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer srv.Close()

	items := []signal.RawItem{
		{SourceID: "rss:test", Kind: signal.KindConversation, EntityName: "Test", Title: "a", URL: srv.URL + "/a"},
		{SourceID: "rss:test", Kind: signal.KindConversation, EntityName: "Test", Title: "b", URL: srv.URL + "/b"},
		{SourceID: "rss:test", Kind: signal.KindConversation, EntityName: "Test", Title: "c", URL: srv.URL + "/c"},
	}

	result := New(0).Enrich(items)

	if calls != 1 {
		t.Errorf("expected 1 request to failing domain, got %d", calls)
	}
	if result.Failed != 3 {
		t.Errorf("failed = %d, want 3", result.Failed)
	}
	for i := range items {
		if items[i].Body != "" {
			t.Errorf("item %d body = %q, want empty", i, items[i].Body)
		}
	}
}

func TestEnrichShortContentNotUsed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><p>too short</p></body></html>`))
	}))
	defer srv.Close()

	items := []signal.RawItem{
		{SourceID: "rss:test", Kind: signal.KindConversation, EntityName: "Test", Title: "a", URL: srv.URL},
	}

	result := New(0).Enrich(items)
	if result.Fetched != 0 || result.Failed != 1 {
		t.Errorf("result = %+v", result)
	}
	if items[0].Body != "" {
		t.Errorf("body = %q, want empty", items[0].Body)
	}
}

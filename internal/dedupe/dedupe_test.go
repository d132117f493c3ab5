package dedupe

import (
	"testing"

	"signalradar/internal/signal"
)

func conv(url, entityName, title string) signal.ClassifiedItem {
	return signal.ClassifiedItem{
		RawItem: signal.RawItem{
			SourceID:   "test",
			Kind:       signal.KindConversation,
			EntityName: entityName,
			Title:      title,
			URL:        url,
		},
		RelevanceScore:       0.8,
		ClassifiedCategory:   "SaaS Security",
		ClassificationSource: signal.SourceLive,
	}
}

func TestDedupeIdenticalURLs(t *testing.T) {
	d := New(0.8)
	items := []signal.ClassifiedItem{
		conv("http://x/a", "Acme", "Acme breach analysis"),
		conv("http://x/a", "Beta", "A completely different title"),
		conv("http://x/b", "Gamma", "Another story entirely"),
	}
	out := d.Dedupe(items)
	if len(out) != 2 {
		t.Fatalf("expected 2 survivors, got %d", len(out))
	}
	if out[0].EntityName != "Acme" {
		t.Error("expected first-seen item to win")
	}
	if out[1].URL != "http://x/b" {
		t.Error("expected http://x/b to survive")
	}
}

func TestDedupeURLNormalization(t *testing.T) {
	d := New(0.8)
	items := []signal.ClassifiedItem{
		conv("https://Example.com/post/", "A", "Title one here"),
		conv("https://example.com/post?utm_source=feed#section", "B", "Unrelated other words"),
	}
	out := d.Dedupe(items)
	if len(out) != 1 {
		t.Fatalf("expected trailing-slash/query/fragment variants to collapse, got %d", len(out))
	}
}

func TestDedupeSimilarTitlesSameEntity(t *testing.T) {
	d := New(0.8)
	items := []signal.ClassifiedItem{
		conv("http://a.com/1", "Acme Inc.", "Acme launches new SSPM platform today"),
		conv("http://b.com/2", "acme", "Acme launches new SSPM platform"),
	}
	out := d.Dedupe(items)
	if len(out) != 1 {
		t.Fatalf("expected paraphrased republication to collapse, got %d", len(out))
	}
}

func TestDedupeSimilarTitlesDifferentEntity(t *testing.T) {
	d := New(0.8)
	items := []signal.ClassifiedItem{
		conv("http://a.com/1", "Acme", "Company launches new SSPM platform"),
		conv("http://b.com/2", "Beta", "Company launches new SSPM platform"),
	}
	out := d.Dedupe(items)
	if len(out) != 2 {
		t.Fatalf("title similarity alone must not collapse distinct entities, got %d", len(out))
	}
}

func TestDedupeKindsNeverCollapse(t *testing.T) {
	d := New(0.8)
	hiring := conv("http://x/a", "Acme", "Same title")
	hiring.Kind = signal.KindHiring
	items := []signal.ClassifiedItem{hiring, conv("http://x/a", "Acme", "Same title")}
	out := d.Dedupe(items)
	if len(out) != 2 {
		t.Fatalf("hiring and conversation items must not collapse, got %d", len(out))
	}
}

func TestDedupeIdempotent(t *testing.T) {
	d := New(0.8)
	items := []signal.ClassifiedItem{
		conv("http://x/a", "Acme", "Acme SSPM launch coverage"),
		conv("http://x/a", "Acme", "Acme SSPM launch coverage"),
		conv("http://x/b", "Beta", "Beta raises questions over audit"),
	}
	once := d.Dedupe(items)
	twice := d.Dedupe(once)
	if len(once) > len(items) {
		t.Error("output must not exceed input size")
	}
	if len(twice) != len(once) {
		t.Fatalf("dedupe not idempotent: %d vs %d", len(once), len(twice))
	}
	for i := range once {
		if once[i].URL != twice[i].URL {
			t.Errorf("idempotence order mismatch at %d", i)
		}
	}
}

func TestDedupeThreeItemScenario(t *testing.T) {
	// Two items share http://x/a, one has http://x/b, all conversation:
	// the pair collapses to one, leaving exactly 2.
	d := New(0.8)
	items := []signal.ClassifiedItem{
		conv("http://x/a", "One", "First telling of the story"),
		conv("http://x/a", "Two", "Second telling rewritten fully"),
		conv("http://x/b", "Three", "Something else entirely again"),
	}
	out := d.Dedupe(items)
	if len(out) != 2 {
		t.Fatalf("expected exactly 2 items, got %d", len(out))
	}
}

func TestNormalizeURL(t *testing.T) {
	cases := []struct{ in, want string }{
		{"https://x.com/a/", "https://x.com/a"},
		{"https://x.com/a?q=1", "https://x.com/a"},
		{"https://x.com/a#frag", "https://x.com/a"},
		{"HTTPS://X.com/a", "https://x.com/a"},
		{"not a url/", "not a url"},
	}
	for _, tc := range cases {
		if got := NormalizeURL(tc.in); got != tc.want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

package signal

import "testing"

func validItem() RawItem {
	return RawItem{
		SourceID:   "hackernews",
		Kind:       KindHiring,
		EntityName: "Acme Inc.",
		Title:      "Acme Inc. | Security Engineer | Remote",
		URL:        "https://news.ycombinator.com/item?id=1",
	}
}

func TestValidateAccepts(t *testing.T) {
	item := validItem()
	if err := item.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsMissingFields(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*RawItem)
	}{
		{"source_id", func(r *RawItem) { r.SourceID = "" }},
		{"kind", func(r *RawItem) { r.Kind = "podcast" }},
		{"entity_name", func(r *RawItem) { r.EntityName = "  " }},
		{"title", func(r *RawItem) { r.Title = "" }},
		{"url", func(r *RawItem) { r.URL = "" }},
	}
	for _, tc := range cases {
		item := validItem()
		tc.mutate(&item)
		if err := item.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestValidateClampsNegativeEngagement(t *testing.T) {
	item := validItem()
	item.Engagement = -5
	if err := item.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.Engagement != 0 {
		t.Errorf("expected engagement clamped to 0, got %d", item.Engagement)
	}
}

func TestParseKind(t *testing.T) {
	if k, err := ParseKind(" Hiring "); err != nil || k != KindHiring {
		t.Errorf("expected hiring, got %v (%v)", k, err)
	}
	if k, err := ParseKind("conversation"); err != nil || k != KindConversation {
		t.Errorf("expected conversation, got %v (%v)", k, err)
	}
	if _, err := ParseKind("newsletter"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestParseUrgencyDefaults(t *testing.T) {
	if ParseUrgency("BREAKING") != UrgencyBreaking {
		t.Error("expected breaking")
	}
	if ParseUrgency("whatever") != UrgencyNormal {
		t.Error("expected normal default")
	}
}

func TestParseConfidenceDefaults(t *testing.T) {
	if ParseConfidence("high") != ConfidenceHigh {
		t.Error("expected high")
	}
	if ParseConfidence("") != ConfidenceMedium {
		t.Error("expected medium default")
	}
}

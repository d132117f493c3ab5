package classify

import (
	"testing"

	"signalradar/internal/signal"
)

func TestHeuristicScoreByKeywordCount(t *testing.T) {
	cases := []struct {
		keywords []string
		want     float64
	}{
		{[]string{"sspm", "saas security", "shadow it"}, 0.9},
		{[]string{"sspm", "saas security"}, 0.8},
		{[]string{"sspm"}, 0.7},
		{nil, 0.6},
	}
	for _, tc := range cases {
		item := signal.RawItem{
			Kind:            signal.KindHiring,
			MatchedKeywords: tc.keywords,
			Category:        "SaaS Security",
		}
		got := heuristicScore(item)
		if got.RelevanceScore != tc.want {
			t.Errorf("%d keywords: expected %v, got %v", len(tc.keywords), tc.want, got.RelevanceScore)
		}
		if got.ClassificationSource != signal.SourceFallback {
			t.Error("expected fallback source")
		}
	}
}

func TestHeuristicCategoryBoosts(t *testing.T) {
	sspm := heuristicScore(signal.RawItem{
		Kind: signal.KindHiring, MatchedKeywords: []string{"sspm"}, Category: "SSPM",
	})
	if sspm.RelevanceScore != 0.8 {
		t.Errorf("expected SSPM boost 0.7+0.1, got %v", sspm.RelevanceScore)
	}

	breach := heuristicScore(signal.RawItem{
		Kind: signal.KindConversation, MatchedKeywords: []string{"salesforce breach"},
		Category: "Salesforce Breach",
	})
	if breach.RelevanceScore != 0.85 {
		t.Errorf("expected breach boost 0.7+0.15, got %v", breach.RelevanceScore)
	}
	if breach.Urgency != signal.UrgencyBreaking {
		t.Errorf("expected breaking urgency for breach category, got %v", breach.Urgency)
	}
}

func TestHeuristicHiringAlwaysNormalUrgency(t *testing.T) {
	got := heuristicScore(signal.RawItem{
		Kind: signal.KindHiring, MatchedKeywords: []string{"a", "b", "c"},
		Category: "Salesforce Breach",
	})
	if got.Urgency != signal.UrgencyNormal {
		t.Errorf("hiring urgency must be normal, got %v", got.Urgency)
	}
}

func TestHeuristicEmptyCategoryBecomesOther(t *testing.T) {
	got := heuristicScore(signal.RawItem{Kind: signal.KindConversation})
	if got.ClassifiedCategory != signal.OtherCategory {
		t.Errorf("expected Other, got %q", got.ClassifiedCategory)
	}
	if got.RelevanceScore <= 0 {
		t.Error("fallback score must be non-zero")
	}
}

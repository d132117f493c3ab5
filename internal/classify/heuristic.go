package classify

import (
	"strings"

	"signalradar/internal/signal"
)

// heuristicScore computes the deterministic fallback classification
// from keyword/category matching already present on the item. No
// network call; scores are plausible and never zero so downstream
// ranking stays non-degenerate.
func heuristicScore(item signal.RawItem) signal.ClassifiedItem {
	matches := len(item.MatchedKeywords)

	var score float64
	urgency := signal.UrgencyNormal
	switch {
	case matches >= 3:
		score = 0.9
		if item.Kind == signal.KindConversation {
			urgency = signal.UrgencyHigh
		}
	case matches == 2:
		score = 0.8
	case matches == 1:
		score = 0.7
	default:
		if item.Kind == signal.KindHiring {
			score = 0.6
		} else {
			score = 0.5
			urgency = signal.UrgencyLow
		}
	}

	category := item.Category
	if category == "" {
		category = signal.OtherCategory
	}

	switch category {
	case "SSPM", "AI Agent Security":
		score = clampScore(score + 0.1)
	}
	if isBreachCategory(category) {
		score = clampScore(score + 0.15)
		urgency = signal.UrgencyBreaking
	}

	if item.Kind == signal.KindHiring {
		urgency = signal.UrgencyNormal
	}

	return signal.ClassifiedItem{
		RawItem:              item,
		RelevanceScore:       score,
		ClassifiedCategory:   category,
		Urgency:              urgency,
		Confidence:           signal.ConfidenceLow,
		ClassificationSource: signal.SourceFallback,
	}
}

func isBreachCategory(category string) bool {
	return strings.Contains(strings.ToLower(category), "breach")
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

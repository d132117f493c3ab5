package database

import (
	"strings"
	"time"

	"signalradar/internal/signal"
)

// Item is a persisted classified item row.
type Item struct {
	ID                   int64
	URL                  string
	SourceID             string
	Kind                 string
	EntityName           string
	EntityKey            string
	Title                string
	Body                 *string
	PostedAt             *string // RFC 3339
	Engagement           int
	MatchedKeywords      *string // comma-joined
	Category             *string
	RelevanceScore       float64
	Urgency              *string
	Confidence           *string
	ClassificationSource *string
	WeekID               string
	CollectedAt          string
}

// ToClassified reconstructs the in-memory classified item from a row.
func (it Item) ToClassified() signal.ClassifiedItem {
	ci := signal.ClassifiedItem{
		RawItem: signal.RawItem{
			SourceID:   it.SourceID,
			Kind:       signal.Kind(it.Kind),
			EntityName: it.EntityName,
			Title:      it.Title,
			URL:        it.URL,
			Engagement: it.Engagement,
		},
		RelevanceScore: it.RelevanceScore,
	}
	if it.Body != nil {
		ci.Body = *it.Body
	}
	if it.PostedAt != nil {
		if t, err := time.Parse(time.RFC3339, *it.PostedAt); err == nil {
			ci.PostedAt = &t
		}
	}
	if it.MatchedKeywords != nil && *it.MatchedKeywords != "" {
		ci.MatchedKeywords = strings.Split(*it.MatchedKeywords, ",")
	}
	if it.Category != nil {
		ci.Category = *it.Category
		ci.ClassifiedCategory = *it.Category
	}
	if it.Urgency != nil {
		ci.Urgency = signal.Urgency(*it.Urgency)
	}
	if it.Confidence != nil {
		ci.Confidence = signal.Confidence(*it.Confidence)
	}
	if it.ClassificationSource != nil {
		ci.ClassificationSource = signal.Source(*it.ClassificationSource)
	}
	return ci
}

// RankingRow is a persisted leaderboard row.
type RankingRow struct {
	ID         int64
	WeekID     string
	Kind       string
	EntityKey  string
	ItemCount  int
	Categories []string
	LatestAt   *string
	Score      float64
}

// HotTargetRow is a persisted hiring/conversation intersection row.
type HotTargetRow struct {
	ID                int64
	WeekID            string
	EntityKey         string
	HiringScore       float64
	ConversationScore float64
	HiringItems       int
	ConversationItems int
}

// RunReport records the counters of one pipeline run.
type RunReport struct {
	ID                 int64
	WeekID             string
	StartedAt          string
	FinishedAt         *string
	TotalFound         int
	NewItems           int
	Duplicates         int
	ClassifiedLive     int
	ClassifiedFallback int
	QuotaTripped       bool
	Status             string
}

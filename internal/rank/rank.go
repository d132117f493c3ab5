// Package rank aggregates classified, deduplicated items into ranked
// entity leaderboards and cross-stream hot targets for one weekly
// window.
package rank

import (
	"sort"
	"time"

	"signalradar/internal/config"
	"signalradar/internal/entity"
	"signalradar/internal/signal"
)

// Window is one ISO-week aggregation unit.
type Window struct {
	WeekID string
	Start  time.Time
	End    time.Time
}

// Contains reports whether a timestamp falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// RankedEntity is one leaderboard row. Derived, never a source of
// truth: always recomputable from the classified items.
type RankedEntity struct {
	EntityKey       string
	ItemCount       int
	Categories      []string
	LatestTimestamp *time.Time
	AggregateScore  float64
	WeekID          string
}

// HotTarget is an entity present in both the hiring and conversation
// ranked sets for the same week. It exists only as a computed
// intersection.
type HotTarget struct {
	EntityKey         string
	HiringScore       float64
	ConversationScore float64
	HiringItems       int
	ConversationItems int
	WeekID            string
}

// Ranker scores entities with configured weights.
type Ranker struct {
	weights config.Weights
	floor   float64
}

// New creates a Ranker from the ranking configuration.
func New(cfg config.Ranking) *Ranker {
	return &Ranker{weights: cfg.Weights, floor: cfg.RelevanceFloor}
}

// Rank groups the given kind's items by normalized entity key and
// returns leaderboard rows sorted by aggregate score descending, ties
// broken by item count then entity key. The order is total, so exports
// are deterministic.
func (r *Ranker) Rank(items []signal.ClassifiedItem, kind signal.Kind, window Window) []RankedEntity {
	type group struct {
		count      int
		categories map[string]struct{}
		latest     *time.Time
		scoreSum   float64
	}

	groups := make(map[string]*group)
	for _, item := range items {
		if item.Kind != kind || item.RelevanceScore < r.floor {
			continue
		}
		key := entity.Normalize(item.EntityName)
		if key == "" {
			continue
		}
		g := groups[key]
		if g == nil {
			g = &group{categories: make(map[string]struct{})}
			groups[key] = g
		}
		g.count++
		g.scoreSum += item.RelevanceScore
		if item.ClassifiedCategory != "" {
			g.categories[item.ClassifiedCategory] = struct{}{}
		}
		if item.PostedAt != nil && (g.latest == nil || item.PostedAt.After(*g.latest)) {
			ts := *item.PostedAt
			g.latest = &ts
		}
	}

	ranked := make([]RankedEntity, 0, len(groups))
	for key, g := range groups {
		categories := make([]string, 0, len(g.categories))
		for c := range g.categories {
			categories = append(categories, c)
		}
		sort.Strings(categories)

		// Recency is a step bonus: items with no timestamp never earn it.
		recency := 0.0
		if g.latest != nil && window.Contains(*g.latest) {
			recency = 1.0
		}

		score := float64(g.count)*r.weights.ItemCount +
			float64(len(g.categories))*r.weights.CategoryDiversity +
			recency*r.weights.Recency +
			(g.scoreSum/float64(g.count))*r.weights.AvgRelevance

		ranked = append(ranked, RankedEntity{
			EntityKey:       key,
			ItemCount:       g.count,
			Categories:      categories,
			LatestTimestamp: g.latest,
			AggregateScore:  score,
			WeekID:          window.WeekID,
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].AggregateScore != ranked[j].AggregateScore {
			return ranked[i].AggregateScore > ranked[j].AggregateScore
		}
		if ranked[i].ItemCount != ranked[j].ItemCount {
			return ranked[i].ItemCount > ranked[j].ItemCount
		}
		return ranked[i].EntityKey < ranked[j].EntityKey
	})

	return ranked
}

// HotTargets intersects the hiring and conversation leaderboards for
// the same week. This cross-stream view is the pipeline's primary
// actionable output.
func HotTargets(hiring, conversation []RankedEntity) []HotTarget {
	convByKey := make(map[string]RankedEntity, len(conversation))
	for _, c := range conversation {
		convByKey[c.EntityKey] = c
	}

	var hot []HotTarget
	for _, h := range hiring {
		c, ok := convByKey[h.EntityKey]
		if !ok || c.WeekID != h.WeekID {
			continue
		}
		hot = append(hot, HotTarget{
			EntityKey:         h.EntityKey,
			HiringScore:       h.AggregateScore,
			ConversationScore: c.AggregateScore,
			HiringItems:       h.ItemCount,
			ConversationItems: c.ItemCount,
			WeekID:            h.WeekID,
		})
	}

	sort.Slice(hot, func(i, j int) bool {
		si := hot[i].HiringScore + hot[i].ConversationScore
		sj := hot[j].HiringScore + hot[j].ConversationScore
		if si != sj {
			return si > sj
		}
		return hot[i].EntityKey < hot[j].EntityKey
	})

	return hot
}

// Package report renders the weekly markdown summary from stored
// rankings and run counters.
package report

import (
	"fmt"
	"strings"

	"signalradar/internal/database"
)

const topN = 10

// Composer assembles the weekly report from the database.
type Composer struct {
	db *database.DB
}

// NewComposer creates a report composer.
func NewComposer(db *database.DB) *Composer {
	return &Composer{db: db}
}

// Compose renders the markdown report for a week. Weeks with no data
// still render, with placeholder sections, so serving an empty week
// never errors.
func (c *Composer) Compose(weekID string) (string, error) {
	counts, err := c.db.CountItemsForWeek(weekID)
	if err != nil {
		return "", fmt.Errorf("counting items: %w", err)
	}
	companies, err := c.db.GetRankings(weekID, "hiring")
	if err != nil {
		return "", fmt.Errorf("loading company rankings: %w", err)
	}
	contributors, err := c.db.GetRankings(weekID, "conversation")
	if err != nil {
		return "", fmt.Errorf("loading contributor rankings: %w", err)
	}
	hotTargets, err := c.db.GetHotTargets(weekID)
	if err != nil {
		return "", fmt.Errorf("loading hot targets: %w", err)
	}
	breaking, err := c.db.GetBreakingItems(weekID)
	if err != nil {
		return "", fmt.Errorf("loading breaking items: %w", err)
	}
	run, err := c.db.GetLatestRun(weekID)
	if err != nil {
		return "", fmt.Errorf("loading run report: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Signal Report: %s\n\n", database.FormatWeekDisplay(weekID))
	fmt.Fprintf(&b, "%d hiring signals, %d conversation signals collected this week.\n\n",
		counts["hiring"], counts["conversation"])

	b.WriteString("## Hot Targets\n\n")
	b.WriteString("Companies hiring for SaaS security roles that are also being discussed.\n\n")
	if len(hotTargets) == 0 {
		b.WriteString("_No overlap between hiring and conversation signals this week._\n\n")
	} else {
		b.WriteString("| # | Entity | Hiring Score | Conversation Score | Signals |\n")
		b.WriteString("|---|--------|--------------|--------------------|---------|\n")
		for i, t := range hotTargets {
			fmt.Fprintf(&b, "| %d | %s | %.2f | %.2f | %d + %d |\n",
				i+1, t.EntityKey, t.HiringScore, t.ConversationScore,
				t.HiringItems, t.ConversationItems)
		}
		b.WriteString("\n")
	}

	if len(breaking) > 0 {
		b.WriteString("## Breaking\n\n")
		limit := len(breaking)
		if limit > topN {
			limit = topN
		}
		for _, it := range breaking[:limit] {
			fmt.Fprintf(&b, "- [%s](%s) (%s)\n", it.Title, it.URL, it.EntityName)
		}
		b.WriteString("\n")
	}

	writeLeaderboard(&b, "Top Hiring Companies", companies)
	writeLeaderboard(&b, "Top Conversation Drivers", contributors)

	if run != nil {
		b.WriteString("## Run Summary\n\n")
		fmt.Fprintf(&b, "- Items found: %d (%d new, %d duplicates)\n",
			run.TotalFound, run.NewItems, run.Duplicates)
		fmt.Fprintf(&b, "- Classified: %d live, %d fallback\n",
			run.ClassifiedLive, run.ClassifiedFallback)
		if run.QuotaTripped {
			b.WriteString("- Classifier quota was exhausted; the remainder of the run used heuristic scoring\n")
		}
		fmt.Fprintf(&b, "- Status: %s\n", run.Status)
	}

	return b.String(), nil
}

func writeLeaderboard(b *strings.Builder, title string, rows []database.RankingRow) {
	fmt.Fprintf(b, "## %s\n\n", title)
	if len(rows) == 0 {
		b.WriteString("_No ranked entities this week._\n\n")
		return
	}

	b.WriteString("| # | Entity | Signals | Categories | Score |\n")
	b.WriteString("|---|--------|---------|------------|-------|\n")
	limit := len(rows)
	if limit > topN {
		limit = topN
	}
	for i := 0; i < limit; i++ {
		r := rows[i]
		fmt.Fprintf(b, "| %d | %s | %d | %s | %.2f |\n",
			i+1, r.EntityKey, r.ItemCount, strings.Join(r.Categories, ", "), r.Score)
	}
	b.WriteString("\n")
}

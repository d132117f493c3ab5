// Package pipeline orchestrates the weekly signal run: collect,
// enrich, classify, dedupe, rank, export.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"signalradar/internal/classify"
	"signalradar/internal/collect"
	"signalradar/internal/config"
	"signalradar/internal/database"
	"signalradar/internal/dedupe"
	"signalradar/internal/export"
	"signalradar/internal/fetch"
	"signalradar/internal/rank"
	"signalradar/internal/signal"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run.
type Result struct {
	WeekID string
	Steps  []StepResult
}

// Pipeline executes the 6-step weekly signal run.
type Pipeline struct {
	cfg      *config.Config
	db       *database.DB
	provider classify.Provider
}

// New creates a pipeline. The classifier provider comes from the
// configured backend chain and may be nil, in which case every item is
// scored heuristically.
func New(cfg *config.Config, db *database.DB) *Pipeline {
	cl := cfg.Classifier
	provider := classify.CreateProvider(
		cl.Backend,
		cl.OpenAIModel,
		cl.APIKeyEnv,
		cl.GeminiModel,
		cl.GeminiAPIKeyEnv,
		cl.Timeout(),
	)

	return &Pipeline{cfg: cfg, db: db, provider: provider}
}

// Run executes the full pipeline for one week. Every step except
// export degrades instead of aborting; export failure fails the run.
func (p *Pipeline) Run(ctx context.Context, weekID string, daysBack int) *Result {
	r := &Result{WeekID: weekID}

	runID, err := p.db.StartRun(weekID)
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Collect", Err: err})
		return r
	}
	report := database.RunReport{Status: "completed"}

	// Step 1: Collect
	log.Println("Step 1/6: Collecting signals...")
	collector := collect.New(p.cfg, daysBack)
	items, collectResult := collector.Collect(ctx)
	report.TotalFound = collectResult.TotalFound
	r.Steps = append(r.Steps, StepResult{
		Name: "Collect",
		Summary: fmt.Sprintf("Found %d items (%d valid, %d rejected)",
			collectResult.TotalFound, collectResult.Valid, collectResult.Rejected),
	})

	// Step 2: Enrich
	log.Println("Step 2/6: Enriching item bodies...")
	enrichResult := fetch.New(0).Enrich(items)
	r.Steps = append(r.Steps, StepResult{
		Name: "Enrich",
		Summary: fmt.Sprintf("Fetched %d bodies, %d already present, %d failed",
			enrichResult.Fetched, enrichResult.AlreadyHad, enrichResult.Failed),
	})

	// Step 3: Classify
	log.Println("Step 3/6: Classifying items...")
	classifier := classify.New(p.provider, classify.Options{
		HiringCategories:       bucketNames(p.cfg.Keywords.Hiring),
		ConversationCategories: bucketNames(p.cfg.Keywords.Conversation),
		MaxTokens:              p.cfg.Classifier.MaxTokens,
		RateLimitInterval:      p.cfg.Classifier.RateLimitInterval(),
		RetryDelay:             p.cfg.Classifier.RetryDelay(),
	})
	classified, classifyResult := classifier.ClassifyAll(ctx, items)
	report.ClassifiedLive = classifyResult.Live
	report.ClassifiedFallback = classifyResult.Fallback
	report.QuotaTripped = classifyResult.QuotaTripped
	summary := fmt.Sprintf("Classified %d items (%d live, %d fallback)",
		classifyResult.Processed, classifyResult.Live, classifyResult.Fallback)
	if classifyResult.QuotaTripped {
		summary += ", quota exhausted"
	}
	r.Steps = append(r.Steps, StepResult{Name: "Classify", Summary: summary})

	// Step 4: Dedupe
	log.Println("Step 4/6: Deduplicating...")
	deduper := dedupe.New(p.cfg.Dedupe.TitleSimilarityThreshold)
	deduped := deduper.Dedupe(classified)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Dedupe",
		Summary: fmt.Sprintf("%d items after removing %d duplicates", len(deduped), len(classified)-len(deduped)),
	})

	// Persist survivors; the DB enforces URL uniqueness across runs.
	newItems := 0
	for _, item := range deduped {
		id, err := p.db.InsertItem(item, weekID)
		if err != nil {
			log.Printf("Persisting item %s: %v", item.URL, err)
			continue
		}
		if id > 0 {
			newItems++
		}
	}
	report.NewItems = newItems
	report.Duplicates = len(deduped) - newItems

	// Step 5: Rank. Ranking always recomputes from everything stored
	// for the week, so repeated runs converge instead of drifting.
	log.Println("Step 5/6: Ranking entities...")
	hiring, conversation, hot, err := p.rankWeek(weekID)
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Rank", Err: err})
		report.Status = "failed"
		p.finishRun(runID, report)
		return r
	}
	r.Steps = append(r.Steps, StepResult{
		Name: "Rank",
		Summary: fmt.Sprintf("%d companies, %d contributors, %d hot targets",
			len(hiring), len(conversation), len(hot)),
	})

	// Step 6: Export
	log.Println("Step 6/6: Exporting CSV files...")
	exportResult, err := p.export(weekID, hiring, conversation, hot)
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Export", Err: err})
		report.Status = "failed"
		p.finishRun(runID, report)
		return r
	}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Export",
		Summary: fmt.Sprintf("Wrote %d files to %s", len(exportResult.Files), exportResult.Dir),
	})

	p.finishRun(runID, report)
	return r
}

// RankWeek recomputes and stores the week's leaderboards from the
// persisted items. Used by Run and by the standalone export command.
func (p *Pipeline) RankWeek(weekID string) error {
	_, _, _, err := p.rankWeek(weekID)
	return err
}

func (p *Pipeline) rankWeek(weekID string) ([]rank.RankedEntity, []rank.RankedEntity, []rank.HotTarget, error) {
	rows, err := p.db.GetItemsForWeek(weekID, "")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading items: %w", err)
	}

	items := make([]signal.ClassifiedItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.ToClassified())
	}

	monday, err := database.ParseWeekID(weekID)
	if err != nil {
		return nil, nil, nil, err
	}
	window := rank.Window{WeekID: weekID, Start: monday, End: monday.AddDate(0, 0, 7)}

	ranker := rank.New(p.cfg.Ranking)
	hiring := ranker.Rank(items, signal.KindHiring, window)
	conversation := ranker.Rank(items, signal.KindConversation, window)
	hot := rank.HotTargets(hiring, conversation)

	if err := p.db.ReplaceRankings(weekID, "hiring", hiring); err != nil {
		return nil, nil, nil, fmt.Errorf("storing hiring rankings: %w", err)
	}
	if err := p.db.ReplaceRankings(weekID, "conversation", conversation); err != nil {
		return nil, nil, nil, fmt.Errorf("storing conversation rankings: %w", err)
	}
	if err := p.db.ReplaceHotTargets(weekID, hot); err != nil {
		return nil, nil, nil, fmt.Errorf("storing hot targets: %w", err)
	}

	return hiring, conversation, hot, nil
}

// Export writes the week's CSV set from the stored items and
// leaderboards. Usable standalone via the export command.
func (p *Pipeline) Export(weekID string) (*export.Result, error) {
	hiring, conversation, hot, err := p.rankWeek(weekID)
	if err != nil {
		return nil, err
	}
	return p.export(weekID, hiring, conversation, hot)
}

func (p *Pipeline) export(weekID string, hiring, conversation []rank.RankedEntity, hot []rank.HotTarget) (*export.Result, error) {
	hiringRows, err := p.db.GetItemsForWeek(weekID, string(signal.KindHiring))
	if err != nil {
		return nil, fmt.Errorf("loading hiring items: %w", err)
	}
	conversationRows, err := p.db.GetItemsForWeek(weekID, string(signal.KindConversation))
	if err != nil {
		return nil, fmt.Errorf("loading conversation items: %w", err)
	}

	exporter := export.New(filepath.Join(p.cfg.GetDataDir(), "exports"))
	return exporter.Export(weekID,
		toClassified(hiringRows), toClassified(conversationRows),
		hiring, conversation, hot)
}

// DryRun reports what a run would do without collecting or writing.
func (p *Pipeline) DryRun(weekID string) *Result {
	r := &Result{WeekID: weekID}

	counts, _ := p.db.CountItemsForWeek(weekID)
	r.Steps = append(r.Steps, StepResult{
		Name: "Collect",
		Summary: fmt.Sprintf("[dry-run] %d hiring and %d conversation items already stored for %s",
			counts["hiring"], counts["conversation"], weekID),
	})

	hiring, _ := p.db.GetRankings(weekID, "hiring")
	conversation, _ := p.db.GetRankings(weekID, "conversation")
	r.Steps = append(r.Steps, StepResult{
		Name: "Rank",
		Summary: fmt.Sprintf("[dry-run] %d companies and %d contributors currently ranked",
			len(hiring), len(conversation)),
	})

	hot, _ := p.db.GetHotTargets(weekID)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Hot targets",
		Summary: fmt.Sprintf("[dry-run] %d hot targets stored", len(hot)),
	})

	exportDir := filepath.Join(p.cfg.GetDataDir(), "exports", weekID)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Export",
		Summary: fmt.Sprintf("[dry-run] Would write CSV files to %s", exportDir),
	})

	return r
}

func (p *Pipeline) finishRun(runID int64, report database.RunReport) {
	if err := p.db.FinishRun(runID, report); err != nil {
		log.Printf("Recording run report: %v", err)
	}
}

func bucketNames(buckets map[string][]string) []string {
	names := make([]string, 0, len(buckets))
	for name := range buckets {
		names = append(names, name)
	}
	return names
}

func toClassified(rows []database.Item) []signal.ClassifiedItem {
	items := make([]signal.ClassifiedItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.ToClassified())
	}
	return items
}

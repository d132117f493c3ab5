package pipeline

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"signalradar/internal/config"
	"signalradar/internal/database"
	"signalradar/internal/signal"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Default()
	if err != nil {
		t.Fatalf("loading default config: %v", err)
	}
	// No live sources, no live classifier: the run exercises the full
	// step sequence without network access.
	cfg.Sources.Feeds = nil
	cfg.Sources.HackerNews.Enabled = false
	cfg.Sources.Reddit.Enabled = false
	cfg.Sources.TLDR.Enabled = false
	cfg.Classifier.Backend = "heuristic"
	cfg.Output.DataDir = t.TempDir()
	return cfg
}

func testDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedItem(t *testing.T, db *database.DB, weekID, url, entityName string, kind signal.Kind) {
	t.Helper()
	monday, err := database.ParseWeekID(weekID)
	if err != nil {
		t.Fatalf("parsing week: %v", err)
	}
	posted := monday.Add(36 * time.Hour)
	item := signal.ClassifiedItem{
		RawItem: signal.RawItem{
			SourceID: "test", Kind: kind, EntityName: entityName,
			Title: "Signal about " + entityName, URL: url, PostedAt: &posted,
		},
		RelevanceScore:     0.9,
		ClassifiedCategory: "SSPM",
	}
	if _, err := db.InsertItem(item, weekID); err != nil {
		t.Fatalf("seeding item: %v", err)
	}
}

func TestRunEmptySourcesCompletes(t *testing.T) {
	cfg := testConfig(t)
	db := testDB(t)
	p := New(cfg, db)

	result := p.Run(context.Background(), "2026-W35", 7)

	wantSteps := []string{"Collect", "Enrich", "Classify", "Dedupe", "Rank", "Export"}
	if len(result.Steps) != len(wantSteps) {
		t.Fatalf("steps = %d, want %d: %+v", len(result.Steps), len(wantSteps), result.Steps)
	}
	for i, step := range result.Steps {
		if step.Name != wantSteps[i] {
			t.Errorf("step %d = %q, want %q", i, step.Name, wantSteps[i])
		}
		if step.Err != nil {
			t.Errorf("step %s failed: %v", step.Name, step.Err)
		}
	}

	run, err := db.GetLatestRun("2026-W35")
	if err != nil {
		t.Fatalf("loading run: %v", err)
	}
	if run == nil || run.Status != "completed" {
		t.Errorf("run = %+v", run)
	}
}

func TestRankWeekStoresLeaderboardsAndHotTargets(t *testing.T) {
	cfg := testConfig(t)
	db := testDB(t)
	p := New(cfg, db)

	// Acme appears in both streams; Globex only hires.
	seedItem(t, db, "2026-W35", "https://example.com/h1", "Acme", signal.KindHiring)
	seedItem(t, db, "2026-W35", "https://example.com/h2", "Acme", signal.KindHiring)
	seedItem(t, db, "2026-W35", "https://example.com/h3", "Globex", signal.KindHiring)
	seedItem(t, db, "2026-W35", "https://example.com/c1", "Acme", signal.KindConversation)

	if err := p.RankWeek("2026-W35"); err != nil {
		t.Fatalf("ranking: %v", err)
	}

	hiring, err := db.GetRankings("2026-W35", "hiring")
	if err != nil {
		t.Fatalf("loading rankings: %v", err)
	}
	if len(hiring) != 2 || hiring[0].EntityKey != "acme" {
		t.Errorf("hiring rankings = %+v", hiring)
	}

	hot, err := db.GetHotTargets("2026-W35")
	if err != nil {
		t.Fatalf("loading hot targets: %v", err)
	}
	if len(hot) != 1 || hot[0].EntityKey != "acme" {
		t.Errorf("hot targets = %+v", hot)
	}
}

func TestExportStandalone(t *testing.T) {
	cfg := testConfig(t)
	db := testDB(t)
	p := New(cfg, db)

	seedItem(t, db, "2026-W35", "https://example.com/h1", "Acme", signal.KindHiring)

	result, err := p.Export("2026-W35")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(result.Files) != 5 {
		t.Errorf("expected 5 files, got %d", len(result.Files))
	}
	if result.Dir != filepath.Join(cfg.GetDataDir(), "exports", "2026-W35") {
		t.Errorf("dir = %q", result.Dir)
	}
}

func TestRunIsIdempotentAcrossReruns(t *testing.T) {
	cfg := testConfig(t)
	db := testDB(t)
	p := New(cfg, db)

	seedItem(t, db, "2026-W35", "https://example.com/h1", "Acme", signal.KindHiring)

	for i := 0; i < 2; i++ {
		result := p.Run(context.Background(), "2026-W35", 7)
		for _, step := range result.Steps {
			if step.Err != nil {
				t.Fatalf("run %d step %s: %v", i, step.Name, step.Err)
			}
		}
	}

	hiring, _ := db.GetRankings("2026-W35", "hiring")
	if len(hiring) != 1 {
		t.Errorf("expected 1 ranked entity after reruns, got %d", len(hiring))
	}
	counts, _ := db.CountItemsForWeek("2026-W35")
	if counts["hiring"] != 1 {
		t.Errorf("expected 1 stored item after reruns, got %d", counts["hiring"])
	}
}

func TestDryRun(t *testing.T) {
	cfg := testConfig(t)
	db := testDB(t)
	p := New(cfg, db)

	seedItem(t, db, "2026-W35", "https://example.com/h1", "Acme", signal.KindHiring)

	result := p.DryRun("2026-W35")
	if len(result.Steps) != 4 {
		t.Fatalf("steps = %+v", result.Steps)
	}
	for _, step := range result.Steps {
		if step.Err != nil {
			t.Errorf("dry run step %s errored: %v", step.Name, step.Err)
		}
	}
}

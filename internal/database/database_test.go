package database

import (
	"path/filepath"
	"testing"
	"time"

	"signalradar/internal/rank"
	"signalradar/internal/signal"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func classifiedItem(url, entityName string, kind signal.Kind, score float64) signal.ClassifiedItem {
	posted := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	return signal.ClassifiedItem{
		RawItem: signal.RawItem{
			SourceID:        "test",
			Kind:            kind,
			EntityName:      entityName,
			Title:           "Signal about " + entityName,
			Body:            "body text",
			URL:             url,
			PostedAt:        &posted,
			Engagement:      7,
			MatchedKeywords: []string{"sspm", "saas security"},
			Category:        "SSPM",
		},
		RelevanceScore:       score,
		ClassifiedCategory:   "SSPM",
		Urgency:              signal.UrgencyNormal,
		Confidence:           signal.ConfidenceHigh,
		ClassificationSource: signal.SourceLive,
	}
}

func TestInsertItemAndRoundTrip(t *testing.T) {
	db := testDB(t)

	item := classifiedItem("https://example.com/a", "Acme Inc.", signal.KindHiring, 0.9)
	id, err := db.InsertItem(item, "2026-W35")
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero id")
	}

	items, err := db.GetItemsForWeek("2026-W35", "")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}

	row := items[0]
	if row.EntityKey != "acme" {
		t.Errorf("entity key = %q, want acme", row.EntityKey)
	}

	got := row.ToClassified()
	if got.EntityName != item.EntityName || got.URL != item.URL {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.RelevanceScore != 0.9 {
		t.Errorf("score = %v", got.RelevanceScore)
	}
	if got.PostedAt == nil || !got.PostedAt.Equal(*item.PostedAt) {
		t.Errorf("posted at = %v", got.PostedAt)
	}
	if len(got.MatchedKeywords) != 2 {
		t.Errorf("keywords = %v", got.MatchedKeywords)
	}
	if got.Urgency != signal.UrgencyNormal || got.ClassificationSource != signal.SourceLive {
		t.Errorf("classification fields lost: %+v", got)
	}
}

func TestInsertItemDuplicateURL(t *testing.T) {
	db := testDB(t)

	first := classifiedItem("https://example.com/same", "Acme", signal.KindHiring, 0.9)
	if id, _ := db.InsertItem(first, "2026-W35"); id == 0 {
		t.Fatal("first insert failed")
	}

	dup := classifiedItem("https://example.com/same", "Other", signal.KindHiring, 0.5)
	id, err := db.InsertItem(dup, "2026-W35")
	if err != nil {
		t.Fatalf("duplicate insert errored: %v", err)
	}
	if id != 0 {
		t.Errorf("expected id 0 for duplicate, got %d", id)
	}

	items, _ := db.GetItemsForWeek("2026-W35", "")
	if len(items) != 1 {
		t.Errorf("expected 1 item after duplicate insert, got %d", len(items))
	}
}

func TestGetItemsForWeekKindFilter(t *testing.T) {
	db := testDB(t)

	db.InsertItem(classifiedItem("https://example.com/h", "Acme", signal.KindHiring, 0.9), "2026-W35")
	db.InsertItem(classifiedItem("https://example.com/c", "alice", signal.KindConversation, 0.8), "2026-W35")

	hiring, err := db.GetItemsForWeek("2026-W35", "hiring")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(hiring) != 1 || hiring[0].Kind != "hiring" {
		t.Errorf("hiring filter failed: %+v", hiring)
	}

	counts, err := db.CountItemsForWeek("2026-W35")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts["hiring"] != 1 || counts["conversation"] != 1 {
		t.Errorf("counts = %v", counts)
	}
}

func TestReplaceRankingsIsIdempotent(t *testing.T) {
	db := testDB(t)

	ts := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	entities := []rank.RankedEntity{
		{EntityKey: "acme", ItemCount: 3, Categories: []string{"SSPM"}, LatestTimestamp: &ts, AggregateScore: 5.7, WeekID: "2026-W35"},
		{EntityKey: "globex", ItemCount: 1, AggregateScore: 3.1, WeekID: "2026-W35"},
	}

	for i := 0; i < 2; i++ {
		if err := db.ReplaceRankings("2026-W35", "hiring", entities); err != nil {
			t.Fatalf("replace %d: %v", i, err)
		}
	}

	rows, err := db.GetRankings("2026-W35", "hiring")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows after re-run, got %d", len(rows))
	}
	if rows[0].EntityKey != "acme" || rows[0].Score != 5.7 {
		t.Errorf("top row = %+v", rows[0])
	}
	if len(rows[0].Categories) != 1 || rows[0].Categories[0] != "SSPM" {
		t.Errorf("categories = %v", rows[0].Categories)
	}
}

func TestReplaceHotTargets(t *testing.T) {
	db := testDB(t)

	targets := []rank.HotTarget{
		{EntityKey: "acme", HiringScore: 5.0, ConversationScore: 3.0, HiringItems: 3, ConversationItems: 2, WeekID: "2026-W35"},
	}

	for i := 0; i < 2; i++ {
		if err := db.ReplaceHotTargets("2026-W35", targets); err != nil {
			t.Fatalf("replace %d: %v", i, err)
		}
	}

	rows, err := db.GetHotTargets("2026-W35")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 hot target, got %d", len(rows))
	}
	if rows[0].EntityKey != "acme" || rows[0].HiringItems != 3 {
		t.Errorf("row = %+v", rows[0])
	}
}

func TestRunLifecycle(t *testing.T) {
	db := testDB(t)

	runID, err := db.StartRun("2026-W35")
	if err != nil {
		t.Fatalf("start run: %v", err)
	}

	err = db.FinishRun(runID, RunReport{
		TotalFound: 10, NewItems: 8, Duplicates: 2,
		ClassifiedLive: 5, ClassifiedFallback: 3,
		QuotaTripped: true, Status: "completed",
	})
	if err != nil {
		t.Fatalf("finish run: %v", err)
	}

	run, err := db.GetLatestRun("2026-W35")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if run == nil {
		t.Fatal("expected a run")
	}
	if run.NewItems != 8 || !run.QuotaTripped || run.Status != "completed" {
		t.Errorf("run = %+v", run)
	}
	if run.FinishedAt == nil {
		t.Error("expected finished timestamp")
	}

	if none, _ := db.GetLatestRun("2026-W01"); none != nil {
		t.Errorf("expected nil for week with no runs, got %+v", none)
	}
}

func TestListWeeks(t *testing.T) {
	db := testDB(t)

	db.InsertItem(classifiedItem("https://example.com/1", "A", signal.KindHiring, 0.9), "2026-W34")
	db.InsertItem(classifiedItem("https://example.com/2", "B", signal.KindHiring, 0.9), "2026-W35")

	weeks, err := db.ListWeeks()
	if err != nil {
		t.Fatalf("list weeks: %v", err)
	}
	if len(weeks) != 2 || weeks[0] != "2026-W35" || weeks[1] != "2026-W34" {
		t.Errorf("weeks = %v", weeks)
	}
}

// Package export writes weekly signal data and leaderboards to CSV
// files for downstream consumption.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"signalradar/internal/rank"
	"signalradar/internal/signal"
)

// Result lists the files written by one export run.
type Result struct {
	Dir   string
	Files []string
}

// Exporter writes the weekly CSV set under <baseDir>/<week_id>/.
type Exporter struct {
	baseDir string
}

// New creates an Exporter rooted at baseDir.
func New(baseDir string) *Exporter {
	return &Exporter{baseDir: baseDir}
}

// Export writes all five CSV files for the week. Unlike collection and
// classification, export errors propagate: a run whose outputs cannot
// be written has failed.
func (e *Exporter) Export(
	weekID string,
	hiring, conversation []signal.ClassifiedItem,
	rankedHiring, rankedConversation []rank.RankedEntity,
	hotTargets []rank.HotTarget,
) (*Result, error) {
	dir := filepath.Join(e.baseDir, weekID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating export directory: %w", err)
	}

	result := &Result{Dir: dir}

	writes := []struct {
		name  string
		write func(w *csv.Writer) error
	}{
		{"hiring_signals.csv", func(w *csv.Writer) error { return writeItems(w, hiring) }},
		{"conversation_signals.csv", func(w *csv.Writer) error { return writeItems(w, conversation) }},
		{"ranked_companies.csv", func(w *csv.Writer) error { return writeRanked(w, rankedHiring) }},
		{"ranked_contributors.csv", func(w *csv.Writer) error { return writeRanked(w, rankedConversation) }},
		{"hot_targets.csv", func(w *csv.Writer) error { return writeHotTargets(w, hotTargets) }},
	}

	for _, f := range writes {
		path := filepath.Join(dir, f.name)
		if err := writeCSV(path, f.write); err != nil {
			return nil, fmt.Errorf("writing %s: %w", f.name, err)
		}
		result.Files = append(result.Files, path)
	}

	return result, nil
}

func writeCSV(path string, write func(w *csv.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := write(w); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return file.Close()
}

func writeItems(w *csv.Writer, items []signal.ClassifiedItem) error {
	header := []string{
		"entity", "title", "url", "source", "category", "relevance_score",
		"urgency", "confidence", "classification_source", "posted_at",
		"engagement", "matched_keywords",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, item := range items {
		posted := ""
		if item.PostedAt != nil {
			posted = item.PostedAt.UTC().Format(time.RFC3339)
		}
		record := []string{
			item.EntityName,
			item.Title,
			item.URL,
			item.SourceID,
			item.ClassifiedCategory,
			formatScore(item.RelevanceScore),
			string(item.Urgency),
			string(item.Confidence),
			string(item.ClassificationSource),
			posted,
			strconv.Itoa(item.Engagement),
			strings.Join(item.MatchedKeywords, "; "),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

func writeRanked(w *csv.Writer, entities []rank.RankedEntity) error {
	header := []string{
		"rank", "entity_key", "item_count", "categories", "latest_at", "score", "week_id",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i, e := range entities {
		latest := ""
		if e.LatestTimestamp != nil {
			latest = e.LatestTimestamp.UTC().Format(time.RFC3339)
		}
		record := []string{
			strconv.Itoa(i + 1),
			e.EntityKey,
			strconv.Itoa(e.ItemCount),
			strings.Join(e.Categories, "; "),
			latest,
			formatScore(e.AggregateScore),
			e.WeekID,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

func writeHotTargets(w *csv.Writer, targets []rank.HotTarget) error {
	header := []string{
		"rank", "entity_key", "hiring_score", "conversation_score",
		"hiring_items", "conversation_items", "week_id",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i, t := range targets {
		record := []string{
			strconv.Itoa(i + 1),
			t.EntityKey,
			formatScore(t.HiringScore),
			formatScore(t.ConversationScore),
			strconv.Itoa(t.HiringItems),
			strconv.Itoa(t.ConversationItems),
			t.WeekID,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

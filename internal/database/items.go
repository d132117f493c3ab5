package database

import (
	"database/sql"
	"strings"
	"time"

	"signalradar/internal/entity"
	"signalradar/internal/signal"
)

// InsertItem persists a classified item under the given week.
// Returns the row ID on success, 0 when the URL already exists.
func (db *DB) InsertItem(item signal.ClassifiedItem, weekID string) (int64, error) {
	var posted *string
	if item.PostedAt != nil {
		s := item.PostedAt.UTC().Format(time.RFC3339)
		posted = &s
	}
	var keywords *string
	if len(item.MatchedKeywords) > 0 {
		s := strings.Join(item.MatchedKeywords, ",")
		keywords = &s
	}

	result, err := db.conn.Exec(
		`INSERT INTO items (url, source_id, kind, entity_name, entity_key, title, body,
			posted_at, engagement, matched_keywords, category, relevance_score,
			urgency, confidence, classification_source, week_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.URL, item.SourceID, string(item.Kind), item.EntityName,
		entity.Normalize(item.EntityName), item.Title, nullable(item.Body),
		posted, item.Engagement, keywords, nullable(item.ClassifiedCategory),
		item.RelevanceScore, nullable(string(item.Urgency)),
		nullable(string(item.Confidence)), nullable(string(item.ClassificationSource)),
		weekID,
	)
	if err != nil {
		// Duplicate URL constraint
		return 0, nil //nolint: nilerr
	}
	return result.LastInsertId()
}

// GetItemsForWeek returns the week's items, optionally filtered by
// kind, newest first.
func (db *DB) GetItemsForWeek(weekID string, kind string) ([]Item, error) {
	query := `SELECT id, url, source_id, kind, entity_name, entity_key, title, body,
		posted_at, engagement, matched_keywords, category, relevance_score,
		urgency, confidence, classification_source, week_id, collected_at
		FROM items WHERE week_id = ?`
	args := []any{weekID}
	if kind != "" {
		query += " AND kind = ?"
		args = append(args, kind)
	}
	query += " ORDER BY relevance_score DESC, collected_at DESC"

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

// GetBreakingItems returns the week's items classified with breaking
// urgency, highest relevance first.
func (db *DB) GetBreakingItems(weekID string) ([]Item, error) {
	rows, err := db.conn.Query(
		`SELECT id, url, source_id, kind, entity_name, entity_key, title, body,
			posted_at, engagement, matched_keywords, category, relevance_score,
			urgency, confidence, classification_source, week_id, collected_at
		FROM items WHERE week_id = ? AND urgency = 'breaking'
		ORDER BY relevance_score DESC, collected_at DESC`, weekID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanItems(rows)
}

// CountItemsForWeek returns per-kind item counts for the week.
func (db *DB) CountItemsForWeek(weekID string) (map[string]int, error) {
	rows, err := db.conn.Query(
		"SELECT kind, COUNT(*) FROM items WHERE week_id = ? GROUP BY kind", weekID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		counts[kind] = n
	}
	return counts, rows.Err()
}

// ListWeeks returns every week id that has items, newest first.
func (db *DB) ListWeeks() ([]string, error) {
	rows, err := db.conn.Query(
		"SELECT DISTINCT week_id FROM items ORDER BY week_id DESC",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var weeks []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, err
		}
		weeks = append(weeks, w)
	}
	return weeks, rows.Err()
}

func scanItems(rows *sql.Rows) ([]Item, error) {
	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.URL, &it.SourceID, &it.Kind, &it.EntityName,
			&it.EntityKey, &it.Title, &it.Body, &it.PostedAt, &it.Engagement,
			&it.MatchedKeywords, &it.Category, &it.RelevanceScore, &it.Urgency,
			&it.Confidence, &it.ClassificationSource, &it.WeekID, &it.CollectedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"signalradar/internal/rank"
)

// ReplaceRankings atomically swaps the stored leaderboard for one week
// and kind. Re-running a week always reflects the latest computation.
func (db *DB) ReplaceRankings(weekID, kind string, entities []rank.RankedEntity) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"DELETE FROM rankings WHERE week_id = ? AND kind = ?", weekID, kind,
	); err != nil {
		return fmt.Errorf("clearing rankings: %w", err)
	}

	for _, e := range entities {
		var latest *string
		if e.LatestTimestamp != nil {
			s := e.LatestTimestamp.UTC().Format(time.RFC3339)
			latest = &s
		}
		var categories *string
		if len(e.Categories) > 0 {
			s := strings.Join(e.Categories, ",")
			categories = &s
		}
		if _, err := tx.Exec(
			`INSERT INTO rankings (week_id, kind, entity_key, item_count, categories, latest_at, score)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			weekID, kind, e.EntityKey, e.ItemCount, categories, latest, e.AggregateScore,
		); err != nil {
			return fmt.Errorf("inserting ranking for %s: %w", e.EntityKey, err)
		}
	}

	return tx.Commit()
}

// GetRankings returns a week's leaderboard for one kind, best first.
func (db *DB) GetRankings(weekID, kind string) ([]RankingRow, error) {
	rows, err := db.conn.Query(
		`SELECT id, week_id, kind, entity_key, item_count, categories, latest_at, score
		FROM rankings WHERE week_id = ? AND kind = ?
		ORDER BY score DESC, item_count DESC, entity_key ASC`, weekID, kind,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rankings []RankingRow
	for rows.Next() {
		var r RankingRow
		var categories *string
		if err := rows.Scan(&r.ID, &r.WeekID, &r.Kind, &r.EntityKey, &r.ItemCount,
			&categories, &r.LatestAt, &r.Score); err != nil {
			return nil, err
		}
		if categories != nil && *categories != "" {
			r.Categories = strings.Split(*categories, ",")
		}
		rankings = append(rankings, r)
	}
	return rankings, rows.Err()
}

// ReplaceHotTargets atomically swaps the stored hot targets for a week.
func (db *DB) ReplaceHotTargets(weekID string, targets []rank.HotTarget) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"DELETE FROM hot_targets WHERE week_id = ?", weekID,
	); err != nil {
		return fmt.Errorf("clearing hot targets: %w", err)
	}

	for _, t := range targets {
		if _, err := tx.Exec(
			`INSERT INTO hot_targets (week_id, entity_key, hiring_score, conversation_score,
				hiring_items, conversation_items)
			VALUES (?, ?, ?, ?, ?, ?)`,
			weekID, t.EntityKey, t.HiringScore, t.ConversationScore,
			t.HiringItems, t.ConversationItems,
		); err != nil {
			return fmt.Errorf("inserting hot target %s: %w", t.EntityKey, err)
		}
	}

	return tx.Commit()
}

// GetHotTargets returns a week's hot targets, highest combined score
// first.
func (db *DB) GetHotTargets(weekID string) ([]HotTargetRow, error) {
	rows, err := db.conn.Query(
		`SELECT id, week_id, entity_key, hiring_score, conversation_score, hiring_items, conversation_items
		FROM hot_targets WHERE week_id = ?
		ORDER BY hiring_score + conversation_score DESC, entity_key ASC`, weekID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var targets []HotTargetRow
	for rows.Next() {
		var t HotTargetRow
		if err := rows.Scan(&t.ID, &t.WeekID, &t.EntityKey, &t.HiringScore,
			&t.ConversationScore, &t.HiringItems, &t.ConversationItems); err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

// StartRun records the beginning of a pipeline run and returns its ID.
func (db *DB) StartRun(weekID string) (int64, error) {
	result, err := db.conn.Exec(
		"INSERT INTO runs (week_id) VALUES (?)", weekID,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// FinishRun records the final counters and status of a run.
func (db *DB) FinishRun(runID int64, report RunReport) error {
	quota := 0
	if report.QuotaTripped {
		quota = 1
	}
	_, err := db.conn.Exec(
		`UPDATE runs SET finished_at = datetime('now'), total_found = ?, new_items = ?,
			duplicates = ?, classified_live = ?, classified_fallback = ?,
			quota_tripped = ?, status = ?
		WHERE id = ?`,
		report.TotalFound, report.NewItems, report.Duplicates,
		report.ClassifiedLive, report.ClassifiedFallback, quota, report.Status, runID,
	)
	return err
}

// GetLatestRun returns the most recent run for a week, or nil.
func (db *DB) GetLatestRun(weekID string) (*RunReport, error) {
	row := db.conn.QueryRow(
		`SELECT id, week_id, started_at, finished_at, total_found, new_items, duplicates,
			classified_live, classified_fallback, quota_tripped, status
		FROM runs WHERE week_id = ? ORDER BY id DESC LIMIT 1`, weekID,
	)

	var r RunReport
	var quota int
	err := row.Scan(&r.ID, &r.WeekID, &r.StartedAt, &r.FinishedAt, &r.TotalFound,
		&r.NewItems, &r.Duplicates, &r.ClassifiedLive, &r.ClassifiedFallback,
		&quota, &r.Status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.QuotaTripped = quota != 0
	return &r, nil
}

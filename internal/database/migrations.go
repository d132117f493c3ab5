package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS items (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    url TEXT UNIQUE NOT NULL,
    source_id TEXT NOT NULL,
    kind TEXT NOT NULL,
    entity_name TEXT NOT NULL,
    entity_key TEXT NOT NULL,
    title TEXT NOT NULL,
    body TEXT,
    posted_at TEXT,
    engagement INTEGER DEFAULT 0,
    matched_keywords TEXT,
    category TEXT,
    relevance_score REAL DEFAULT 0,
    urgency TEXT,
    confidence TEXT,
    classification_source TEXT,
    week_id TEXT NOT NULL,
    collected_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS rankings (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    week_id TEXT NOT NULL,
    kind TEXT NOT NULL,
    entity_key TEXT NOT NULL,
    item_count INTEGER DEFAULT 0,
    categories TEXT,
    latest_at TEXT,
    score REAL DEFAULT 0,
    computed_at TEXT DEFAULT (datetime('now')),
    UNIQUE(week_id, kind, entity_key)
);

CREATE TABLE IF NOT EXISTS hot_targets (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    week_id TEXT NOT NULL,
    entity_key TEXT NOT NULL,
    hiring_score REAL DEFAULT 0,
    conversation_score REAL DEFAULT 0,
    hiring_items INTEGER DEFAULT 0,
    conversation_items INTEGER DEFAULT 0,
    computed_at TEXT DEFAULT (datetime('now')),
    UNIQUE(week_id, entity_key)
);

CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    week_id TEXT NOT NULL,
    started_at TEXT DEFAULT (datetime('now')),
    finished_at TEXT,
    total_found INTEGER DEFAULT 0,
    new_items INTEGER DEFAULT 0,
    duplicates INTEGER DEFAULT 0,
    classified_live INTEGER DEFAULT 0,
    classified_fallback INTEGER DEFAULT 0,
    quota_tripped INTEGER DEFAULT 0,
    status TEXT DEFAULT 'running'
);

CREATE INDEX IF NOT EXISTS idx_items_week ON items(week_id);
CREATE INDEX IF NOT EXISTS idx_items_week_kind ON items(week_id, kind);
CREATE INDEX IF NOT EXISTS idx_items_url ON items(url);
CREATE INDEX IF NOT EXISTS idx_rankings_week ON rankings(week_id, kind);
CREATE INDEX IF NOT EXISTS idx_hot_targets_week ON hot_targets(week_id);
CREATE INDEX IF NOT EXISTS idx_runs_week ON runs(week_id);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}

package database

// Stats summarizes the database contents for the status command.
type Stats struct {
	TotalItems        int
	HiringItems       int
	ConversationItems int
	WeeksWithData     int
	RankedEntities    int
	HotTargets        int
	CompletedRuns     int
}

// GetStats computes database-wide counters.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}

	rows, err := db.conn.Query("SELECT kind, COUNT(*) FROM items GROUP BY kind")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		s.TotalItems += n
		switch kind {
		case "hiring":
			s.HiringItems = n
		case "conversation":
			s.ConversationItems = n
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	counts := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(DISTINCT week_id) FROM items", &s.WeeksWithData},
		{"SELECT COUNT(*) FROM rankings", &s.RankedEntities},
		{"SELECT COUNT(*) FROM hot_targets", &s.HotTargets},
		{"SELECT COUNT(*) FROM runs WHERE status = 'completed'", &s.CompletedRuns},
	}
	for _, c := range counts {
		if err := db.conn.QueryRow(c.query).Scan(c.dest); err != nil {
			return nil, err
		}
	}

	return s, nil
}

package store

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at TIMESTAMP NOT NULL,
		input_digest TEXT NOT NULL,
		solver TEXT NOT NULL,
		status TEXT NOT NULL CHECK (status IN ('solved', 'infeasible', 'failed')),
		periods_per_week INTEGER NOT NULL,
		periods_per_day INTEGER NOT NULL,
		stats TEXT NOT NULL DEFAULT '{}'
	)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_input_digest ON runs(input_digest)`,
	`CREATE TABLE IF NOT EXISTS timetable_cells (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		subject_index INTEGER NOT NULL,
		subject TEXT NOT NULL,
		occurrence INTEGER NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (run_id, subject_index, occurrence)
	)`,
}

// Migrate runs all schema migrations
func Migrate(db *sqlx.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

// Package store keeps a history of solve runs and their timetables in SQLite.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/limaJavier/timetableplus/pkg/model"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("run not found")

type Status string

const (
	StatusSolved     Status = "solved"
	StatusInfeasible Status = "infeasible"
	StatusFailed     Status = "failed"
)

type Run struct {
	ID             string         `db:"id" json:"id"`
	CreatedAt      time.Time      `db:"created_at" json:"createdAt"`
	InputDigest    string         `db:"input_digest" json:"inputDigest"`
	Solver         string         `db:"solver" json:"solver"`
	Status         Status         `db:"status" json:"status"`
	PeriodsPerWeek int            `db:"periods_per_week" json:"periodsPerWeek"`
	PeriodsPerDay  int            `db:"periods_per_day" json:"periodsPerDay"`
	Stats          types.JSONText `db:"stats" json:"stats"`
}

// RunStats is what a run records about its search
type RunStats struct {
	Nodes      int   `json:"nodes"`
	Backtracks int   `json:"backtracks"`
	Solutions  int   `json:"solutions"`
	DurationMs int64 `json:"durationMs"`
}

func (run *Run) Shape() model.GridShape {
	return model.GridShape{PeriodsPerWeek: run.PeriodsPerWeek, PeriodsPerDay: run.PeriodsPerDay}
}

func (run *Run) SetStats(stats RunStats) error {
	encoded, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	run.Stats = encoded
	return nil
}

func (run *Run) DecodeStats() (RunStats, error) {
	var stats RunStats
	if len(run.Stats) == 0 {
		return stats, nil
	}
	err := json.Unmarshal(run.Stats, &stats)
	return stats, err
}

type Store struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Open opens (and migrates) the database at path; ":memory:" keeps it in memory
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == ":memory:" {
		// Every connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	for _, pragma := range []string{"PRAGMA journal_mode = WAL", "PRAGMA foreign_keys = ON"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%v: %w", pragma, err)
		}
	}

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return New(db), nil
}

func (store *Store) Close() error {
	return store.db.Close()
}

// SaveRun stores the run and, when given, its timetable in one transaction
func (store *Store) SaveRun(ctx context.Context, run *Run, timetable model.Timetable) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if len(run.Stats) == 0 {
		run.Stats = types.JSONText("{}")
	}

	tx, err := store.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save run: %w", err)
	}
	defer tx.Rollback()

	const insertRun = `INSERT INTO runs (id, created_at, input_digest, solver, status, periods_per_week, periods_per_day, stats)
		VALUES (:id, :created_at, :input_digest, :solver, :status, :periods_per_week, :periods_per_day, :stats)`
	if _, err := tx.NamedExecContext(ctx, insertRun, run); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	const insertCell = `INSERT INTO timetable_cells (run_id, subject_index, subject, occurrence, position) VALUES (?, ?, ?, ?, ?)`
	for subjectIndex, entry := range timetable {
		for occurrence, position := range entry.Positions {
			if _, err := tx.ExecContext(ctx, insertCell, run.ID, subjectIndex, entry.Subject, occurrence+1, position); err != nil {
				return fmt.Errorf("insert timetable cell: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save run: %w", err)
	}
	return nil
}

type cellRow struct {
	SubjectIndex int    `db:"subject_index"`
	Subject      string `db:"subject"`
	Position     int    `db:"position"`
}

// GetRun loads a run with its timetable (nil for runs without one)
func (store *Store) GetRun(ctx context.Context, id string) (*Run, model.Timetable, error) {
	const selectRun = `SELECT id, created_at, input_digest, solver, status, periods_per_week, periods_per_day, stats FROM runs WHERE id = ?`
	var run Run
	if err := store.db.GetContext(ctx, &run, selectRun, id); errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrNotFound
	} else if err != nil {
		return nil, nil, fmt.Errorf("get run: %w", err)
	}

	const selectCells = `SELECT subject_index, subject, position FROM timetable_cells WHERE run_id = ? ORDER BY subject_index, occurrence`
	var cells []cellRow
	if err := store.db.SelectContext(ctx, &cells, selectCells, id); err != nil {
		return nil, nil, fmt.Errorf("get timetable cells: %w", err)
	}

	var timetable model.Timetable
	current := -1
	for _, cell := range cells {
		if cell.SubjectIndex != current {
			current = cell.SubjectIndex
			timetable = append(timetable, model.Entry{Subject: cell.Subject, Positions: make([]int, 0)})
		}
		last := &timetable[len(timetable)-1]
		last.Positions = append(last.Positions, cell.Position)
	}
	return &run, timetable, nil
}

// ListRuns returns the most recent runs first; limit <= 0 lists all of them
func (store *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	const query = `SELECT id, created_at, input_digest, solver, status, periods_per_week, periods_per_day, stats FROM runs ORDER BY created_at DESC, id LIMIT ?`
	runs := make([]Run, 0)
	if err := store.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// InputDigest identifies an input together with the settings that shape its result
func InputDigest(input model.ModelInput, settings ...string) (string, error) {
	hash := sha256.New()
	encoder := json.NewEncoder(hash)
	if err := encoder.Encode(input); err != nil {
		return "", err
	}
	if err := encoder.Encode(settings); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

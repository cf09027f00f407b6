package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/limaJavier/timetableplus/pkg/model"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAndGetRun(t *testing.T) {
	//** Arrange
	store := openMemory(t)
	ctx := context.Background()
	timetable := model.Timetable{
		{Subject: "Math", Positions: []int{3, 1}},
		{Subject: "Art", Positions: []int{0}},
	}
	run := &Run{InputDigest: "abc", Solver: "backtracking", Status: StatusSolved, PeriodsPerWeek: 4, PeriodsPerDay: 2}
	require.NoError(t, run.SetStats(RunStats{Nodes: 4, Solutions: 1, DurationMs: 2}))

	//** Act
	require.NoError(t, store.SaveRun(ctx, run, timetable))
	loaded, loadedTimetable, err := store.GetRun(ctx, run.ID)

	//** Assert
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, run.ID, loaded.ID)
	assert.Equal(t, StatusSolved, loaded.Status)
	assert.Equal(t, model.GridShape{PeriodsPerWeek: 4, PeriodsPerDay: 2}, loaded.Shape())
	assert.Equal(t, timetable, loadedTimetable)

	stats, err := loaded.DecodeStats()
	require.NoError(t, err)
	assert.Equal(t, RunStats{Nodes: 4, Solutions: 1, DurationMs: 2}, stats)
}

func TestSaveInfeasibleRun(t *testing.T) {
	store := openMemory(t)
	run := &Run{InputDigest: "abc", Solver: "gini", Status: StatusInfeasible, PeriodsPerWeek: 20, PeriodsPerDay: 4}

	require.NoError(t, store.SaveRun(context.Background(), run, nil))
	loaded, timetable, err := store.GetRun(context.Background(), run.ID)

	require.NoError(t, err)
	assert.Equal(t, StatusInfeasible, loaded.Status)
	assert.Nil(t, timetable)
}

func TestGetRunNotFound(t *testing.T) {
	_, _, err := openMemory(t).GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListRunsNewestFirst(t *testing.T) {
	//** Arrange
	store := openMemory(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	for i := range 3 {
		run := &Run{ID: string(rune('a' + i)), CreatedAt: start.Add(time.Duration(i) * time.Hour), Solver: "backtracking", Status: StatusSolved, PeriodsPerWeek: 20, PeriodsPerDay: 4}
		require.NoError(t, store.SaveRun(ctx, run, nil))
	}

	//** Act
	all, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	limited, err := store.ListRuns(ctx, 2)
	require.NoError(t, err)

	//** Assert
	assert.Equal(t, []string{"c", "b", "a"}, []string{all[0].ID, all[1].ID, all[2].ID})
	assert.Len(t, limited, 2)
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.SaveRun(context.Background(), &Run{Solver: "backtracking", Status: StatusSolved, PeriodsPerWeek: 20, PeriodsPerDay: 4}, nil))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()
	runs, err := reopened.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(sqlx.NewDb(db, "sqlmock")), mock
}

func TestSaveRunRollsBackOnFailure(t *testing.T) {
	//** Arrange
	store, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO runs").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO timetable_cells").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	//** Act
	err := store.SaveRun(context.Background(), &Run{Solver: "backtracking", Status: StatusSolved}, model.Timetable{{Subject: "Math", Positions: []int{0}}})

	//** Assert
	assert.ErrorContains(t, err, "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRunsPropagatesQueryErrors(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectQuery("SELECT (.+) FROM runs").WillReturnError(errors.New("database is locked"))

	_, err := store.ListRuns(context.Background(), 10)

	assert.ErrorContains(t, err, "database is locked")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInputDigest(t *testing.T) {
	input := model.ModelInput{Subjects: []model.Subject{{Name: "Math", PeriodsPerWeek: 2}}, Shape: model.DefaultGridShape()}

	first, err := InputDigest(input, "backtracking")
	require.NoError(t, err)
	second, err := InputDigest(input, "backtracking")
	require.NoError(t, err)
	other, err := InputDigest(input, "gini")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)
	assert.Len(t, first, 64)
}

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/limaJavier/timetableplus/internal/store"
	"github.com/limaJavier/timetableplus/pkg/input"
	"github.com/limaJavier/timetableplus/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const infeasibleInput = `{"periodsPerWeek": 4, "subjects": [
	{"name": "History", "periods": 2, "teacher": "Smith", "students": ["Ana"]},
	{"name": "Math", "periods": 2, "teacher": "Jones", "students": ["Ana"]},
	{"name": "Physics", "periods": 2, "teacher": "Brown", "students": ["Ana"]}
]}`

// workspace moves the test into an empty directory and returns the absolute
// path of the sample school input
func workspace(t *testing.T) (dir, school string) {
	t.Helper()
	school, err := filepath.Abs(filepath.Join("..", "..", "pkg", "input", "testdata", "school.json"))
	require.NoError(t, err)

	dir = t.TempDir()
	t.Chdir(dir)
	return dir, school
}

// executeCmd runs a cobra command and captures stdout/stderr.
func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestRootCmd_NoArgs_ShowsHelp(t *testing.T) {
	workspace(t)

	output, err := executeCmd(t, &App{})
	require.NoError(t, err)
	assert.Contains(t, output, "timetable")
	assert.Contains(t, output, "solve")
}

func TestSolveCmd_ASCII(t *testing.T) {
	//** Arrange
	_, school := workspace(t)
	app := &App{}

	//** Act
	output, err := executeCmd(t, app, "solve", "--file", school)

	//** Assert
	require.NoError(t, err)
	assert.Equal(t, ExitSolved, app.ExitCode(err))
	assert.Contains(t, output, "Monday")
	assert.Contains(t, output, "Math HL")
	assert.Contains(t, output, "Status: solved")
}

func TestSolveCmd_JSONFiles(t *testing.T) {
	//** Arrange
	dir, school := workspace(t)
	out := filepath.Join(dir, "timetable.json")

	//** Act
	_, err := executeCmd(t, &App{}, "solve", "--file", school, "--count", "2", "--out", out)

	//** Assert
	require.NoError(t, err)
	require.FileExists(t, out)
	require.FileExists(t, filepath.Join(dir, "timetable-2.json"))

	first, err := readTimetable(out)
	require.NoError(t, err)
	second, err := readTimetable(filepath.Join(dir, "timetable-2.json"))
	require.NoError(t, err)
	assert.Len(t, first, 5)
	assert.NotEqual(t, first, second)
}

func TestSolveCmd_BinaryFormats(t *testing.T) {
	dir, school := workspace(t)

	for _, name := range []string{"timetable.xlsx", "timetable.pdf", "timetable.csv"} {
		t.Run(name, func(t *testing.T) {
			out := filepath.Join(dir, name)

			_, err := executeCmd(t, &App{}, "solve", "--file", school, "--out", out)

			require.NoError(t, err)
			info, err := os.Stat(out)
			require.NoError(t, err)
			assert.Positive(t, info.Size())
		})
	}
}

func TestSolveCmd_Infeasible(t *testing.T) {
	//** Arrange
	dir, _ := workspace(t)
	path := filepath.Join(dir, "overloaded.json")
	require.NoError(t, os.WriteFile(path, []byte(infeasibleInput), 0o644))
	app := &App{}

	//** Act
	output, err := executeCmd(t, app, "solve", "--file", path)

	//** Assert
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInfeasible))
	assert.Equal(t, ExitInfeasible, app.ExitCode(err))
	assert.Contains(t, output, "Status: infeasible")
}

func TestSolveCmd_Errors(t *testing.T) {
	_, school := workspace(t)

	cases := []struct {
		name    string
		args    []string
		message string
	}{
		{"missing file flag", []string{"solve"}, "file"},
		{"unknown format", []string{"solve", "--file", school, "--format", "yaml"}, "unknown format"},
		{"unknown solver", []string{"solve", "--file", school, "--solver", "dpll"}, "unknown solver"},
		{"non-positive count", []string{"solve", "--file", school, "--count", "0"}, "count must be positive"},
		{"missing input", []string{"solve", "--file", "absent.json"}, "absent.json"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := &App{}

			_, err := executeCmd(t, app, tc.args...)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.message)
			assert.Equal(t, 1, app.ExitCode(err))
		})
	}
}

func TestSolveCmd_SaveAndHistory(t *testing.T) {
	//** Arrange
	dir, school := workspace(t)
	dbPath := filepath.Join(dir, "history.db")

	//** Act
	output, err := executeCmd(t, &App{}, "solve", "--file", school, "--save", "--db-path", dbPath)
	require.NoError(t, err)
	assert.Contains(t, output, "Saved run")

	history, err := store.Open(dbPath)
	require.NoError(t, err)
	runs, err := history.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.NoError(t, history.Close())

	//** Assert
	require.Len(t, runs, 1)
	assert.Equal(t, store.StatusSolved, runs[0].Status)

	listed, err := executeCmd(t, &App{}, "history", "list", "--db-path", dbPath)
	require.NoError(t, err)
	assert.Contains(t, listed, runs[0].ID)
	assert.Contains(t, listed, "solved")

	shown, err := executeCmd(t, &App{}, "history", "show", runs[0].ID, "--db-path", dbPath)
	require.NoError(t, err)
	assert.Contains(t, shown, "Math HL")

	_, err = executeCmd(t, &App{}, "history", "show", "missing", "--db-path", dbPath)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestHistoryListCmd_Empty(t *testing.T) {
	dir, _ := workspace(t)

	output, err := executeCmd(t, &App{}, "history", "list", "--db-path", filepath.Join(dir, "empty.db"))

	require.NoError(t, err)
	assert.Contains(t, output, "No runs recorded")
}

func TestVerifyCmd(t *testing.T) {
	//** Arrange
	dir, school := workspace(t)
	produced := filepath.Join(dir, "produced.json")
	_, err := executeCmd(t, &App{}, "solve", "--file", school, "--out", produced)
	require.NoError(t, err)

	clash := model.Timetable{
		{Subject: "Math HL", Positions: []int{0, 1, 2}},
		{Subject: "History SL", Positions: []int{0, 3}},
		{Subject: "Biology HL", Positions: []int{4, 5, 6}},
		{Subject: "English SL", Positions: []int{7, 8}},
		{Subject: "Chemistry SL", Positions: []int{9, 10}},
	}
	encoded, err := json.Marshal(clash)
	require.NoError(t, err)
	clashing := filepath.Join(dir, "clashing.json")
	require.NoError(t, os.WriteFile(clashing, encoded, 0o644))

	t.Run("produced timetable is valid", func(t *testing.T) {
		app := &App{}

		output, err := executeCmd(t, app, "verify", "--file", school, "--timetable", produced)

		require.NoError(t, err)
		assert.Contains(t, output, "Timetable is valid")
		assert.Equal(t, 0, app.ExitCode(err))
	})

	t.Run("clash is rejected", func(t *testing.T) {
		app := &App{}

		_, err := executeCmd(t, app, "verify", "--file", school, "--timetable", clashing)

		require.Error(t, err)
		assert.Equal(t, ExitInvalid, app.ExitCode(err))
	})
}

func TestTemplateCmd(t *testing.T) {
	//** Arrange
	dir, _ := workspace(t)
	out := filepath.Join(dir, "subjects.xlsx")

	//** Act
	output, err := executeCmd(t, &App{}, "template", "--out", out)

	//** Assert
	require.NoError(t, err)
	assert.Contains(t, output, out)

	workbook, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer workbook.Close()
	assert.Contains(t, workbook.GetSheetList(), input.SubjectsSheet)
}

func TestNumberedPath(t *testing.T) {
	assert.Equal(t, "out.json", numberedPath("out.json", 0))
	assert.Equal(t, "out-2.json", numberedPath("out.json", 1))
	assert.Equal(t, "dir/out-3", numberedPath("dir/out", 2))
}

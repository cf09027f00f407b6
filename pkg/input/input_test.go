package input

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/limaJavier/timetableplus/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestLoadJSON(t *testing.T) {
	//** Act
	input, err := Load(filepath.Join("testdata", "school.json"), model.DefaultGridShape())

	//** Assert
	require.NoError(t, err)
	assert.Len(t, input.Subjects, 5)
	assert.Equal(t, model.Subject{Name: "Math HL", PeriodsPerWeek: 3, Teacher: "Jones", Roster: []string{"Ana", "Ben", "Cleo"}}, input.Subjects[0])
	assert.Equal(t, []model.Participant{{Name: "Eve", Kind: model.Student, Subjects: []string{"Math HL", "History SL"}}}, input.Participants)
	assert.Equal(t, model.DefaultGridShape(), input.Shape)
}

func TestLoadRosterMap(t *testing.T) {
	input, err := Load(filepath.Join("testdata", "rosters.json"), model.GridShape{PeriodsPerWeek: 10, PeriodsPerDay: 2})

	require.NoError(t, err)
	assert.Equal(t, []model.Subject{
		{Name: "Art SL", PeriodsPerWeek: 2, Roster: []string{"Ben"}},
		{Name: "Physics HL", PeriodsPerWeek: 3, Roster: []string{"Ana", "Ben"}},
	}, input.Subjects)
	assert.Equal(t, 10, input.Shape.PeriodsPerWeek)
}

func TestLoadUnsupportedExtension(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "school.csv"), model.DefaultGridShape())
	assert.Error(t, err)
}

func TestFromJSONValidation(t *testing.T) {
	tests := []struct {
		name   string
		json   string
		record string
		field  string
	}{
		{"Missing teacher", `{"subjects": [{"name": "Math", "periods": 2, "students": ["Ana"]}]}`, "subjects[0]", "teacher"},
		{"Zero periods", `{"subjects": [{"name": "Math", "periods": 0, "teacher": "Jones"}]}`, "subjects[0]", "periods"},
		{"Blank student", `{"subjects": [{"name": "Math", "periods": 1, "teacher": "Jones", "students": ["Ana", ""]}]}`, "subjects[0]", "students[1]"},
		{"Empty subjects", `{"subjects": []}`, "input", "subjects"},
		{"Bad kind", `{"subjects": [{"name": "Math", "periods": 1, "teacher": "Jones"}], "participants": [{"name": "Ana", "kind": "parent"}]}`, "participants[0]", "kind"},
		{"Unknown field", `{"subjects": [{"name": "Math", "periods": 1, "teacher": "Jones", "room": "B2"}]}`, "input", ""},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			//** Act
			_, err := FromJSON(strings.NewReader(test.json), model.DefaultGridShape())

			//** Assert
			var validationError *ValidationError
			require.ErrorAs(t, err, &validationError)
			assert.Equal(t, test.record, validationError.Record)
			assert.Equal(t, test.field, validationError.Field)
		})
	}
}

func TestFromJSONMalformed(t *testing.T) {
	_, err := FromJSON(strings.NewReader(`{"subjects": [`), model.DefaultGridShape())

	var validationError *ValidationError
	assert.ErrorAs(t, err, &validationError)
}

func workbook(t *testing.T, rows ...[]any) *bytes.Buffer {
	t.Helper()

	file := excelize.NewFile()
	defer file.Close()
	require.NoError(t, file.SetSheetName("Sheet1", SubjectsSheet))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, file.SetSheetRow(SubjectsSheet, cell, &row))
	}

	buffer := new(bytes.Buffer)
	require.NoError(t, file.Write(buffer))
	return buffer
}

func TestFromXLSX(t *testing.T) {
	//** Arrange
	buffer := workbook(t,
		[]any{"Subject", "Periods", "Teacher", "Students"},
		[]any{"Math HL", 3, "Jones", "Ana, Ben,,Cleo"},
		[]any{},
		[]any{"Art SL", "2", "Smith"},
	)

	//** Act
	input, err := FromXLSX(buffer, model.DefaultGridShape())

	//** Assert
	require.NoError(t, err)
	assert.Equal(t, []model.Subject{
		{Name: "Math HL", PeriodsPerWeek: 3, Teacher: "Jones", Roster: []string{"Ana", "Ben", "Cleo"}},
		{Name: "Art SL", PeriodsPerWeek: 2, Teacher: "Smith", Roster: []string{}},
	}, input.Subjects)
}

func TestFromXLSXReportsCell(t *testing.T) {
	header := []any{"Subject", "Periods", "Teacher", "Students"}

	tests := []struct {
		name string
		rows [][]any
		cell string
	}{
		{"Wrong header", [][]any{{"Subject", "Hours", "Teacher", "Students"}}, "B1"},
		{"Missing periods", [][]any{header, {"Math", "", "Jones", "Ana"}}, "B2"},
		{"Negative periods", [][]any{header, {"Math", 2, "Jones"}, {"Art", -1, "Smith"}}, "B3"},
		{"Missing teacher", [][]any{header, {"Math", 2, "", "Ana"}}, "C2"},
		{"Missing name", [][]any{header, {"", 2, "Jones", "Ana"}}, "A2"},
		{"No subjects", [][]any{header}, "A2"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := FromXLSX(workbook(t, test.rows...), model.DefaultGridShape())

			var validationError *ValidationError
			require.ErrorAs(t, err, &validationError)
			assert.Equal(t, test.cell, validationError.Cell)
			assert.Contains(t, validationError.Error(), "cell "+test.cell)
		})
	}
}

func TestFromXLSXMissingSheet(t *testing.T) {
	file := excelize.NewFile()
	buffer := new(bytes.Buffer)
	require.NoError(t, file.Write(buffer))

	_, err := FromXLSX(buffer, model.DefaultGridShape())

	var validationError *ValidationError
	assert.ErrorAs(t, err, &validationError)
}

func TestWriteTemplate(t *testing.T) {
	//** Arrange
	buffer := new(bytes.Buffer)

	//** Act
	require.NoError(t, WriteTemplate(buffer))

	//** Assert
	file, err := excelize.OpenReader(bytes.NewReader(buffer.Bytes()))
	require.NoError(t, err)
	rows, err := file.GetRows(SubjectsSheet)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Subject", "Periods", "Teacher", "Students"}}, rows)

	// An untouched template has no subjects yet
	_, err = FromXLSX(bytes.NewReader(buffer.Bytes()), model.DefaultGridShape())
	var validationError *ValidationError
	assert.ErrorAs(t, err, &validationError)
}

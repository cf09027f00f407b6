package input

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/limaJavier/timetableplus/pkg/model"

	"github.com/samber/lo"
	"github.com/xuri/excelize/v2"
)

const SubjectsSheet = "Subjects"

var subjectsHeader = []string{"Subject", "Periods", "Teacher", "Students"}

// FromXLSX reads the Subjects sheet of a workbook: one subject per row with
// the students comma separated. Errors name the offending cell.
func FromXLSX(reader io.Reader, defaults model.GridShape) (model.ModelInput, error) {
	workbook, err := excelize.OpenReader(reader)
	if err != nil {
		return model.ModelInput{}, fmt.Errorf("cannot open workbook: %w", err)
	}
	defer workbook.Close()

	rows, err := workbook.GetRows(SubjectsSheet)
	if err != nil {
		return model.ModelInput{}, &ValidationError{Record: "workbook", Field: SubjectsSheet, Message: err.Error()}
	}

	//** Check header
	if len(rows) == 0 {
		return model.ModelInput{}, &ValidationError{Record: SubjectsSheet, Field: "header", Cell: "A1", Message: "is required"}
	}
	for column, expected := range subjectsHeader {
		if actual := cellAt(rows[0], column); !strings.EqualFold(actual, expected) {
			return model.ModelInput{}, &ValidationError{
				Record:  SubjectsSheet,
				Field:   "header",
				Cell:    cellName(column, 0),
				Message: fmt.Sprintf("expected %q, found %q", expected, actual),
			}
		}
	}

	//** Read subjects
	raw := RawModelInput{Subjects: make([]RawSubject, 0, len(rows)-1)}
	for index, row := range rows[1:] {
		rowIndex := index + 1
		if lo.EveryBy(row, func(cell string) bool { return strings.TrimSpace(cell) == "" }) {
			continue
		}
		record := fmt.Sprintf("%v row %d", SubjectsSheet, rowIndex+1)

		name := cellAt(row, 0)
		if name == "" {
			return model.ModelInput{}, &ValidationError{Record: record, Field: "subject", Cell: cellName(0, rowIndex), Message: "is required"}
		}

		periods, err := strconv.Atoi(cellAt(row, 1))
		if err != nil || periods < 1 {
			return model.ModelInput{}, &ValidationError{Record: record, Field: "periods", Cell: cellName(1, rowIndex), Message: "must be a positive whole number"}
		}

		teacher := cellAt(row, 2)
		if teacher == "" {
			return model.ModelInput{}, &ValidationError{Record: record, Field: "teacher", Cell: cellName(2, rowIndex), Message: "is required"}
		}

		students := lo.Compact(lo.Map(strings.Split(cellAt(row, 3), ","), func(student string, _ int) string {
			return strings.TrimSpace(student)
		}))

		raw.Subjects = append(raw.Subjects, RawSubject{Name: name, Periods: periods, Teacher: teacher, Students: students})
	}

	if len(raw.Subjects) == 0 {
		return model.ModelInput{}, &ValidationError{Record: SubjectsSheet, Field: "subjects", Cell: "A2", Message: "is required"}
	}
	return ToModelInput(raw, defaults), nil
}

// WriteTemplate writes an empty workbook with the Subjects header
func WriteTemplate(writer io.Writer) error {
	workbook := excelize.NewFile()
	defer workbook.Close()

	if err := workbook.SetSheetName("Sheet1", SubjectsSheet); err != nil {
		return err
	}
	if err := workbook.SetSheetRow(SubjectsSheet, "A1", &subjectsHeader); err != nil {
		return err
	}

	bold, err := workbook.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := workbook.SetCellStyle(SubjectsSheet, "A1", "D1", bold); err != nil {
		return err
	}
	if err := workbook.SetColWidth(SubjectsSheet, "A", "C", 18); err != nil {
		return err
	}
	if err := workbook.SetColWidth(SubjectsSheet, "D", "D", 60); err != nil {
		return err
	}

	periods := excelize.NewDataValidation(true)
	periods.Sqref = "B2:B1000"
	if err := periods.SetRange(1, model.DefaultPeriodsPerWeek, excelize.DataValidationTypeWhole, excelize.DataValidationOperatorBetween); err != nil {
		return err
	}
	periods.SetError(excelize.DataValidationErrorStyleStop, "Periods", "Periods must be a whole number of periods per week")
	if err := workbook.AddDataValidation(SubjectsSheet, periods); err != nil {
		return err
	}

	return workbook.Write(writer)
}

func cellAt(row []string, column int) string {
	if column >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[column])
}

// cellName converts zero-based coordinates to a reference such as B3
func cellName(column, row int) string {
	name, err := excelize.CoordinatesToCellName(column+1, row+1)
	if err != nil {
		return fmt.Sprintf("R%dC%d", row+1, column+1)
	}
	return name
}

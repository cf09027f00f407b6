package export

import (
	"io"
	"strings"

	"github.com/limaJavier/timetableplus/pkg/model"

	"github.com/xuri/excelize/v2"
)

const TimetableSheet = "Timetable"

type xlsxExporter struct{}

// Export writes a workbook with one column per day and one row per in-day
// period; subjects sharing a cell are placed on separate lines.
func (exporter *xlsxExporter) Export(writer io.Writer, timetable model.Timetable, shape model.GridShape) error {
	grid, err := timetable.Grid(shape)
	if err != nil {
		return err
	}

	workbook := excelize.NewFile()
	defer workbook.Close()

	if err := workbook.SetSheetName("Sheet1", TimetableSheet); err != nil {
		return err
	}

	header, err := workbook.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}
	wrapped, err := workbook.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return err
	}

	//** Header row
	for day, name := range dayHeaders(shape) {
		cell, _ := excelize.CoordinatesToCellName(day+2, 1)
		if err := workbook.SetCellValue(TimetableSheet, cell, name); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(shape.Days()+1, 1)
	if err := workbook.SetCellStyle(TimetableSheet, "A1", last, header); err != nil {
		return err
	}

	//** One row per period
	for period, row := range periodRows(grid, shape, "\n") {
		label, _ := excelize.CoordinatesToCellName(1, period+2)
		if err := workbook.SetCellValue(TimetableSheet, label, period+1); err != nil {
			return err
		}
		for day, value := range row {
			cell, _ := excelize.CoordinatesToCellName(day+2, period+2)
			if err := workbook.SetCellValue(TimetableSheet, cell, value); err != nil {
				return err
			}
			if err := workbook.SetCellStyle(TimetableSheet, cell, cell, wrapped); err != nil {
				return err
			}
			if lines := strings.Count(value, "\n") + 1; lines > 1 {
				height, _ := workbook.GetRowHeight(TimetableSheet, period+2)
				if float64(lines)*15 > height {
					if err := workbook.SetRowHeight(TimetableSheet, period+2, float64(lines)*15); err != nil {
						return err
					}
				}
			}
		}
	}

	lastColumn, _ := excelize.ColumnNumberToName(shape.Days() + 1)
	if err := workbook.SetColWidth(TimetableSheet, "B", lastColumn, 22); err != nil {
		return err
	}

	return workbook.Write(writer)
}

package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/limaJavier/timetableplus/pkg/model"
)

type csvExporter struct{}

// Export writes one day,period,subject record per scheduled period, ordered by position
func (exporter *csvExporter) Export(writer io.Writer, timetable model.Timetable, shape model.GridShape) error {
	cells, err := timetable.Cells(shape)
	if err != nil {
		return err
	}

	csvWriter := csv.NewWriter(writer)
	if err := csvWriter.Write([]string{"day", "period", "subject"}); err != nil {
		return fmt.Errorf("write csv headers: %w", err)
	}
	for _, cell := range cells {
		if err := csvWriter.Write([]string{DayName(cell.Day), strconv.Itoa(cell.Period + 1), cell.Subject}); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

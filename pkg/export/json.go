package export

import (
	"encoding/json"
	"io"

	"github.com/limaJavier/timetableplus/pkg/model"
)

type jsonExporter struct{}

type jsonDocument struct {
	PeriodsPerWeek int             `json:"periodsPerWeek"`
	PeriodsPerDay  int             `json:"periodsPerDay"`
	Timetable      model.Timetable `json:"timetable"`
	Cells          []model.Cell    `json:"cells"`
}

func (exporter *jsonExporter) Export(writer io.Writer, timetable model.Timetable, shape model.GridShape) error {
	cells, err := timetable.Cells(shape)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(jsonDocument{
		PeriodsPerWeek: shape.PeriodsPerWeek,
		PeriodsPerDay:  shape.PeriodsPerDay,
		Timetable:      timetable,
		Cells:          cells,
	})
}

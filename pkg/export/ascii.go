package export

import (
	"io"
	"strconv"

	"github.com/limaJavier/timetableplus/pkg/model"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

type asciiExporter struct {
	color bool
}

func (exporter *asciiExporter) Export(writer io.Writer, timetable model.Timetable, shape model.GridShape) error {
	grid, err := timetable.Grid(shape)
	if err != nil {
		return err
	}

	renderer := lipgloss.NewRenderer(writer)
	cellStyle := renderer.NewStyle().Padding(0, 1)
	headerStyle, periodStyle, borderStyle := cellStyle, cellStyle, renderer.NewStyle()
	if exporter.color {
		headerStyle = cellStyle.Bold(true).Foreground(lipgloss.Color("#fe8019"))
		periodStyle = cellStyle.Foreground(lipgloss.Color("#928374"))
		borderStyle = borderStyle.Foreground(lipgloss.Color("#928374"))
	}

	rows := periodRows(grid, shape, "\n")
	for period := range rows {
		rows[period] = append([]string{strconv.Itoa(period + 1)}, rows[period]...)
	}

	rendered := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		BorderRow(true).
		Headers(append([]string{"Period"}, dayHeaders(shape)...)...).
		Rows(rows...).
		StyleFunc(func(row, column int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case column == 0:
				return periodStyle
			default:
				return cellStyle
			}
		}).
		Render()

	_, err = io.WriteString(writer, rendered+"\n")
	return err
}

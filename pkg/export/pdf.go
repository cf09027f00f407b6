package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/limaJavier/timetableplus/pkg/model"

	"github.com/jung-kurt/gofpdf"
	"github.com/samber/lo"
)

type pdfExporter struct {
	title string
}

const (
	pdfLineHeight   = 6.0
	pdfPeriodColumn = 18.0
	pdfPageWidth    = 277.0 // A4 landscape minus margins
)

func (exporter *pdfExporter) Export(writer io.Writer, timetable model.Timetable, shape model.GridShape) error {
	grid, err := timetable.Grid(shape)
	if err != nil {
		return err
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()
	translate := pdf.UnicodeTranslatorFromDescriptor("")

	if exporter.title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, translate(exporter.title), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	dayWidth := (pdfPageWidth - pdfPeriodColumn) / float64(shape.Days())

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(pdfPeriodColumn, 8, "Period", "1", 0, "C", false, 0, "")
	for _, header := range dayHeaders(shape) {
		pdf.CellFormat(dayWidth, 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	left, _, _, _ := pdf.GetMargins()
	for period, row := range periodRows(grid, shape, "\n") {
		lines := lo.Max(lo.Map(row, func(value string, _ int) int { return strings.Count(value, "\n") + 1 }))
		height := float64(max(lines, 1)) * pdfLineHeight

		_, top := pdf.GetXY()
		pdf.CellFormat(pdfPeriodColumn, height, strconv.Itoa(period+1), "1", 0, "C", false, 0, "")
		for day, value := range row {
			x := left + pdfPeriodColumn + float64(day)*dayWidth
			pdf.Rect(x, top, dayWidth, height, "D")
			pdf.SetXY(x, top)
			pdf.MultiCell(dayWidth, pdfLineHeight, translate(value), "", "L", false)
		}
		pdf.SetXY(left, top+height)
	}

	if err := pdf.Output(writer); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

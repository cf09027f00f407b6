// Package export renders timetables as text grids, JSON, CSV, XLSX workbooks and PDF tables.
package export

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/limaJavier/timetableplus/pkg/model"

	"github.com/mattn/go-isatty"
)

type Format string

const (
	ASCII Format = "ascii"
	JSON  Format = "json"
	CSV   Format = "csv"
	XLSX  Format = "xlsx"
	PDF   Format = "pdf"
)

var Formats = []Format{ASCII, JSON, CSV, XLSX, PDF}

type Exporter interface {
	Export(writer io.Writer, timetable model.Timetable, shape model.GridShape) error
}

type Options struct {
	// Color enables styling in the ASCII grid
	Color bool
	Title string
}

func New(format Format, options Options) (Exporter, error) {
	switch Format(strings.ToLower(string(format))) {
	case ASCII, "":
		return &asciiExporter{color: options.Color}, nil
	case JSON:
		return &jsonExporter{}, nil
	case CSV:
		return &csvExporter{}, nil
	case XLSX:
		return &xlsxExporter{}, nil
	case PDF:
		return &pdfExporter{title: options.Title}, nil
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
}

// Binary reports whether the format must not be written to a terminal
func (format Format) Binary() bool {
	return format == XLSX || format == PDF
}

// FormatFromPath guesses a format from a file extension
func FormatFromPath(path string) (Format, bool) {
	for _, format := range Formats {
		if strings.HasSuffix(strings.ToLower(path), "."+string(format)) {
			return format, true
		}
	}
	if strings.HasSuffix(strings.ToLower(path), ".txt") {
		return ASCII, true
	}
	return "", false
}

// IsTerminal reports whether the file is an interactive terminal
func IsTerminal(file *os.File) bool {
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

var dayNames = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func DayName(day int) string {
	if day < len(dayNames) {
		return dayNames[day]
	}
	return fmt.Sprintf("Day %d", day+1)
}

func dayHeaders(shape model.GridShape) []string {
	headers := make([]string, shape.Days())
	for day := range headers {
		headers[day] = DayName(day)
	}
	return headers
}

// periodRows transposes the grid so each row is one in-day period across days
func periodRows(grid model.Grid, shape model.GridShape, separator string) [][]string {
	rows := make([][]string, shape.PeriodsPerDay)
	for period := range rows {
		rows[period] = make([]string, len(grid))
		for day := range grid {
			rows[period][day] = strings.Join(grid[day][period], separator)
		}
	}
	return rows
}

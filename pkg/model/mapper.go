package model

import (
	"fmt"
	"slices"

	"github.com/limaJavier/timetableplus/pkg/csp"

	"github.com/samber/lo"
)

// Entry lists the grid positions of one subject in period order
type Entry struct {
	Subject   string `json:"subject"`
	Positions []int  `json:"positions"`
}

// Timetable holds one entry per subject, in subject order
type Timetable []Entry

// Grid is indexed by day and then in-day period; a cell may hold several subjects
type Grid [][][]string

type Cell struct {
	Day      int    `json:"day"`
	Period   int    `json:"period"`
	Position int    `json:"position"`
	Subject  string `json:"subject"`
}

// Map converts a raw assignment into a Timetable
func Map(model *ConstraintModel, assignment csp.Assignment) (Timetable, error) {
	if len(assignment) != len(model.CSP.Variables) {
		return nil, fmt.Errorf("assignment covers %d variables, model has %d", len(assignment), len(model.CSP.Variables))
	}

	timetable := make(Timetable, 0, len(model.Subjects))
	for _, subject := range model.Subjects {
		variables := model.SubjectSlots(subject.Name)
		positions := make([]int, 0, len(variables))
		for _, variable := range variables {
			position := assignment[variable]
			if !model.Shape.Contains(position) {
				return nil, &OutOfRangeError{Subject: subject.Name, Position: position, Shape: model.Shape}
			}
			positions = append(positions, position)
		}
		timetable = append(timetable, Entry{Subject: subject.Name, Positions: positions})
	}
	return timetable, nil
}

func (timetable Timetable) Positions(subject string) ([]int, bool) {
	entry, ok := lo.Find(timetable, func(entry Entry) bool { return entry.Subject == subject })
	return entry.Positions, ok
}

// Grid lays the timetable out as days x periods
func (timetable Timetable) Grid(shape GridShape) (Grid, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}

	grid := make(Grid, shape.Days())
	for day := range grid {
		grid[day] = make([][]string, shape.PeriodsPerDay)
	}

	for _, entry := range timetable {
		for _, position := range entry.Positions {
			if !shape.Contains(position) {
				return nil, &OutOfRangeError{Subject: entry.Subject, Position: position, Shape: shape}
			}
			day, period := shape.Cell(position)
			grid[day][period] = append(grid[day][period], entry.Subject)
		}
	}
	return grid, nil
}

// Cells flattens the timetable ordered by position and then subject order
func (timetable Timetable) Cells(shape GridShape) ([]Cell, error) {
	cells := make([]Cell, 0)
	for _, entry := range timetable {
		for _, position := range entry.Positions {
			if !shape.Contains(position) {
				return nil, &OutOfRangeError{Subject: entry.Subject, Position: position, Shape: shape}
			}
			day, period := shape.Cell(position)
			cells = append(cells, Cell{Day: day, Period: period, Position: position, Subject: entry.Subject})
		}
	}
	slices.SortStableFunc(cells, func(a, b Cell) int { return a.Position - b.Position })
	return cells, nil
}

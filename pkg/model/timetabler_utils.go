package model

import (
	"fmt"

	"github.com/limaJavier/timetableplus/pkg/csp"
)

// Validate checks a timetable against a fresh model of the input: every
// subject appears once with all its periods inside the grid and no
// participant attends two periods at the same position.
func Validate(timetable Timetable, modelInput ModelInput, options BuildOptions) error {
	model, err := Build(modelInput, options)
	if err != nil {
		return err
	}

	assignment := make(csp.Assignment, len(model.CSP.Variables))
	for i := range assignment {
		assignment[i] = csp.Unassigned
	}

	seen := make(map[string]bool)
	for _, entry := range timetable {
		if seen[entry.Subject] {
			return fmt.Errorf("subject %q appears more than once", entry.Subject)
		}
		seen[entry.Subject] = true

		variables := model.SubjectSlots(entry.Subject)
		if variables == nil {
			return fmt.Errorf("unknown subject %q", entry.Subject)
		} else if len(variables) != len(entry.Positions) {
			return fmt.Errorf("subject %q has %d positions, requires %d", entry.Subject, len(entry.Positions), len(variables))
		}

		for i, position := range entry.Positions {
			if !model.Shape.Contains(position) {
				return &OutOfRangeError{Subject: entry.Subject, Position: position, Shape: model.Shape}
			}
			assignment[variables[i]] = position
		}
	}

	for _, subject := range model.Subjects {
		if !seen[subject.Name] {
			return fmt.Errorf("subject %q is missing", subject.Name)
		}
	}

	return csp.Check(model.CSP, assignment)
}

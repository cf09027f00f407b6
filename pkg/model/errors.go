package model

import (
	"errors"
	"fmt"
)

// ErrInfeasible is returned when no timetable exists for the input
var ErrInfeasible = errors.New("no timetable exists for this input")

// DomainConflictError reports two definitions of the same subject that disagree
type DomainConflictError struct {
	Subject string
	Field   string
}

func (err *DomainConflictError) Error() string {
	return fmt.Sprintf("subject %q is defined more than once with different %v", err.Subject, err.Field)
}

type UnknownSubjectError struct {
	Participant string
	Subject     string
}

func (err *UnknownSubjectError) Error() string {
	return fmt.Sprintf("participant %q refers to unknown subject %q", err.Participant, err.Subject)
}

// OutOfRangeError reports a position that does not fit the grid
type OutOfRangeError struct {
	Subject  string
	Position int
	Shape    GridShape
}

func (err *OutOfRangeError) Error() string {
	return fmt.Sprintf("subject %q is placed at position %d outside the %d-period grid (%d per day)", err.Subject, err.Position, err.Shape.PeriodsPerWeek, err.Shape.PeriodsPerDay)
}

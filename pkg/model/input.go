package model

import (
	"fmt"
	"strconv"
)

const (
	DefaultPeriodsPerWeek = 20
	DefaultPeriodsPerDay  = 4
)

type Subject struct {
	Name           string
	PeriodsPerWeek int
	Teacher        string
	Roster         []string // Students enrolled in the subject
}

// PeriodSlots names one slot per required period: "Name-p1", "Name-p2", ...
func (subject Subject) PeriodSlots() []string {
	slots := make([]string, 0, subject.PeriodsPerWeek)
	for i := 1; i <= subject.PeriodsPerWeek; i++ {
		slots = append(slots, PeriodSlotID(subject.Name, i))
	}
	return slots
}

func PeriodSlotID(subject string, occurrence int) string {
	return subject + "-p" + strconv.Itoa(occurrence)
}

type ParticipantKind string

const (
	Student ParticipantKind = "student"
	Teacher ParticipantKind = "teacher"
)

// Participant is anyone who cannot attend two periods at once
type Participant struct {
	Name     string
	Kind     ParticipantKind
	Subjects []string // Names of the subjects attended (or taught)
}

type GridShape struct {
	PeriodsPerWeek int
	PeriodsPerDay  int
}

func DefaultGridShape() GridShape {
	return GridShape{PeriodsPerWeek: DefaultPeriodsPerWeek, PeriodsPerDay: DefaultPeriodsPerDay}
}

func (shape GridShape) Validate() error {
	if shape.PeriodsPerWeek <= 0 {
		return fmt.Errorf("periods per week must be positive: %d", shape.PeriodsPerWeek)
	} else if shape.PeriodsPerDay <= 0 {
		return fmt.Errorf("periods per day must be positive: %d", shape.PeriodsPerDay)
	}
	return nil
}

// Days rounds up, so a trailing partial day still gets a column
func (shape GridShape) Days() int {
	return (shape.PeriodsPerWeek + shape.PeriodsPerDay - 1) / shape.PeriodsPerDay
}

func (shape GridShape) Contains(position int) bool {
	return position >= 0 && position < shape.PeriodsPerWeek
}

// Cell decomposes a grid position into its day and in-day period
func (shape GridShape) Cell(position int) (day, period int) {
	return position / shape.PeriodsPerDay, position % shape.PeriodsPerDay
}

func (shape GridShape) Position(day, period int) int {
	return day*shape.PeriodsPerDay + period
}

// ModelInput is what an external loader hands to the scheduler. Students are
// derived from the subject rosters and merged with the explicit Participants.
type ModelInput struct {
	Subjects     []Subject
	Participants []Participant
	Shape        GridShape
}

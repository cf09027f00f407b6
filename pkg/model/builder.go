package model

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/limaJavier/timetableplus/pkg/csp"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// SubjectPolicy decides what happens to two subjects sharing a name
type SubjectPolicy string

const (
	RejectConflicts  SubjectPolicy = "reject"
	CoalesceSubjects SubjectPolicy = "coalesce"
)

func ParseSubjectPolicy(value string) (SubjectPolicy, error) {
	switch policy := SubjectPolicy(strings.ToLower(strings.TrimSpace(value))); policy {
	case "":
		return RejectConflicts, nil
	case RejectConflicts, CoalesceSubjects:
		return policy, nil
	default:
		return "", fmt.Errorf("unknown subject policy %q (want %q or %q)", value, RejectConflicts, CoalesceSubjects)
	}
}

type BuildOptions struct {
	// IncludeTeachers folds every teacher into the participant set
	IncludeTeachers bool
	SubjectPolicy   SubjectPolicy
	Logger          *zap.Logger
}

func (options BuildOptions) logger() *zap.Logger {
	if options.Logger == nil {
		return zap.NewNop()
	}
	return options.Logger
}

type PeriodSlot struct {
	ID       string
	Subject  string
	Index    int // 1-based occurrence within the subject
	Variable int
}

// ConstraintModel is the CSP derived from a ModelInput together with the
// bookkeeping needed to map an assignment back to subjects.
type ConstraintModel struct {
	CSP          csp.CSP
	Slots        []PeriodSlot
	Subjects     []Subject
	Participants []Participant
	Shape        GridShape

	slotsBySubject map[string][]int
}

// SubjectSlots returns the variables of a subject in period order
func (model *ConstraintModel) SubjectSlots(subject string) []int {
	return model.slotsBySubject[subject]
}

// Build turns the domain records into one variable per period-slot and one
// all-different group per participant.
func Build(input ModelInput, options BuildOptions) (*ConstraintModel, error) {
	logger := options.logger()

	if err := input.Shape.Validate(); err != nil {
		return nil, err
	}
	if options.SubjectPolicy == "" {
		options.SubjectPolicy = RejectConflicts
	}

	//** Resolve subjects by name
	subjects, coTeachers, err := resolveSubjects(input.Subjects, options.SubjectPolicy, logger)
	if err != nil {
		return nil, err
	}

	//** Collect participants
	participants, err := collectParticipants(input, subjects, coTeachers, options, logger)
	if err != nil {
		return nil, err
	}

	model := &ConstraintModel{
		Slots:          make([]PeriodSlot, 0),
		Subjects:       subjects,
		Participants:   participants,
		Shape:          input.Shape,
		slotsBySubject: make(map[string][]int, len(subjects)),
	}

	//** Declare one variable per period-slot
	seen := make(map[string]bool)
	for _, subject := range subjects {
		for index, id := range subject.PeriodSlots() {
			if seen[id] {
				return nil, &DomainConflictError{Subject: subject.Name, Field: "period-slot identifier " + strconv.Quote(id)}
			}
			seen[id] = true

			variable := model.CSP.AddVariable(id, 0, input.Shape.PeriodsPerWeek-1)
			model.Slots = append(model.Slots, PeriodSlot{ID: id, Subject: subject.Name, Index: index + 1, Variable: variable})
			model.slotsBySubject[subject.Name] = append(model.slotsBySubject[subject.Name], variable)
		}
	}

	//** Register one all-different group per participant
	registered := make(map[string]bool)
	for _, participant := range participants {
		group := make([]int, 0)
		for _, subject := range participant.Subjects {
			group = append(group, model.slotsBySubject[subject]...)
		}
		if len(group) < 2 {
			continue
		}
		slices.Sort(group)

		key := strings.Join(lo.Map(group, func(variable int, _ int) string { return strconv.Itoa(variable) }), ",")
		if registered[key] {
			continue
		}
		registered[key] = true

		if err := model.CSP.AllDifferent(group...); err != nil {
			return nil, fmt.Errorf("cannot constrain participant %q: %w", participant.Name, err)
		}
	}

	logger.Debug("constraint model built",
		zap.Int("subjects", len(subjects)),
		zap.Int("participants", len(participants)),
		zap.Int("variables", len(model.CSP.Variables)),
		zap.Int("groups", len(model.CSP.Groups)),
		zap.Bool("includeTeachers", options.IncludeTeachers),
	)

	return model, nil
}

func resolveSubjects(input []Subject, policy SubjectPolicy, logger *zap.Logger) ([]Subject, map[string][]string, error) {
	subjects := make([]Subject, 0, len(input))
	positions := make(map[string]int)
	coTeachers := make(map[string][]string)

	for _, subject := range input {
		if subject.Name == "" {
			return nil, nil, fmt.Errorf("subject without a name")
		} else if subject.PeriodsPerWeek <= 0 {
			return nil, nil, fmt.Errorf("subject %q must require a positive number of periods: %d", subject.Name, subject.PeriodsPerWeek)
		}
		subject.Roster = lo.Uniq(subject.Roster)

		position, ok := positions[subject.Name]
		if !ok {
			positions[subject.Name] = len(subjects)
			subjects = append(subjects, subject)
			continue
		}

		existing := &subjects[position]
		if existing.PeriodsPerWeek != subject.PeriodsPerWeek {
			return nil, nil, &DomainConflictError{Subject: subject.Name, Field: "periods per week"}
		}

		sameTeacher := existing.Teacher == subject.Teacher
		sameRoster := sameSet(existing.Roster, subject.Roster)
		if sameTeacher && sameRoster {
			continue
		}

		if policy != CoalesceSubjects {
			field := "roster"
			if !sameTeacher {
				field = "teacher"
			}
			return nil, nil, &DomainConflictError{Subject: subject.Name, Field: field}
		}

		existing.Roster = lo.Union(existing.Roster, subject.Roster)
		if !sameTeacher && subject.Teacher != "" && !slices.Contains(coTeachers[subject.Name], subject.Teacher) {
			coTeachers[subject.Name] = append(coTeachers[subject.Name], subject.Teacher)
		}
		logger.Info("coalesced subject definitions", zap.String("subject", subject.Name))
	}

	return subjects, coTeachers, nil
}

func collectParticipants(input ModelInput, subjects []Subject, coTeachers map[string][]string, options BuildOptions, logger *zap.Logger) ([]Participant, error) {
	known := lo.SliceToMap(subjects, func(subject Subject) (string, bool) { return subject.Name, true })

	students := newParticipantSet(Student)
	teachers := newParticipantSet(Teacher)

	//** Students from rosters, in first-seen order
	for _, subject := range subjects {
		for _, student := range subject.Roster {
			students.add(student, subject.Name, logger)
		}
	}

	//** Explicit participant records
	for _, participant := range input.Participants {
		set := students
		if participant.Kind == Teacher {
			if !options.IncludeTeachers {
				continue
			}
			set = teachers
		}
		for _, subject := range participant.Subjects {
			if !known[subject] {
				return nil, &UnknownSubjectError{Participant: participant.Name, Subject: subject}
			}
			set.add(participant.Name, subject, logger)
		}
	}

	//** Teachers from subjects
	if options.IncludeTeachers {
		for _, subject := range subjects {
			for _, teacher := range append([]string{subject.Teacher}, coTeachers[subject.Name]...) {
				if teacher != "" {
					teachers.add(teacher, subject.Name, logger)
				}
			}
		}
	}

	return append(students.participants(), teachers.participants()...), nil
}

type participantSet struct {
	kind     ParticipantKind
	order    []string
	subjects map[string][]string
}

func newParticipantSet(kind ParticipantKind) *participantSet {
	return &participantSet{kind: kind, order: make([]string, 0), subjects: make(map[string][]string)}
}

func (set *participantSet) add(name, subject string, logger *zap.Logger) {
	current, ok := set.subjects[name]
	if !ok {
		set.order = append(set.order, name)
	}
	if slices.Contains(current, subject) {
		logger.Debug("duplicate enrollment collapsed", zap.String("participant", name), zap.String("subject", subject))
		return
	}
	set.subjects[name] = append(current, subject)
}

func (set *participantSet) participants() []Participant {
	return lo.Map(set.order, func(name string, _ int) Participant {
		return Participant{Name: name, Kind: set.kind, Subjects: set.subjects[name]}
	})
}

func sameSet(a, b []string) bool {
	return len(a) == len(b) && lo.Every(a, b)
}

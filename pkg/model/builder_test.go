package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDeclaresSlotsInSubjectOrder(t *testing.T) {
	//** Arrange
	input := scenarioA()

	//** Act
	model, err := Build(input, BuildOptions{})

	//** Assert
	require.NoError(t, err)
	ids := make([]string, 0)
	for _, slot := range model.Slots {
		ids = append(ids, slot.ID)
		assert.Equal(t, []int{0, 1, 2, 3}, model.CSP.Variables[slot.Variable].Domain)
	}
	assert.Equal(t, []string{"History-p1", "History-p2", "Math-p1", "Math-p2"}, ids)
	assert.Equal(t, [][]int{{0, 1, 2, 3}}, model.CSP.Groups)
}

func TestBuildRegistersIdenticalGroupsOnce(t *testing.T) {
	input := ModelInput{
		Subjects: []Subject{
			{Name: "Art", PeriodsPerWeek: 1, Teacher: "T1", Roster: []string{"Ana", "Ben", "Cleo"}},
			{Name: "Music", PeriodsPerWeek: 1, Teacher: "T2", Roster: []string{"Ana", "Ben"}},
		},
		Shape: DefaultGridShape(),
	}

	model, err := Build(input, BuildOptions{})

	require.NoError(t, err)
	assert.Len(t, model.Participants, 3)
	// Cleo attends a single period, Ana and Ben share a group
	assert.Equal(t, [][]int{{0, 1}}, model.CSP.Groups)
}

func TestBuildIncludesTeachers(t *testing.T) {
	input := scenarioC(2)

	without, err := Build(input, BuildOptions{})
	require.NoError(t, err)
	with, err := Build(input, BuildOptions{IncludeTeachers: true})
	require.NoError(t, err)

	assert.Empty(t, without.CSP.Groups)
	assert.Equal(t, [][]int{{0, 1}}, with.CSP.Groups)
	assert.Equal(t, Participant{Name: "Curie", Kind: Teacher, Subjects: []string{"Biology-A", "Biology-B"}}, with.Participants[2])
}

func TestBuildSubjectConflicts(t *testing.T) {
	base := Subject{Name: "Math", PeriodsPerWeek: 2, Teacher: "Jones", Roster: []string{"Ana"}}

	tests := []struct {
		name      string
		duplicate Subject
		policy    SubjectPolicy
		field     string
	}{
		{"Different periods", Subject{Name: "Math", PeriodsPerWeek: 3, Teacher: "Jones", Roster: []string{"Ana"}}, RejectConflicts, "periods per week"},
		{"Different teacher", Subject{Name: "Math", PeriodsPerWeek: 2, Teacher: "Smith", Roster: []string{"Ana"}}, RejectConflicts, "teacher"},
		{"Different roster", Subject{Name: "Math", PeriodsPerWeek: 2, Teacher: "Jones", Roster: []string{"Ben"}}, RejectConflicts, "roster"},
		{"Coalesced periods still conflict", Subject{Name: "Math", PeriodsPerWeek: 3, Teacher: "Jones"}, CoalesceSubjects, "periods per week"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			//** Arrange
			input := ModelInput{Subjects: []Subject{base, test.duplicate}, Shape: DefaultGridShape()}

			//** Act
			_, err := Build(input, BuildOptions{SubjectPolicy: test.policy})

			//** Assert
			var conflict *DomainConflictError
			require.ErrorAs(t, err, &conflict)
			assert.Equal(t, "Math", conflict.Subject)
			assert.Equal(t, test.field, conflict.Field)
		})
	}
}

func TestBuildAcceptsIdenticalDuplicates(t *testing.T) {
	subject := Subject{Name: "Math", PeriodsPerWeek: 2, Teacher: "Jones", Roster: []string{"Ana", "Ben"}}
	reordered := Subject{Name: "Math", PeriodsPerWeek: 2, Teacher: "Jones", Roster: []string{"Ben", "Ana", "Ana"}}

	model, err := Build(ModelInput{Subjects: []Subject{subject, reordered}, Shape: DefaultGridShape()}, BuildOptions{})

	require.NoError(t, err)
	assert.Len(t, model.Subjects, 1)
	assert.Len(t, model.Slots, 2)
}

func TestBuildCoalescesSections(t *testing.T) {
	//** Arrange
	input := ModelInput{
		Subjects: []Subject{
			{Name: "Math", PeriodsPerWeek: 1, Teacher: "Jones", Roster: []string{"Ana"}},
			{Name: "Math", PeriodsPerWeek: 1, Teacher: "Smith", Roster: []string{"Ben"}},
			{Name: "Art", PeriodsPerWeek: 1, Teacher: "Smith", Roster: []string{"Cleo"}},
		},
		Shape: DefaultGridShape(),
	}

	//** Act
	model, err := Build(input, BuildOptions{SubjectPolicy: CoalesceSubjects, IncludeTeachers: true})

	//** Assert
	require.NoError(t, err)
	require.Len(t, model.Subjects, 2)
	assert.Equal(t, Subject{Name: "Math", PeriodsPerWeek: 1, Teacher: "Jones", Roster: []string{"Ana", "Ben"}}, model.Subjects[0])
	// Smith still teaches both subjects
	assert.Equal(t, [][]int{{0, 1}}, model.CSP.Groups)
	assert.Equal(t, []string{"Ana", "Ben", "Cleo", "Jones", "Smith"}, []string{
		model.Participants[0].Name, model.Participants[1].Name, model.Participants[2].Name,
		model.Participants[3].Name, model.Participants[4].Name,
	})
}

func TestBuildParticipants(t *testing.T) {
	subjects := []Subject{
		{Name: "Art", PeriodsPerWeek: 1, Teacher: "T1"},
		{Name: "Music", PeriodsPerWeek: 1, Teacher: "T2"},
	}

	t.Run("Explicit records join the roster-derived students", func(t *testing.T) {
		input := ModelInput{
			Subjects: subjects,
			Participants: []Participant{
				{Name: "Ana", Kind: Student, Subjects: []string{"Art", "Music", "Art"}},
				{Name: "T9", Kind: Teacher, Subjects: []string{"Art", "Music"}},
			},
			Shape: DefaultGridShape(),
		}

		model, err := Build(input, BuildOptions{})

		require.NoError(t, err)
		require.Len(t, model.Participants, 1)
		assert.Equal(t, []string{"Art", "Music"}, model.Participants[0].Subjects)
		assert.Equal(t, [][]int{{0, 1}}, model.CSP.Groups)
	})

	t.Run("Unknown subject", func(t *testing.T) {
		input := ModelInput{
			Subjects:     subjects,
			Participants: []Participant{{Name: "Ana", Subjects: []string{"Latin"}}},
			Shape:        DefaultGridShape(),
		}

		_, err := Build(input, BuildOptions{})

		var unknown *UnknownSubjectError
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, "Latin", unknown.Subject)
	})
}

func TestBuildRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		input ModelInput
	}{
		{"Zero periods per week", ModelInput{Shape: GridShape{PeriodsPerDay: 4}}},
		{"Zero periods per day", ModelInput{Shape: GridShape{PeriodsPerWeek: 20}}},
		{"Subject without periods", ModelInput{Subjects: []Subject{{Name: "Art"}}, Shape: DefaultGridShape()}},
		{"Subject without name", ModelInput{Subjects: []Subject{{PeriodsPerWeek: 1}}, Shape: DefaultGridShape()}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Build(test.input, BuildOptions{})
			assert.Error(t, err)
		})
	}
}

func TestParseSubjectPolicy(t *testing.T) {
	policy, err := ParseSubjectPolicy("")
	assert.NoError(t, err)
	assert.Equal(t, RejectConflicts, policy)

	policy, err = ParseSubjectPolicy(" Coalesce ")
	assert.NoError(t, err)
	assert.Equal(t, CoalesceSubjects, policy)

	_, err = ParseSubjectPolicy("merge")
	assert.Error(t, err)
}

package input

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/limaJavier/timetableplus/pkg/model"

	"github.com/mitchellh/mapstructure"
	"github.com/samber/lo"
)

// FromJSON reads either a full input document
//
//	{"periodsPerWeek": 20, "periodsPerDay": 4, "subjects": [{"name", "periods", "teacher", "students"}], "participants": [...]}
//
// or a bare subject-to-roster map, {"Math HL": ["Ana", "Ben"], ...}, whose
// subjects take three periods when their name contains "HL" and two otherwise.
func FromJSON(reader io.Reader, defaults model.GridShape) (model.ModelInput, error) {
	var document map[string]any
	if err := json.NewDecoder(reader).Decode(&document); err != nil {
		return model.ModelInput{}, &ValidationError{Record: "input", Message: "cannot parse json: " + err.Error()}
	}

	if _, ok := document["subjects"]; !ok {
		return fromRosters(document, defaults)
	}

	var raw RawModelInput
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &raw,
		ErrorUnused: true,
	})
	if err != nil {
		return model.ModelInput{}, err
	}
	if err := decoder.Decode(document); err != nil {
		return model.ModelInput{}, &ValidationError{Record: "input", Message: err.Error()}
	}

	if err := Validate(raw); err != nil {
		return model.ModelInput{}, err
	}
	return ToModelInput(raw, defaults), nil
}

// fromRosters builds teacherless subjects from a subject-to-students map
func fromRosters(document map[string]any, defaults model.GridShape) (model.ModelInput, error) {
	var rosters map[string][]string
	if err := mapstructure.Decode(document, &rosters); err != nil {
		return model.ModelInput{}, &ValidationError{Record: "input", Message: "expected a subjects list or a subject-to-students map: " + err.Error()}
	}
	if len(rosters) == 0 {
		return model.ModelInput{}, &ValidationError{Record: "input", Field: "subjects", Message: "is required"}
	}

	// Map keys carry no order
	names := lo.Keys(rosters)
	slices.Sort(names)

	input := model.ModelInput{Subjects: make([]model.Subject, 0, len(names)), Shape: defaults}
	for _, name := range names {
		periods := 2
		if strings.Contains(name, "HL") {
			periods = 3
		}
		for i, student := range rosters[name] {
			if strings.TrimSpace(student) == "" {
				return model.ModelInput{}, &ValidationError{Record: name, Field: fmt.Sprintf("students[%d]", i), Message: "is required"}
			}
		}
		input.Subjects = append(input.Subjects, model.Subject{Name: name, PeriodsPerWeek: periods, Roster: rosters[name]})
	}
	return input, nil
}

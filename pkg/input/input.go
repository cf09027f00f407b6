// Package input loads scheduling input from JSON documents and XLSX workbooks
// and validates it before it reaches the scheduler.
package input

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/limaJavier/timetableplus/pkg/model"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

type RawSubject struct {
	Name     string   `mapstructure:"name" validate:"required"`
	Periods  int      `mapstructure:"periods" validate:"required,min=1"`
	Teacher  string   `mapstructure:"teacher" validate:"required"`
	Students []string `mapstructure:"students" validate:"dive,required"`
}

type RawParticipant struct {
	Name     string   `mapstructure:"name" validate:"required"`
	Kind     string   `mapstructure:"kind" validate:"omitempty,oneof=student teacher"`
	Subjects []string `mapstructure:"subjects" validate:"dive,required"`
}

type RawModelInput struct {
	PeriodsPerWeek int              `mapstructure:"periodsPerWeek" validate:"min=0"`
	PeriodsPerDay  int              `mapstructure:"periodsPerDay" validate:"min=0"`
	Subjects       []RawSubject     `mapstructure:"subjects" validate:"required,min=1,dive"`
	Participants   []RawParticipant `mapstructure:"participants" validate:"dive"`
}

// ValidationError points at the record and field that made the input unusable.
// Cell is set for workbook input.
type ValidationError struct {
	Record  string
	Field   string
	Cell    string
	Message string
}

func (err *ValidationError) Error() string {
	location := err.Record
	if err.Field != "" {
		location += "." + err.Field
	}
	if err.Cell != "" {
		location = fmt.Sprintf("cell %v (%v)", err.Cell, location)
	}
	return fmt.Sprintf("%v: %v", location, err.Message)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		return field.Tag.Get("mapstructure")
	})
	return validate
}

// Validate checks the raw input and reports the first offending field
func Validate(raw RawModelInput) error {
	err := validate.Struct(raw)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return err
	}

	first := validationErrors[0]
	record := strings.TrimPrefix(first.Namespace(), "RawModelInput.")
	field := first.Field()
	if strings.HasSuffix(record, "."+field) {
		record = strings.TrimSuffix(record, "."+field)
	} else {
		// Top level fields and slice elements
		record, field = "input", record
	}

	return &ValidationError{Record: record, Field: field, Message: describe(first)}
}

func describe(fieldError validator.FieldError) string {
	switch fieldError.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fieldError.Param()
	case "oneof":
		return "must be one of " + fieldError.Param()
	default:
		return "fails " + fieldError.Tag()
	}
}

// ToModelInput converts validated raw input; a zero grid value takes the default
func ToModelInput(raw RawModelInput, defaults model.GridShape) model.ModelInput {
	shape := defaults
	if raw.PeriodsPerWeek > 0 {
		shape.PeriodsPerWeek = raw.PeriodsPerWeek
	}
	if raw.PeriodsPerDay > 0 {
		shape.PeriodsPerDay = raw.PeriodsPerDay
	}

	return model.ModelInput{
		Subjects: lo.Map(raw.Subjects, func(subject RawSubject, _ int) model.Subject {
			return model.Subject{
				Name:           strings.TrimSpace(subject.Name),
				PeriodsPerWeek: subject.Periods,
				Teacher:        strings.TrimSpace(subject.Teacher),
				Roster:         lo.Map(subject.Students, func(student string, _ int) string { return strings.TrimSpace(student) }),
			}
		}),
		Participants: lo.Map(raw.Participants, func(participant RawParticipant, _ int) model.Participant {
			kind := model.Student
			if participant.Kind == string(model.Teacher) {
				kind = model.Teacher
			}
			return model.Participant{Name: participant.Name, Kind: kind, Subjects: participant.Subjects}
		}),
		Shape: shape,
	}
}

// Load picks the decoder from the file extension
func Load(path string, defaults model.GridShape) (model.ModelInput, error) {
	file, err := os.Open(path)
	if err != nil {
		return model.ModelInput{}, err
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FromJSON(file, defaults)
	case ".xlsx":
		return FromXLSX(file, defaults)
	default:
		return model.ModelInput{}, fmt.Errorf("unsupported input format %q (want .json or .xlsx)", filepath.Ext(path))
	}
}

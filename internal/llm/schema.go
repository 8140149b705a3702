package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/carpenike/fitcoach/internal/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// GeneratedPlan is the JSON object the LLM must return. Unknown fields are
// rejected.
type GeneratedPlan struct {
	Name          string         `json:"name" validate:"required,max=100"`
	Description   string         `json:"description" validate:"max=1000"`
	Goal          string         `json:"goal" validate:"max=100"`
	DurationWeeks int            `json:"duration_weeks" validate:"min=1,max=16"`
	DaysPerWeek   int            `json:"days_per_week" validate:"min=1,max=7"`
	Days          []GeneratedDay `json:"days" validate:"required,min=1,max=7,dive"`
}

// GeneratedDay is one training day of a GeneratedPlan.
type GeneratedDay struct {
	DayNumber int                 `json:"day_number" validate:"min=1,max=7"`
	Name      string              `json:"name" validate:"required,max=100"`
	Focus     string              `json:"focus" validate:"max=100"`
	Exercises []GeneratedExercise `json:"exercises" validate:"required,min=1,max=15,dive"`
}

// GeneratedExercise is one prescribed exercise of a GeneratedDay.
type GeneratedExercise struct {
	Name        string `json:"name" validate:"required,max=100"`
	MuscleGroup string `json:"muscle_group" validate:"max=50"`
	Equipment   string `json:"equipment" validate:"max=100"`
	Sets        int    `json:"sets" validate:"min=1,max=10"`
	Reps        string `json:"reps" validate:"required,max=20"`
	RestSeconds int    `json:"rest_seconds" validate:"min=0,max=600"`
	Notes       string `json:"notes" validate:"max=500"`
}

// Violation is one schema problem found in a generated plan.
type Violation struct {
	Field   string `json:"field"`
	Problem string `json:"problem"`
}

// SchemaError reports why an LLM response could not be accepted as a plan.
type SchemaError struct {
	Violations []Violation `json:"violations"`
}

func (e *SchemaError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Field + ": " + v.Problem
	}
	return "llm: generated plan failed schema validation: " + strings.Join(parts, "; ")
}

func (e *SchemaError) add(field, problem string) {
	e.Violations = append(e.Violations, Violation{Field: field, Problem: problem})
}

// ParsePlan strictly decodes and validates a generated plan. Any problem is
// returned as *SchemaError.
func ParsePlan(data []byte) (*GeneratedPlan, error) {
	schemaErr := &SchemaError{}
	if len(bytes.TrimSpace(data)) == 0 {
		schemaErr.add("$", "no JSON object found in response")
		return nil, schemaErr
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var plan GeneratedPlan
	if err := dec.Decode(&plan); err != nil {
		schemaErr.add(decodeErrorField(err), decodeErrorProblem(err))
		return nil, schemaErr
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		schemaErr.add("$", "unexpected data after JSON object")
		return nil, schemaErr
	}

	if err := validate.Struct(&plan); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, fmt.Errorf("llm: validate plan: %w", err)
		}
		for _, fe := range verrs {
			schemaErr.add(fieldPath(fe.Namespace()), describeTag(fe))
		}
	}

	if len(plan.Days) > 0 && plan.DaysPerWeek > 0 && len(plan.Days) != plan.DaysPerWeek {
		schemaErr.add("days", fmt.Sprintf("has %d entries, want days_per_week (%d)", len(plan.Days), plan.DaysPerWeek))
	}
	seen := make(map[int]bool, len(plan.Days))
	for i, d := range plan.Days {
		if seen[d.DayNumber] {
			schemaErr.add(fmt.Sprintf("days[%d].day_number", i), fmt.Sprintf("duplicate day %d", d.DayNumber))
		}
		seen[d.DayNumber] = true
	}

	if len(schemaErr.Violations) > 0 {
		return nil, schemaErr
	}
	return &plan, nil
}

// ToNewPlan converts a validated plan into the persistence input.
func (p *GeneratedPlan) ToNewPlan(generationID string) models.NewPlan {
	np := models.NewPlan{
		Name:          p.Name,
		Description:   p.Description,
		Goal:          p.Goal,
		DurationWeeks: p.DurationWeeks,
		DaysPerWeek:   p.DaysPerWeek,
		GenerationID:  generationID,
	}
	for _, d := range p.Days {
		day := models.NewPlanDay{DayNumber: d.DayNumber, Name: d.Name, Focus: d.Focus}
		for _, e := range d.Exercises {
			day.Exercises = append(day.Exercises, models.NewPlanExercise{
				Name:        e.Name,
				MuscleGroup: e.MuscleGroup,
				Equipment:   e.Equipment,
				Sets:        e.Sets,
				Reps:        e.Reps,
				RestSeconds: e.RestSeconds,
				Notes:       e.Notes,
			})
		}
		np.Days = append(np.Days, day)
	}
	return np
}

func fieldPath(namespace string) string {
	// Drop the root struct name: "GeneratedPlan.days[0].name" -> "days[0].name".
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return "needs at least " + fe.Param() + " entries"
		}
		return "must be at least " + fe.Param()
	case "max":
		switch fe.Kind() {
		case reflect.Slice:
			return "allows at most " + fe.Param() + " entries"
		case reflect.String:
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	}
	return "failed " + fe.Tag() + " check"
}

func decodeErrorField(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return typeErr.Field
	}
	return "$"
}

func decodeErrorProblem(err error) string {
	var (
		typeErr   *json.UnmarshalTypeError
		syntaxErr *json.SyntaxError
	)
	switch {
	case errors.As(err, &typeErr):
		return fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value)
	case errors.As(err, &syntaxErr):
		return fmt.Sprintf("invalid JSON at offset %d", syntaxErr.Offset)
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		return "unknown field " + strings.TrimPrefix(err.Error(), "json: unknown field ")
	}
	return err.Error()
}

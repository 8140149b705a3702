// Package importers parses workout history exported by other fitness apps
// (Strong, Hevy) and exercise catalogs in FitCoach's JSON format.
package importers

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Format identifies the source format of an import file.
type Format string

const (
	FormatCatalogJSON Format = "catalog_json"
	FormatStrongCSV   Format = "strong_csv"
	FormatHevyCSV     Format = "hevy_csv"
)

// WeightUnit is the unit weights are recorded in by the source app.
type WeightUnit string

const (
	UnitKg  WeightUnit = "kg"
	UnitLbs WeightUnit = "lbs"
)

const lbsPerKg = 2.20462

// ErrUnknownFormat is returned when the file matches no supported format.
var ErrUnknownFormat = errors.New("unrecognized import format")

// ParsedFile is the unified output from any parser. References between
// entities use exercise names, not IDs.
type ParsedFile struct {
	Format    Format
	Exercises []ParsedExercise
	Workouts  []ParsedWorkout
}

// ParsedExercise is a catalog entry or an exercise seen in workout history.
type ParsedExercise struct {
	Name         string `json:"name"`
	MuscleGroup  string `json:"muscle_group"`
	Equipment    string `json:"equipment"`
	Instructions string `json:"instructions"`
}

// ParsedWorkout is one completed workout with its sets.
type ParsedWorkout struct {
	Date            string    // YYYY-MM-DD as recorded by the source app
	StartedAt       time.Time // zero when the export only carries a date
	Name            string
	DurationMinutes *int
	Notes           string
	Sets            []ParsedSet
}

// ParsedSet is a single set within a workout. Timed sets carry their
// duration in seconds in Reps.
type ParsedSet struct {
	Exercise  string
	SetNumber int
	Reps      int
	WeightKg  *float64
	RPE       *float64
	Warmup    bool
}

// Parse detects the format of data and parses it. unit applies to Strong
// exports, whose weight column follows the app's display unit.
func Parse(data []byte, unit WeightUnit) (*ParsedFile, error) {
	switch DetectFormat(data) {
	case FormatCatalogJSON:
		return ParseCatalogJSON(bytes.NewReader(data))
	case FormatStrongCSV:
		return ParseStrongCSV(bytes.NewReader(stripBOM(data)), unit)
	case FormatHevyCSV:
		return ParseHevyCSV(bytes.NewReader(stripBOM(data)))
	}
	return nil, fmt.Errorf("importers: %w", ErrUnknownFormat)
}

// DetectFormat guesses the import format from file content. Returns the
// empty Format when nothing matches.
func DetectFormat(data []byte) Format {
	trimmed := bytes.TrimSpace(stripBOM(data))

	if len(trimmed) > 0 && trimmed[0] == '{' {
		if head := string(trimmed[:min(len(trimmed), 200)]); strings.Contains(head, `"type"`) && strings.Contains(head, `"catalog"`) {
			return FormatCatalogJSON
		}
		return ""
	}

	firstLine, _, _ := strings.Cut(string(trimmed), "\n")
	switch {
	case containsAll(firstLine, "Exercise Name", "Set Order", "Weight", "Reps"):
		return FormatStrongCSV
	case containsAll(firstLine, "exercise_title", "set_index", "reps") &&
		(strings.Contains(firstLine, "weight_kg") || strings.Contains(firstLine, "weight_lbs")):
		return FormatHevyCSV
	}
	return ""
}

func stripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
}

func containsAll(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}

// toKg converts a weight in unit to kilograms, rounded to 0.01 kg.
func toKg(w float64, unit WeightUnit) float64 {
	if unit == UnitLbs {
		w /= lbsPerKg
	}
	return float64(int64(w*100+0.5)) / 100
}

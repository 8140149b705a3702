package importers

import "strings"

// ExerciseMatch pairs an imported exercise name with an existing catalog
// entry. Create is set when no entry matches and one will be added.
type ExerciseMatch struct {
	ImportName   string `json:"import_name"`
	ExistingName string `json:"existing_name,omitempty"`
	Create       bool   `json:"create"`
}

// MatchExercises performs case-insensitive exact matching of imported
// exercise names against the existing catalog.
func MatchExercises(parsed []ParsedExercise, existing []string) []ExerciseMatch {
	lookup := make(map[string]string, len(existing))
	for _, name := range existing {
		lookup[strings.ToLower(strings.TrimSpace(name))] = name
	}

	matches := make([]ExerciseMatch, len(parsed))
	for i, e := range parsed {
		matches[i] = ExerciseMatch{ImportName: e.Name}
		if name, ok := lookup[strings.ToLower(strings.TrimSpace(e.Name))]; ok {
			matches[i].ExistingName = name
		} else {
			matches[i].Create = true
		}
	}
	return matches
}

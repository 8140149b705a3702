package database

import _ "embed"

//go:embed seed-exercises.json
var seedExercises []byte

// SeedExercises returns the embedded default exercise catalog. The file is
// in the importers catalog JSON format.
func SeedExercises() []byte {
	return seedExercises
}

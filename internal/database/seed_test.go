package database

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestSeedExercises_ValidCatalog(t *testing.T) {
	data := SeedExercises()
	if len(data) == 0 {
		t.Fatal("SeedExercises() returned empty data")
	}

	var catalog struct {
		Type      string `json:"type"`
		Exercises []struct {
			Name        string `json:"name"`
			MuscleGroup string `json:"muscle_group"`
		} `json:"exercises"`
	}
	if err := json.Unmarshal(data, &catalog); err != nil {
		t.Fatalf("seed catalog is not valid JSON: %v", err)
	}
	if catalog.Type != "catalog" {
		t.Errorf("type = %q, want catalog", catalog.Type)
	}
	if len(catalog.Exercises) < 20 {
		t.Errorf("seed catalog has %d exercises, want at least 20", len(catalog.Exercises))
	}

	seen := make(map[string]bool)
	for _, e := range catalog.Exercises {
		key := strings.ToLower(e.Name)
		if seen[key] {
			t.Errorf("duplicate exercise %q", e.Name)
		}
		seen[key] = true
		if e.MuscleGroup == "" {
			t.Errorf("exercise %q has no muscle group", e.Name)
		}
	}
}

package importers

import (
	"encoding/json"
	"fmt"
	"io"
)

// catalogJSON is the exercise catalog file format:
//
//	{"version": "1", "type": "catalog", "exercises": [{"name": "...", ...}]}
type catalogJSON struct {
	Version   string           `json:"version"`
	Type      string           `json:"type"`
	Exercises []ParsedExercise `json:"exercises"`
}

// ParseCatalogJSON parses an exercise catalog.
func ParseCatalogJSON(r io.Reader) (*ParsedFile, error) {
	var cj catalogJSON
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cj); err != nil {
		return nil, fmt.Errorf("importers: decode catalog json: %w", err)
	}
	if cj.Type != "catalog" {
		return nil, fmt.Errorf("importers: expected type \"catalog\", got %q", cj.Type)
	}
	for i, e := range cj.Exercises {
		if e.Name == "" {
			return nil, fmt.Errorf("importers: catalog exercise %d has no name", i)
		}
	}
	return &ParsedFile{Format: FormatCatalogJSON, Exercises: cj.Exercises}, nil
}

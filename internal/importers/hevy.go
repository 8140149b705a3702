package importers

import (
	"io"
)

// Hevy CSV columns. Newer exports use weight_kg; older ones weight_lbs.
const (
	hevyColTitle           = "title"
	hevyColStartTime       = "start_time"
	hevyColEndTime         = "end_time"
	hevyColDescription     = "description"
	hevyColExerciseTitle   = "exercise_title"
	hevyColSetIndex        = "set_index"
	hevyColSetType         = "set_type"
	hevyColWeightKg        = "weight_kg"
	hevyColWeightLbs       = "weight_lbs"
	hevyColReps            = "reps"
	hevyColDurationSeconds = "duration_seconds"
	hevyColRPE             = "rpe"
)

// ParseHevyCSV parses a Hevy app CSV export.
func ParseHevyCSV(r io.Reader) (*ParsedFile, error) {
	t, err := readCSV(r, "hevy", hevyColStartTime, hevyColExerciseTitle)
	if err != nil {
		return nil, err
	}

	weightCol, unit := hevyColWeightKg, UnitKg
	if !t.has(hevyColWeightKg) {
		weightCol, unit = hevyColWeightLbs, UnitLbs
	}

	g := newWorkoutGrouper(FormatHevyCSV)
	for _, row := range t.rows {
		exerciseName := t.val(row, hevyColExerciseTitle)
		if exerciseName == "" {
			continue
		}
		w, ok := g.workout(t.val(row, hevyColStartTime))
		if !ok {
			continue
		}
		g.exercise(exerciseName)

		if w.Name == "" {
			w.Name = t.val(row, hevyColTitle)
		}
		if w.Notes == "" {
			w.Notes = t.val(row, hevyColDescription)
		}
		if w.DurationMinutes == nil && !w.StartedAt.IsZero() {
			if end, ok := parseTimestamp(t.val(row, hevyColEndTime)); ok && end.After(w.StartedAt) {
				m := int(end.Sub(w.StartedAt).Minutes())
				w.DurationMinutes = &m
			}
		}

		// Hevy numbers sets from zero.
		set := ParsedSet{
			Exercise:  exerciseName,
			SetNumber: len(w.Sets) + 1,
			Reps:      t.int(row, hevyColReps),
			Warmup:    t.val(row, hevyColSetType) == "warmup",
			RPE:       t.rpe(row, hevyColRPE),
		}
		if t.val(row, hevyColSetIndex) != "" {
			set.SetNumber = t.int(row, hevyColSetIndex) + 1
		}
		if v, ok := t.float(row, weightCol); ok && v > 0 {
			kg := toKg(v, unit)
			set.WeightKg = &kg
		}
		if set.Reps == 0 {
			set.Reps = t.int(row, hevyColDurationSeconds)
		}

		w.Sets = append(w.Sets, set)
	}
	return g.result(), nil
}

package importers

import (
	"io"
	"regexp"
	"strconv"
)

// Strong CSV columns:
// Date,Workout Name,Duration,Exercise Name,Set Order,Weight,Reps,Distance,Seconds,Notes,Workout Notes,RPE
const (
	strongColDate         = "Date"
	strongColWorkoutName  = "Workout Name"
	strongColDuration     = "Duration"
	strongColExerciseName = "Exercise Name"
	strongColSetOrder     = "Set Order"
	strongColWeight       = "Weight"
	strongColReps         = "Reps"
	strongColSeconds      = "Seconds"
	strongColWorkoutNotes = "Workout Notes"
	strongColRPE          = "RPE"
)

// ParseStrongCSV parses a Strong app CSV export. Strong writes weights in the
// app's display unit, which the export does not record.
func ParseStrongCSV(r io.Reader, unit WeightUnit) (*ParsedFile, error) {
	t, err := readCSV(r, "strong", strongColDate, strongColExerciseName)
	if err != nil {
		return nil, err
	}

	g := newWorkoutGrouper(FormatStrongCSV)
	for _, row := range t.rows {
		exerciseName := t.val(row, strongColExerciseName)
		if exerciseName == "" {
			continue
		}
		w, ok := g.workout(t.val(row, strongColDate))
		if !ok {
			continue
		}
		g.exercise(exerciseName)

		if w.Name == "" {
			w.Name = t.val(row, strongColWorkoutName)
		}
		if w.Notes == "" {
			w.Notes = t.val(row, strongColWorkoutNotes)
		}
		if w.DurationMinutes == nil {
			w.DurationMinutes = parseStrongDuration(t.val(row, strongColDuration))
		}

		// Strong marks rest timers and notes-only rows with a "Note" or
		// "Rest Timer" set order.
		setOrder := t.val(row, strongColSetOrder)
		set := ParsedSet{Exercise: exerciseName, Reps: t.int(row, strongColReps)}
		switch n, err := strconv.Atoi(setOrder); {
		case err == nil:
			set.SetNumber = n
		case setOrder == "W":
			set.Warmup = true
			set.SetNumber = len(w.Sets) + 1
		case setOrder == "":
			set.SetNumber = len(w.Sets) + 1
		default:
			continue
		}

		if v, ok := t.float(row, strongColWeight); ok && v > 0 {
			kg := toKg(v, unit)
			set.WeightKg = &kg
		}
		if set.Reps == 0 {
			set.Reps = t.int(row, strongColSeconds)
		}
		set.RPE = t.rpe(row, strongColRPE)

		w.Sets = append(w.Sets, set)
	}
	return g.result(), nil
}

var strongDurationRe = regexp.MustCompile(`^(?:(\d+)h)?\s*(?:(\d+)m)?(?:\s*(\d+)s)?$`)

// parseStrongDuration reads values like "1h 5m", "45m" or "3600" (seconds).
func parseStrongDuration(s string) *int {
	if s == "" {
		return nil
	}
	if secs, err := strconv.Atoi(s); err == nil {
		m := secs / 60
		return &m
	}
	match := strongDurationRe.FindStringSubmatch(s)
	if match == nil || (match[1] == "" && match[2] == "") {
		return nil
	}
	h, _ := strconv.Atoi(match[1])
	m, _ := strconv.Atoi(match[2])
	total := h*60 + m
	return &total
}

package importers

import (
	"errors"
	"strings"
	"testing"
)

// --- DetectFormat tests ---

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		data string
		want Format
	}{
		{"catalog", `{"version": "1", "type": "catalog", "exercises": []}`, FormatCatalogJSON},
		{"catalog with BOM", "\xEF\xBB\xBF" + `{"type": "catalog"}`, FormatCatalogJSON},
		{"other json", `{"version": "1.0", "weight_unit": "lbs"}`, ""},
		{"strong", "Date,Workout Name,Duration,Exercise Name,Set Order,Weight,Reps,Distance,Seconds,Notes,Workout Notes,RPE\n", FormatStrongCSV},
		{"hevy lbs", "title,start_time,end_time,description,exercise_title,superset_id,exercise_notes,set_index,set_type,weight_lbs,reps,rpe,duration_seconds,distance_km\n", FormatHevyCSV},
		{"hevy kg", "title,start_time,end_time,description,exercise_title,set_index,set_type,weight_kg,reps\n", FormatHevyCSV},
		{"unknown", "some random text\n", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectFormat([]byte(tt.data)); got != tt.want {
				t.Errorf("DetectFormat() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParse_UnknownFormat(t *testing.T) {
	_, err := Parse([]byte("nope"), UnitKg)
	if !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
}

// --- Strong CSV parser tests ---

const strongHeader = "Date,Workout Name,Duration,Exercise Name,Set Order,Weight,Reps,Distance,Seconds,Notes,Workout Notes,RPE\n"

func TestParseStrongCSV_Basic(t *testing.T) {
	csv := strongHeader +
		"2026-01-15 08:00:00,Morning,1h 5m,Bench Press,1,100,5,,,,Felt good,\n" +
		"2026-01-15 08:00:00,Morning,1h 5m,Bench Press,2,100,5,,,,,\n" +
		"2026-01-15 08:00:00,Morning,1h 5m,Squat,1,140,3,,,,,8\n"

	pf, err := ParseStrongCSV(strings.NewReader(csv), UnitKg)
	if err != nil {
		t.Fatalf("ParseStrongCSV: %v", err)
	}
	if len(pf.Exercises) != 2 {
		t.Errorf("exercises = %d, want 2", len(pf.Exercises))
	}
	if len(pf.Workouts) != 1 {
		t.Fatalf("workouts = %d, want 1", len(pf.Workouts))
	}

	w := pf.Workouts[0]
	if w.Date != "2026-01-15" || w.Name != "Morning" || w.Notes != "Felt good" {
		t.Errorf("workout = %+v", w)
	}
	if w.StartedAt.Hour() != 8 {
		t.Errorf("started at = %v", w.StartedAt)
	}
	if w.DurationMinutes == nil || *w.DurationMinutes != 65 {
		t.Errorf("duration = %v, want 65", w.DurationMinutes)
	}
	if len(w.Sets) != 3 {
		t.Fatalf("sets = %d, want 3", len(w.Sets))
	}
	if w.Sets[2].RPE == nil || *w.Sets[2].RPE != 8 {
		t.Errorf("squat RPE = %v", w.Sets[2].RPE)
	}
	if w.Sets[0].WeightKg == nil || *w.Sets[0].WeightKg != 100 {
		t.Errorf("bench weight = %v", w.Sets[0].WeightKg)
	}
}

func TestParseStrongCSV_PoundsConverted(t *testing.T) {
	csv := strongHeader + "2026-01-15 08:00:00,Morning,30m,Deadlift,1,225,5,,,,,\n"

	pf, err := ParseStrongCSV(strings.NewReader(csv), UnitLbs)
	if err != nil {
		t.Fatalf("ParseStrongCSV: %v", err)
	}
	if got := *pf.Workouts[0].Sets[0].WeightKg; got != 102.06 {
		t.Errorf("weight = %v kg, want 102.06", got)
	}
}

func TestParseStrongCSV_SkipsNonSetRows(t *testing.T) {
	csv := strongHeader +
		"2026-01-15 08:00:00,Morning,30m,Squat,W,60,5,,,,,\n" +
		"2026-01-15 08:00:00,Morning,30m,Squat,Rest Timer,,,,90,,,\n" +
		"2026-01-15 08:00:00,Morning,30m,Squat,1,100,5,,,,,\n" +
		"not a date,Morning,30m,Squat,1,100,5,,,,,\n"

	pf, err := ParseStrongCSV(strings.NewReader(csv), UnitKg)
	if err != nil {
		t.Fatalf("ParseStrongCSV: %v", err)
	}
	sets := pf.Workouts[0].Sets
	if len(sets) != 2 {
		t.Fatalf("sets = %d, want 2 (warmup + work)", len(sets))
	}
	if !sets[0].Warmup || sets[1].Warmup {
		t.Errorf("warmup flags = %v, %v", sets[0].Warmup, sets[1].Warmup)
	}
}

func TestParseStrongCSV_MultipleWorkouts(t *testing.T) {
	csv := strongHeader +
		"2026-01-15 08:00:00,Morning,30m,Squat,1,100,5,,,,,\n" +
		"2026-01-15 18:00:00,Evening,20m,Plank,1,,0,,60,,,\n" +
		"2026-01-17 08:00:00,Morning,30m,Squat,1,102.5,5,,,,,\n"

	pf, err := ParseStrongCSV(strings.NewReader(csv), UnitKg)
	if err != nil {
		t.Fatalf("ParseStrongCSV: %v", err)
	}
	if len(pf.Workouts) != 3 {
		t.Fatalf("workouts = %d, want 3", len(pf.Workouts))
	}
	if pf.Workouts[1].Date != "2026-01-15" || pf.Workouts[2].Date != "2026-01-17" {
		t.Errorf("dates = %s, %s", pf.Workouts[1].Date, pf.Workouts[2].Date)
	}
	// Timed sets carry seconds in Reps.
	if got := pf.Workouts[1].Sets[0].Reps; got != 60 {
		t.Errorf("plank reps = %d, want 60", got)
	}
}

func TestParseStrongCSV_Errors(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{"header only", strongHeader},
		{"missing column", "Date,Workout Name\n2026-01-15,Morning\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseStrongCSV(strings.NewReader(tt.csv), UnitKg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseStrongDuration(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"1h 5m", 65, true},
		{"45m", 45, true},
		{"2h", 120, true},
		{"3600", 60, true},
		{"", 0, false},
		{"soon", 0, false},
	}
	for _, tt := range tests {
		got := parseStrongDuration(tt.in)
		if (got != nil) != tt.ok || (got != nil && *got != tt.want) {
			t.Errorf("parseStrongDuration(%q) = %v, want %d (ok=%v)", tt.in, got, tt.want, tt.ok)
		}
	}
}

// --- Hevy CSV parser tests ---

func TestParseHevyCSV_Basic(t *testing.T) {
	csv := `title,start_time,end_time,description,exercise_title,superset_id,exercise_notes,set_index,set_type,weight_lbs,reps,rpe,duration_seconds,distance_km
Push Day,2026-01-15 08:00:00,2026-01-15 08:50:00,Chest focus,Bench Press,,,0,warmup,95,10,,,
Push Day,2026-01-15 08:00:00,2026-01-15 08:50:00,,Bench Press,,,1,normal,185,5,8.5,,
Push Day,2026-01-15 08:00:00,2026-01-15 08:50:00,,Plank,,,0,normal,,0,,45,
`
	pf, err := ParseHevyCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ParseHevyCSV: %v", err)
	}
	if len(pf.Workouts) != 1 || len(pf.Exercises) != 2 {
		t.Fatalf("workouts = %d, exercises = %d", len(pf.Workouts), len(pf.Exercises))
	}

	w := pf.Workouts[0]
	if w.Name != "Push Day" || w.Notes != "Chest focus" {
		t.Errorf("workout = %+v", w)
	}
	if w.DurationMinutes == nil || *w.DurationMinutes != 50 {
		t.Errorf("duration = %v, want 50", w.DurationMinutes)
	}
	if !w.Sets[0].Warmup || w.Sets[0].SetNumber != 1 || w.Sets[1].SetNumber != 2 {
		t.Errorf("set numbering = %+v", w.Sets[:2])
	}
	if got := *w.Sets[1].WeightKg; got != 83.91 {
		t.Errorf("weight = %v kg, want 83.91", got)
	}
	if w.Sets[2].Reps != 45 {
		t.Errorf("plank reps = %d, want 45 seconds", w.Sets[2].Reps)
	}
}

func TestParseHevyCSV_Kilograms(t *testing.T) {
	csv := "title,start_time,end_time,exercise_title,set_index,set_type,weight_kg,reps\n" +
		"Legs,2026-01-16 07:00:00,,Squat,0,normal,120,5\n"

	pf, err := ParseHevyCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ParseHevyCSV: %v", err)
	}
	if got := *pf.Workouts[0].Sets[0].WeightKg; got != 120 {
		t.Errorf("weight = %v, want 120", got)
	}
	if pf.Workouts[0].DurationMinutes != nil {
		t.Errorf("duration without end time = %v", *pf.Workouts[0].DurationMinutes)
	}
}

func TestParseHevyCSV_EmptyFile(t *testing.T) {
	if _, err := ParseHevyCSV(strings.NewReader("title,start_time,exercise_title\n")); err == nil {
		t.Error("expected error for header-only file")
	}
}

// --- Catalog tests ---

func TestParseCatalogJSON(t *testing.T) {
	pf, err := ParseCatalogJSON(strings.NewReader(`{"version": "1", "type": "catalog", "exercises": [
		{"name": "Goblet Squat", "muscle_group": "legs", "equipment": "dumbbell"}
	]}`))
	if err != nil {
		t.Fatalf("ParseCatalogJSON: %v", err)
	}
	if len(pf.Exercises) != 1 || pf.Exercises[0].MuscleGroup != "legs" {
		t.Errorf("exercises = %+v", pf.Exercises)
	}
}

func TestParseCatalogJSON_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"wrong type", `{"type": "export", "exercises": []}`},
		{"unknown field", `{"type": "catalog", "programs": []}`},
		{"nameless exercise", `{"type": "catalog", "exercises": [{"muscle_group": "legs"}]}`},
		{"not json", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseCatalogJSON(strings.NewReader(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

// --- Matching ---

func TestMatchExercises(t *testing.T) {
	parsed := []ParsedExercise{{Name: "bench press"}, {Name: "Zercher Squat"}}
	got := MatchExercises(parsed, []string{"Bench Press", "Squat"})

	if got[0].Create || got[0].ExistingName != "Bench Press" {
		t.Errorf("bench match = %+v", got[0])
	}
	if !got[1].Create || got[1].ExistingName != "" {
		t.Errorf("zercher match = %+v", got[1])
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2026-02-15 14:30:00", "2026-02-15"},
		{"2026-02-15", "2026-02-15"},
		{"2026 Feb 15", "2026-02-15"},
		{"Feb 15, 2026", "2026-02-15"},
		{"15 Feb 2026, 14:30", "2026-02-15"},
	}
	for _, tt := range tests {
		got, ok := parseTimestamp(tt.in)
		if !ok || got.Format("2006-01-02") != tt.want {
			t.Errorf("parseTimestamp(%q) = %v, %v; want %s", tt.in, got, ok, tt.want)
		}
	}
	if _, ok := parseTimestamp("yesterday"); ok {
		t.Error("parseTimestamp(yesterday) should fail")
	}
}

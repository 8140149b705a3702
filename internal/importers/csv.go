package importers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// csvTable is a CSV export with its header indexed by column name.
type csvTable struct {
	idx  map[string]int
	rows [][]string
}

func readCSV(r io.Reader, source string, required ...string) (*csvTable, error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("importers: read %s csv: %w", source, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("importers: %s csv has no data rows", source)
	}

	t := &csvTable{idx: make(map[string]int), rows: records[1:]}
	for i, col := range records[0] {
		t.idx[strings.TrimSpace(col)] = i
	}
	for _, col := range required {
		if _, ok := t.idx[col]; !ok {
			return nil, fmt.Errorf("importers: %s csv missing required column %q", source, col)
		}
	}
	return t, nil
}

func (t *csvTable) has(col string) bool {
	_, ok := t.idx[col]
	return ok
}

// val safely gets a column value from a row.
func (t *csvTable) val(row []string, col string) string {
	i, ok := t.idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (t *csvTable) int(row []string, col string) int {
	n, _ := strconv.Atoi(t.val(row, col))
	return n
}

func (t *csvTable) float(row []string, col string) (float64, bool) {
	f, err := strconv.ParseFloat(t.val(row, col), 64)
	return f, err == nil
}

func (t *csvTable) rpe(row []string, col string) *float64 {
	if v, ok := t.float(row, col); ok && v >= 1 && v <= 10 {
		return &v
	}
	return nil
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
	"2 Jan 2006, 15:04",
	"Jan 2, 2006, 3:04 PM",
	"2006-01-02",
	"2006 Jan 02",
	"2006 Jan 2",
	"Jan 2, 2006",
	"01/02/2006",
}

// parseTimestamp reads the date formats seen in Strong and Hevy exports.
func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// workoutGrouper collects rows into workouts keyed by their start timestamp,
// preserving first-seen order.
type workoutGrouper struct {
	byKey     map[string]*ParsedWorkout
	order     []string
	exercises map[string]bool
	pf        *ParsedFile
}

func newWorkoutGrouper(format Format) *workoutGrouper {
	return &workoutGrouper{
		byKey:     make(map[string]*ParsedWorkout),
		exercises: make(map[string]bool),
		pf:        &ParsedFile{Format: format},
	}
}

// workout returns the workout for a raw start value, creating it on first
// sight. ok is false when the value is not a recognizable date.
func (g *workoutGrouper) workout(start string) (*ParsedWorkout, bool) {
	if w, exists := g.byKey[start]; exists {
		return w, true
	}
	ts, ok := parseTimestamp(start)
	if !ok {
		return nil, false
	}
	w := &ParsedWorkout{Date: ts.Format("2006-01-02")}
	if len(strings.TrimSpace(start)) > 10 {
		w.StartedAt = ts
	}
	g.byKey[start] = w
	g.order = append(g.order, start)
	return w, true
}

func (g *workoutGrouper) exercise(name string) {
	key := strings.ToLower(name)
	if !g.exercises[key] {
		g.exercises[key] = true
		g.pf.Exercises = append(g.pf.Exercises, ParsedExercise{Name: name})
	}
}

func (g *workoutGrouper) result() *ParsedFile {
	for _, key := range g.order {
		g.pf.Workouts = append(g.pf.Workouts, *g.byKey[key])
	}
	return g.pf
}

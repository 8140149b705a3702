package models

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/carpenike/fitcoach/internal/importers"
)

// ImportPreview summarizes what ImportHistory would do, without changes.
type ImportPreview struct {
	Format        importers.Format          `json:"format"`
	WorkoutCount  int                       `json:"workout_count"`
	SetCount      int                       `json:"set_count"`
	DateRange     string                    `json:"date_range,omitempty"`
	Exercises     []importers.ExerciseMatch `json:"exercises"`
	ConflictDates []string                  `json:"conflict_dates"` // skipped: the user already logged a session that day
}

// ImportResult reports what ImportHistory created.
type ImportResult struct {
	SessionsCreated  int      `json:"sessions_created"`
	SetsCreated      int      `json:"sets_created"`
	ExercisesCreated int      `json:"exercises_created"`
	SkippedDates     []string `json:"skipped_dates"`
}

// PreviewImport builds an ImportPreview for the user.
func PreviewImport(db *sql.DB, userID int64, pf *importers.ParsedFile) (*ImportPreview, error) {
	existing, err := ListExercises(db)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(existing))
	for i, e := range existing {
		names[i] = e.Name
	}

	taken, err := takenSessionDates(db, userID)
	if err != nil {
		return nil, err
	}

	p := &ImportPreview{
		Format:        pf.Format,
		Exercises:     importers.MatchExercises(pf.Exercises, names),
		ConflictDates: []string{},
	}
	var minDate, maxDate string
	for _, w := range pf.Workouts {
		p.WorkoutCount++
		p.SetCount += len(w.Sets)
		if minDate == "" || w.Date < minDate {
			minDate = w.Date
		}
		if maxDate == "" || w.Date > maxDate {
			maxDate = w.Date
		}
		if taken[w.Date] {
			p.ConflictDates = append(p.ConflictDates, w.Date)
		}
	}
	if minDate != "" {
		p.DateRange = minDate + " to " + maxDate
	}
	return p, nil
}

// ImportHistory stores parsed workouts as completed sessions in one
// transaction. Workouts on dates where the user already has a session are
// skipped, so re-importing the same export is a no-op. Timestamps without a
// zone are read as wall-clock time in loc.
func ImportHistory(db *sql.DB, userID int64, pf *importers.ParsedFile, loc *time.Location) (*ImportResult, error) {
	if loc == nil {
		loc = time.UTC
	}
	taken, err := takenSessionDates(db, userID)
	if err != nil {
		return nil, err
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("models: begin import: %w", err)
	}
	defer tx.Rollback()

	var before int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM exercises`).Scan(&before); err != nil {
		return nil, fmt.Errorf("models: count exercises: %w", err)
	}

	result := &ImportResult{SkippedDates: []string{}}
	exerciseIDs := make(map[string]int64)
	for _, w := range pf.Workouts {
		if _, err := time.Parse(DateLayout, w.Date); err != nil {
			return nil, fmt.Errorf("models: import workout date %q: %w", w.Date, ErrInvalidDateFormat)
		}
		if taken[w.Date] {
			result.SkippedDates = append(result.SkippedDates, w.Date)
			continue
		}

		started, completed := importTimes(w, loc)
		var sessionID int64
		err := tx.QueryRow(
			`INSERT INTO workout_sessions (user_id, date, started_at, completed_at, duration_minutes, notes)
			 VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
			userID, w.Date, started.UTC(), completed.UTC(), w.DurationMinutes, nullString(w.Notes),
		).Scan(&sessionID)
		if err != nil {
			return nil, fmt.Errorf("models: import session on %s: %w", w.Date, err)
		}
		result.SessionsCreated++

		for _, s := range w.Sets {
			id, ok := exerciseIDs[s.Exercise]
			if !ok {
				e, err := GetOrCreateExercise(tx, s.Exercise, "", "", "")
				if err != nil {
					return nil, err
				}
				id = e.ID
				exerciseIDs[s.Exercise] = id
			}
			_, err := tx.Exec(
				`INSERT INTO set_logs (session_id, exercise_id, set_number, reps, weight_kg, rpe) VALUES (?, ?, ?, ?, ?, ?)`,
				sessionID, id, s.SetNumber, s.Reps, nullFloat(s.WeightKg), nullFloat(s.RPE),
			)
			if err != nil {
				return nil, fmt.Errorf("models: import set for %q on %s: %w", s.Exercise, w.Date, err)
			}
			result.SetsCreated++
		}
	}

	var after int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM exercises`).Scan(&after); err != nil {
		return nil, fmt.Errorf("models: count exercises: %w", err)
	}
	result.ExercisesCreated = after - before

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("models: commit import: %w", err)
	}
	return result, nil
}

// importTimes resolves a workout's start and completion instants. Date-only
// exports start at noon local time.
func importTimes(w importers.ParsedWorkout, loc *time.Location) (started, completed time.Time) {
	if w.StartedAt.IsZero() {
		d, _ := time.ParseInLocation(DateLayout, w.Date, loc)
		started = d.Add(12 * time.Hour)
	} else {
		ts := w.StartedAt
		started = time.Date(ts.Year(), ts.Month(), ts.Day(), ts.Hour(), ts.Minute(), ts.Second(), 0, loc)
	}
	completed = started
	if w.DurationMinutes != nil {
		completed = started.Add(time.Duration(*w.DurationMinutes) * time.Minute)
	}
	return started, completed
}

// SeedExercises adds catalog exercises that are not already present and
// returns how many were added. Existing entries are left untouched.
func SeedExercises(db *sql.DB, pf *importers.ParsedFile) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("models: begin seed: %w", err)
	}
	defer tx.Rollback()

	added := 0
	for _, e := range pf.Exercises {
		res, err := tx.Exec(
			`INSERT INTO exercises (name, muscle_group, equipment, instructions) VALUES (?, ?, ?, ?)
			 ON CONFLICT(name) DO NOTHING`,
			e.Name, e.MuscleGroup, e.Equipment, e.Instructions,
		)
		if err != nil {
			return 0, fmt.Errorf("models: seed exercise %q: %w", e.Name, err)
		}
		n, _ := res.RowsAffected()
		added += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("models: commit seed: %w", err)
	}
	return added, nil
}

func takenSessionDates(db *sql.DB, userID int64) (map[string]bool, error) {
	rows, err := db.Query(`SELECT DISTINCT date FROM workout_sessions WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("models: session dates for user %d: %w", userID, err)
	}
	defer rows.Close()

	dates := make(map[string]bool)
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("models: scan session date: %w", err)
		}
		dates[normalizeDate(d)] = true
	}
	return dates, rows.Err()
}

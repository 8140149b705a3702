package models

import (
	"database/sql"
	"fmt"
	"time"
)

// SetLog is a single set performed within a session.
type SetLog struct {
	ID           int64     `json:"id"`
	SessionID    int64     `json:"session_id"`
	ExerciseID   int64     `json:"exercise_id"`
	ExerciseName string    `json:"exercise"`
	SetNumber    int       `json:"set_number"`
	Reps         int       `json:"reps"`
	WeightKg     *float64  `json:"weight_kg,omitempty"`
	RPE          *float64  `json:"rpe,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

const setLogSelect = `
	SELECT sl.id, sl.session_id, sl.exercise_id, e.name, sl.set_number, sl.reps, sl.weight_kg, sl.rpe, sl.created_at
	FROM set_logs sl
	JOIN exercises e ON e.id = sl.exercise_id`

func scanSetLog(row interface{ Scan(...any) error }) (*SetLog, error) {
	s := &SetLog{}
	var weight, rpe sql.NullFloat64
	if err := row.Scan(&s.ID, &s.SessionID, &s.ExerciseID, &s.ExerciseName, &s.SetNumber, &s.Reps,
		&weight, &rpe, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.WeightKg = floatPtr(weight)
	s.RPE = floatPtr(rpe)
	return s, nil
}

// AddSetLog records a set in one of the user's sessions. set_number is the
// next number for the session+exercise pair. Sessions owned by other users
// are reported as ErrNotFound.
func AddSetLog(db *sql.DB, userID, sessionID, exerciseID int64, reps int, weightKg, rpe *float64) (*SetLog, error) {
	var owned int
	err := db.QueryRow(`SELECT COUNT(*) FROM workout_sessions WHERE id = ? AND user_id = ?`, sessionID, userID).Scan(&owned)
	if err != nil {
		return nil, fmt.Errorf("models: check session %d: %w", sessionID, err)
	}
	if owned == 0 {
		return nil, ErrNotFound
	}

	var nextSet int
	err = db.QueryRow(
		`SELECT COALESCE(MAX(set_number), 0) + 1 FROM set_logs WHERE session_id = ? AND exercise_id = ?`,
		sessionID, exerciseID,
	).Scan(&nextSet)
	if err != nil {
		return nil, fmt.Errorf("models: compute next set number: %w", err)
	}

	var id int64
	err = db.QueryRow(
		`INSERT INTO set_logs (session_id, exercise_id, set_number, reps, weight_kg, rpe) VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
		sessionID, exerciseID, nextSet, reps, nullFloat(weightKg), nullFloat(rpe),
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("models: add set to session %d: %w", sessionID, err)
	}

	s, err := scanSetLog(db.QueryRow(setLogSelect+` WHERE sl.id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("models: get set %d: %w", id, err)
	}
	return s, nil
}

// ListSetLogs returns a session's sets in the order they were logged. Callers
// resolve the session through GetSession first, which scopes it to the user.
func ListSetLogs(db *sql.DB, sessionID int64) ([]*SetLog, error) {
	rows, err := db.Query(setLogSelect+` WHERE sl.session_id = ? ORDER BY sl.id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("models: list sets for session %d: %w", sessionID, err)
	}
	defer rows.Close()

	sets := []*SetLog{}
	for rows.Next() {
		s, err := scanSetLog(rows)
		if err != nil {
			return nil, fmt.Errorf("models: scan set: %w", err)
		}
		sets = append(sets, s)
	}
	return sets, rows.Err()
}

// DeleteSetLog removes a set from one of the user's sessions.
func DeleteSetLog(db *sql.DB, userID, sessionID, setID int64) error {
	result, err := db.Exec(
		`DELETE FROM set_logs
		 WHERE id = ? AND session_id = ?
		   AND session_id IN (SELECT id FROM workout_sessions WHERE user_id = ?)`,
		setID, sessionID, userID,
	)
	if err != nil {
		return fmt.Errorf("models: delete set %d: %w", setID, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

package models

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Plan is a multi-week workout plan owned by one user. At most one plan per
// user is active.
type Plan struct {
	ID            int64          `json:"id"`
	UserID        int64          `json:"user_id"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Goal          string         `json:"goal"`
	DurationWeeks int            `json:"duration_weeks"`
	DaysPerWeek   int            `json:"days_per_week"`
	Active        bool           `json:"active"`
	GenerationID  sql.NullString `json:"-"`
	CreatedAt     time.Time      `json:"created_at"`

	// Populated by GetPlan and GetActivePlan.
	Days []*PlanDay `json:"days,omitempty"`
}

// PlanDay is one training day within a plan's weekly template.
type PlanDay struct {
	ID        int64           `json:"id"`
	PlanID    int64           `json:"plan_id"`
	DayNumber int             `json:"day_number"`
	Name      string          `json:"name"`
	Focus     string          `json:"focus"`
	Exercises []*PlanExercise `json:"exercises"`
}

// PlanExercise is a prescribed exercise within a plan day.
type PlanExercise struct {
	ID           int64  `json:"id"`
	PlanDayID    int64  `json:"plan_day_id"`
	ExerciseID   int64  `json:"exercise_id"`
	ExerciseName string `json:"exercise"`
	SortOrder    int    `json:"sort_order"`
	Sets         int    `json:"sets"`
	Reps         string `json:"reps"` // "8-12", "30s", "AMRAP"
	RestSeconds  int    `json:"rest_seconds"`
	Notes        string `json:"notes,omitempty"`
}

// NewPlan is the input to SavePlan.
type NewPlan struct {
	Name          string
	Description   string
	Goal          string
	DurationWeeks int
	DaysPerWeek   int
	GenerationID  string
	Days          []NewPlanDay
}

// NewPlanDay is one day of a NewPlan.
type NewPlanDay struct {
	DayNumber int
	Name      string
	Focus     string
	Exercises []NewPlanExercise
}

// NewPlanExercise is one prescribed exercise of a NewPlanDay. Unknown
// exercise names are added to the catalog.
type NewPlanExercise struct {
	Name         string
	MuscleGroup  string
	Equipment    string
	Instructions string
	Sets         int
	Reps         string
	RestSeconds  int
	Notes        string
}

// SavePlan persists a plan with its days and exercises in one transaction
// and makes it the user's active plan.
func SavePlan(db *sql.DB, userID int64, np NewPlan) (*Plan, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("models: begin save plan: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE workout_plans SET active = 0 WHERE user_id = ? AND active = 1`, userID); err != nil {
		return nil, fmt.Errorf("models: deactivate plans for user %d: %w", userID, err)
	}

	var planID int64
	err = tx.QueryRow(
		`INSERT INTO workout_plans (user_id, name, description, goal, duration_weeks, days_per_week, active, generation_id)
		 VALUES (?, ?, ?, ?, ?, ?, 1, ?) RETURNING id`,
		userID, np.Name, np.Description, np.Goal, np.DurationWeeks, np.DaysPerWeek, nullString(np.GenerationID),
	).Scan(&planID)
	if err != nil {
		return nil, fmt.Errorf("models: create plan for user %d: %w", userID, err)
	}

	for _, day := range np.Days {
		var dayID int64
		err := tx.QueryRow(
			`INSERT INTO plan_days (plan_id, day_number, name, focus) VALUES (?, ?, ?, ?) RETURNING id`,
			planID, day.DayNumber, day.Name, day.Focus,
		).Scan(&dayID)
		if err != nil {
			return nil, fmt.Errorf("models: create plan day %d: %w", day.DayNumber, err)
		}

		for i, ex := range day.Exercises {
			e, err := GetOrCreateExercise(tx, ex.Name, ex.MuscleGroup, ex.Equipment, ex.Instructions)
			if err != nil {
				return nil, err
			}
			_, err = tx.Exec(
				`INSERT INTO plan_exercises (plan_day_id, exercise_id, sort_order, sets, reps, rest_seconds, notes)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				dayID, e.ID, i+1, ex.Sets, ex.Reps, ex.RestSeconds, ex.Notes,
			)
			if err != nil {
				return nil, fmt.Errorf("models: add %q to plan day %d: %w", ex.Name, day.DayNumber, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("models: commit plan: %w", err)
	}

	return GetPlan(db, userID, planID)
}

const planColumns = `id, user_id, name, description, goal, duration_weeks, days_per_week, active, generation_id, created_at`

func scanPlan(row interface{ Scan(...any) error }) (*Plan, error) {
	p := &Plan{}
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.Goal, &p.DurationWeeks,
		&p.DaysPerWeek, &p.Active, &p.GenerationID, &p.CreatedAt)
	return p, err
}

// GetPlan retrieves one of the user's plans with its days and exercises.
// Plans owned by other users are reported as ErrNotFound.
func GetPlan(db *sql.DB, userID, planID int64) (*Plan, error) {
	p, err := scanPlan(db.QueryRow(`SELECT `+planColumns+` FROM workout_plans WHERE id = ? AND user_id = ?`, planID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("models: get plan %d: %w", planID, err)
	}
	if p.Days, err = listPlanDays(db, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

// GetActivePlan retrieves the user's active plan with its days and exercises.
func GetActivePlan(db *sql.DB, userID int64) (*Plan, error) {
	var id int64
	err := db.QueryRow(`SELECT id FROM workout_plans WHERE user_id = ? AND active = 1`, userID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("models: get active plan for user %d: %w", userID, err)
	}
	return GetPlan(db, userID, id)
}

// ListPlans returns the user's plans, newest first, without days.
func ListPlans(db *sql.DB, userID int64) ([]*Plan, error) {
	rows, err := db.Query(`SELECT `+planColumns+` FROM workout_plans WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("models: list plans for user %d: %w", userID, err)
	}
	defer rows.Close()

	plans := []*Plan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("models: scan plan: %w", err)
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// DeletePlan removes a plan and its days (CASCADE). Sessions that referenced
// its days keep their history with plan_day_id cleared.
func DeletePlan(db *sql.DB, userID, planID int64) error {
	result, err := db.Exec(`DELETE FROM workout_plans WHERE id = ? AND user_id = ?`, planID, userID)
	if err != nil {
		return fmt.Errorf("models: delete plan %d: %w", planID, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// PlanDayBelongsToUser reports whether the plan day exists in one of the user's plans.
func PlanDayBelongsToUser(db *sql.DB, userID, planDayID int64) (bool, error) {
	var n int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM plan_days pd
		 JOIN workout_plans wp ON wp.id = pd.plan_id
		 WHERE pd.id = ? AND wp.user_id = ?`, planDayID, userID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("models: check plan day %d: %w", planDayID, err)
	}
	return n > 0, nil
}

func listPlanDays(db *sql.DB, planID int64) ([]*PlanDay, error) {
	rows, err := db.Query(
		`SELECT id, plan_id, day_number, name, focus FROM plan_days WHERE plan_id = ? ORDER BY day_number`, planID)
	if err != nil {
		return nil, fmt.Errorf("models: list days for plan %d: %w", planID, err)
	}

	var days []*PlanDay
	byID := make(map[int64]*PlanDay)
	for rows.Next() {
		d := &PlanDay{Exercises: []*PlanExercise{}}
		if err := rows.Scan(&d.ID, &d.PlanID, &d.DayNumber, &d.Name, &d.Focus); err != nil {
			rows.Close()
			return nil, fmt.Errorf("models: scan plan day: %w", err)
		}
		days = append(days, d)
		byID[d.ID] = d
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Single connection: the day cursor must be closed before the next query.
	exRows, err := db.Query(
		`SELECT pe.id, pe.plan_day_id, pe.exercise_id, e.name, pe.sort_order, pe.sets, pe.reps, pe.rest_seconds, pe.notes
		 FROM plan_exercises pe
		 JOIN plan_days pd ON pd.id = pe.plan_day_id
		 JOIN exercises e ON e.id = pe.exercise_id
		 WHERE pd.plan_id = ?
		 ORDER BY pd.day_number, pe.sort_order`, planID)
	if err != nil {
		return nil, fmt.Errorf("models: list exercises for plan %d: %w", planID, err)
	}
	defer exRows.Close()

	for exRows.Next() {
		pe := &PlanExercise{}
		if err := exRows.Scan(&pe.ID, &pe.PlanDayID, &pe.ExerciseID, &pe.ExerciseName, &pe.SortOrder,
			&pe.Sets, &pe.Reps, &pe.RestSeconds, &pe.Notes); err != nil {
			return nil, fmt.Errorf("models: scan plan exercise: %w", err)
		}
		if d, ok := byID[pe.PlanDayID]; ok {
			d.Exercises = append(d.Exercises, pe)
		}
	}
	return days, exRows.Err()
}

package models

import (
	"database/sql"
	"fmt"
	"time"
)

// Activity is a logged non-session activity (a run, a class, a walk).
type Activity struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	ActivityType    string    `json:"activity_type"`
	DurationMinutes int       `json:"duration_minutes"`
	CaloriesBurned  float64   `json:"calories_burned"`
	LoggedAt        time.Time `json:"logged_at"`
	Date            string    `json:"date"`
}

const activityColumns = `id, user_id, activity_type, duration_minutes, calories_burned, logged_at, date`

func scanActivity(row interface{ Scan(...any) error }) (*Activity, error) {
	a := &Activity{}
	err := row.Scan(&a.ID, &a.UserID, &a.ActivityType, &a.DurationMinutes, &a.CaloriesBurned, &a.LoggedAt, &a.Date)
	a.Date = normalizeDate(a.Date)
	return a, err
}

// CreateActivity logs an activity. loggedAt should carry the user's location.
func CreateActivity(db *sql.DB, userID int64, activityType string, durationMinutes int, caloriesBurned float64, loggedAt time.Time) (*Activity, error) {
	var id int64
	err := db.QueryRow(
		`INSERT INTO activities (user_id, activity_type, duration_minutes, calories_burned, logged_at, date)
		 VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
		userID, activityType, durationMinutes, caloriesBurned, loggedAt.UTC(), CalendarDate(loggedAt),
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("models: create activity for user %d: %w", userID, err)
	}

	a, err := scanActivity(db.QueryRow(`SELECT `+activityColumns+` FROM activities WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("models: get activity %d: %w", id, err)
	}
	return a, nil
}

// ListActivities returns the user's activities logged at or after since, newest first.
func ListActivities(db *sql.DB, userID int64, since time.Time) ([]*Activity, error) {
	rows, err := db.Query(
		`SELECT `+activityColumns+` FROM activities WHERE user_id = ? AND logged_at >= ? ORDER BY logged_at DESC`,
		userID, since.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("models: list activities for user %d: %w", userID, err)
	}
	defer rows.Close()

	activities := []*Activity{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("models: scan activity: %w", err)
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

// DeleteActivity removes one of the user's activities.
func DeleteActivity(db *sql.DB, userID, id int64) error {
	result, err := db.Exec(`DELETE FROM activities WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("models: delete activity %d: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

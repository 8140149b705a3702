package models

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Meal type labels. Stored capitalized; input is matched case-insensitively.
const (
	MealBreakfast = "Breakfast"
	MealLunch     = "Lunch"
	MealDinner    = "Dinner"
	MealSnack     = "Snack"
)

// ErrInvalidMealType is returned for a meal type outside the known labels.
var ErrInvalidMealType = errors.New("invalid meal type")

// MealTypes lists the accepted meal type labels.
var MealTypes = []string{MealBreakfast, MealLunch, MealDinner, MealSnack}

// NormalizeMealType maps any casing of a known label to its canonical form.
func NormalizeMealType(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, t := range MealTypes {
		if strings.EqualFold(s, t) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMealType, s)
}

// Meal is one logged meal with its macronutrients.
type Meal struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	MealType    string    `json:"meal_type"`
	Description string    `json:"description"`
	Calories    float64   `json:"calories"`
	ProteinG    float64   `json:"protein_g"`
	CarbsG      float64   `json:"carbs_g"`
	FatG        float64   `json:"fat_g"`
	LoggedAt    time.Time `json:"logged_at"`
	Date        string    `json:"date"` // calendar date of LoggedAt in the user's time zone
}

// NewMeal is the input to CreateMeal. LoggedAt should carry the user's
// location so Date lands on the user's calendar day.
type NewMeal struct {
	MealType    string
	Description string
	Calories    float64
	ProteinG    float64
	CarbsG      float64
	FatG        float64
	LoggedAt    time.Time
}

const mealColumns = `id, user_id, meal_type, description, calories, protein_g, carbs_g, fat_g, logged_at, date`

func scanMeal(row interface{ Scan(...any) error }) (*Meal, error) {
	m := &Meal{}
	err := row.Scan(&m.ID, &m.UserID, &m.MealType, &m.Description, &m.Calories, &m.ProteinG,
		&m.CarbsG, &m.FatG, &m.LoggedAt, &m.Date)
	m.Date = normalizeDate(m.Date)
	return m, err
}

// CreateMeal logs a meal for the user.
func CreateMeal(db *sql.DB, userID int64, nm NewMeal) (*Meal, error) {
	mealType, err := NormalizeMealType(nm.MealType)
	if err != nil {
		return nil, err
	}

	var id int64
	err = db.QueryRow(
		`INSERT INTO meals (user_id, meal_type, description, calories, protein_g, carbs_g, fat_g, logged_at, date)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		userID, mealType, nm.Description, nm.Calories, nm.ProteinG, nm.CarbsG, nm.FatG,
		nm.LoggedAt.UTC(), CalendarDate(nm.LoggedAt),
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("models: create meal for user %d: %w", userID, err)
	}

	m, err := scanMeal(db.QueryRow(`SELECT `+mealColumns+` FROM meals WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("models: get meal %d: %w", id, err)
	}
	return m, nil
}

// ListMeals returns the user's meals logged at or after since, newest first.
func ListMeals(db *sql.DB, userID int64, since time.Time) ([]*Meal, error) {
	rows, err := db.Query(
		`SELECT `+mealColumns+` FROM meals WHERE user_id = ? AND logged_at >= ? ORDER BY logged_at DESC`,
		userID, since.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("models: list meals for user %d: %w", userID, err)
	}
	defer rows.Close()

	meals := []*Meal{}
	for rows.Next() {
		m, err := scanMeal(rows)
		if err != nil {
			return nil, fmt.Errorf("models: scan meal: %w", err)
		}
		meals = append(meals, m)
	}
	return meals, rows.Err()
}

// DeleteMeal removes one of the user's meals.
func DeleteMeal(db *sql.DB, userID, id int64) error {
	result, err := db.Exec(`DELETE FROM meals WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("models: delete meal %d: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

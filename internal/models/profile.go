package models

import (
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"
)

// Profile defaults, returned when the user has not saved a profile yet.
const (
	DefaultFitnessGoal     = "general_fitness"
	DefaultExperienceLevel = "beginner"
	DefaultDaysPerWeek     = 3
	DefaultSessionMinutes  = 45
)

// FitnessGoals lists the accepted fitness_goal values.
var FitnessGoals = []string{"general_fitness", "strength", "hypertrophy", "fat_loss", "endurance"}

// ExperienceLevels lists the accepted experience_level values.
var ExperienceLevels = []string{"beginner", "intermediate", "advanced"}

// Profile holds the training inputs used to personalize generated plans.
type Profile struct {
	UserID          int64     `json:"user_id"`
	FitnessGoal     string    `json:"fitness_goal"`
	ExperienceLevel string    `json:"experience_level"`
	DaysPerWeek     int       `json:"days_per_week"`
	SessionMinutes  int       `json:"session_minutes"`
	Equipment       string    `json:"equipment"`
	Limitations     string    `json:"limitations"`
	WeightKg        *float64  `json:"weight_kg,omitempty"`
	HeightCm        *float64  `json:"height_cm,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// GetProfile retrieves the user's profile. If none exists, returns defaults.
func GetProfile(db *sql.DB, userID int64) (*Profile, error) {
	p := &Profile{UserID: userID}
	var weight, height sql.NullFloat64
	err := db.QueryRow(
		`SELECT fitness_goal, experience_level, days_per_week, session_minutes, equipment, limitations,
		        weight_kg, height_cm, updated_at
		 FROM profiles WHERE user_id = ?`, userID,
	).Scan(&p.FitnessGoal, &p.ExperienceLevel, &p.DaysPerWeek, &p.SessionMinutes, &p.Equipment,
		&p.Limitations, &weight, &height, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return &Profile{
			UserID:          userID,
			FitnessGoal:     DefaultFitnessGoal,
			ExperienceLevel: DefaultExperienceLevel,
			DaysPerWeek:     DefaultDaysPerWeek,
			SessionMinutes:  DefaultSessionMinutes,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("models: get profile for user %d: %w", userID, err)
	}
	p.WeightKg = floatPtr(weight)
	p.HeightCm = floatPtr(height)
	return p, nil
}

// UpsertProfile creates or replaces the user's profile.
func UpsertProfile(db *sql.DB, p *Profile) (*Profile, error) {
	if !slices.Contains(FitnessGoals, p.FitnessGoal) {
		return nil, fmt.Errorf("models: fitness goal %q: %w", p.FitnessGoal, ErrInvalidInput)
	}
	if !slices.Contains(ExperienceLevels, p.ExperienceLevel) {
		return nil, fmt.Errorf("models: experience level %q: %w", p.ExperienceLevel, ErrInvalidInput)
	}
	if p.DaysPerWeek < 1 || p.DaysPerWeek > 7 {
		return nil, fmt.Errorf("models: days per week %d: %w", p.DaysPerWeek, ErrInvalidInput)
	}

	_, err := db.Exec(
		`INSERT INTO profiles (user_id, fitness_goal, experience_level, days_per_week, session_minutes,
		                       equipment, limitations, weight_kg, height_cm)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   fitness_goal = excluded.fitness_goal,
		   experience_level = excluded.experience_level,
		   days_per_week = excluded.days_per_week,
		   session_minutes = excluded.session_minutes,
		   equipment = excluded.equipment,
		   limitations = excluded.limitations,
		   weight_kg = excluded.weight_kg,
		   height_cm = excluded.height_cm,
		   updated_at = CURRENT_TIMESTAMP`,
		p.UserID, p.FitnessGoal, p.ExperienceLevel, p.DaysPerWeek, p.SessionMinutes,
		p.Equipment, p.Limitations, nullFloat(p.WeightKg), nullFloat(p.HeightCm),
	)
	if err != nil {
		return nil, fmt.Errorf("models: upsert profile for user %d: %w", p.UserID, err)
	}
	return GetProfile(db, p.UserID)
}

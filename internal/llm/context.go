package llm

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/carpenike/fitcoach/internal/models"
)

// recentSessionLimit caps how many past sessions are sent to the LLM.
const recentSessionLimit = 10

// PlanContext is the structured data package sent to the LLM. Every field
// is specific to one user.
type PlanContext struct {
	Today           string           `json:"today"`
	Profile         ProfileSummary   `json:"profile"`
	Streak          StreakSummary    `json:"streak"`
	CurrentPlan     *PlanSummary     `json:"current_plan"`
	RecentSessions  []SessionSummary `json:"recent_sessions"`
	ExerciseCatalog []string         `json:"exercise_catalog"`
}

// ProfileSummary contains the user's training inputs.
type ProfileSummary struct {
	FitnessGoal     string   `json:"fitness_goal"`
	ExperienceLevel string   `json:"experience_level"`
	DaysPerWeek     int      `json:"days_per_week"`
	SessionMinutes  int      `json:"session_minutes"`
	Equipment       string   `json:"equipment,omitempty"`
	Limitations     string   `json:"limitations,omitempty"`
	WeightKg        *float64 `json:"weight_kg,omitempty"`
	HeightCm        *float64 `json:"height_cm,omitempty"`
}

// StreakSummary is the user's consistency record.
type StreakSummary struct {
	CurrentStreak   int    `json:"current_streak"`
	LongestStreak   int    `json:"longest_streak"`
	TotalWorkouts   int    `json:"total_workouts"`
	LastWorkoutDate string `json:"last_workout_date,omitempty"`
}

// PlanSummary describes the user's active plan.
type PlanSummary struct {
	Name          string   `json:"name"`
	Goal          string   `json:"goal,omitempty"`
	DurationWeeks int      `json:"duration_weeks"`
	DaysPerWeek   int      `json:"days_per_week"`
	StartDate     string   `json:"start_date"`
	Days          []string `json:"days"`
}

// SessionSummary describes a recent session with its sets.
type SessionSummary struct {
	Date      string       `json:"date"`
	PlanDay   string       `json:"plan_day,omitempty"`
	Completed bool         `json:"completed"`
	Notes     string       `json:"notes,omitempty"`
	Sets      []SetSummary `json:"sets"`
}

// SetSummary is a single logged set.
type SetSummary struct {
	Exercise string   `json:"exercise"`
	Reps     int      `json:"reps"`
	WeightKg *float64 `json:"weight_kg,omitempty"`
	RPE      *float64 `json:"rpe,omitempty"`
}

// BuildPlanContext assembles the generation context for one user. now
// should carry the user's location.
func BuildPlanContext(db *sql.DB, userID int64, now time.Time) (*PlanContext, error) {
	pc := &PlanContext{
		Today:           models.CalendarDate(now),
		RecentSessions:  []SessionSummary{},
		ExerciseCatalog: []string{},
	}

	profile, err := models.GetProfile(db, userID)
	if err != nil {
		return nil, err
	}
	pc.Profile = ProfileSummary{
		FitnessGoal:     profile.FitnessGoal,
		ExperienceLevel: profile.ExperienceLevel,
		DaysPerWeek:     profile.DaysPerWeek,
		SessionMinutes:  profile.SessionMinutes,
		Equipment:       profile.Equipment,
		Limitations:     profile.Limitations,
		WeightKg:        profile.WeightKg,
		HeightCm:        profile.HeightCm,
	}

	streak, err := models.GetStreak(db, userID, now)
	if err != nil {
		return nil, err
	}
	pc.Streak = StreakSummary{
		CurrentStreak:   streak.CurrentStreak,
		LongestStreak:   streak.LongestStreak,
		TotalWorkouts:   streak.TotalWorkouts,
		LastWorkoutDate: streak.LastWorkoutDate,
	}

	plan, err := models.GetActivePlan(db, userID)
	switch {
	case err == nil:
		ps := &PlanSummary{
			Name:          plan.Name,
			Goal:          plan.Goal,
			DurationWeeks: plan.DurationWeeks,
			DaysPerWeek:   plan.DaysPerWeek,
			StartDate:     plan.CreatedAt.Format(models.DateLayout),
		}
		for _, d := range plan.Days {
			ps.Days = append(ps.Days, fmt.Sprintf("Day %d: %s (%d exercises)", d.DayNumber, d.Name, len(d.Exercises)))
		}
		pc.CurrentPlan = ps
	case !errors.Is(err, models.ErrNotFound):
		return nil, err
	}

	page, err := models.ListSessions(db, userID, 0)
	if err != nil {
		return nil, err
	}
	sessions := page.Sessions
	if len(sessions) > recentSessionLimit {
		sessions = sessions[:recentSessionLimit]
	}
	for _, s := range sessions {
		sets, err := models.ListSetLogs(db, s.ID)
		if err != nil {
			return nil, err
		}
		ss := SessionSummary{
			Date:      s.Date,
			PlanDay:   s.PlanDayName,
			Completed: s.Completed(),
			Notes:     s.Notes,
			Sets:      make([]SetSummary, 0, len(sets)),
		}
		for _, set := range sets {
			ss.Sets = append(ss.Sets, SetSummary{
				Exercise: set.ExerciseName,
				Reps:     set.Reps,
				WeightKg: set.WeightKg,
				RPE:      set.RPE,
			})
		}
		pc.RecentSessions = append(pc.RecentSessions, ss)
	}

	exercises, err := models.ListExercises(db)
	if err != nil {
		return nil, err
	}
	for _, e := range exercises {
		pc.ExerciseCatalog = append(pc.ExerciseCatalog, e.Name)
	}

	return pc, nil
}

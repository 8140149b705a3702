package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/carpenike/fitcoach/internal/models"
)

// Nutrition holds dependencies for meal and activity logging handlers.
type Nutrition struct {
	DB  *sql.DB
	Now Clock
}

type mealRequest struct {
	MealType    string     `json:"meal_type" validate:"required"`
	Description string     `json:"description" validate:"max=500"`
	Calories    float64    `json:"calories" validate:"gte=0,lte=20000"`
	ProteinG    float64    `json:"protein_g" validate:"gte=0,lte=1000"`
	CarbsG      float64    `json:"carbs_g" validate:"gte=0,lte=2000"`
	FatG        float64    `json:"fat_g" validate:"gte=0,lte=1000"`
	LoggedAt    *time.Time `json:"logged_at"`
}

type activityRequest struct {
	ActivityType    string     `json:"activity_type" validate:"required,max=100"`
	DurationMinutes int        `json:"duration_minutes" validate:"min=0,max=1440"`
	CaloriesBurned  float64    `json:"calories_burned" validate:"gte=0,lte=20000"`
	LoggedAt        *time.Time `json:"logged_at"`
}

// loggedAt returns the client timestamp, or now, in the user's location.
func loggedAt(ts *time.Time, now time.Time) time.Time {
	if ts == nil || ts.IsZero() {
		return now
	}
	return ts.In(now.Location())
}

// ListMeals returns meals from the last ?hours= (default 48).
func (h *Nutrition) ListMeals(w http.ResponseWriter, r *http.Request) {
	user, now := currentUser(r, h.Now)
	meals, err := models.ListMeals(h.DB, user.ID, sinceParam(r, now))
	if err != nil {
		serverError(w, "list meals", err)
		return
	}
	writeJSON(w, http.StatusOK, meals)
}

// CreateMeal logs a meal. Meal type matching is case-insensitive.
func (h *Nutrition) CreateMeal(w http.ResponseWriter, r *http.Request) {
	user, now := currentUser(r, h.Now)
	var req mealRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	meal, err := models.CreateMeal(h.DB, user.ID, models.NewMeal{
		MealType:    req.MealType,
		Description: req.Description,
		Calories:    req.Calories,
		ProteinG:    req.ProteinG,
		CarbsG:      req.CarbsG,
		FatG:        req.FatG,
		LoggedAt:    loggedAt(req.LoggedAt, now),
	})
	if err != nil {
		modelError(w, "create meal", err)
		return
	}
	writeJSON(w, http.StatusCreated, meal)
}

// DeleteMeal removes one of the user's meals.
func (h *Nutrition) DeleteMeal(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r, h.Now)
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := models.DeleteMeal(h.DB, user.ID, id); err != nil {
		modelError(w, "delete meal", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListActivities returns activities from the last ?hours= (default 48).
func (h *Nutrition) ListActivities(w http.ResponseWriter, r *http.Request) {
	user, now := currentUser(r, h.Now)
	activities, err := models.ListActivities(h.DB, user.ID, sinceParam(r, now))
	if err != nil {
		serverError(w, "list activities", err)
		return
	}
	writeJSON(w, http.StatusOK, activities)
}

// CreateActivity logs an activity.
func (h *Nutrition) CreateActivity(w http.ResponseWriter, r *http.Request) {
	user, now := currentUser(r, h.Now)
	var req activityRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	a, err := models.CreateActivity(h.DB, user.ID, req.ActivityType, req.DurationMinutes, req.CaloriesBurned,
		loggedAt(req.LoggedAt, now))
	if err != nil {
		modelError(w, "create activity", err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// DeleteActivity removes one of the user's activities.
func (h *Nutrition) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r, h.Now)
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := models.DeleteActivity(h.DB, user.ID, id); err != nil {
		modelError(w, "delete activity", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

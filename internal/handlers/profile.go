package handlers

import (
	"database/sql"
	"net/http"

	"github.com/carpenike/fitcoach/internal/middleware"
	"github.com/carpenike/fitcoach/internal/models"
)

// Profile holds dependencies for the training profile handlers.
type Profile struct {
	DB *sql.DB
}

type profileRequest struct {
	FitnessGoal     string   `json:"fitness_goal" validate:"required,oneof=general_fitness strength hypertrophy fat_loss endurance"`
	ExperienceLevel string   `json:"experience_level" validate:"required,oneof=beginner intermediate advanced"`
	DaysPerWeek     int      `json:"days_per_week" validate:"min=1,max=7"`
	SessionMinutes  int      `json:"session_minutes" validate:"min=10,max=240"`
	Equipment       string   `json:"equipment" validate:"max=500"`
	Limitations     string   `json:"limitations" validate:"max=1000"`
	WeightKg        *float64 `json:"weight_kg" validate:"omitempty,gt=0,lt=500"`
	HeightCm        *float64 `json:"height_cm" validate:"omitempty,gt=0,lt=300"`
}

// Get returns the user's profile, or defaults when none is saved.
func (h *Profile) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	p, err := models.GetProfile(h.DB, user.ID)
	if err != nil {
		serverError(w, "get profile", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Update replaces the user's profile.
func (h *Profile) Update(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	var req profileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := models.UpsertProfile(h.DB, &models.Profile{
		UserID:          user.ID,
		FitnessGoal:     req.FitnessGoal,
		ExperienceLevel: req.ExperienceLevel,
		DaysPerWeek:     req.DaysPerWeek,
		SessionMinutes:  req.SessionMinutes,
		Equipment:       req.Equipment,
		Limitations:     req.Limitations,
		WeightKg:        req.WeightKg,
		HeightCm:        req.HeightCm,
	})
	if err != nil {
		modelError(w, "update profile", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

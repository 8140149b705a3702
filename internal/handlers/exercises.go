package handlers

import (
	"database/sql"
	"net/http"

	"github.com/carpenike/fitcoach/internal/models"
)

// Exercises serves the shared exercise catalog.
type Exercises struct {
	DB *sql.DB
}

// List returns every catalog exercise.
func (h *Exercises) List(w http.ResponseWriter, r *http.Request) {
	exercises, err := models.ListExercises(h.DB)
	if err != nil {
		serverError(w, "list exercises", err)
		return
	}
	writeJSON(w, http.StatusOK, exercises)
}

// Get returns one exercise.
func (h *Exercises) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	e, err := models.GetExerciseByID(h.DB, id)
	if err != nil {
		modelError(w, "get exercise", err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/carpenike/fitcoach/internal/models"
)

// Sessions holds dependencies for workout session handlers.
type Sessions struct {
	DB  *sql.DB
	Now Clock
}

type startSessionRequest struct {
	PlanDayID *int64 `json:"plan_day_id" validate:"omitempty,gt=0"`
	Date      string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Notes     string `json:"notes" validate:"max=2000"`
}

type completeSessionRequest struct {
	DurationMinutes *int `json:"duration_minutes" validate:"omitempty,min=0,max=1440"`
}

type addSetRequest struct {
	ExerciseID int64    `json:"exercise_id" validate:"omitempty,gt=0"`
	Exercise   string   `json:"exercise" validate:"required_without=ExerciseID,max=100"`
	Reps       int      `json:"reps" validate:"min=0,max=1000"`
	WeightKg   *float64 `json:"weight_kg" validate:"omitempty,gte=0,lte=1000"`
	RPE        *float64 `json:"rpe" validate:"omitempty,gte=1,lte=10"`
}

// List returns a page of the user's sessions, most recent first.
func (h *Sessions) List(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r, h.Now)
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	page, err := models.ListSessions(h.DB, user.ID, max(offset, 0))
	if err != nil {
		serverError(w, "list sessions", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Start opens a session, by default on the user's local date.
func (h *Sessions) Start(w http.ResponseWriter, r *http.Request) {
	user, now := currentUser(r, h.Now)
	var req startSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Date == "" {
		req.Date = models.CalendarDate(now)
	}

	if req.PlanDayID != nil {
		owned, err := models.PlanDayBelongsToUser(h.DB, user.ID, *req.PlanDayID)
		if err != nil {
			serverError(w, "check plan day", err)
			return
		}
		if !owned {
			writeError(w, http.StatusBadRequest, "plan_day_id does not belong to one of your plans")
			return
		}
	}

	s, err := models.StartSession(h.DB, user.ID, req.PlanDayID, req.Date, req.Notes, now)
	if err != nil {
		modelError(w, "start session", err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

// Get returns one session with its sets.
func (h *Sessions) Get(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r, h.Now)
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	s, err := models.GetSession(h.DB, user.ID, id)
	if err != nil {
		modelError(w, "get session", err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// Complete marks a session done, which counts it toward the streak.
func (h *Sessions) Complete(w http.ResponseWriter, r *http.Request) {
	user, now := currentUser(r, h.Now)
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req completeSessionRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	s, err := models.CompleteSession(h.DB, user.ID, id, now, req.DurationMinutes)
	if err != nil {
		modelError(w, "complete session", err)
		return
	}

	streak, err := models.GetStreak(h.DB, user.ID, now)
	if err != nil {
		zap.S().Errorf("handlers: streak after completing session %d: %v", id, err)
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": s, "streak": streak})
}

// Delete removes a session and its sets.
func (h *Sessions) Delete(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r, h.Now)
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := models.DeleteSession(h.DB, user.ID, id); err != nil {
		modelError(w, "delete session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddSet logs a set in one of the user's sessions. The exercise is given by
// catalog ID or by name; unknown names are added to the catalog.
func (h *Sessions) AddSet(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r, h.Now)
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req addSetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if _, err := models.GetSession(h.DB, user.ID, id); err != nil {
		modelError(w, "get session", err)
		return
	}

	exerciseID := req.ExerciseID
	if exerciseID == 0 {
		e, err := models.GetOrCreateExercise(h.DB, req.Exercise, "", "", "")
		if err != nil {
			serverError(w, "resolve exercise", err)
			return
		}
		exerciseID = e.ID
	} else if _, err := models.GetExerciseByID(h.DB, exerciseID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "unknown exercise_id")
			return
		}
		serverError(w, "get exercise", err)
		return
	}

	set, err := models.AddSetLog(h.DB, user.ID, id, exerciseID, req.Reps, req.WeightKg, req.RPE)
	if err != nil {
		modelError(w, "add set", err)
		return
	}
	writeJSON(w, http.StatusCreated, set)
}

// DeleteSet removes a set from one of the user's sessions.
func (h *Sessions) DeleteSet(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r, h.Now)
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	setID, ok := idParam(w, r, "setID")
	if !ok {
		return
	}
	if _, err := models.GetSession(h.DB, user.ID, id); err != nil {
		modelError(w, "get session", err)
		return
	}
	if err := models.DeleteSetLog(h.DB, user.ID, id, setID); err != nil {
		modelError(w, "delete set", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

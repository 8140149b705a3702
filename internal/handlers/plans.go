package handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/carpenike/fitcoach/internal/llm"
	"github.com/carpenike/fitcoach/internal/middleware"
	"github.com/carpenike/fitcoach/internal/models"
)

// ProviderFunc resolves the configured LLM provider.
type ProviderFunc func(db *sql.DB) (llm.Provider, error)

// generateTimeout bounds one plan generation call.
const generateTimeout = 3 * time.Minute

// Plans holds dependencies for workout plan handlers.
type Plans struct {
	DB       *sql.DB
	Now      Clock
	Provider ProviderFunc
}

type generateRequest struct {
	Name          string   `json:"name" validate:"required,max=100"`
	Goal          string   `json:"goal" validate:"max=100"`
	DaysPerWeek   int      `json:"days_per_week" validate:"min=1,max=7"`
	DurationWeeks int      `json:"duration_weeks" validate:"min=1,max=16"`
	FocusAreas    []string `json:"focus_areas" validate:"max=5,dive,required,max=50"`
	Notes         string   `json:"notes" validate:"max=2000"`
}

// Generate asks the LLM for a plan, validates it and saves it as the
// user's active plan.
func (h *Plans) Generate(w http.ResponseWriter, r *http.Request) {
	user, now := currentUser(r, h.Now)
	var req generateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	provider, ok := resolveProvider(w, h.DB, h.Provider)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), generateTimeout)
	defer cancel()

	result, err := llm.GeneratePlan(ctx, h.DB, provider, llm.PlanRequest{
		UserID:        user.ID,
		Name:          req.Name,
		Goal:          req.Goal,
		DaysPerWeek:   req.DaysPerWeek,
		DurationWeeks: req.DurationWeeks,
		FocusAreas:    req.FocusAreas,
		Notes:         req.Notes,
		Now:           now,
	})
	if err != nil {
		llmError(w, "generate plan", err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// List returns the user's plans without days.
func (h *Plans) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	plans, err := models.ListPlans(h.DB, user.ID)
	if err != nil {
		serverError(w, "list plans", err)
		return
	}
	writeJSON(w, http.StatusOK, plans)
}

// Active returns the user's active plan with days and exercises.
func (h *Plans) Active(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	plan, err := models.GetActivePlan(h.DB, user.ID)
	if err != nil {
		modelError(w, "get active plan", err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// Get returns one plan with days and exercises.
func (h *Plans) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	plan, err := models.GetPlan(h.DB, user.ID, id)
	if err != nil {
		modelError(w, "get plan", err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// Delete removes a plan. Sessions logged against it are kept.
func (h *Plans) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := models.DeletePlan(h.DB, user.ID, id); err != nil {
		modelError(w, "delete plan", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Generations lists the user's recent plan generation attempts.
func (h *Plans) Generations(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	gens, err := models.ListGenerations(h.DB, user.ID, 20)
	if err != nil {
		serverError(w, "list generations", err)
		return
	}
	writeJSON(w, http.StatusOK, gens)
}

func resolveProvider(w http.ResponseWriter, db *sql.DB, fn ProviderFunc) (llm.Provider, bool) {
	if fn == nil {
		fn = llm.NewProviderFromSettings
	}
	provider, err := fn(db)
	if errors.Is(err, llm.ErrNotConfigured) {
		writeError(w, http.StatusServiceUnavailable, "AI coach is not configured")
		return nil, false
	}
	if err != nil {
		serverError(w, "resolve provider", err)
		return nil, false
	}
	return provider, true
}

// llmError maps plan generation and chat errors to responses.
func llmError(w http.ResponseWriter, action string, err error) {
	var (
		schemaErr *llm.SchemaError
		apiErr    *llm.APIError
	)
	switch {
	case errors.As(err, &schemaErr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":      "the AI response did not match the plan schema",
			"violations": schemaErr.Violations,
		})
	case errors.As(err, &apiErr):
		writeError(w, http.StatusBadGateway, apiErr.UserMessage())
	case errors.Is(err, llm.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "the AI provider took too long to respond")
	default:
		serverError(w, action, err)
	}
}

package llm

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/carpenike/fitcoach/internal/models"
)

// ErrInvalidRequest wraps plan request validation failures.
var ErrInvalidRequest = errors.New("llm: invalid plan request")

// PlanRequest describes the plan to generate.
type PlanRequest struct {
	UserID        int64     `json:"-" validate:"required"`
	Name          string    `json:"name" validate:"required,max=100"`
	Goal          string    `json:"goal" validate:"max=100"`
	DaysPerWeek   int       `json:"days_per_week" validate:"min=1,max=7"`
	DurationWeeks int       `json:"duration_weeks" validate:"min=1,max=16"`
	FocusAreas    []string  `json:"focus_areas" validate:"max=5,dive,required,max=50"`
	Notes         string    `json:"notes" validate:"max=2000"`
	Now           time.Time `json:"-"` // user's local time; time.Now when zero
}

// Validate checks the request against its field constraints.
func (r *PlanRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			parts := make([]string, len(verrs))
			for i, fe := range verrs {
				parts[i] = fieldPath(fe.Namespace()) + " " + describeTag(fe)
			}
			return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(parts, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

// PlanResult holds a generated, validated and saved plan.
type PlanResult struct {
	Plan       *models.Plan           `json:"plan"`
	Generation *models.PlanGeneration `json:"generation"`
	Reasoning  string                 `json:"reasoning,omitempty"`
}

// GeneratePlan runs the generation pipeline:
//  1. Build the user's plan context
//  2. Construct system + user prompt
//  3. Call the LLM provider
//  4. Extract the reasoning and the JSON plan
//  5. Strictly decode and validate it, then save it as the active plan
//
// Every attempt is recorded in plan_generations. A response that does not
// match the schema yields *SchemaError.
func GeneratePlan(ctx context.Context, db *sql.DB, provider Provider, req PlanRequest) (*PlanResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}

	planCtx, err := BuildPlanContext(db, req.UserID, now)
	if err != nil {
		return nil, fmt.Errorf("llm: build context: %w", err)
	}

	systemPrompt := buildPlanSystemPrompt()
	userPrompt, err := buildPlanUserPrompt(planCtx, req)
	if err != nil {
		return nil, fmt.Errorf("llm: build prompt: %w", err)
	}

	gen := &models.PlanGeneration{ID: uuid.NewString(), UserID: req.UserID}
	opts := Options{
		Temperature: TemperatureFromSettings(db),
		MaxTokens:   MaxTokensFromSettings(db),
	}
	resp, err := provider.Generate(ctx, systemPrompt, userPrompt, opts)
	if err != nil {
		gen.Status, gen.Error = models.GenerationFailed, err.Error()
		recordGeneration(db, gen)
		return nil, fmt.Errorf("llm: provider generate: %w", err)
	}
	gen.Model = resp.Model
	gen.TokensUsed = resp.TokensUsed
	gen.DurationMs = resp.Duration.Milliseconds()
	gen.RawResponse = resp.Content

	planJSON, reasoning := extractResponse(resp.Content)
	parsed, err := ParsePlan(planJSON)
	if err != nil {
		var schemaErr *SchemaError
		if errors.As(err, &schemaErr) && resp.Truncated() {
			schemaErr.add("$", "response was truncated at the token limit (raise llm.max_tokens)")
		}
		gen.Status, gen.Error = models.GenerationSchemaInvalid, err.Error()
		recordGeneration(db, gen)
		return nil, err
	}

	plan, err := models.SavePlan(db, req.UserID, parsed.ToNewPlan(gen.ID))
	if err != nil {
		gen.Status, gen.Error = models.GenerationFailed, err.Error()
		recordGeneration(db, gen)
		return nil, fmt.Errorf("llm: save plan: %w", err)
	}

	gen.Status = models.GenerationSucceeded
	if _, err := models.RecordGeneration(db, gen); err != nil {
		return nil, fmt.Errorf("llm: record generation: %w", err)
	}

	zap.S().Infof("llm: generated plan %q for user %d (%s, %d tokens, %s)",
		plan.Name, req.UserID, gen.Model, gen.TokensUsed, resp.Duration.Round(time.Millisecond))
	return &PlanResult{Plan: plan, Generation: gen, Reasoning: reasoning}, nil
}

// recordGeneration stores a failed attempt. The attempt's own error is what
// the caller returns, so a storage failure here is only logged.
func recordGeneration(db *sql.DB, gen *models.PlanGeneration) {
	if _, err := models.RecordGeneration(db, gen); err != nil {
		zap.S().Errorf("llm: record %s generation for user %d: %v", gen.Status, gen.UserID, err)
	}
}

func buildPlanSystemPrompt() string {
	return `You are an experienced strength and conditioning coach who designs safe,
evidence-based workout plans for a fitness tracking app.

OUTPUT FORMAT (CRITICAL)

1. Give brief reasoning inside <reasoning>...</reasoning> tags (at most 200 words):
   the split you chose, how it fits the user's goal, and any safety considerations.
2. Then output ONE JSON object matching the schema below.
3. Output nothing else. No markdown fences, no commentary after the JSON.

RULES

1. Prefer exercises from the provided exercise_catalog, referenced by exact name.
   New exercises are allowed when the catalog has nothing suitable.
2. Only prescribe exercises the user's listed equipment supports. With no equipment
   listed, use bodyweight movements.
3. Respect any limitations in the profile. Never program a movement that loads an
   injured area.
4. Fit each day into the user's session_minutes, counting rest periods.
5. Order each day: compound lifts first, then accessories, then conditioning.
6. Balance the week across squat, hinge, push, pull and core patterns.
7. If the user has a current plan and recent sessions, progress from them rather
   than starting over.

SCHEMA (every field shown is allowed; no other fields are accepted)

{
  "name": "Plan name (max 100 chars)",
  "description": "What the plan does and how it progresses",
  "goal": "strength | hypertrophy | fat_loss | endurance | general_fitness",
  "duration_weeks": 8,
  "days_per_week": 3,
  "days": [
    {
      "day_number": 1,
      "name": "Lower A",
      "focus": "squat strength",
      "exercises": [
        {
          "name": "Back Squat",
          "muscle_group": "legs",
          "equipment": "barbell",
          "sets": 4,
          "reps": "5-8",
          "rest_seconds": 150,
          "notes": "Target RPE 7-8"
        }
      ]
    }
  ]
}

CONSTRAINTS
- duration_weeks 1-16; days_per_week 1-7 and equal to the number of entries in "days".
- day_number values are unique, 1-7.
- Each day has 1-15 exercises; sets 1-10; rest_seconds 0-600.
- "reps" is a string: "8", "8-12", "30s", or "AMRAP".
`
}

func buildPlanUserPrompt(pc *PlanContext, req PlanRequest) (string, error) {
	contextJSON, err := json.MarshalIndent(pc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal context: %w", err)
	}

	var b strings.Builder
	b.WriteString("USER CONTEXT:\n")
	b.Write(contextJSON)
	b.WriteString("\n\n")

	if len(req.FocusAreas) > 0 {
		b.WriteString("FOCUS AREAS: ")
		b.WriteString(strings.Join(req.FocusAreas, ", "))
		b.WriteString("\n\n")
	}
	if req.Notes != "" {
		b.WriteString("USER NOTES:\n")
		b.WriteString(req.Notes)
		b.WriteString("\n\n")
	}

	goal := req.Goal
	if goal == "" {
		goal = pc.Profile.FitnessGoal
	}
	fmt.Fprintf(&b, "REQUEST:\nGenerate %q, a %d-week plan with %d training days per week, goal: %s.\n",
		req.Name, req.DurationWeeks, req.DaysPerWeek, goal)
	fmt.Fprintf(&b, "The user is %s level and has %d minutes per session.\n",
		pc.Profile.ExperienceLevel, pc.Profile.SessionMinutes)
	if pc.Streak.CurrentStreak > 0 {
		fmt.Fprintf(&b, "They are on a %d-day workout streak; keep the first week achievable so it continues.\n",
			pc.Streak.CurrentStreak)
	}
	b.WriteString("Keep <reasoning> short, then output the complete JSON object.")
	return b.String(), nil
}

// extractResponse separates reasoning and the plan JSON from the LLM response.
func extractResponse(content string) (planJSON []byte, reasoning string) {
	if start := strings.Index(content, "<reasoning>"); start != -1 {
		if end := strings.Index(content, "</reasoning>"); end > start {
			reasoning = strings.TrimSpace(content[start+len("<reasoning>") : end])
			content = content[:start] + content[end+len("</reasoning>"):]
		}
	}
	return extractJSON(content), reasoning
}

// extractJSON finds the first complete JSON object in the text.
func extractJSON(s string) []byte {
	if idx := strings.Index(s, "```json"); idx != -1 {
		start := idx + len("```json")
		if end := strings.Index(s[start:], "```"); end != -1 {
			candidate := strings.TrimSpace(s[start : start+end])
			if json.Valid([]byte(candidate)) {
				return []byte(candidate)
			}
		}
	}

	depth := 0
	start := -1
	inString, escaped := false, false
	for i, ch := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				candidate := s[start : i+1]
				if json.Valid([]byte(candidate)) {
					return []byte(candidate)
				}
				start = -1
			}
		}
	}
	return nil
}

package models

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Plan generation outcomes.
const (
	GenerationSucceeded     = "succeeded"
	GenerationSchemaInvalid = "schema_invalid"
	GenerationFailed        = "failed"
)

// PlanGeneration records one LLM plan-generation attempt.
type PlanGeneration struct {
	ID          string    `json:"id"`
	UserID      int64     `json:"user_id"`
	Status      string    `json:"status"`
	Model       string    `json:"model"`
	TokensUsed  int       `json:"tokens_used"`
	DurationMs  int64     `json:"duration_ms"`
	RawResponse string    `json:"-"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// RecordGeneration stores a generation attempt under a fresh UUID and returns it.
func RecordGeneration(db *sql.DB, g *PlanGeneration) (*PlanGeneration, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	err := db.QueryRow(
		`INSERT INTO plan_generations (id, user_id, status, model, tokens_used, duration_ms, raw_response, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING created_at`,
		g.ID, g.UserID, g.Status, g.Model, g.TokensUsed, g.DurationMs, g.RawResponse, g.Error,
	).Scan(&g.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("models: record generation for user %d: %w", g.UserID, err)
	}
	return g, nil
}

// ListGenerations returns the user's most recent generation attempts, newest first.
func ListGenerations(db *sql.DB, userID int64, limit int) ([]*PlanGeneration, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(
		`SELECT id, user_id, status, model, tokens_used, duration_ms, raw_response, error, created_at
		 FROM plan_generations WHERE user_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("models: list generations for user %d: %w", userID, err)
	}
	defer rows.Close()

	var gens []*PlanGeneration
	for rows.Next() {
		g := &PlanGeneration{}
		if err := rows.Scan(&g.ID, &g.UserID, &g.Status, &g.Model, &g.TokensUsed, &g.DurationMs,
			&g.RawResponse, &g.Error, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("models: scan generation: %w", err)
		}
		gens = append(gens, g)
	}
	return gens, rows.Err()
}

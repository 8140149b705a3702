package models

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Exercise is a catalog movement referenced by plans and set logs.
type Exercise struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	MuscleGroup  string    `json:"muscle_group,omitempty"`
	Equipment    string    `json:"equipment,omitempty"`
	Instructions string    `json:"instructions,omitempty"`
	CreatedAt    time.Time `json:"-"`
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// GetOrCreateExercise returns the exercise with the given name
// (case-insensitive), creating it with the supplied details if absent.
// Details of an existing exercise are left untouched.
func GetOrCreateExercise(q querier, name, muscleGroup, equipment, instructions string) (*Exercise, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("models: exercise name is required")
	}

	_, err := q.Exec(
		`INSERT INTO exercises (name, muscle_group, equipment, instructions) VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO NOTHING`,
		name, muscleGroup, equipment, instructions,
	)
	if err != nil {
		return nil, fmt.Errorf("models: create exercise %q: %w", name, err)
	}

	e := &Exercise{}
	err = q.QueryRow(
		`SELECT id, name, muscle_group, equipment, instructions, created_at FROM exercises WHERE name = ?`, name,
	).Scan(&e.ID, &e.Name, &e.MuscleGroup, &e.Equipment, &e.Instructions, &e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("models: get exercise %q: %w", name, err)
	}
	return e, nil
}

// GetExerciseByID retrieves an exercise by primary key.
func GetExerciseByID(db *sql.DB, id int64) (*Exercise, error) {
	e := &Exercise{}
	err := db.QueryRow(
		`SELECT id, name, muscle_group, equipment, instructions, created_at FROM exercises WHERE id = ?`, id,
	).Scan(&e.ID, &e.Name, &e.MuscleGroup, &e.Equipment, &e.Instructions, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("models: get exercise %d: %w", id, err)
	}
	return e, nil
}

// ListExercises returns the full catalog ordered by name.
func ListExercises(db *sql.DB) ([]*Exercise, error) {
	rows, err := db.Query(`SELECT id, name, muscle_group, equipment, instructions, created_at FROM exercises ORDER BY name COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("models: list exercises: %w", err)
	}
	defer rows.Close()

	exercises := []*Exercise{}
	for rows.Next() {
		e := &Exercise{}
		if err := rows.Scan(&e.ID, &e.Name, &e.MuscleGroup, &e.Equipment, &e.Instructions, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("models: scan exercise: %w", err)
		}
		exercises = append(exercises, e)
	}
	return exercises, rows.Err()
}

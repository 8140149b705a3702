package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carpenike/fitcoach/internal/database"
	"github.com/carpenike/fitcoach/internal/models"
)

// setupEnv points the CLI at a fresh database and returns its path.
func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "fitcoach.db")
	t.Setenv("FITCOACH_CONFIG", "")
	t.Setenv("FITCOACH_DB_PATH", dbPath)
	t.Setenv("FITCOACH_LOG_LEVEL", "error")
	t.Setenv(models.SecretKeyEnv, "cli-test-secret")
	return dbPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func createUser(t *testing.T, dbPath, username string) {
	t.Helper()
	db, err := database.Open(dbPath)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, database.RunMigrations(db))
	_, err = models.CreateUser(db, username, "correct-horse", "", "UTC")
	require.NoError(t, err)
}

func TestMigrateSeedsCatalog(t *testing.T) {
	dbPath := setupEnv(t)

	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "schema version")

	db, err := database.Open(dbPath)
	require.NoError(t, err)
	defer db.Close()
	exercises, err := models.ListExercises(db)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(exercises), 20)
}

func TestStreakCommand(t *testing.T) {
	dbPath := setupEnv(t)
	createUser(t, dbPath, "runner")

	out, err := run(t, "streak", "runner")
	require.NoError(t, err)
	assert.Contains(t, out, "Current streak: 0 days")
	assert.Contains(t, out, "Last workout:   never")

	_, err = run(t, "streak", "nobody")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestImportCommand(t *testing.T) {
	dbPath := setupEnv(t)
	createUser(t, dbPath, "lifter")

	file := filepath.Join(t.TempDir(), "hevy.csv")
	require.NoError(t, os.WriteFile(file, []byte(`title,start_time,end_time,description,exercise_title,superset_id,exercise_notes,set_index,set_type,weight_kg,reps,rpe,duration_seconds,distance_km
Push,2026-03-14 08:00:00,2026-03-14 08:45:00,,Bench Press,,,0,normal,80,5,,,
Legs,2026-03-15 08:00:00,2026-03-15 09:00:00,,Back Squat,,,0,normal,100,5,,,
`), 0o600))

	out, err := run(t, "import", "lifter", file, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, `"workout_count": 2`)

	out, err = run(t, "import", "lifter", file)
	require.NoError(t, err)
	assert.Contains(t, out, `"sessions_created": 2`)

	out, err = run(t, "streak", "lifter")
	require.NoError(t, err)
	assert.Contains(t, out, "Longest streak: 2 days")
	assert.Contains(t, out, "Last workout:   2026-03-15")

	_, err = run(t, "import", "lifter", file, "--unit", "stone")
	assert.Error(t, err)
}

func TestSettingsCommands(t *testing.T) {
	setupEnv(t)
	t.Setenv("FITCOACH_LLM_API_KEY", "")

	_, err := run(t, "settings", "set", "llm.api_key", "sk-1234567890abcdef")
	require.NoError(t, err)

	out, err := run(t, "settings", "get", "llm.api_key")
	require.NoError(t, err)
	assert.Equal(t, "sk-1••••cdef\n", out)

	out, err = run(t, "settings", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "coach.nudge_interval_minutes")

	_, err = run(t, "settings", "unset", "llm.api_key")
	require.NoError(t, err)
	out, err = run(t, "settings", "get", "llm.api_key")
	require.NoError(t, err)
	assert.Equal(t, "\n", out)

	_, err = run(t, "settings", "get", "nope")
	assert.ErrorIs(t, err, models.ErrUnknownSetting)
}

func TestVersionSkipsConfig(t *testing.T) {
	t.Setenv("FITCOACH_LOG_LEVEL", "loud")

	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "fitcoach ")
}

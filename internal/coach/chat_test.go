package coach

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carpenike/fitcoach/internal/llm"
	"github.com/carpenike/fitcoach/internal/models"
)

func TestChat(t *testing.T) {
	db := testDB(t)
	u, err := models.CreateUser(db, "chatty", "password123", "", "UTC")
	require.NoError(t, err)
	_, err = models.CreateMeal(db, u.ID, models.NewMeal{MealType: "breakfast", Calories: 450, ProteinG: 25, LoggedAt: noon.Add(-4 * time.Hour)})
	require.NoError(t, err)
	_, err = models.SavePlan(db, u.ID, models.NewPlan{
		Name: "Couch to 5K", DurationWeeks: 8, DaysPerWeek: 1,
		Days: []models.NewPlanDay{{DayNumber: 1, Name: "Run", Exercises: []models.NewPlanExercise{{Name: "Easy Run", Sets: 1, Reps: "20 min"}}}},
	})
	require.NoError(t, err)

	provider := llm.NewMockProvider("  Nice start! Add some protein at lunch.  ")
	reply, err := Chat(context.Background(), db, provider, u.ID, "How am I doing?", noon)
	require.NoError(t, err)

	assert.Equal(t, models.RoleAssistant, reply.Role)
	assert.Equal(t, "Nice start! Add some protein at lunch.", reply.Content)
	assert.Equal(t, "2026-03-15", reply.Date)

	calls := provider.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].SystemPrompt, "1 meal (450 kcal, 25g protein)")
	assert.Contains(t, calls[0].SystemPrompt, "Active plan: Couch to 5K.")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(strings.Split(calls[0].UserPrompt, "\n\nReply")[0]), "User: How am I doing?"))

	history, err := models.ListCoachMessages(db, u.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.RoleUser, history[0].Role)
	assert.Equal(t, models.RoleAssistant, history[1].Role)
}

func TestChat_HistoryIsBounded(t *testing.T) {
	db := testDB(t)
	u, err := models.CreateUser(db, "longtalk", "password123", "", "UTC")
	require.NoError(t, err)
	for i := 0; i < ChatHistoryLimit+5; i++ {
		_, err := models.CreateCoachMessage(db, u.ID, models.RoleUser, "old message", "", "2026-03-14")
		require.NoError(t, err)
	}

	provider := llm.NewMockProvider("ok")
	_, err = Chat(context.Background(), db, provider, u.ID, "latest", noon)
	require.NoError(t, err)

	prompt := provider.Calls()[0].UserPrompt
	assert.Equal(t, ChatHistoryLimit, strings.Count(prompt, "User: "))
	assert.Contains(t, prompt, "User: latest")
}

func TestChat_Errors(t *testing.T) {
	db := testDB(t)
	u, err := models.CreateUser(db, "errs", "password123", "", "UTC")
	require.NoError(t, err)

	_, err = Chat(context.Background(), db, llm.NewMockProvider("hi"), u.ID, "   ", noon)
	assert.ErrorIs(t, err, ErrEmptyMessage)

	apiErr := &llm.APIError{Provider: "Mock", StatusCode: 500, Message: "down"}
	_, err = Chat(context.Background(), db, &llm.MockProvider{GenerateErr: apiErr}, u.ID, "hello", noon)
	var got *llm.APIError
	assert.True(t, errors.As(err, &got))

	_, err = Chat(context.Background(), db, llm.NewMockProvider("   "), u.ID, "hello", noon)
	assert.Error(t, err)

	// The user's messages are kept even when no reply came back.
	history, err := models.ListCoachMessages(db, u.ID, 10)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

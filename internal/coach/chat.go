package coach

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/carpenike/fitcoach/internal/llm"
	"github.com/carpenike/fitcoach/internal/models"
)

// ChatHistoryLimit is how many prior messages are sent with each chat turn.
const ChatHistoryLimit = 20

// ErrEmptyMessage is returned when a chat message has no content.
var ErrEmptyMessage = errors.New("coach: empty message")

// Chat records the user's message, asks the provider for a reply grounded in
// the user's recent history, and stores the reply. now should carry the
// user's location.
func Chat(ctx context.Context, db *sql.DB, provider llm.Provider, userID int64, message string, now time.Time) (*models.CoachMessage, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	today := models.CalendarDate(now)

	if _, err := models.CreateCoachMessage(db, userID, models.RoleUser, message, "", today); err != nil {
		return nil, err
	}

	cc, err := BuildContext(ctx, DBSource{DB: db}, userID, now)
	if err != nil {
		return nil, err
	}

	planName := ""
	plan, err := models.GetActivePlan(db, userID)
	switch {
	case err == nil:
		planName = plan.Name
	case !errors.Is(err, models.ErrNotFound):
		return nil, err
	}

	history, err := models.ListCoachMessages(db, userID, ChatHistoryLimit)
	if err != nil {
		return nil, err
	}

	resp, err := provider.Generate(ctx, buildChatSystemPrompt(cc, planName), buildChatUserPrompt(history), llm.Options{
		Temperature: llm.TemperatureFromSettings(db),
		MaxTokens:   1024,
	})
	if err != nil {
		return nil, fmt.Errorf("coach: chat with %s: %w", provider.Name(), err)
	}

	reply := strings.TrimSpace(resp.Content)
	if reply == "" {
		return nil, fmt.Errorf("coach: %s returned an empty reply", provider.Name())
	}

	msg, err := models.CreateCoachMessage(db, userID, models.RoleAssistant, reply, "", today)
	if err != nil {
		return nil, err
	}
	zap.S().Debugf("coach: chat reply for user %d (%s, %d tokens)", userID, resp.Model, resp.TokensUsed)
	return msg, nil
}

func buildChatSystemPrompt(cc *Context, planName string) string {
	var b strings.Builder
	b.WriteString(`You are a friendly, practical fitness and nutrition coach inside a tracking app.
Answer in a few short sentences. Ground advice in the user's logged data below.
Do not diagnose medical conditions; suggest a professional when health concerns come up.

`)
	b.WriteString("RECENT ACTIVITY:\n")
	b.WriteString(cc.Summary)
	b.WriteString("\n")
	if cc.Streak != nil {
		fmt.Fprintf(&b, "Longest streak: %d days. Total workouts: %d.\n", cc.Streak.LongestStreak, cc.Streak.TotalWorkouts)
	}
	if planName != "" {
		fmt.Fprintf(&b, "Active plan: %s.\n", planName)
	} else {
		b.WriteString("No active workout plan.\n")
	}
	fmt.Fprintf(&b, "Local time: %s.\n", cc.Now.Format("Monday 15:04"))
	return b.String()
}

func buildChatUserPrompt(history []*models.CoachMessage) string {
	var b strings.Builder
	b.WriteString("CONVERSATION (oldest first):\n")
	for _, m := range history {
		speaker := "User"
		if m.Role == models.RoleAssistant {
			speaker = "Coach"
		}
		fmt.Fprintf(&b, "%s: %s\n", speaker, m.Content)
	}
	b.WriteString("\nReply as Coach to the user's last message.")
	return b.String()
}

package coach

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/carpenike/fitcoach/internal/models"
)

// ContextWindow is how far back the coach looks at meals and activities.
const ContextWindow = 48 * time.Hour

// Source supplies the recent history the coach context is built from.
type Source interface {
	RecentMeals(ctx context.Context, userID int64, since time.Time) ([]*models.Meal, error)
	RecentActivities(ctx context.Context, userID int64, since time.Time) ([]*models.Activity, error)
	CompletedSessionsSince(ctx context.Context, userID int64, since time.Time) (int, error)
	CompletedSessionDates(ctx context.Context, userID int64) ([]models.SessionDate, error)
}

// DBSource reads coach history from the application database.
type DBSource struct {
	DB *sql.DB
}

func (s DBSource) RecentMeals(_ context.Context, userID int64, since time.Time) ([]*models.Meal, error) {
	return models.ListMeals(s.DB, userID, since)
}

func (s DBSource) RecentActivities(_ context.Context, userID int64, since time.Time) ([]*models.Activity, error) {
	return models.ListActivities(s.DB, userID, since)
}

func (s DBSource) CompletedSessionsSince(_ context.Context, userID int64, since time.Time) (int, error) {
	return models.CountCompletedSessionsSince(s.DB, userID, since)
}

func (s DBSource) CompletedSessionDates(_ context.Context, userID int64) ([]models.SessionDate, error) {
	return models.CompletedSessionDates(s.DB, userID)
}

// Context is the coach's view of a user's last ContextWindow.
type Context struct {
	UserID             int64              `json:"user_id"`
	Now                time.Time          `json:"now"`
	RecentMeals        []*models.Meal     `json:"recent_meals"`
	RecentActivities   []*models.Activity `json:"recent_activities"`
	RecentSessionCount int                `json:"recent_session_count"`
	CaloriesIn         float64            `json:"calories_in"`
	CaloriesOut        float64            `json:"calories_out"`
	ProteinGrams       float64            `json:"protein_grams"`
	Streak             *models.Streak     `json:"streak"`
	Summary            string             `json:"summary"`
}

// BuildContext gathers the user's recent meals, activities, sessions and
// streak. now should carry the user's location. Any fetch failure is returned.
func BuildContext(ctx context.Context, src Source, userID int64, now time.Time) (*Context, error) {
	since := now.Add(-ContextWindow)
	c := &Context{UserID: userID, Now: now}

	var dates []models.SessionDate
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		c.RecentMeals, err = src.RecentMeals(gctx, userID, since)
		return err
	})
	g.Go(func() (err error) {
		c.RecentActivities, err = src.RecentActivities(gctx, userID, since)
		return err
	})
	g.Go(func() (err error) {
		c.RecentSessionCount, err = src.CompletedSessionsSince(gctx, userID, since)
		return err
	})
	g.Go(func() (err error) {
		dates, err = src.CompletedSessionDates(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("coach: build context for user %d: %w", userID, err)
	}

	streak, err := models.ComputeStreak(dates, now)
	if err != nil {
		return nil, fmt.Errorf("coach: streak for user %d: %w", userID, err)
	}
	c.Streak = streak

	for _, m := range c.RecentMeals {
		c.CaloriesIn += m.Calories
		c.ProteinGrams += m.ProteinG
	}
	for _, a := range c.RecentActivities {
		c.CaloriesOut += a.CaloriesBurned
	}
	if c.RecentMeals == nil {
		c.RecentMeals = []*models.Meal{}
	}
	if c.RecentActivities == nil {
		c.RecentActivities = []*models.Activity{}
	}
	c.Summary = c.summarize()
	return c, nil
}

// Snapshot derives the proactive selector input at now. Only meals on now's
// calendar date count toward today; workouts are activities plus completed
// sessions in the whole window.
func (c *Context) Snapshot(now time.Time) Snapshot {
	today := models.CalendarDate(now)
	s := Snapshot{
		Hour:               now.Hour(),
		TodayMealTypes:     []string{},
		RecentWorkoutCount: len(c.RecentActivities) + c.RecentSessionCount,
	}
	for _, m := range c.RecentMeals {
		if m.Date != today {
			continue
		}
		s.TodayMealTypes = append(s.TodayMealTypes, m.MealType)
		s.TodayProteinGrams += m.ProteinG
	}
	return s
}

func (c *Context) summarize() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Last 48 hours: %s (%s kcal, %sg protein), %s (%s kcal burned).",
		plural(len(c.RecentMeals), "meal", "meals"),
		humanize.Comma(int64(c.CaloriesIn+0.5)),
		humanize.Comma(int64(c.ProteinGrams+0.5)),
		plural(len(c.RecentActivities), "activity", "activities"),
		humanize.Comma(int64(c.CaloriesOut+0.5)),
	)
	if c.RecentSessionCount > 0 {
		fmt.Fprintf(&b, " %s completed.", plural(c.RecentSessionCount, "workout session", "workout sessions"))
	}
	if c.Streak != nil {
		fmt.Fprintf(&b, " Current streak: %s.", plural(c.Streak.CurrentStreak, "day", "days"))
		if c.Streak.LastWorkoutDate != "" && c.Streak.CurrentStreak == 0 {
			if last, err := time.ParseInLocation(models.DateLayout, c.Streak.LastWorkoutDate, c.Now.Location()); err == nil {
				fmt.Fprintf(&b, " Last workout %s.", humanize.RelTime(last, c.Now, "ago", "from now"))
			}
		}
	}
	return b.String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return fmt.Sprintf("%d %s", n, many)
}

package models

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrInvalidDateFormat is returned when a session date is not a YYYY-MM-DD
// calendar date.
var ErrInvalidDateFormat = errors.New("invalid date format")

// SessionDate is one calendar date on which a user completed at least one
// workout session.
type SessionDate struct {
	Date         string `json:"date"`          // YYYY-MM-DD
	SessionCount int    `json:"session_count"` // raw completed sessions that day
}

// Streak is derived from completed-session dates and never persisted.
type Streak struct {
	CurrentStreak   int      `json:"current_streak"`
	LongestStreak   int      `json:"longest_streak"`
	LastWorkoutDate string   `json:"last_workout_date"`
	TotalWorkouts   int      `json:"total_workouts"`
	WorkoutDates    []string `json:"workout_dates"` // unique, most recent first
}

// ComputeStreak derives current and longest consecutive-day streaks.
//
// The current streak is same-day inclusive: counting starts at today's
// calendar date and walks backward only while each day is present. A user
// whose last session was yesterday has a current streak of 0 until today is
// logged. Dates repeated in the input collapse into one entry, and their
// session counts are summed into TotalWorkouts. Entries with a count below
// one still count as a single session.
func ComputeStreak(dates []SessionDate, today time.Time) (*Streak, error) {
	parsed := make(map[string]time.Time, len(dates))
	total := 0
	for _, sd := range dates {
		d, err := time.Parse(DateLayout, sd.Date)
		if err != nil {
			return nil, fmt.Errorf("models: streak date %q: %w", sd.Date, ErrInvalidDateFormat)
		}
		parsed[d.Format(DateLayout)] = d
		total += max(sd.SessionCount, 1)
	}

	s := &Streak{WorkoutDates: make([]string, 0, len(parsed))}
	if len(parsed) == 0 {
		return s, nil
	}

	for d := range parsed {
		s.WorkoutDates = append(s.WorkoutDates, d)
	}
	// YYYY-MM-DD sorts lexically in calendar order.
	sort.Sort(sort.Reverse(sort.StringSlice(s.WorkoutDates)))

	s.LastWorkoutDate = s.WorkoutDates[0]
	s.TotalWorkouts = total

	cursor := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	for _, d := range s.WorkoutDates {
		if d != cursor.Format(DateLayout) {
			break
		}
		s.CurrentStreak++
		cursor = cursor.AddDate(0, 0, -1)
	}

	run := 1
	for i := 1; i < len(s.WorkoutDates); i++ {
		prev := parsed[s.WorkoutDates[i-1]]
		cur := parsed[s.WorkoutDates[i]]
		if prev.AddDate(0, 0, -1).Equal(cur) {
			run++
			continue
		}
		s.LongestStreak = max(s.LongestStreak, run)
		run = 1
	}
	s.LongestStreak = max(s.LongestStreak, run)

	return s, nil
}

// CompletedSessionDates returns each date on which the user completed at
// least one session, with the number of completed sessions on that date.
func CompletedSessionDates(db *sql.DB, userID int64) ([]SessionDate, error) {
	rows, err := db.Query(
		`SELECT date, COUNT(*)
		 FROM workout_sessions
		 WHERE user_id = ? AND completed_at IS NOT NULL
		 GROUP BY date
		 ORDER BY date DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("models: completed session dates for user %d: %w", userID, err)
	}
	defer rows.Close()

	var dates []SessionDate
	for rows.Next() {
		var sd SessionDate
		if err := rows.Scan(&sd.Date, &sd.SessionCount); err != nil {
			return nil, fmt.Errorf("models: scan session date: %w", err)
		}
		sd.Date = normalizeDate(sd.Date)
		dates = append(dates, sd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("models: iterate session dates: %w", err)
	}
	return dates, nil
}

// GetStreak loads the user's completed-session dates and computes the streak
// relative to today. Fetch failures are returned, never reported as zero.
func GetStreak(db *sql.DB, userID int64, today time.Time) (*Streak, error) {
	dates, err := CompletedSessionDates(db, userID)
	if err != nil {
		return nil, err
	}
	return ComputeStreak(dates, today)
}

// WeeklyAdherence is one week's completed sessions against the active plan's
// target days per week.
type WeeklyAdherence struct {
	WeekStart string `json:"week_start"` // Monday (YYYY-MM-DD)
	WeekEnd   string `json:"week_end"`   // Sunday (YYYY-MM-DD)
	Target    int    `json:"target"`
	Completed int    `json:"completed"`
}

// Status classifies the week: "complete", "partial", "missed", or "none".
func (wa *WeeklyAdherence) Status() string {
	if wa.Target == 0 {
		return "none"
	}
	if wa.Completed >= wa.Target {
		return "complete"
	}
	if wa.Completed > 0 {
		return "partial"
	}
	return "missed"
}

// Label returns a short display label such as "2/4".
func (wa *WeeklyAdherence) Label() string {
	if wa.Target == 0 {
		return fmt.Sprintf("%d", wa.Completed)
	}
	return fmt.Sprintf("%d/%d", wa.Completed, wa.Target)
}

// WeeklyAdherenceHistory returns the last `weeks` Monday–Sunday weeks, oldest
// first, including the current week. The target is the active plan's days per
// week (0 without an active plan) and applies to every week.
func WeeklyAdherenceHistory(db *sql.DB, userID int64, weeks int, today time.Time) ([]*WeeklyAdherence, error) {
	if weeks <= 0 {
		weeks = 8
	}

	weekday := today.Weekday()
	if weekday == time.Sunday {
		weekday = 7
	}
	monday := today.AddDate(0, 0, -int(weekday-time.Monday))
	monday = time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, time.UTC)

	target := 0
	plan, err := GetActivePlan(db, userID)
	switch {
	case err == nil:
		target = plan.DaysPerWeek
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}

	history := make([]*WeeklyAdherence, weeks)
	startMonday := monday.AddDate(0, 0, -(weeks-1)*7)
	for i := 0; i < weeks; i++ {
		weekStart := startMonday.AddDate(0, 0, i*7)
		history[i] = &WeeklyAdherence{
			WeekStart: weekStart.Format(DateLayout),
			WeekEnd:   weekStart.AddDate(0, 0, 6).Format(DateLayout),
			Target:    target,
		}
	}

	rows, err := db.Query(
		`SELECT date, COUNT(*)
		 FROM workout_sessions
		 WHERE user_id = ? AND completed_at IS NOT NULL
		   AND date >= ? AND date <= ?
		 GROUP BY date`,
		userID, startMonday.Format(DateLayout), monday.AddDate(0, 0, 6).Format(DateLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("models: weekly adherence for user %d: %w", userID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var dateStr string
		var count int
		if err := rows.Scan(&dateStr, &count); err != nil {
			return nil, fmt.Errorf("models: scan adherence row: %w", err)
		}
		d, err := time.Parse(DateLayout, normalizeDate(dateStr))
		if err != nil {
			continue
		}
		idx := int(d.Sub(startMonday).Hours()/24) / 7
		if idx < 0 || idx >= weeks {
			continue
		}
		history[idx].Completed += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("models: iterate adherence rows: %w", err)
	}

	return history, nil
}

package models

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrSessionCompleted is returned when completing a session twice.
var ErrSessionCompleted = errors.New("session already completed")

// Session is one workout session. A session counts toward streaks once it
// is completed; a user may complete several sessions on the same date.
type Session struct {
	ID              int64      `json:"id"`
	UserID          int64      `json:"user_id"`
	PlanDayID       *int64     `json:"plan_day_id,omitempty"`
	Date            string     `json:"date"` // YYYY-MM-DD in the user's time zone
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
	Notes           string     `json:"notes,omitempty"`

	// Joined fields.
	PlanDayName string    `json:"plan_day_name,omitempty"`
	SetCount    int       `json:"set_count"`
	Sets        []*SetLog `json:"sets,omitempty"`
}

// Completed reports whether the session has been marked complete.
func (s *Session) Completed() bool {
	return s.CompletedAt != nil
}

const sessionSelect = `
	SELECT s.id, s.user_id, s.plan_day_id, s.date, s.started_at, s.completed_at, s.duration_minutes, s.notes,
	       COALESCE(pd.name, ''),
	       (SELECT COUNT(*) FROM set_logs sl WHERE sl.session_id = s.id)
	FROM workout_sessions s
	LEFT JOIN plan_days pd ON pd.id = s.plan_day_id`

func scanSession(row interface{ Scan(...any) error }) (*Session, error) {
	s := &Session{}
	var (
		planDayID   sql.NullInt64
		completedAt sql.NullTime
		duration    sql.NullInt64
		notes       sql.NullString
	)
	err := row.Scan(&s.ID, &s.UserID, &planDayID, &s.Date, &s.StartedAt, &completedAt, &duration, &notes,
		&s.PlanDayName, &s.SetCount)
	if err != nil {
		return nil, err
	}
	s.Date = normalizeDate(s.Date)
	if planDayID.Valid {
		s.PlanDayID = &planDayID.Int64
	}
	if completedAt.Valid {
		t := completedAt.Time
		s.CompletedAt = &t
	}
	if duration.Valid {
		d := int(duration.Int64)
		s.DurationMinutes = &d
	}
	s.Notes = notes.String
	return s, nil
}

// StartSession opens a new session for the user on the given date.
func StartSession(db *sql.DB, userID int64, planDayID *int64, date, notes string, startedAt time.Time) (*Session, error) {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return nil, fmt.Errorf("models: session date %q: %w", date, ErrInvalidDateFormat)
	}

	var dayVal sql.NullInt64
	if planDayID != nil {
		dayVal = sql.NullInt64{Int64: *planDayID, Valid: true}
	}

	var id int64
	err := db.QueryRow(
		`INSERT INTO workout_sessions (user_id, plan_day_id, date, started_at, notes) VALUES (?, ?, ?, ?, ?) RETURNING id`,
		userID, dayVal, date, startedAt.UTC(), nullString(notes),
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("models: start session for user %d on %s: %w", userID, date, err)
	}
	return GetSession(db, userID, id)
}

// GetSession retrieves one of the user's sessions with its set logs.
func GetSession(db *sql.DB, userID, id int64) (*Session, error) {
	s, err := scanSession(db.QueryRow(sessionSelect+` WHERE s.id = ? AND s.user_id = ?`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("models: get session %d: %w", id, err)
	}
	if s.Sets, err = ListSetLogs(db, s.ID); err != nil {
		return nil, err
	}
	return s, nil
}

// CompleteSession marks a session complete at completedAt. When duration is
// nil it is derived from the session's start time.
func CompleteSession(db *sql.DB, userID, id int64, completedAt time.Time, duration *int) (*Session, error) {
	s, err := GetSession(db, userID, id)
	if err != nil {
		return nil, err
	}
	if s.Completed() {
		return nil, ErrSessionCompleted
	}

	minutes := 0
	if duration != nil {
		minutes = *duration
	} else if elapsed := completedAt.Sub(s.StartedAt); elapsed > 0 {
		minutes = int(elapsed.Round(time.Minute) / time.Minute)
	}

	_, err = db.Exec(
		`UPDATE workout_sessions SET completed_at = ?, duration_minutes = ? WHERE id = ? AND user_id = ?`,
		completedAt.UTC(), minutes, id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("models: complete session %d: %w", id, err)
	}
	return GetSession(db, userID, id)
}

// DeleteSession removes a session and its set logs (CASCADE).
func DeleteSession(db *sql.DB, userID, id int64) error {
	result, err := db.Exec(`DELETE FROM workout_sessions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("models: delete session %d: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// SessionPageSize is the number of sessions returned per page.
const SessionPageSize = 50

// SessionPage holds a page of sessions and whether more rows exist.
type SessionPage struct {
	Sessions []*Session `json:"sessions"`
	HasMore  bool       `json:"has_more"`
}

// ListSessions returns the user's sessions, most recent first. Pass offset=0
// for the first page. Set logs are not loaded.
func ListSessions(db *sql.DB, userID int64, offset int) (*SessionPage, error) {
	rows, err := db.Query(sessionSelect+`
		WHERE s.user_id = ?
		ORDER BY s.date DESC, s.started_at DESC
		LIMIT ? OFFSET ?`, userID, SessionPageSize+1, offset)
	if err != nil {
		return nil, fmt.Errorf("models: list sessions for user %d: %w", userID, err)
	}
	defer rows.Close()

	sessions := []*Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("models: scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	hasMore := len(sessions) > SessionPageSize
	if hasMore {
		sessions = sessions[:SessionPageSize]
	}
	return &SessionPage{Sessions: sessions, HasMore: hasMore}, nil
}

// CountCompletedSessionsSince counts the user's sessions completed at or after since.
func CountCompletedSessionsSince(db *sql.DB, userID int64, since time.Time) (int, error) {
	var n int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM workout_sessions WHERE user_id = ? AND completed_at IS NOT NULL AND completed_at >= ?`,
		userID, since.UTC(),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("models: count sessions since %s for user %d: %w", since.Format(time.RFC3339), userID, err)
	}
	return n, nil
}

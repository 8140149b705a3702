package models

import (
	"database/sql"
	"fmt"
	"time"
)

// Coach message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// CoachMessage is one entry in a user's coach conversation. Proactive nudges
// are assistant messages with NudgeKind set.
type CoachMessage struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	NudgeKind string    `json:"nudge_kind,omitempty"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateCoachMessage stores a message. date is the user's calendar date.
func CreateCoachMessage(db *sql.DB, userID int64, role, content, nudgeKind, date string) (*CoachMessage, error) {
	if role != RoleUser && role != RoleAssistant {
		return nil, fmt.Errorf("models: coach message role %q: %w", role, ErrInvalidInput)
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return nil, fmt.Errorf("models: coach message date %q: %w", date, ErrInvalidDateFormat)
	}

	m := &CoachMessage{}
	var kind sql.NullString
	err := db.QueryRow(
		`INSERT INTO coach_messages (user_id, role, content, nudge_kind, date)
		 VALUES (?, ?, ?, ?, ?)
		 RETURNING id, user_id, role, content, nudge_kind, date, created_at`,
		userID, role, content, nullString(nudgeKind), date,
	).Scan(&m.ID, &m.UserID, &m.Role, &m.Content, &kind, &m.Date, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("models: create coach message for user %d: %w", userID, err)
	}
	m.NudgeKind = kind.String
	m.Date = normalizeDate(m.Date)
	return m, nil
}

// ListCoachMessages returns the user's most recent messages in chronological
// order, at most limit of them.
func ListCoachMessages(db *sql.DB, userID int64, limit int) ([]*CoachMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(
		`SELECT id, user_id, role, content, nudge_kind, date, created_at FROM (
		   SELECT * FROM coach_messages WHERE user_id = ? ORDER BY id DESC LIMIT ?
		 ) ORDER BY id ASC`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("models: list coach messages for user %d: %w", userID, err)
	}
	defer rows.Close()

	messages := []*CoachMessage{}
	for rows.Next() {
		m := &CoachMessage{}
		var kind sql.NullString
		if err := rows.Scan(&m.ID, &m.UserID, &m.Role, &m.Content, &kind, &m.Date, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("models: scan coach message: %w", err)
		}
		m.NudgeKind = kind.String
		m.Date = normalizeDate(m.Date)
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// HasProactiveToday reports whether a nudge of the given kind was already
// stored for the user on date.
func HasProactiveToday(db *sql.DB, userID int64, kind, date string) (bool, error) {
	var n int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM coach_messages WHERE user_id = ? AND nudge_kind = ? AND date = ?`,
		userID, kind, date,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("models: check nudge %q for user %d: %w", kind, userID, err)
	}
	return n > 0, nil
}

// DeleteOldCoachMessages prunes messages created before cutoff for all users.
func DeleteOldCoachMessages(db *sql.DB, cutoff time.Time) (int64, error) {
	result, err := db.Exec(`DELETE FROM coach_messages WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("models: prune coach messages: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

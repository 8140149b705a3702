package models

import (
	"database/sql"
	"testing"
	"time"

	"github.com/carpenike/fitcoach/internal/database"
)

// testDB creates a fresh in-memory SQLite database with migrations applied.
func testDB(t testing.TB) *sql.DB {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := database.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// testUser creates a user with a throwaway password.
func testUser(t testing.TB, db *sql.DB, username string) *User {
	t.Helper()
	u, err := CreateUser(db, username, "password123", "", "UTC")
	if err != nil {
		t.Fatalf("create user %q: %v", username, err)
	}
	return u
}

// completeSessionOn starts and completes a session on date.
func completeSessionOn(t testing.TB, db *sql.DB, userID int64, date string) *Session {
	t.Helper()
	s, err := StartSession(db, userID, nil, date, "", mustTime(t, date+"T10:00:00Z"))
	if err != nil {
		t.Fatalf("start session %s: %v", date, err)
	}
	s, err = CompleteSession(db, userID, s.ID, mustTime(t, date+"T11:00:00Z"), nil)
	if err != nil {
		t.Fatalf("complete session %s: %v", date, err)
	}
	return s
}

// mustTime parses an RFC 3339 timestamp.
func mustTime(t testing.TB, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse time %q: %v", s, err)
	}
	return ts
}

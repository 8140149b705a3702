package models

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ErrNotFound is returned when a query finds no matching row.
var ErrNotFound = errors.New("not found")

// ErrDuplicateUsername is returned when a username already exists.
var ErrDuplicateUsername = errors.New("duplicate username")

// ErrInvalidCredentials is returned when a username/password pair does not match.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrInvalidInput is returned when a field fails model-level validation.
var ErrInvalidInput = errors.New("invalid input")

// User represents a login account in the system.
type User struct {
	ID           int64          `json:"id"`
	Username     string         `json:"username"`
	Email        sql.NullString `json:"-"`
	PasswordHash string         `json:"-"`
	Timezone     string         `json:"timezone"`
	NotifyURL    sql.NullString `json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Location returns the user's configured time zone, falling back to UTC
// when the stored name is unknown to the tz database.
func (u *User) Location() *time.Location {
	if u.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(u.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// HashPassword generates a bcrypt hash of the given plaintext password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("models: hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

const userColumns = `id, username, email, password_hash, timezone, notify_url, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	u := &User{}
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Timezone, &u.NotifyURL, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// CreateUser inserts a new user. Returns ErrDuplicateUsername if the username
// is already taken. An empty timezone is stored as UTC.
func CreateUser(db *sql.DB, username, password, email, timezone string) (*User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	if timezone == "" {
		timezone = "UTC"
	}

	var id int64
	err = db.QueryRow(
		`INSERT INTO users (username, email, password_hash, timezone) VALUES (?, ?, ?, ?) RETURNING id`,
		username, nullString(email), hash, timezone,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("models: create user %q: %w", username, err)
	}

	return GetUserByID(db, id)
}

// GetUserByID retrieves a user by primary key.
func GetUserByID(db *sql.DB, id int64) (*User, error) {
	u, err := scanUser(db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("models: get user %d: %w", id, err)
	}
	return u, nil
}

// GetUserByUsername retrieves a user by username (case-insensitive).
func GetUserByUsername(db *sql.DB, username string) (*User, error) {
	u, err := scanUser(db.QueryRow(`SELECT `+userColumns+` FROM users WHERE username = ?`, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("models: get user %q: %w", username, err)
	}
	return u, nil
}

// Authenticate verifies a username/password pair and returns the user.
// Unknown usernames and wrong passwords both yield ErrInvalidCredentials.
func Authenticate(db *sql.DB, username, password string) (*User, error) {
	u, err := GetUserByUsername(db, username)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// CountUsers returns the total number of users.
func CountUsers(db *sql.DB) (int, error) {
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("models: count users: %w", err)
	}
	return count, nil
}

// UpdateUserNotify sets the user's Shoutrrr notification URL and time zone.
// An empty URL disables proactive push notifications.
func UpdateUserNotify(db *sql.DB, id int64, notifyURL, timezone string) error {
	if timezone == "" {
		timezone = "UTC"
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return fmt.Errorf("models: invalid timezone %q: %w", timezone, ErrInvalidInput)
	}

	result, err := db.Exec(`UPDATE users SET notify_url = ?, timezone = ? WHERE id = ?`,
		nullString(notifyURL), timezone, id)
	if err != nil {
		return fmt.Errorf("models: update user %d notify: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// ListUsersWithNotify returns every user with a notification URL configured.
func ListUsersWithNotify(db *sql.DB) ([]*User, error) {
	rows, err := db.Query(`SELECT ` + userColumns + ` FROM users WHERE notify_url IS NOT NULL AND notify_url != '' ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("models: list users with notify: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("models: scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/carpenike/fitcoach/internal/database"
	"github.com/carpenike/fitcoach/internal/middleware"
	"github.com/carpenike/fitcoach/internal/models"
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

// testSessionManager creates a cookie-based in-memory session manager for tests.
func testSessionManager() *scs.SessionManager {
	sm := scs.New()
	sm.Lifetime = 30 * 24 * time.Hour
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	return sm
}

// fixedClock pins handler "now" for tests.
func fixedClock(rfc3339 string) Clock {
	ts, err := time.Parse(time.RFC3339, rfc3339)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return ts }
}

// seedUser creates a user in the given time zone.
func seedUser(t testing.TB, db *sql.DB, username, tz string) *models.User {
	t.Helper()
	user, err := models.CreateUser(db, username, "password123", "", tz)
	if err != nil {
		t.Fatalf("seed user %q: %v", username, err)
	}
	return user
}

// requestWithUser builds a request with a JSON body and the authenticated
// user in context. params are chi URL parameters as key/value pairs.
func requestWithUser(method, target string, body any, user *models.User, params ...string) *http.Request {
	var r *http.Request
	if body != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			panic(err)
		}
		r = httptest.NewRequest(method, target, &buf)
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, target, nil)
	}

	ctx := r.Context()
	if user != nil {
		ctx = middleware.WithUser(ctx, user)
	}
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for i := 0; i+1 < len(params); i += 2 {
			rctx.URLParams.Add(params[i], params[i+1])
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return r.WithContext(ctx)
}

// decodeBody decodes a JSON response into v.
func decodeBody(t testing.TB, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
}

// errorBody returns the "error" field of a JSON error response.
func errorBody(t testing.TB, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	decodeBody(t, rr, &body)
	s, _ := body["error"].(string)
	return s
}

// itoa is a shorthand for strconv.FormatInt used in test URLs.
func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

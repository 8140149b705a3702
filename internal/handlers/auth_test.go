package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRegister(t *testing.T) {
	db := testDB(t)
	sm := testSessionManager()
	h := &Auth{DB: db, Sessions: sm}
	handler := sm.LoadAndSave(http.HandlerFunc(h.Register))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, requestWithUser("POST", "/api/register", map[string]string{
		"username": "runner", "password": "longenough", "timezone": "Europe/Paris",
	}, nil))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(rr.Result().Cookies()) == 0 {
		t.Error("expected a session cookie")
	}
	var me map[string]any
	decodeBody(t, rr, &me)
	if me["username"] != "runner" || me["timezone"] != "Europe/Paris" {
		t.Errorf("response = %v", me)
	}
	if _, leaked := me["password_hash"]; leaked {
		t.Error("password hash must not be serialized")
	}

	// Same name, different case.
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, requestWithUser("POST", "/api/register", map[string]string{
		"username": "Runner", "password": "longenough",
	}, nil))
	if rr.Code != http.StatusConflict {
		t.Errorf("duplicate: expected 409, got %d", rr.Code)
	}
}

func TestRegister_Validation(t *testing.T) {
	db := testDB(t)
	sm := testSessionManager()
	h := &Auth{DB: db, Sessions: sm}

	tests := []struct {
		name string
		body any
		want string
	}{
		{"short password", map[string]string{"username": "abc", "password": "short"}, "password must be at least 8"},
		{"missing username", map[string]string{"password": "longenough"}, "username is required"},
		{"bad timezone", map[string]string{"username": "abc", "password": "longenough", "timezone": "Mars/Olympus"}, "timezone is invalid"},
		{"unknown field", map[string]any{"username": "abc", "password": "longenough", "admin": true}, "unknown field"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			sm.LoadAndSave(http.HandlerFunc(h.Register)).ServeHTTP(rr, requestWithUser("POST", "/api/register", tt.body, nil))
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rr.Code)
			}
			if msg := errorBody(t, rr); !strings.Contains(msg, tt.want) {
				t.Errorf("error = %q, want it to contain %q", msg, tt.want)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	db := testDB(t)
	sm := testSessionManager()
	seedUser(t, db, "lifter", "UTC")
	h := &Auth{DB: db, Sessions: sm}
	handler := sm.LoadAndSave(http.HandlerFunc(h.Login))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, requestWithUser("POST", "/api/login", map[string]string{
		"username": "LIFTER", "password": "password123",
	}, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, requestWithUser("POST", "/api/login", map[string]string{
		"username": "lifter", "password": "wrong-password",
	}, nil))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("wrong password: expected 401, got %d", rr.Code)
	}
}

func TestUpdateNotify(t *testing.T) {
	db := testDB(t)
	user := seedUser(t, db, "notified", "UTC")
	h := &Auth{DB: db, Sessions: testSessionManager()}

	rr := httptest.NewRecorder()
	h.UpdateNotify(rr, requestWithUser("PUT", "/api/me/notify", map[string]string{
		"notify_url": "ntfy://ntfy.sh/mytopic", "timezone": "America/New_York",
	}, user))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var me map[string]any
	decodeBody(t, rr, &me)
	if me["notify_configured"] != true || me["timezone"] != "America/New_York" {
		t.Errorf("response = %v", me)
	}

	rr = httptest.NewRecorder()
	h.TestNotify(rr, requestWithUser("POST", "/api/me/notify/test", nil, seedUser(t, db, "silent", "UTC")))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("test without URL: expected 400, got %d", rr.Code)
	}
}

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/carpenike/fitcoach/internal/models"
)

func startSession(t *testing.T, h *Sessions, user *models.User, body map[string]any) *models.Session {
	t.Helper()
	rr := httptest.NewRecorder()
	h.Start(rr, requestWithUser("POST", "/api/sessions", body, user))
	if rr.Code != http.StatusCreated {
		t.Fatalf("start session: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var s models.Session
	decodeBody(t, rr, &s)
	return &s
}

func TestSessions_StartUsesLocalDate(t *testing.T) {
	db := testDB(t)
	// 23:30 UTC is already the next day in Tokyo.
	user := seedUser(t, db, "tokyo", "Asia/Tokyo")
	h := &Sessions{DB: db, Now: fixedClock("2026-03-15T23:30:00Z")}

	s := startSession(t, h, user, map[string]any{})
	if s.Date != "2026-03-16" {
		t.Errorf("date = %q, want 2026-03-16", s.Date)
	}

	s = startSession(t, h, user, map[string]any{"date": "2026-03-10"})
	if s.Date != "2026-03-10" {
		t.Errorf("explicit date = %q", s.Date)
	}

	rr := httptest.NewRecorder()
	h.Start(rr, requestWithUser("POST", "/api/sessions", map[string]any{"date": "10/03/2026"}, user))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad date: expected 400, got %d", rr.Code)
	}
}

func TestSessions_CompleteReturnsStreak(t *testing.T) {
	db := testDB(t)
	user := seedUser(t, db, "streaker", "UTC")
	h := &Sessions{DB: db, Now: fixedClock("2026-03-15T18:00:00Z")}

	for _, date := range []string{"2026-03-14", "2026-03-15"} {
		s := startSession(t, h, user, map[string]any{"date": date})
		id := itoa(s.ID)
		rr := httptest.NewRecorder()
		h.Complete(rr, requestWithUser("POST", "/api/sessions/"+id+"/complete", map[string]any{"duration_minutes": 40}, user, "id", id))
		if rr.Code != http.StatusOK {
			t.Fatalf("complete: expected 200, got %d: %s", rr.Code, rr.Body.String())
		}
		var body struct {
			Session models.Session `json:"session"`
			Streak  models.Streak  `json:"streak"`
		}
		decodeBody(t, rr, &body)
		if !body.Session.Completed() {
			t.Errorf("session %s not completed", id)
		}
		if date == "2026-03-15" && body.Streak.CurrentStreak != 2 {
			t.Errorf("current streak = %d, want 2", body.Streak.CurrentStreak)
		}

		rr = httptest.NewRecorder()
		h.Complete(rr, requestWithUser("POST", "/api/sessions/"+id+"/complete", nil, user, "id", id))
		if rr.Code != http.StatusConflict {
			t.Errorf("second complete: expected 409, got %d", rr.Code)
		}
	}
}

func TestSessions_Sets(t *testing.T) {
	db := testDB(t)
	user := seedUser(t, db, "lifter", "UTC")
	h := &Sessions{DB: db, Now: fixedClock("2026-03-15T18:00:00Z")}
	s := startSession(t, h, user, map[string]any{})
	id := itoa(s.ID)

	rr := httptest.NewRecorder()
	h.AddSet(rr, requestWithUser("POST", "/api/sessions/"+id+"/sets",
		map[string]any{"exercise": "Bench Press", "reps": 8, "weight_kg": 60, "rpe": 8}, user, "id", id))
	if rr.Code != http.StatusCreated {
		t.Fatalf("add set: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var set models.SetLog
	decodeBody(t, rr, &set)

	rr = httptest.NewRecorder()
	h.AddSet(rr, requestWithUser("POST", "/api/sessions/"+id+"/sets",
		map[string]any{"exercise_id": 99999, "reps": 8}, user, "id", id))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("unknown exercise_id: expected 400, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.AddSet(rr, requestWithUser("POST", "/api/sessions/"+id+"/sets", map[string]any{"reps": 8}, user, "id", id))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("missing exercise: expected 400, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.Get(rr, requestWithUser("GET", "/api/sessions/"+id, nil, user, "id", id))
	var got models.Session
	decodeBody(t, rr, &got)
	if len(got.Sets) != 1 || got.Sets[0].ExerciseName != "Bench Press" {
		t.Errorf("sets = %+v", got.Sets)
	}

	setID := itoa(set.ID)
	rr = httptest.NewRecorder()
	h.DeleteSet(rr, requestWithUser("DELETE", "/api/sessions/"+id+"/sets/"+setID, nil, user, "id", id, "setID", setID))
	if rr.Code != http.StatusNoContent {
		t.Errorf("delete set: expected 204, got %d", rr.Code)
	}
}

func TestSessions_OwnerScoped(t *testing.T) {
	db := testDB(t)
	owner := seedUser(t, db, "mine", "UTC")
	other := seedUser(t, db, "theirs", "UTC")
	h := &Sessions{DB: db, Now: fixedClock("2026-03-15T18:00:00Z")}
	s := startSession(t, h, owner, map[string]any{})
	id := itoa(s.ID)

	setBody := map[string]any{"exercise": "Row", "reps": 5}
	for name, call := range map[string]func(*httptest.ResponseRecorder){
		"get": func(rr *httptest.ResponseRecorder) { h.Get(rr, requestWithUser("GET", "/", nil, other, "id", id)) },
		"complete": func(rr *httptest.ResponseRecorder) {
			h.Complete(rr, requestWithUser("POST", "/", nil, other, "id", id))
		},
		"delete": func(rr *httptest.ResponseRecorder) {
			h.Delete(rr, requestWithUser("DELETE", "/", nil, other, "id", id))
		},
		"add set": func(rr *httptest.ResponseRecorder) {
			h.AddSet(rr, requestWithUser("POST", "/", setBody, other, "id", id))
		},
	} {
		rr := httptest.NewRecorder()
		call(rr)
		if rr.Code != http.StatusNotFound {
			t.Errorf("%s by other user: expected 404, got %d", name, rr.Code)
		}
	}

	rr := httptest.NewRecorder()
	h.Start(rr, requestWithUser("POST", "/api/sessions", map[string]any{"plan_day_id": 12345}, other))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("foreign plan day: expected 400, got %d", rr.Code)
	}
}

func TestSessions_List(t *testing.T) {
	db := testDB(t)
	user := seedUser(t, db, "lister", "UTC")
	h := &Sessions{DB: db, Now: fixedClock("2026-03-15T18:00:00Z")}
	startSession(t, h, user, map[string]any{"date": "2026-03-13"})
	startSession(t, h, user, map[string]any{"date": "2026-03-14"})

	rr := httptest.NewRecorder()
	h.List(rr, requestWithUser("GET", "/api/sessions", nil, user))
	var page models.SessionPage
	decodeBody(t, rr, &page)
	if len(page.Sessions) != 2 || page.HasMore {
		t.Fatalf("page = %+v", page)
	}
	if page.Sessions[0].Date != "2026-03-14" {
		t.Errorf("first session date = %q, want most recent", page.Sessions[0].Date)
	}
}

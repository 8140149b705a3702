package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// csrfSession performs a GET to obtain a session cookie and token.
func csrfSession(t *testing.T, handler http.Handler) ([]*http.Cookie, string) {
	t.Helper()
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("GET: expected 200, got %d", rr.Code)
	}
	token := rr.Header().Get(CSRFHeader)
	if len(token) != 64 {
		t.Fatalf("expected 64-char token header, got %q", token)
	}
	return rr.Result().Cookies(), token
}

func TestCSRFProtect(t *testing.T) {
	sm := testSessionManager()
	var posted int
	handler := sm.LoadAndSave(CSRFProtect(sm, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			posted++
		}
		w.WriteHeader(http.StatusOK)
	})))

	cookies, token := csrfSession(t, handler)

	tests := []struct {
		name   string
		method string
		token  string
		want   int
	}{
		{"post with token", "POST", token, http.StatusOK},
		{"delete with token", "DELETE", token, http.StatusOK},
		{"post without token", "POST", "", http.StatusForbidden},
		{"put with wrong token", "PUT", "deadbeef", http.StatusForbidden},
		{"get needs no token", "GET", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", nil)
			for _, c := range cookies {
				req.AddCookie(c)
			}
			if tt.token != "" {
				req.Header.Set(CSRFHeader, tt.token)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
			if rr.Header().Get(CSRFHeader) != token {
				t.Error("token should be stable within a session")
			}
		})
	}
	if posted != 2 {
		t.Errorf("inner handler saw %d writes, want 2", posted)
	}
}

func TestCSRFTokensMatch(t *testing.T) {
	if csrfTokensMatch("", "") {
		t.Error("empty tokens must not match")
	}
	if !csrfTokensMatch("abc", "abc") {
		t.Error("equal tokens should match")
	}
}

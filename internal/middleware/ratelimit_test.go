package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiter_Limit(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	t.Cleanup(rl.Stop)
	clock := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }

	handler := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	do := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/api/login", nil)
		req.RemoteAddr = remote
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	for i := 0; i < 2; i++ {
		if rr := do("192.0.2.1:5000"); rr.Code != http.StatusNoContent {
			t.Fatalf("request %d: status %d", i+1, rr.Code)
		}
	}

	clock = clock.Add(20 * time.Second)
	rr := do("192.0.2.1:5001")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("third request: status %d, want 429", rr.Code)
	}
	if got := rr.Header().Get("Retry-After"); got != "40" {
		t.Errorf("Retry-After = %q, want 40", got)
	}

	if rr := do("192.0.2.2:5000"); rr.Code != http.StatusNoContent {
		t.Errorf("other IP: status %d", rr.Code)
	}

	clock = clock.Add(time.Minute)
	if rr := do("192.0.2.1:5000"); rr.Code != http.StatusNoContent {
		t.Errorf("after window: status %d", rr.Code)
	}
}

func TestRateLimiter_ExtractIP(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute, "10.0.0.0/8", "127.0.0.1", "not-a-cidr")
	t.Cleanup(rl.Stop)

	tests := []struct {
		name   string
		remote string
		xff    string
		xri    string
		want   string
	}{
		{"direct client", "203.0.113.5:1234", "", "", "203.0.113.5"},
		{"spoofed header from untrusted peer", "203.0.113.5:1234", "198.51.100.1", "", "203.0.113.5"},
		{"trusted proxy chain", "10.1.2.3:80", "198.51.100.7, 10.0.0.4", "", "198.51.100.7"},
		{"trusted proxy with real ip", "127.0.0.1:80", "", "198.51.100.9", "198.51.100.9"},
		{"trusted proxy without headers", "127.0.0.1:80", "", "", "127.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			if got := rl.extractIP(req); got != tt.want {
				t.Errorf("extractIP = %q, want %q", got, tt.want)
			}
		})
	}
}

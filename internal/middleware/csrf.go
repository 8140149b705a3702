package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/alexedwards/scs/v2"
)

// CSRFHeader carries the anti-CSRF token in both directions.
const CSRFHeader = "X-CSRF-Token"

const csrfSessionKey = "csrf_token"

// CSRFProtect keeps a per-session token and returns it in the X-CSRF-Token
// response header. State-changing requests (POST, PUT, DELETE, PATCH) must
// echo it in the same request header.
//
// It must run inside scs LoadAndSave so the session is available.
func CSRFProtect(sm *scs.SessionManager, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := sm.GetString(r.Context(), csrfSessionKey)
		if token == "" {
			token = generateCSRFToken()
			sm.Put(r.Context(), csrfSessionKey, token)
		}
		w.Header().Set(CSRFHeader, token)

		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
			if !csrfTokensMatch(token, r.Header.Get(CSRFHeader)) {
				writeError(w, http.StatusForbidden, "invalid CSRF token")
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// generateCSRFToken returns a 32-byte hex-encoded random string.
func generateCSRFToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic("csrf: failed to generate random token: " + err.Error())
	}
	return hex.EncodeToString(b)
}

// csrfTokensMatch compares two tokens in constant time.
func csrfTokensMatch(expected, actual string) bool {
	if expected == "" || actual == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(actual)) == 1
}

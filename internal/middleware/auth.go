package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"go.uber.org/zap"

	"github.com/carpenike/fitcoach/internal/models"
)

type contextKey string

// UserContextKey is the request context key holding the authenticated *models.User.
const UserContextKey contextKey = "user"

// SessionUserKey is the session key holding the authenticated user's ID.
const SessionUserKey = "userID"

// RequireAuth rejects requests without a valid session with 401 and stores
// the session's user in the request context. It must run inside
// sm.LoadAndSave.
func RequireAuth(sm *scs.SessionManager, db *sql.DB, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := sm.GetInt64(r.Context(), SessionUserKey)
		if userID == 0 {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		user, err := models.GetUserByID(db, userID)
		if err != nil {
			zap.S().Warnf("middleware: load user %d: %v", userID, err)
			_ = sm.Destroy(r.Context())
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}

// UserFromContext retrieves the authenticated user from the request context.
// Returns nil if no user is set (should not happen behind RequireAuth).
func UserFromContext(ctx context.Context) *models.User {
	u, _ := ctx.Value(UserContextKey).(*models.User)
	return u
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"go.uber.org/zap"

	"github.com/carpenike/fitcoach/internal/middleware"
	"github.com/carpenike/fitcoach/internal/models"
	"github.com/carpenike/fitcoach/internal/notify"
)

// Auth holds dependencies for account and session handlers.
type Auth struct {
	DB       *sql.DB
	Sessions *scs.SessionManager
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50,alphanum"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Email    string `json:"email" validate:"omitempty,email,max=254"`
	Timezone string `json:"timezone" validate:"omitempty,timezone"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type notifyRequest struct {
	NotifyURL string `json:"notify_url" validate:"omitempty,max=1000"`
	Timezone  string `json:"timezone" validate:"omitempty,timezone"`
}

type meResponse struct {
	*models.User
	NotifyConfigured bool `json:"notify_configured"`
}

// Register creates an account and logs it in.
func (a *Auth) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := models.CreateUser(a.DB, req.Username, req.Password, req.Email, req.Timezone)
	if errors.Is(err, models.ErrDuplicateUsername) {
		writeError(w, http.StatusConflict, "username is already taken")
		return
	}
	if err != nil {
		modelError(w, "register", err)
		return
	}

	if !a.startSession(w, r, user.ID) {
		return
	}
	zap.S().Infof("handlers: registered user %d (%s)", user.ID, user.Username)
	writeJSON(w, http.StatusCreated, meResponse{User: user})
}

// Login authenticates a username and password and starts a session.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := models.Authenticate(a.DB, req.Username, req.Password)
	if err != nil {
		if !errors.Is(err, models.ErrInvalidCredentials) {
			serverError(w, "login", err)
			return
		}
		zap.S().Infof("handlers: login failed for %q", req.Username)
		writeError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	if !a.startSession(w, r, user.ID) {
		return
	}
	writeJSON(w, http.StatusOK, meResponse{User: user, NotifyConfigured: user.NotifyURL.Valid})
}

// Logout destroys the session.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.Sessions.Destroy(r.Context()); err != nil {
		zap.S().Errorf("handlers: session destroy: %v", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the authenticated user.
func (a *Auth) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	writeJSON(w, http.StatusOK, meResponse{User: user, NotifyConfigured: user.NotifyURL.Valid})
}

// UpdateNotify sets the user's push notification URL and time zone.
func (a *Auth) UpdateNotify(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	var req notifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := models.UpdateUserNotify(a.DB, user.ID, req.NotifyURL, req.Timezone); err != nil {
		modelError(w, "update notify", err)
		return
	}
	updated, err := models.GetUserByID(a.DB, user.ID)
	if err != nil {
		serverError(w, "reload user", err)
		return
	}
	writeJSON(w, http.StatusOK, meResponse{User: updated, NotifyConfigured: updated.NotifyURL.Valid})
}

// TestNotify sends a test message to the user's notify URL.
func (a *Auth) TestNotify(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if !user.NotifyURL.Valid || user.NotifyURL.String == "" {
		writeError(w, http.StatusBadRequest, "no notify URL configured")
		return
	}
	if err := notify.TestConnection(a.DB, user.NotifyURL.String); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// startSession renews the session token to prevent fixation and stores the user ID.
func (a *Auth) startSession(w http.ResponseWriter, r *http.Request, userID int64) bool {
	if err := a.Sessions.RenewToken(r.Context()); err != nil {
		serverError(w, "renew session", err)
		return false
	}
	a.Sessions.Put(r.Context(), middleware.SessionUserKey, userID)
	return true
}

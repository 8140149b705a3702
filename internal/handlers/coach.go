package handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/carpenike/fitcoach/internal/coach"
	"github.com/carpenike/fitcoach/internal/models"
)

// chatTimeout bounds one coach chat call.
const chatTimeout = time.Minute

// Coach holds dependencies for streak, coach context and chat handlers.
type Coach struct {
	DB       *sql.DB
	Now      Clock
	Provider ProviderFunc
}

type chatRequest struct {
	Message string `json:"message" validate:"required,max=4000"`
}

type proactiveResponse struct {
	Snapshot coach.Snapshot `json:"snapshot"`
	Nudge    *coach.Nudge   `json:"nudge"`
}

// Streak returns the user's workout streak as of their local today.
func (h *Coach) Streak(w http.ResponseWriter, r *http.Request) {
	user, now := currentUser(r, h.Now)
	streak, err := models.GetStreak(h.DB, user.ID, now)
	if err != nil {
		serverError(w, "get streak", err)
		return
	}
	writeJSON(w, http.StatusOK, streak)
}

// Adherence returns completed sessions against the active plan's target for
// the last ?weeks= weeks (default 8).
func (h *Coach) Adherence(w http.ResponseWriter, r *http.Request) {
	user, now := currentUser(r, h.Now)
	weeks, _ := strconv.Atoi(r.URL.Query().Get("weeks"))
	history, err := models.WeeklyAdherenceHistory(h.DB, user.ID, min(weeks, 52), now)
	if err != nil {
		serverError(w, "weekly adherence", err)
		return
	}
	type week struct {
		*models.WeeklyAdherence
		Status string `json:"status"`
		Label  string `json:"label"`
	}
	out := make([]week, len(history))
	for i, wa := range history {
		out[i] = week{WeeklyAdherence: wa, Status: wa.Status(), Label: wa.Label()}
	}
	writeJSON(w, http.StatusOK, out)
}

// Context returns the coach's 48-hour view of the user.
func (h *Coach) Context(w http.ResponseWriter, r *http.Request) {
	user, now := currentUser(r, h.Now)
	cc, err := coach.BuildContext(r.Context(), coach.DBSource{DB: h.DB}, user.ID, now)
	if err != nil {
		serverError(w, "build coach context", err)
		return
	}
	writeJSON(w, http.StatusOK, cc)
}

// Proactive returns the nudge the selector would send right now, if any.
// Nothing is stored or pushed.
func (h *Coach) Proactive(w http.ResponseWriter, r *http.Request) {
	user, now := currentUser(r, h.Now)
	cc, err := coach.BuildContext(r.Context(), coach.DBSource{DB: h.DB}, user.ID, now)
	if err != nil {
		serverError(w, "build coach context", err)
		return
	}
	resp := proactiveResponse{Snapshot: cc.Snapshot(now)}
	if nudge, ok := coach.SelectProactive(resp.Snapshot); ok {
		resp.Nudge = &nudge
	}
	writeJSON(w, http.StatusOK, resp)
}

// Messages returns the latest ?limit= coach messages (default 50), oldest first.
func (h *Coach) Messages(w http.ResponseWriter, r *http.Request) {
	user, _ := currentUser(r, h.Now)
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	msgs, err := models.ListCoachMessages(h.DB, user.ID, min(limit, 200))
	if err != nil {
		serverError(w, "list coach messages", err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

// Chat sends a message to the coach and returns the reply.
func (h *Coach) Chat(w http.ResponseWriter, r *http.Request) {
	user, now := currentUser(r, h.Now)
	var req chatRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	provider, ok := resolveProvider(w, h.DB, h.Provider)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), chatTimeout)
	defer cancel()

	reply, err := coach.Chat(ctx, h.DB, provider, user.ID, req.Message, now)
	if errors.Is(err, coach.ErrEmptyMessage) {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	if err != nil {
		llmError(w, "coach chat", err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/carpenike/fitcoach/internal/middleware"
)

// RouterConfig holds what the API router needs.
type RouterConfig struct {
	DB       *sql.DB
	Sessions *scs.SessionManager
	Now      Clock
	Provider ProviderFunc

	// AllowedOrigins for CORS; empty disables cross-origin access.
	AllowedOrigins []string
	// AuthLimiter throttles login and registration; nil disables it.
	AuthLimiter *middleware.RateLimiter
	// RequestTimeout applies to every request except plan generation and chat.
	RequestTimeout time.Duration
}

// NewRouter builds the JSON API.
func NewRouter(cfg RouterConfig) http.Handler {
	auth := &Auth{DB: cfg.DB, Sessions: cfg.Sessions}
	profile := &Profile{DB: cfg.DB}
	exercises := &Exercises{DB: cfg.DB}
	plans := &Plans{DB: cfg.DB, Now: cfg.Now, Provider: cfg.Provider}
	sessions := &Sessions{DB: cfg.DB, Now: cfg.Now}
	nutrition := &Nutrition{DB: cfg.DB, Now: cfg.Now}
	coachH := &Coach{DB: cfg.DB, Now: cfg.Now, Provider: cfg.Provider}
	imports := &Imports{DB: cfg.DB}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecurityHeaders)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", middleware.CSRFHeader},
		ExposedHeaders:   []string{middleware.CSRFHeader},
		AllowCredentials: true,
	}).Handler)

	r.Get("/health", handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(cfg.Sessions.LoadAndSave)

		r.Group(func(r chi.Router) {
			if cfg.AuthLimiter != nil {
				r.Use(cfg.AuthLimiter.Limit)
			}
			r.Use(chimw.Timeout(timeout))
			r.Post("/register", auth.Register)
			r.Post("/login", auth.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(func(next http.Handler) http.Handler {
				return middleware.RequireAuth(cfg.Sessions, cfg.DB, next)
			})
			r.Use(func(next http.Handler) http.Handler {
				return middleware.CSRFProtect(cfg.Sessions, next)
			})

			// Long-running LLM calls set their own deadlines.
			r.Post("/plans/generate", plans.Generate)
			r.Post("/coach/chat", coachH.Chat)

			r.Group(func(r chi.Router) {
				r.Use(chimw.Timeout(timeout))

				r.Post("/logout", auth.Logout)
				r.Get("/me", auth.Me)
				r.Put("/me/notify", auth.UpdateNotify)
				r.Post("/me/notify/test", auth.TestNotify)

				r.Get("/profile", profile.Get)
				r.Put("/profile", profile.Update)

				r.Get("/exercises", exercises.List)
				r.Get("/exercises/{id}", exercises.Get)

				r.Get("/plans", plans.List)
				r.Get("/plans/active", plans.Active)
				r.Get("/plans/generations", plans.Generations)
				r.Get("/plans/{id}", plans.Get)
				r.Delete("/plans/{id}", plans.Delete)

				r.Get("/sessions", sessions.List)
				r.Post("/sessions", sessions.Start)
				r.Get("/sessions/{id}", sessions.Get)
				r.Delete("/sessions/{id}", sessions.Delete)
				r.Post("/sessions/{id}/complete", sessions.Complete)
				r.Post("/sessions/{id}/sets", sessions.AddSet)
				r.Delete("/sessions/{id}/sets/{setID}", sessions.DeleteSet)

				r.Get("/meals", nutrition.ListMeals)
				r.Post("/meals", nutrition.CreateMeal)
				r.Delete("/meals/{id}", nutrition.DeleteMeal)
				r.Get("/activities", nutrition.ListActivities)
				r.Post("/activities", nutrition.CreateActivity)
				r.Delete("/activities/{id}", nutrition.DeleteActivity)

				r.Post("/import", imports.Import)

				r.Get("/streak", coachH.Streak)
				r.Get("/streak/adherence", coachH.Adherence)
				r.Get("/coach/context", coachH.Context)
				r.Get("/coach/proactive", coachH.Proactive)
				r.Get("/coach/messages", coachH.Messages)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

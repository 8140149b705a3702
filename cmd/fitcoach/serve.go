package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/carpenike/fitcoach/internal/config"
	"github.com/carpenike/fitcoach/internal/handlers"
	"github.com/carpenike/fitcoach/internal/middleware"
	"github.com/carpenike/fitcoach/internal/models"
	"github.com/carpenike/fitcoach/internal/notify"
	"github.com/carpenike/fitcoach/internal/scheduler"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the proactive nudge scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg
	db, err := a.openDB()
	if err != nil {
		return err
	}
	defer db.Close()
	zap.S().Infof("fitcoach: database ready: %s", cfg.DBPath)

	if err := bootstrapAdmin(db, cfg.Admin); err != nil {
		return err
	}

	store := sqlite3store.New(db)
	defer store.StopCleanup()
	sessions := scs.New()
	sessions.Store = store
	sessions.Lifetime = cfg.HTTP.SessionLifetime()
	sessions.Cookie.Name = "fitcoach_session"
	sessions.Cookie.HttpOnly = true
	sessions.Cookie.SameSite = http.SameSiteLaxMode
	sessions.Cookie.Secure = cfg.HTTP.SecureCookies

	var limiter *middleware.RateLimiter
	if cfg.HTTP.AuthRateLimit > 0 {
		limiter = middleware.NewRateLimiter(cfg.HTTP.AuthRateLimit, time.Minute, cfg.HTTP.TrustedProxies...)
		defer limiter.Stop()
	}

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: handlers.NewRouter(handlers.RouterConfig{
			DB:             db,
			Sessions:       sessions,
			AllowedOrigins: cfg.HTTP.AllowedOrigins,
			AuthLimiter:    limiter,
			RequestTimeout: cfg.HTTP.RequestTimeout(),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.New(db)
		sched.Start()
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zap.S().Infof("fitcoach: listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zap.S().Info("fitcoach: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	drainBackground(sched)
	return err
}

// drainBackground stops the scheduler before waiting on notifications so no
// nudge is dispatched after the drain starts.
func drainBackground(sched *scheduler.Scheduler) {
	if sched != nil {
		sched.Stop()
	}
	notify.Wait()
}

// bootstrapAdmin creates the first account from config when the database
// has no users.
func bootstrapAdmin(db *sql.DB, admin config.AdminConfig) error {
	count, err := models.CountUsers(db)
	if err != nil {
		return fmt.Errorf("check user count: %w", err)
	}
	if count > 0 || admin.Username == "" {
		return nil
	}

	user, err := models.CreateUser(db, admin.Username, admin.Password, admin.Email, admin.Timezone)
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}
	zap.S().Infof("fitcoach: bootstrapped user %s (id=%d)", user.Username, user.ID)
	return nil
}

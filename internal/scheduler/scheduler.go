package scheduler

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/carpenike/fitcoach/internal/coach"
	"github.com/carpenike/fitcoach/internal/models"
	"github.com/carpenike/fitcoach/internal/notify"
)

// Status holds the result of the last run.
type Status struct {
	LastRun         time.Time `json:"last_run"`
	NextRun         time.Time `json:"next_run"`
	NudgesSent      int       `json:"nudges_sent"`
	MessagesPruned  int64     `json:"messages_pruned"`
	IntervalMinutes int       `json:"interval_minutes"`
	RetentionDays   int       `json:"retention_days"`
}

// Scheduler pushes proactive nudges and prunes old coach messages in the
// background.
type Scheduler struct {
	db     *sql.DB
	now    func() time.Time
	send   func(*sql.DB, notify.Request)
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.RWMutex
	status Status
}

// New creates a new Scheduler for the given database.
func New(db *sql.DB) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		db:     db,
		now:    time.Now,
		send:   notify.Send,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Start runs an initial pass immediately, then repeats at the configured
// interval. Call Stop to shut down gracefully.
func (s *Scheduler) Start() {
	go s.run()
	zap.S().Info("scheduler: started")
}

// Stop signals the scheduler to shut down and waits for the current pass to
// finish. No nudge is dispatched after Stop returns, so callers can drain
// deliveries with notify.Wait afterwards.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.done
}

// Status returns the result of the last run.
func (s *Scheduler) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Scheduler) run() {
	defer close(s.done)

	s.runOnce()

	for {
		ticker := time.NewTicker(s.interval())
		select {
		case <-ticker.C:
			ticker.Stop()
			s.runOnce()
		case <-s.ctx.Done():
			ticker.Stop()
			return
		}
	}
}

func (s *Scheduler) interval() time.Duration {
	return time.Duration(models.GetNudgeIntervalMinutes(s.db)) * time.Minute
}

func (s *Scheduler) runOnce() {
	now := s.now()
	sent := s.sendNudges(now)
	pruned := s.pruneMessages(now)

	s.mu.Lock()
	s.status = Status{
		LastRun:         now,
		NextRun:         now.Add(s.interval()),
		NudgesSent:      sent,
		MessagesPruned:  pruned,
		IntervalMinutes: models.GetNudgeIntervalMinutes(s.db),
		RetentionDays:   models.GetRetentionDays(s.db),
	}
	s.mu.Unlock()
}

// sendNudges evaluates the proactive selector for every user with a notify
// URL, in the user's own time zone. A nudge kind is sent at most once per
// user per local calendar day.
func (s *Scheduler) sendNudges(now time.Time) int {
	if !models.NudgesEnabled(s.db) {
		return 0
	}
	users, err := models.ListUsersWithNotify(s.db)
	if err != nil {
		zap.S().Errorf("scheduler: list users: %v", err)
		return 0
	}

	sent := 0
	for _, u := range users {
		if s.ctx.Err() != nil {
			break
		}
		ok, err := s.nudgeUser(u, now.In(u.Location()))
		if err != nil {
			zap.S().Errorf("scheduler: nudge user %d: %v", u.ID, err)
			continue
		}
		if ok {
			sent++
		}
	}
	if sent > 0 {
		zap.S().Infof("scheduler: sent %d nudge(s)", sent)
	}
	return sent
}

func (s *Scheduler) nudgeUser(u *models.User, local time.Time) (bool, error) {
	cc, err := coach.BuildContext(s.ctx, coach.DBSource{DB: s.db}, u.ID, local)
	if err != nil {
		return false, err
	}
	nudge, ok := coach.SelectProactive(cc.Snapshot(local))
	if !ok {
		return false, nil
	}

	today := models.CalendarDate(local)
	already, err := models.HasProactiveToday(s.db, u.ID, string(nudge.Kind), today)
	if err != nil || already {
		return false, err
	}

	if _, err := models.CreateCoachMessage(s.db, u.ID, models.RoleAssistant, nudge.Message, string(nudge.Kind), today); err != nil {
		return false, err
	}
	s.send(s.db, notify.Request{UserID: u.ID, Title: nudge.Title(), Message: nudge.Message})
	return true, nil
}

// pruneMessages removes coach messages older than the retention period.
func (s *Scheduler) pruneMessages(now time.Time) int64 {
	cutoff := now.AddDate(0, 0, -models.GetRetentionDays(s.db))
	deleted, err := models.DeleteOldCoachMessages(s.db, cutoff)
	if err != nil {
		zap.S().Errorf("scheduler: prune coach messages: %v", err)
		return 0
	}
	if deleted > 0 {
		zap.S().Infof("scheduler: pruned %d coach message(s)", deleted)
	}
	return deleted
}

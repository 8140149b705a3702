// Package notify pushes coach nudges to external channels through Shoutrrr.
//
// Two delivery modes:
//   - Per-user: the user's own notify URL (ntfy, Pushover, Telegram, SMTP, ...).
//   - Broadcast: globally configured URLs from the notify.urls setting.
//
// Delivery is asynchronous. Errors are logged and never returned to the
// producer, so a dead channel cannot block the scheduler or a request.
package notify

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/containrrr/shoutrrr"
	"go.uber.org/zap"

	"github.com/carpenike/fitcoach/internal/models"
)

// Request describes a notification to send.
type Request struct {
	UserID  int64  // Target user
	Title   string // Short title, prefixed with the app name
	Message string // Body (optional)
}

// sender delivers one message to one Shoutrrr URL. Replaced in tests.
var sender = shoutrrr.Send

// inflight tracks pending deliveries so Wait can drain them on shutdown.
var inflight sync.WaitGroup

// Send dispatches a notification to the user's notify URL and every
// broadcast URL. It returns immediately.
func Send(db *sql.DB, req Request) {
	if req.UserID == 0 || req.Title == "" {
		return
	}

	var urls []string
	user, err := models.GetUserByID(db, req.UserID)
	switch {
	case err != nil:
		zap.S().Warnf("notify: load user %d: %v", req.UserID, err)
	case user.NotifyURL.Valid && user.NotifyURL.String != "":
		urls = append(urls, user.NotifyURL.String)
	}
	urls = append(urls, parseURLs(models.GetSetting(db, "notify.urls"))...)
	if len(urls) == 0 {
		return
	}

	body := buildBody(models.GetAppName(db), req)
	inflight.Add(1)
	go func() {
		defer inflight.Done()
		for _, u := range urls {
			if err := sender(u, body); err != nil {
				zap.S().Warnf("notify: send to %s for user %d: %v", maskURL(u), req.UserID, err)
			}
		}
	}()
}

// Wait blocks until every dispatched notification has been attempted.
func Wait() {
	inflight.Wait()
}

// TestConnection sends a test message synchronously to url, or to every
// broadcast URL when url is empty.
func TestConnection(db *sql.DB, url string) error {
	urls := parseURLs(url)
	if len(urls) == 0 {
		urls = parseURLs(models.GetSetting(db, "notify.urls"))
	}
	if len(urls) == 0 {
		return errors.New("notify: no notification channels configured")
	}

	appName := models.GetAppName(db)
	var errs []error
	for _, u := range urls {
		if err := sender(u, appName+" test: if you see this, notifications are working!"); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", maskURL(u), err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("notify: test failed: %w", errors.Join(errs...))
	}
	return nil
}

func buildBody(appName string, req Request) string {
	body := appName + ": " + req.Title
	if req.Message != "" {
		body += "\n" + req.Message
	}
	return body
}

// parseURLs splits a comma-or-newline-separated URL string and trims whitespace.
func parseURLs(urlsStr string) []string {
	urlsStr = strings.ReplaceAll(urlsStr, "\n", ",")
	var urls []string
	for _, p := range strings.Split(urlsStr, ",") {
		if p = strings.TrimSpace(p); p != "" {
			urls = append(urls, p)
		}
	}
	return urls
}

// maskURL keeps the scheme and host prefix of a Shoutrrr URL for logging.
func maskURL(u string) string {
	if len(u) <= 5 {
		return "••••"
	}
	if len(u) <= 15 {
		return u[:5] + "••••"
	}
	return u[:15] + "••••"
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// PathEnv names the environment variable pointing at the TOML config file.
const PathEnv = "FITCOACH_CONFIG"

// Config holds process-level settings. Runtime-editable settings (LLM
// provider, nudges, notification URLs) live in app_settings instead.
type Config struct {
	Addr      string `toml:"addr"`
	DBPath    string `toml:"db_path"`
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"` // "json" or "console"

	HTTP      HTTPConfig      `toml:"http"`
	Admin     AdminConfig     `toml:"admin"`
	Scheduler SchedulerConfig `toml:"scheduler"`
}

// HTTPConfig controls the API server.
type HTTPConfig struct {
	SecureCookies         bool     `toml:"secure_cookies"`
	AllowedOrigins        []string `toml:"allowed_origins"`
	TrustedProxies        []string `toml:"trusted_proxies"`
	AuthRateLimit         int      `toml:"auth_rate_limit"` // attempts per minute per client
	RequestTimeoutSeconds int      `toml:"request_timeout_seconds"`
	SessionLifetimeHours  int      `toml:"session_lifetime_hours"`
}

// AdminConfig bootstraps the first account when the database has no users.
type AdminConfig struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
	Email    string `toml:"email"`
	Timezone string `toml:"timezone"`
}

// SchedulerConfig toggles the background nudge and cleanup loop.
type SchedulerConfig struct {
	Enabled bool `toml:"enabled"`
}

// RequestTimeout returns the per-request deadline.
func (h HTTPConfig) RequestTimeout() time.Duration {
	return time.Duration(h.RequestTimeoutSeconds) * time.Second
}

// SessionLifetime returns how long a login session lasts.
func (h HTTPConfig) SessionLifetime() time.Duration {
	return time.Duration(h.SessionLifetimeHours) * time.Hour
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Addr:      ":8080",
		DBPath:    "fitcoach.db",
		LogLevel:  "info",
		LogFormat: "json",
		HTTP: HTTPConfig{
			AuthRateLimit:         10,
			RequestTimeoutSeconds: 30,
			SessionLifetimeHours:  30 * 24,
		},
		Admin:     AdminConfig{Timezone: "UTC"},
		Scheduler: SchedulerConfig{Enabled: true},
	}
}

// Load resolves configuration in order: built-in defaults, the TOML file
// (path, or FITCOACH_CONFIG when path is empty), a .env file, then
// FITCOACH_* environment variables. A missing .env is not an error; a
// missing config file is only an error when one was named.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(PathEnv)
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	if envFile != "" {
		// godotenv never overrides variables already set in the environment.
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", envFile, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setList := func(key string, dst *[]string) {
		if v := os.Getenv(key); v != "" {
			*dst = splitList(v)
		}
	}
	setInt := func(key string, dst *int) error {
		v := os.Getenv(key)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
		*dst = n
		return nil
	}
	setBool := func(key string, dst *bool) error {
		v := os.Getenv(key)
		if v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
		*dst = b
		return nil
	}

	setString("FITCOACH_ADDR", &c.Addr)
	setString("FITCOACH_DB_PATH", &c.DBPath)
	setString("FITCOACH_LOG_LEVEL", &c.LogLevel)
	setString("FITCOACH_LOG_FORMAT", &c.LogFormat)
	setList("FITCOACH_ALLOWED_ORIGINS", &c.HTTP.AllowedOrigins)
	setList("FITCOACH_TRUSTED_PROXIES", &c.HTTP.TrustedProxies)
	setString("FITCOACH_ADMIN_USER", &c.Admin.Username)
	setString("FITCOACH_ADMIN_PASS", &c.Admin.Password)
	setString("FITCOACH_ADMIN_EMAIL", &c.Admin.Email)
	setString("FITCOACH_ADMIN_TIMEZONE", &c.Admin.Timezone)

	return errors.Join(
		setBool("FITCOACH_SECURE_COOKIES", &c.HTTP.SecureCookies),
		setBool("FITCOACH_SCHEDULER_ENABLED", &c.Scheduler.Enabled),
		setInt("FITCOACH_AUTH_RATE_LIMIT", &c.HTTP.AuthRateLimit),
		setInt("FITCOACH_REQUEST_TIMEOUT_SECONDS", &c.HTTP.RequestTimeoutSeconds),
		setInt("FITCOACH_SESSION_LIFETIME_HOURS", &c.HTTP.SessionLifetimeHours),
	)
}

// Validate reports configuration values that cannot be used.
func (c *Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("config: addr is required"))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("config: db_path is required"))
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("config: log_level: %w", err))
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		errs = append(errs, fmt.Errorf("config: log_format %q: want json or console", c.LogFormat))
	}
	if c.HTTP.AuthRateLimit < 0 {
		errs = append(errs, errors.New("config: http.auth_rate_limit must not be negative"))
	}
	if c.HTTP.RequestTimeoutSeconds <= 0 {
		errs = append(errs, errors.New("config: http.request_timeout_seconds must be positive"))
	}
	if c.HTTP.SessionLifetimeHours <= 0 {
		errs = append(errs, errors.New("config: http.session_lifetime_hours must be positive"))
	}
	if (c.Admin.Username == "") != (c.Admin.Password == "") {
		errs = append(errs, errors.New("config: admin username and password must be set together"))
	}
	return errors.Join(errs...)
}

// NewLogger builds the process logger from LogLevel and LogFormat.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("config: log_level: %w", err)
	}

	zc := zap.NewProductionConfig()
	if c.LogFormat == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zc.Build()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

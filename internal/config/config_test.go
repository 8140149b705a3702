package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(PathEnv, "")

	cfg, err := Load("", "")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "fitcoach.db", cfg.DBPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, 30*time.Second, cfg.HTTP.RequestTimeout())
	assert.Equal(t, 30*24*time.Hour, cfg.HTTP.SessionLifetime())
}

func TestLoad_TOMLFile(t *testing.T) {
	path := writeFile(t, "fitcoach.toml", `
addr = ":9090"
log_level = "debug"

[http]
secure_cookies = true
allowed_origins = ["https://app.example.com"]
auth_rate_limit = 5

[scheduler]
enabled = false
`)

	cfg, err := Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.HTTP.SecureCookies)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, 5, cfg.HTTP.AuthRateLimit)
	assert.False(t, cfg.Scheduler.Enabled)
	// Unset keys keep their defaults.
	assert.Equal(t, "fitcoach.db", cfg.DBPath)
}

func TestLoad_PathFromEnv(t *testing.T) {
	path := writeFile(t, "fitcoach.toml", `db_path = "/data/fit.db"`)
	t.Setenv(PathEnv, path)

	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, "/data/fit.db", cfg.DBPath)
}

func TestLoad_MissingNamedFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"), "")
	assert.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "fitcoach.toml", `addr = ":9090"`)
	t.Setenv("FITCOACH_ADDR", ":7070")
	t.Setenv("FITCOACH_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("FITCOACH_SECURE_COOKIES", "true")

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Addr)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.AllowedOrigins)
	assert.True(t, cfg.HTTP.SecureCookies)
}

func TestLoad_DotEnv(t *testing.T) {
	t.Setenv(PathEnv, "")
	// Registered so the variable is restored after godotenv sets it.
	t.Setenv("FITCOACH_DB_PATH", "")
	os.Unsetenv("FITCOACH_DB_PATH")
	envFile := writeFile(t, ".env", "FITCOACH_DB_PATH=/tmp/from-dotenv.db\n")

	cfg, err := Load("", envFile)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-dotenv.db", cfg.DBPath)

	// A missing .env is fine.
	_, err = Load("", filepath.Join(t.TempDir(), ".env"))
	assert.NoError(t, err)
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv(PathEnv, "")
	t.Setenv("FITCOACH_AUTH_RATE_LIMIT", "lots")

	_, err := Load("", "")
	assert.ErrorContains(t, err, "FITCOACH_AUTH_RATE_LIMIT")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, "log_format"},
		{"empty addr", func(c *Config) { c.Addr = "" }, "addr"},
		{"zero timeout", func(c *Config) { c.HTTP.RequestTimeoutSeconds = 0 }, "request_timeout_seconds"},
		{"admin without password", func(c *Config) { c.Admin.Username = "admin" }, "admin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}

	assert.NoError(t, Default().Validate())
}

func TestNewLogger(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "warn"

	logger, err := cfg.NewLogger()
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}

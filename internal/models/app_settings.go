package models

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/crypto/hkdf"
)

// SecretKeyEnv names the environment variable holding the settings encryption key.
const SecretKeyEnv = "FITCOACH_SECRET_KEY"

// ErrUnknownSetting is returned when a key is not in SettingsRegistry.
var ErrUnknownSetting = errors.New("unknown setting")

// SettingDefinition describes a runtime-configurable setting.
type SettingDefinition struct {
	Key         string // DB key, e.g. "llm.provider"
	EnvVar      string // Override env var, e.g. "FITCOACH_LLM_PROVIDER"
	Default     string
	Description string
	Sensitive   bool // Encrypted at rest and masked on display
}

// SettingValue is a resolved setting together with where it came from.
type SettingValue struct {
	Key    string `json:"key"`
	Value  string `json:"-"`
	Masked string `json:"value"`
	Source string `json:"source"` // "env", "db", "default"
}

// SettingsRegistry defines all known runtime settings.
var SettingsRegistry = []SettingDefinition{
	{Key: "app.name", EnvVar: "FITCOACH_APP_NAME", Default: "FitCoach",
		Description: "Name used in notification titles"},

	{Key: "llm.provider", EnvVar: "FITCOACH_LLM_PROVIDER",
		Description: "AI provider: openai, anthropic, or ollama (empty disables AI features)"},
	{Key: "llm.model", EnvVar: "FITCOACH_LLM_MODEL",
		Description: "Model name; provider default when empty"},
	{Key: "llm.api_key", EnvVar: "FITCOACH_LLM_API_KEY", Sensitive: true,
		Description: "API key for the AI provider"},
	{Key: "llm.base_url", EnvVar: "FITCOACH_LLM_BASE_URL",
		Description: "Override base URL (OpenAI-compatible gateways, remote Ollama)"},
	{Key: "llm.temperature", EnvVar: "", Default: "0.7",
		Description: "Sampling temperature for plan generation and chat"},
	{Key: "llm.max_tokens", EnvVar: "", Default: "8192",
		Description: "Maximum response tokens for plan generation"},

	{Key: "coach.nudges_enabled", EnvVar: "FITCOACH_NUDGES_ENABLED", Default: "true",
		Description: "Push proactive coaching nudges to users with a notify URL"},
	{Key: "coach.nudge_interval_minutes", EnvVar: "", Default: "60",
		Description: "How often the scheduler evaluates proactive nudges (5–720)"},

	{Key: "notify.urls", EnvVar: "FITCOACH_NOTIFY_URLS", Sensitive: true,
		Description: "Comma-separated Shoutrrr URLs that receive every nudge"},

	{Key: "maintenance.retention_days", EnvVar: "", Default: "90",
		Description: "Coach messages older than this are pruned (1–365)"},
}

// GetSetting returns a setting using the resolution chain:
// env var → app_settings row → built-in default.
func GetSetting(db *sql.DB, key string) string {
	def := findDefinition(key)
	if def == nil {
		return ""
	}
	return resolveSettingValue(db, *def).Value
}

// SetSetting stores a setting in the database. Sensitive values are
// encrypted, which requires FITCOACH_SECRET_KEY to be set.
func SetSetting(db *sql.DB, key, value string) error {
	def := findDefinition(key)
	if def == nil {
		return fmt.Errorf("models: set %q: %w", key, ErrUnknownSetting)
	}

	storeValue := value
	if def.Sensitive && value != "" {
		encrypted, err := encryptValue(value)
		if err != nil {
			return fmt.Errorf("models: encrypt setting %q: %w", key, err)
		}
		storeValue = "enc:" + encrypted
	}

	_, err := db.Exec(
		`INSERT INTO app_settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, storeValue,
	)
	if err != nil {
		return fmt.Errorf("models: set setting %q: %w", key, err)
	}
	return nil
}

// DeleteSetting removes a stored setting, reverting it to env var or default.
func DeleteSetting(db *sql.DB, key string) error {
	if _, err := db.Exec(`DELETE FROM app_settings WHERE key = ?`, key); err != nil {
		return fmt.Errorf("models: delete setting %q: %w", key, err)
	}
	return nil
}

// ListSettings returns all known settings with resolved values and sources.
func ListSettings(db *sql.DB) []SettingValue {
	results := make([]SettingValue, 0, len(SettingsRegistry))
	for _, def := range SettingsRegistry {
		results = append(results, resolveSettingValue(db, def))
	}
	return results
}

// GetSettingDefinition returns the definition for a known key, or nil.
func GetSettingDefinition(key string) *SettingDefinition {
	return findDefinition(key)
}

// IsAICoachConfigured reports whether an AI provider is configured.
func IsAICoachConfigured(db *sql.DB) bool {
	return GetSetting(db, "llm.provider") != ""
}

// GetAppName returns the configured application name.
func GetAppName(db *sql.DB) string {
	if v := GetSetting(db, "app.name"); v != "" {
		return v
	}
	return "FitCoach"
}

// NudgesEnabled reports whether the scheduler should push proactive nudges.
func NudgesEnabled(db *sql.DB) bool {
	v, err := strconv.ParseBool(GetSetting(db, "coach.nudges_enabled"))
	return err == nil && v
}

// GetNudgeIntervalMinutes returns the proactive nudge evaluation interval.
func GetNudgeIntervalMinutes(db *sql.DB) int {
	if n, err := strconv.Atoi(GetSetting(db, "coach.nudge_interval_minutes")); err == nil && n >= 5 && n <= 720 {
		return n
	}
	return 60
}

// GetRetentionDays returns how long coach messages are kept.
func GetRetentionDays(db *sql.DB) int {
	if n, err := strconv.Atoi(GetSetting(db, "maintenance.retention_days")); err == nil && n >= 1 && n <= 365 {
		return n
	}
	return 90
}

// GetOrCreateSecretKey ensures a key exists for encrypting sensitive settings.
// Resolution: FITCOACH_SECRET_KEY env var → _internal.secret_key row → generate.
// The resolved key is exported to the environment for the encryption helpers.
func GetOrCreateSecretKey(db *sql.DB) (key, source string, err error) {
	if key = os.Getenv(SecretKeyEnv); key != "" {
		_, _ = db.Exec(
			`INSERT INTO app_settings (key, value) VALUES ('_internal.secret_key', ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key,
		)
		return key, "env", nil
	}

	err = db.QueryRow(`SELECT value FROM app_settings WHERE key = '_internal.secret_key'`).Scan(&key)
	if err == nil && key != "" {
		os.Setenv(SecretKeyEnv, key)
		return key, "database", nil
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("models: generate secret key: %w", err)
	}
	key = base64.StdEncoding.EncodeToString(buf)

	_, err = db.Exec(
		`INSERT INTO app_settings (key, value) VALUES ('_internal.secret_key', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key,
	)
	if err != nil {
		return "", "", fmt.Errorf("models: store secret key: %w", err)
	}

	os.Setenv(SecretKeyEnv, key)
	return key, "generated", nil
}

func findDefinition(key string) *SettingDefinition {
	for i := range SettingsRegistry {
		if SettingsRegistry[i].Key == key {
			return &SettingsRegistry[i]
		}
	}
	return nil
}

func resolveSettingValue(db *sql.DB, def SettingDefinition) SettingValue {
	sv := SettingValue{Key: def.Key}

	if def.EnvVar != "" {
		if v := os.Getenv(def.EnvVar); v != "" {
			sv.Value, sv.Source = v, "env"
			sv.Masked = maskValue(v, def.Sensitive)
			return sv
		}
	}

	var raw string
	if err := db.QueryRow(`SELECT value FROM app_settings WHERE key = ?`, def.Key).Scan(&raw); err == nil {
		sv.Source = "db"
		if def.Sensitive && strings.HasPrefix(raw, "enc:") {
			decrypted, err := decryptValue(raw[4:])
			if err != nil {
				sv.Masked = "(decryption failed)"
				return sv
			}
			raw = decrypted
		}
		sv.Value = raw
		sv.Masked = maskValue(raw, def.Sensitive)
		return sv
	}

	sv.Value, sv.Source = def.Default, "default"
	sv.Masked = maskValue(def.Default, def.Sensitive)
	return sv
}

func maskValue(value string, sensitive bool) string {
	if !sensitive || value == "" {
		return value
	}
	if len(value) <= 8 {
		return "••••••••"
	}
	return value[:4] + "••••" + value[len(value)-4:]
}

// secretKey derives the 32-byte AES key from FITCOACH_SECRET_KEY with HKDF.
// Returns nil if the env var is not set.
func secretKey() []byte {
	key := os.Getenv(SecretKeyEnv)
	if key == "" {
		return nil
	}
	h := hkdf.New(sha256.New, []byte(key), []byte("fitcoach-settings-v1"), []byte("aes-256-gcm"))
	derived := make([]byte, 32)
	if _, err := io.ReadFull(h, derived); err != nil {
		return nil
	}
	return derived
}

func newGCM() (cipher.AEAD, error) {
	key := secretKey()
	if key == nil {
		return nil, fmt.Errorf("%s not set", SecretKeyEnv)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func encryptValue(plaintext string) (string, error) {
	aesGCM, err := newGCM()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aesGCM.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	ciphertext := aesGCM.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

func decryptValue(encoded string) (string, error) {
	aesGCM, err := newGCM()
	if err != nil {
		return "", err
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}

	nonceSize := aesGCM.NonceSize()
	if len(ciphertext) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

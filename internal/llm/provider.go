// Package llm talks to large-language-model providers for workout plan
// generation and coach chat.
package llm

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/carpenike/fitcoach/internal/models"
)

// ErrNotConfigured is returned when no AI provider is configured.
var ErrNotConfigured = errors.New("llm: AI provider not configured")

// Provider is the interface for LLM backends.
type Provider interface {
	// Generate sends a system prompt and user prompt to the LLM and returns
	// the response text.
	Generate(ctx context.Context, systemPrompt, userPrompt string, opts Options) (*Response, error)

	// Ping validates connectivity and credentials.
	Ping(ctx context.Context) error

	// Name returns the display name of this provider (e.g. "OpenAI", "Anthropic").
	Name() string
}

// Options controls LLM generation behavior.
type Options struct {
	Temperature float64
	MaxTokens   int
}

// Response holds the LLM's output.
type Response struct {
	Content    string
	Model      string
	TokensUsed int
	Duration   time.Duration
	StopReason string // "stop", "end_turn", "length", "max_tokens"
}

// Truncated reports whether the provider stopped because it ran out of tokens.
func (r *Response) Truncated() bool {
	return r.StopReason == "length" || r.StopReason == "max_tokens"
}

// APIError is a non-2xx response from a provider.
type APIError struct {
	Provider   string
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("llm/%s: HTTP %d (%s): %s", strings.ToLower(e.Provider), e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("llm/%s: HTTP %d: %s", strings.ToLower(e.Provider), e.StatusCode, e.Message)
}

// UserMessage returns a short explanation suitable for API clients.
func (e *APIError) UserMessage() string {
	msg := strings.ToLower(e.Message)
	switch {
	case e.StatusCode == 401 || e.StatusCode == 403:
		return fmt.Sprintf("Invalid API key for %s. Check the llm.api_key setting.", e.Provider)
	case e.StatusCode == 429:
		return fmt.Sprintf("Rate limit exceeded at %s. Try again in a minute.", e.Provider)
	case strings.Contains(msg, "credit") || strings.Contains(msg, "billing") || strings.Contains(msg, "quota"):
		return fmt.Sprintf("Insufficient credits on the %s account.", e.Provider)
	case strings.Contains(msg, "model") && (strings.Contains(msg, "not found") || strings.Contains(msg, "does not exist")):
		return fmt.Sprintf("Model not found at %s. Check the llm.model setting.", e.Provider)
	case e.StatusCode >= 500:
		return fmt.Sprintf("%s is temporarily unavailable. Try again later.", e.Provider)
	}
	return fmt.Sprintf("%s returned an error: %s", e.Provider, e.Message)
}

// NewProviderFromSettings creates a Provider using the current app_settings
// configuration (with env var overrides).
func NewProviderFromSettings(db *sql.DB) (Provider, error) {
	provider := models.GetSetting(db, "llm.provider")
	if provider == "" {
		return nil, ErrNotConfigured
	}

	model := models.GetSetting(db, "llm.model")
	apiKey := models.GetSetting(db, "llm.api_key")
	baseURL := models.GetSetting(db, "llm.base_url")

	switch provider {
	case "openai":
		return NewOpenAIProvider(apiKey, model, baseURL), nil
	case "anthropic":
		return NewAnthropicProvider(apiKey, model, baseURL), nil
	case "ollama":
		return NewOllamaProvider(baseURL, model), nil
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", provider)
	}
}

// TemperatureFromSettings reads the temperature setting.
func TemperatureFromSettings(db *sql.DB) float64 {
	temp, err := strconv.ParseFloat(models.GetSetting(db, "llm.temperature"), 64)
	if err != nil || temp < 0 || temp > 2 {
		return 0.7
	}
	return temp
}

// MaxTokensFromSettings reads the maximum response tokens setting.
func MaxTokensFromSettings(db *sql.DB) int {
	n, err := strconv.Atoi(models.GetSetting(db, "llm.max_tokens"))
	if err != nil || n <= 0 {
		return 8192
	}
	return n
}

package llm

import (
	"context"
	"sync"
	"time"
)

// MockProvider implements Provider for testing. It returns Responses in
// order, repeating the last one, or FixedContent when Responses is empty.
type MockProvider struct {
	FixedContent string
	Responses    []string
	StopReason   string
	PingErr      error
	GenerateErr  error

	mu      sync.Mutex
	calls   int
	prompts []MockCall
}

// MockCall records the prompts passed to one Generate call.
type MockCall struct {
	SystemPrompt string
	UserPrompt   string
	Options      Options
}

// NewMockProvider creates a mock provider with a canned response.
func NewMockProvider(content string) *MockProvider {
	return &MockProvider{FixedContent: content}
}

func (p *MockProvider) Name() string { return "Mock" }

func (p *MockProvider) Ping(_ context.Context) error {
	return p.PingErr
}

func (p *MockProvider) Generate(_ context.Context, systemPrompt, userPrompt string, opts Options) (*Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.prompts = append(p.prompts, MockCall{SystemPrompt: systemPrompt, UserPrompt: userPrompt, Options: opts})
	p.calls++
	if p.GenerateErr != nil {
		return nil, p.GenerateErr
	}

	content := p.FixedContent
	if n := len(p.Responses); n > 0 {
		content = p.Responses[min(p.calls, n)-1]
	}
	stop := p.StopReason
	if stop == "" {
		stop = "stop"
	}
	return &Response{
		Content:    content,
		Model:      "mock",
		TokensUsed: 100,
		Duration:   time.Millisecond,
		StopReason: stop,
	}, nil
}

// Calls returns the prompts of every Generate call so far.
func (p *MockProvider) Calls() []MockCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]MockCall(nil), p.prompts...)
}

// Package llm provides clients for the text-completion oracle used by the
// planner and responder stages.
package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// CompletionRequest is a single-turn completion call with a bounded token
// budget. Both oracle request shapes (plan request, response-generation
// request) go through it.
type CompletionRequest struct {
	Prompt        string
	SystemMessage string
	MaxTokens     int
	Temperature   float64
}

// Client defines the oracle interface. Use it for dependency injection to
// enable mocking in tests.
type Client interface {
	// Complete performs one completion call and returns the raw text.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// GetModel returns the configured model name.
	GetModel() string
}

// Config holds configuration for creating an oracle client.
type Config struct {
	Provider string // "openai" or "anthropic"
	BaseURL  string // Optional override, e.g. for OpenAI-compatible endpoints
	Model    string
	APIKey   string
}

// NewClient creates an oracle client for the configured provider.
func NewClient(cfg *Config, logger *zap.Logger) (Client, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	switch cfg.Provider {
	case "openai":
		return newOpenAIClient(cfg, logger)
	case "anthropic":
		return newAnthropicClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.Provider)
	}
}

package llm

import (
	"context"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"
)

// AnthropicClient talks to the Anthropic Messages API.
type AnthropicClient struct {
	client *anthropic.Client
	model  string
	logger *zap.Logger
}

func newAnthropicClient(cfg *Config, logger *zap.Logger) (*AnthropicClient, error) {
	var opts []anthropic.ClientOption
	if cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
	}

	return &AnthropicClient{
		client: anthropic.NewClient(cfg.APIKey, opts...),
		model:  cfg.Model,
		logger: logger.Named("llm"),
	}, nil
}

// Complete implements Client.
func (c *AnthropicClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	c.logger.Debug("oracle request",
		zap.String("model", c.model),
		zap.Int("prompt_len", len(req.Prompt)),
		zap.Int("max_tokens", req.MaxTokens))

	start := time.Now()
	temperature := float32(req.Temperature)

	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:       anthropic.Model(c.model),
		System:      req.SystemMessage,
		MaxTokens:   req.MaxTokens,
		Temperature: &temperature,
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(req.Prompt),
		},
	})
	if err != nil {
		c.logger.Error("oracle request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", ClassifyError(err)
	}

	c.logger.Info("oracle request completed",
		zap.Int("prompt_tokens", resp.Usage.InputTokens),
		zap.Int("completion_tokens", resp.Usage.OutputTokens),
		zap.Duration("elapsed", time.Since(start)))

	return extractText(resp), nil
}

func extractText(resp anthropic.MessagesResponse) string {
	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != nil {
			return *block.Text
		}
	}
	return ""
}

// GetModel implements Client.
func (c *AnthropicClient) GetModel() string {
	return c.model
}

// Ensure AnthropicClient implements Client at compile time.
var _ Client = (*AnthropicClient)(nil)

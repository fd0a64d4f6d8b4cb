package services

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/finlens/finlens-engine/pkg/config"
	"github.com/finlens/finlens-engine/pkg/llm"
	"github.com/finlens/finlens-engine/pkg/models"
	"github.com/finlens/finlens-engine/pkg/prompts"
)

// Responder renders the assembled data map into a bounded natural-language
// answer via the oracle. The answer is returned verbatim; numbers covered
// by a pre-aggregated total are authoritative, anything else is on the
// oracle.
type Responder struct {
	oracle llm.Client
	cfg    *config.Config
	logger *zap.Logger
}

// NewResponder creates a responder.
func NewResponder(oracle llm.Client, cfg *config.Config, logger *zap.Logger) *Responder {
	return &Responder{
		oracle: oracle,
		cfg:    cfg,
		logger: logger.Named("responder"),
	}
}

// Respond generates the user-facing answer for the question and data map.
func (r *Responder) Respond(ctx context.Context, question string, data models.DataMap) (string, error) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("marshal data map: %w", err)
	}

	oracleCtx, cancel := context.WithTimeout(ctx, r.cfg.Engine.OracleTimeout())
	defer cancel()

	answer, err := r.oracle.Complete(oracleCtx, llm.CompletionRequest{
		Prompt:        prompts.BuildAnswerPrompt(question, dataJSON, data),
		SystemMessage: prompts.ResponderSystemMessage,
		MaxTokens:     r.cfg.LLM.ResponderMaxTokens,
		Temperature:   0.3,
	})
	if err != nil {
		return "", fmt.Errorf("response generation: %w", err)
	}

	r.logger.Debug("answer generated", zap.Int("answer_len", len(answer)))
	return answer, nil
}

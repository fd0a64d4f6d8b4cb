package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/finlens/finlens-engine/pkg/config"
	"github.com/finlens/finlens-engine/pkg/llm"
	"github.com/finlens/finlens-engine/pkg/models"
	"github.com/finlens/finlens-engine/pkg/prompts"
	"github.com/finlens/finlens-engine/pkg/schema"
	sqlguard "github.com/finlens/finlens-engine/pkg/sql"
)

// Planner asks the oracle for a bounded query plan and validates it.
type Planner struct {
	oracle llm.Client
	schema *schema.Descriptor
	cfg    *config.Config
	logger *zap.Logger
}

// NewPlanner creates a planner.
func NewPlanner(oracle llm.Client, descriptor *schema.Descriptor, cfg *config.Config, logger *zap.Logger) *Planner {
	return &Planner{
		oracle: oracle,
		schema: descriptor,
		cfg:    cfg,
		logger: logger.Named("planner"),
	}
}

// FallbackPlan is the fixed plan substituted when the oracle's output
// cannot be parsed or validates down to nothing: a single unfiltered list
// of recent activity from the default transactional table. The pipeline
// therefore always has a plan to execute; planning failures never surface
// to the caller.
func (p *Planner) FallbackPlan() models.QueryPlan {
	return models.QueryPlan{Entries: []models.QueryPlanEntry{{
		Table:   p.schema.DefaultTable,
		Type:    models.AggregationList,
		Filters: "",
		GroupBy: models.GroupByNone(),
		Alias:   "recent_transactions",
	}}}
}

// Plan produces a validated query plan for the question. Malformed oracle
// output is recovered locally with the fallback plan; a failed or timed
// out oracle call is returned as an error for the orchestrator to surface.
// The fallback flag is true when the fixed fallback plan was substituted,
// which widens the list row cap downstream.
func (p *Planner) Plan(ctx context.Context, question string) (models.QueryPlan, bool, error) {
	oracleCtx, cancel := context.WithTimeout(ctx, p.cfg.Engine.OracleTimeout())
	defer cancel()

	response, err := p.oracle.Complete(oracleCtx, llm.CompletionRequest{
		Prompt:        prompts.BuildPlanPrompt(question, p.schema.PromptBlock()),
		SystemMessage: prompts.PlannerSystemMessage,
		MaxTokens:     p.cfg.LLM.PlannerMaxTokens,
		Temperature:   0,
	})
	if err != nil {
		return models.QueryPlan{}, false, fmt.Errorf("plan request: %w", err)
	}

	plan, err := llm.ParseJSONResponse[models.QueryPlan](response)
	if err != nil {
		p.logger.Warn("plan response unparseable, using fallback plan",
			zap.Error(err),
			zap.Int("response_len", len(response)))
		return p.FallbackPlan(), true, nil
	}

	validated := p.validate(plan.Normalize())
	if len(validated.Entries) == 0 {
		p.logger.Warn("plan validated down to nothing, using fallback plan")
		return p.FallbackPlan(), true, nil
	}

	p.logger.Debug("plan accepted", zap.Int("entries", len(validated.Entries)))
	return validated, false, nil
}

// validate drops entries that reference unknown tables or carry SQL
// injection patterns in their oracle-supplied text fields.
func (p *Planner) validate(plan models.QueryPlan) models.QueryPlan {
	var out models.QueryPlan
	for _, entry := range plan.Entries {
		if !p.schema.Known(entry.Table) {
			p.logger.Warn("dropping plan entry for unknown table",
				zap.String("table", entry.Table),
				zap.String("alias", entry.Alias))
			continue
		}
		if check := sqlguard.CheckPlanTextForInjection("filters", entry.Filters); check != nil {
			p.logger.Warn("dropping plan entry with injection pattern",
				zap.String("alias", entry.Alias),
				zap.String("fingerprint", check.Fingerprint))
			continue
		}
		out.Entries = append(out.Entries, entry)
	}
	return out
}

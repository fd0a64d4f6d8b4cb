package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/finlens/finlens-engine/pkg/apperrors"
	"github.com/finlens/finlens-engine/pkg/config"
	"github.com/finlens/finlens-engine/pkg/logging"
	"github.com/finlens/finlens-engine/pkg/models"
)

// Engine runs a question through the full answer pipeline: fast-path
// check, planning, query execution, pre-aggregation, and response
// generation, all under a single overall deadline.
type Engine struct {
	fastPath  *FastPath
	planner   *Planner
	executor  *Executor
	responder *Responder
	cfg       *config.Config
	logger    *zap.Logger
	now       func() time.Time
}

// NewEngine wires the pipeline stages together.
func NewEngine(fastPath *FastPath, planner *Planner, executor *Executor, responder *Responder, cfg *config.Config, logger *zap.Logger) *Engine {
	return &Engine{
		fastPath:  fastPath,
		planner:   planner,
		executor:  executor,
		responder: responder,
		cfg:       cfg,
		logger:    logger.Named("engine"),
		now:       time.Now,
	}
}

// Ask answers a natural-language question about the financial data.
// The returned Answer always carries metadata; on pipeline failure the
// error is one of the apperrors sentinels (wrapped) so callers can map
// it to a status code.
func (e *Engine) Ask(ctx context.Context, question string) (*models.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, apperrors.ErrMissingMessage
	}

	start := e.now()
	ctx, cancel := context.WithTimeout(ctx, e.cfg.Engine.OverallTimeout())
	defer cancel()

	if data, ok := e.fastPath.Match(ctx, question); ok {
		PreAggregate(data)
		text, err := e.responder.Respond(ctx, question, data)
		if err != nil {
			return nil, e.classify(ctx, err)
		}
		answer := &models.Answer{
			Response: text,
			Meta: models.AnswerMeta{
				Queries:    1,
				DurationMS: e.elapsedMS(start),
				QuickMatch: true,
			},
		}
		e.logger.Info("question answered",
			zap.Bool("quick_match", true),
			zap.Int64("duration_ms", answer.Meta.DurationMS))
		return answer, nil
	}

	plan, fallback, err := e.planner.Plan(ctx, question)
	if err != nil {
		return nil, e.classify(ctx, err)
	}
	if fallback {
		e.logger.Info("using fallback plan")
	}

	listCap := e.cfg.Engine.ListRowCap
	if fallback {
		listCap = e.cfg.Engine.FallbackListRowCap
	}

	data := e.executor.ExecutePlan(ctx, plan, listCap)
	if err := ctx.Err(); err != nil {
		return nil, e.classify(ctx, err)
	}
	PreAggregate(data)

	text, err := e.responder.Respond(ctx, question, data)
	if err != nil {
		return nil, e.classify(ctx, err)
	}

	answer := &models.Answer{
		Response: text,
		Meta: models.AnswerMeta{
			Queries:    len(plan.Entries),
			DurationMS: e.elapsedMS(start),
			QuickMatch: false,
		},
	}
	e.logger.Info("question answered",
		zap.Bool("quick_match", false),
		zap.Bool("fallback_plan", fallback),
		zap.Int("queries", answer.Meta.Queries),
		zap.Int64("duration_ms", answer.Meta.DurationMS))
	return answer, nil
}

func (e *Engine) elapsedMS(start time.Time) int64 {
	return e.now().Sub(start).Milliseconds()
}

// classify maps a pipeline error onto an apperrors sentinel. The overall
// deadline expiring means the whole request ran out of time; anything
// else is an oracle failure. The original error is preserved for logs
// but sanitized before it can reach a response body.
func (e *Engine) classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		e.logger.Warn("request deadline exceeded", zap.Error(err))
		return fmt.Errorf("%w: %s", apperrors.ErrDeadlineExceeded, logging.SanitizeError(err))
	}
	e.logger.Error("pipeline stage failed", zap.Error(err))
	return fmt.Errorf("%w: %s", apperrors.ErrOracleFailed, logging.SanitizeError(err))
}

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/finlens/finlens-engine/pkg/apperrors"
	"github.com/finlens/finlens-engine/pkg/config"
	"github.com/finlens/finlens-engine/pkg/llm"
)

func newTestEngine(t *testing.T, oracle llm.Client, fetcher *fakeFetcher, cfg *config.Config) *Engine {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	logger := zap.NewNop()
	executor := NewExecutor(fetcher, filtersTestSchema(t), &cfg.Engine, logger)
	executor.now = func() time.Time {
		return time.Date(2026, time.August, 29, 12, 0, 0, 0, time.UTC)
	}
	return NewEngine(
		NewFastPath(executor, logger),
		NewPlanner(oracle, filtersTestSchema(t), cfg, logger),
		executor,
		NewResponder(oracle, cfg, logger),
		cfg,
		logger,
	)
}

func TestAsk_EmptyMessage(t *testing.T) {
	engine := newTestEngine(t, llm.NewMockClient(), &fakeFetcher{}, nil)

	_, err := engine.Ask(context.Background(), "   ")
	assert.ErrorIs(t, err, apperrors.ErrMissingMessage)
}

func TestAsk_FastPathSkipsPlanner(t *testing.T) {
	jan := time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)
	fetcher := &fakeFetcher{rows: []map[string]any{
		ledgerRow(jan, "Income", 0, 20000, ""),
	}}
	mock := llm.NewMockClient()
	mock.CompleteFunc = func(ctx context.Context, req llm.CompletionRequest) (string, error) {
		return "Revenue this year is $20,000.00.", nil
	}
	engine := newTestEngine(t, mock, fetcher, nil)

	answer, err := engine.Ask(context.Background(), "What is our revenue this year?")
	require.NoError(t, err)

	assert.Equal(t, "Revenue this year is $20,000.00.", answer.Response)
	assert.True(t, answer.Meta.QuickMatch)
	assert.Equal(t, 1, answer.Meta.Queries)
	assert.Equal(t, 1, mock.CompleteCalls, "fast path makes exactly one oracle call, for the answer")
	assert.Contains(t, mock.Requests[0].Prompt, "20000.00", "answer prompt carries the pre-aggregated total")
}

func TestAsk_PlannedPath(t *testing.T) {
	jan := time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)
	fetcher := &fakeFetcher{rows: []map[string]any{
		ledgerRow(jan, "Income", 0, 500, "Acme"),
	}}
	mock := llm.NewMockClient()
	mock.CompleteFunc = func(ctx context.Context, req llm.CompletionRequest) (string, error) {
		if mock.CompleteCalls == 1 {
			return `{"queries": [
				{"table": "general_ledger", "type": "sum", "filters": "income this year", "groupBy": "customer", "alias": "by_customer"},
				{"table": "general_ledger", "type": "count", "filters": "income this year", "alias": "txn_count"}
			]}`, nil
		}
		return "Acme accounts for all $500.00 of revenue.", nil
	}
	engine := newTestEngine(t, mock, fetcher, nil)

	answer, err := engine.Ask(context.Background(), "which customers drive our revenue?")
	require.NoError(t, err)

	assert.False(t, answer.Meta.QuickMatch)
	assert.Equal(t, 2, answer.Meta.Queries)
	assert.Equal(t, 2, mock.CompleteCalls, "one plan call, one answer call")
	assert.Equal(t, "Acme accounts for all $500.00 of revenue.", answer.Response)
}

func TestAsk_FallbackPlanStillAnswers(t *testing.T) {
	fetcher := &fakeFetcher{rows: []map[string]any{
		{"txn_date": time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC), "account_type": "Income", "credit": 10.0, "debit": 0.0},
	}}
	mock := llm.NewMockClient()
	mock.CompleteFunc = func(ctx context.Context, req llm.CompletionRequest) (string, error) {
		if mock.CompleteCalls == 1 {
			return "no json here, sorry", nil
		}
		return "Here is some recent activity.", nil
	}
	engine := newTestEngine(t, mock, fetcher, nil)

	answer, err := engine.Ask(context.Background(), "tell me something interesting")
	require.NoError(t, err)

	assert.Equal(t, "Here is some recent activity.", answer.Response)
	assert.Equal(t, 1, answer.Meta.Queries)
	assert.Contains(t, mock.Requests[1].Prompt, "recent_transactions")
}

func TestAsk_OracleFailureMapsToOracleError(t *testing.T) {
	mock := llm.NewMockClient()
	mock.CompleteFunc = func(ctx context.Context, req llm.CompletionRequest) (string, error) {
		return "", errors.New("status 503: overloaded")
	}
	engine := newTestEngine(t, mock, &fakeFetcher{}, nil)

	_, err := engine.Ask(context.Background(), "which customers drive our revenue?")
	assert.ErrorIs(t, err, apperrors.ErrOracleFailed)
}

func TestAsk_DeadlineMapsToDeadlineExceeded(t *testing.T) {
	cfg := testConfig()
	cfg.Engine.OverallTimeoutSeconds = 1

	mock := llm.NewMockClient()
	mock.CompleteFunc = func(ctx context.Context, req llm.CompletionRequest) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}
	engine := newTestEngine(t, mock, &fakeFetcher{}, cfg)

	_, err := engine.Ask(context.Background(), "which customers drive our revenue?")
	assert.ErrorIs(t, err, apperrors.ErrDeadlineExceeded)
}

func TestAsk_DurationRecorded(t *testing.T) {
	jan := time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)
	fetcher := &fakeFetcher{rows: []map[string]any{
		ledgerRow(jan, "Income", 0, 100, ""),
	}}
	mock := llm.NewMockClient()
	mock.CompleteFunc = func(ctx context.Context, req llm.CompletionRequest) (string, error) {
		return "answer", nil
	}
	engine := newTestEngine(t, mock, fetcher, nil)

	answer, err := engine.Ask(context.Background(), "revenue this year")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, answer.Meta.DurationMS, int64(0))
}

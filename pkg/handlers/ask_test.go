package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/finlens/finlens-engine/pkg/config"
	"github.com/finlens/finlens-engine/pkg/llm"
	"github.com/finlens/finlens-engine/pkg/models"
	"github.com/finlens/finlens-engine/pkg/schema"
	"github.com/finlens/finlens-engine/pkg/services"

	"github.com/finlens/finlens-engine/pkg/database"
)

// stubFetcher returns fixed rows for every query.
type stubFetcher struct {
	rows []map[string]any
}

func (s *stubFetcher) Fetch(ctx context.Context, sql string, args []any) ([]map[string]any, error) {
	return s.rows, nil
}

var _ database.RowFetcher = (*stubFetcher)(nil)

func askTestConfig() *config.Config {
	return &config.Config{
		LLM: config.LLMConfig{
			Provider: "openai", Model: "gpt-4o-mini",
			PlannerMaxTokens: 500, ResponderMaxTokens: 300,
		},
		Engine: config.EngineConfig{
			OverallTimeoutSeconds: 25,
			OracleTimeoutSeconds:  8,
			QueryTimeoutSeconds:   10,
			ListRowCap:            20,
			FallbackListRowCap:    50,
			MaxConcurrentQueries:  6,
		},
	}
}

func newAskTestHandler(t *testing.T, oracle llm.Client, cfg *config.Config) *AskHandler {
	t.Helper()
	if cfg == nil {
		cfg = askTestConfig()
	}
	descriptor, err := schema.Load()
	require.NoError(t, err)
	logger := zap.NewNop()

	fetcher := &stubFetcher{rows: []map[string]any{
		{
			"txn_date":     time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC),
			"account_type": "Income",
			"debit":        0.0,
			"credit":       20000.0,
		},
	}}
	executor := services.NewExecutor(fetcher, descriptor, &cfg.Engine, logger)
	engine := services.NewEngine(
		services.NewFastPath(executor, logger),
		services.NewPlanner(oracle, descriptor, cfg, logger),
		executor,
		services.NewResponder(oracle, cfg, logger),
		cfg,
		logger,
	)
	return NewAskHandler(engine, logger)
}

func postAsk(t *testing.T, handler *AskHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Ask(rec, req)
	return rec
}

func TestAsk_Success(t *testing.T) {
	mock := llm.NewMockClient()
	mock.CompleteFunc = func(ctx context.Context, req llm.CompletionRequest) (string, error) {
		return "Revenue this year is $20,000.00.", nil
	}
	handler := newAskTestHandler(t, mock, nil)

	rec := postAsk(t, handler, `{"message": "what is our revenue this year?"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	var answer models.Answer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &answer))
	assert.Equal(t, "Revenue this year is $20,000.00.", answer.Response)
	assert.True(t, answer.Meta.QuickMatch)
	assert.Empty(t, answer.Meta.Error)
}

func TestAsk_MissingMessage(t *testing.T) {
	handler := newAskTestHandler(t, llm.NewMockClient(), nil)

	rec := postAsk(t, handler, `{"userId": "u1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "missing_message", body["error"])
}

func TestAsk_InvalidJSON(t *testing.T) {
	handler := newAskTestHandler(t, llm.NewMockClient(), nil)

	rec := postAsk(t, handler, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAsk_OracleFailureReturns500WithFixedMessage(t *testing.T) {
	mock := llm.NewMockClient()
	mock.CompleteFunc = func(ctx context.Context, req llm.CompletionRequest) (string, error) {
		return "", assert.AnError
	}
	handler := newAskTestHandler(t, mock, nil)

	rec := postAsk(t, handler, `{"message": "which customers drive our revenue?"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var answer models.Answer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &answer))
	assert.Equal(t, failureMessage, answer.Response)
	assert.NotEmpty(t, answer.Meta.Error, "diagnostic cause goes in the context field")
	assert.NotContains(t, answer.Response, assert.AnError.Error(),
		"raw error must never reach the user-facing text")
}

func TestAsk_TimeoutReturns504(t *testing.T) {
	cfg := askTestConfig()
	cfg.Engine.OverallTimeoutSeconds = 1

	mock := llm.NewMockClient()
	mock.CompleteFunc = func(ctx context.Context, req llm.CompletionRequest) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}
	handler := newAskTestHandler(t, mock, cfg)

	rec := postAsk(t, handler, `{"message": "which customers drive our revenue?"}`)
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)

	var answer models.Answer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &answer))
	assert.Equal(t, timeoutMessage, answer.Response)
}

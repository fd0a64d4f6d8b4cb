package services

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/finlens/finlens-engine/pkg/models"
)

// breakdownPattern detects questions asking for a grouped breakdown.
// Such questions must always reach the full planner regardless of topic,
// since the fast path only answers ungrouped sums.
var breakdownPattern = regexp.MustCompile(`\bby\s+(month|customer|vendor|location|department|week)\b`)

// fastRule recognizes one high-frequency question shape and maps it to a
// direct ungrouped sum. First match wins, so order encodes priority.
type fastRule struct {
	alias string
	match func(q string) bool
	entry models.QueryPlanEntry
}

func containsAny(q string, phrases ...string) bool {
	for _, p := range phrases {
		if strings.Contains(q, p) {
			return true
		}
	}
	return false
}

var fastRules = []fastRule{
	{
		alias: "revenue_ytd",
		match: func(q string) bool {
			return containsAny(q, "revenue", "income") && containsAny(q, "year", "ytd")
		},
		entry: models.QueryPlanEntry{
			Table: "general_ledger", Type: models.AggregationSum,
			Filters: "income this year", Alias: "revenue_ytd",
		},
	},
	{
		alias: "revenue_this_month",
		match: func(q string) bool {
			return containsAny(q, "revenue", "income") && strings.Contains(q, "this month")
		},
		entry: models.QueryPlanEntry{
			Table: "general_ledger", Type: models.AggregationSum,
			Filters: "income this month", Alias: "revenue_this_month",
		},
	},
	{
		alias: "expenses_ytd",
		match: func(q string) bool {
			return strings.Contains(q, "expense") && containsAny(q, "year", "ytd")
		},
		entry: models.QueryPlanEntry{
			Table: "general_ledger", Type: models.AggregationSum,
			Filters: "expense this year", Alias: "expenses_ytd",
		},
	},
	{
		alias: "expenses_this_month",
		match: func(q string) bool {
			return strings.Contains(q, "expense") && strings.Contains(q, "this month")
		},
		entry: models.QueryPlanEntry{
			Table: "general_ledger", Type: models.AggregationSum,
			Filters: "expense this month", Alias: "expenses_this_month",
		},
	},
	{
		alias: "total_receivables",
		match: func(q string) bool {
			return containsAny(q, "owes us", "owed to us", "receivable", "outstanding invoice")
		},
		entry: models.QueryPlanEntry{
			Table: "ar_aging_detail", Type: models.AggregationSum,
			Filters: "outstanding", Alias: "total_receivables",
		},
	},
	{
		alias: "total_payables",
		match: func(q string) bool {
			return containsAny(q, "we owe", "payable")
		},
		entry: models.QueryPlanEntry{
			Table: "ap_aging", Type: models.AggregationSum,
			Filters: "outstanding", Alias: "total_payables",
		},
	},
}

// FastPath answers a small set of high-frequency question shapes with one
// direct aggregation, bypassing the planner entirely.
type FastPath struct {
	executor *Executor
	logger   *zap.Logger
}

// NewFastPath creates a fast-path matcher over the given executor.
func NewFastPath(executor *Executor, logger *zap.Logger) *FastPath {
	return &FastPath{
		executor: executor,
		logger:   logger.Named("fastpath"),
	}
}

// Match tests the question against the rule table. It returns the matched
// entry's data map and true on a hit, or nil and false when the question
// needs full planning. A failing direct query degrades to a zero total
// rather than an error.
//
// TODO: the zero-on-error fallback predates the diagnostic field; revisit
// whether it should surface in meta.Error once dashboards consume it.
func (f *FastPath) Match(ctx context.Context, question string) (models.DataMap, bool) {
	lower := strings.ToLower(question)

	// A requested breakdown always needs the planner, whatever the topic.
	if breakdownPattern.MatchString(lower) {
		return nil, false
	}

	for _, rule := range fastRules {
		if !rule.match(lower) {
			continue
		}

		entryCtx, cancel := context.WithTimeout(ctx, f.executor.cfg.QueryTimeout())
		result, err := f.executor.ExecuteEntry(entryCtx, rule.entry, 0)
		cancel()

		total := 0.0
		if err != nil {
			f.logger.Warn("fast path query failed, returning zero",
				zap.String("alias", rule.alias),
				zap.Error(err))
		} else if len(result.Rows) > 0 {
			total = result.Rows[0].Total
		}

		data := models.DataMap{
			rule.alias: []models.ResultRow{models.ScalarRow(total)},
		}
		return data, true
	}

	return nil, false
}

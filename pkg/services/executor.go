package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"

	"github.com/finlens/finlens-engine/pkg/apperrors"
	"github.com/finlens/finlens-engine/pkg/config"
	"github.com/finlens/finlens-engine/pkg/database"
	"github.com/finlens/finlens-engine/pkg/models"
	"github.com/finlens/finlens-engine/pkg/schema"
	sqlguard "github.com/finlens/finlens-engine/pkg/sql"
)

// groupKeySeparator joins resolved per-row keys into a composite group key
// for multi-key grouping. It must never occur in real key values.
const groupKeySeparator = "||"

// unknownBucket collects rows whose group key is missing or empty.
const unknownBucket = "Unknown"

// Executor turns one plan entry into rows fetched from the financial
// schema, then aggregates and groups them in application memory.
type Executor struct {
	fetcher database.RowFetcher
	schema  *schema.Descriptor
	cfg     *config.EngineConfig
	fanout  *FanOut
	logger  *zap.Logger

	// now is the wall clock used for date-range filters; overridable in tests.
	now func() time.Time
}

// NewExecutor creates a query executor.
func NewExecutor(fetcher database.RowFetcher, descriptor *schema.Descriptor, cfg *config.EngineConfig, logger *zap.Logger) *Executor {
	return &Executor{
		fetcher: fetcher,
		schema:  descriptor,
		cfg:     cfg,
		fanout:  NewFanOut(cfg.MaxConcurrentQueries, logger),
		logger:  logger.Named("executor"),
		now:     time.Now,
	}
}

// EntryResult is the outcome of one plan entry: aggregated rows for
// sum/count entries, raw rows for list entries.
type EntryResult struct {
	Rows    []models.ResultRow
	RawRows []map[string]any
	IsList  bool
}

// ExecutePlan runs all plan entries concurrently and assembles the data
// map. A failing or slow entry degrades to an empty result for its alias;
// sibling entries are unaffected.
func (e *Executor) ExecutePlan(ctx context.Context, plan models.QueryPlan, listCap int) models.DataMap {
	items := make([]WorkItem[EntryResult], len(plan.Entries))
	for i, entry := range plan.Entries {
		entry := entry
		items[i] = WorkItem[EntryResult]{
			ID: entry.Alias,
			Execute: func(ctx context.Context) (EntryResult, error) {
				entryCtx, cancel := context.WithTimeout(ctx, e.cfg.QueryTimeout())
				defer cancel()
				return e.ExecuteEntry(entryCtx, entry, listCap)
			},
		}
	}

	byAlias := make(map[string]EntryResult, len(plan.Entries))
	for _, result := range RunAll(ctx, e.fanout, items) {
		if result.Err != nil {
			e.logger.Warn("plan entry failed, degrading to empty result",
				zap.String("alias", result.ID),
				zap.Error(result.Err))
			byAlias[result.ID] = EntryResult{}
			continue
		}
		byAlias[result.ID] = result.Result
	}

	data := make(models.DataMap, len(plan.Entries))
	for _, entry := range plan.Entries {
		result := byAlias[entry.Alias]
		if result.IsList {
			if result.RawRows == nil {
				result.RawRows = []map[string]any{}
			}
			data[entry.Alias] = result.RawRows
			continue
		}
		if result.Rows == nil {
			result.Rows = []models.ResultRow{}
		}
		data[entry.Alias] = result.Rows
	}
	return data
}

// ExecuteEntry runs a single plan entry.
func (e *Executor) ExecuteEntry(ctx context.Context, entry models.QueryPlanEntry, listCap int) (EntryResult, error) {
	table, ok := e.schema.Table(entry.Table)
	if !ok {
		return EntryResult{}, fmt.Errorf("%w: %s", apperrors.ErrUnknownTable, entry.Table)
	}

	filters := InterpretFilters(entry.Filters, table, e.schema, e.now())
	statement := "SELECT * FROM " + table.Name + filters.WhereClause()
	if err := sqlguard.ValidateReadOnly(statement); err != nil {
		return EntryResult{}, fmt.Errorf("built statement rejected: %w", err)
	}

	rows, err := e.fetcher.Fetch(ctx, statement, filters.Args)
	if err != nil {
		return EntryResult{}, fmt.Errorf("fetch %s: %w", table.Name, err)
	}

	switch entry.Type {
	case models.AggregationList:
		if listCap > 0 && len(rows) > listCap {
			rows = rows[:listCap]
		}
		return EntryResult{RawRows: rows, IsList: true}, nil
	case models.AggregationCount:
		return EntryResult{Rows: []models.ResultRow{models.ScalarRow(float64(len(rows)))}}, nil
	case models.AggregationSum:
		return EntryResult{Rows: e.aggregateSum(rows, table, filters.Class, entry.GroupBy)}, nil
	default:
		return EntryResult{}, fmt.Errorf("unsupported aggregation type %q", entry.Type)
	}
}

// aggregateSum sums row amounts, optionally partitioned by group keys.
// Grouped results are never truncated: every group present in the data is
// returned. Truncating here once dropped whole months from monthly
// breakdowns, so the full set is a correctness requirement.
func (e *Executor) aggregateSum(rows []map[string]any, table *schema.Table, class Classification, groupBy models.GroupBy) []models.ResultRow {
	if groupBy.None() {
		var total float64
		for _, row := range rows {
			total += e.rowAmount(row, table, class)
		}
		return []models.ResultRow{models.ScalarRow(total)}
	}

	keys := groupBy.Keys()
	totals := make(map[string]float64)
	var order []string
	for _, row := range rows {
		parts := make([]string, len(keys))
		for i, key := range keys {
			parts[i] = e.resolveGroupValue(row, table, key)
		}
		composite := strings.Join(parts, groupKeySeparator)
		if _, seen := totals[composite]; !seen {
			order = append(order, composite)
		}
		totals[composite] += e.rowAmount(row, table, class)
	}

	results := make([]models.ResultRow, 0, len(order))
	for _, composite := range order {
		parts := strings.Split(composite, groupKeySeparator)
		values := make([]models.GroupValue, len(keys))
		for i, key := range keys {
			values[i] = models.GroupValue{Name: key.Name(), Value: parts[i]}
		}
		results = append(results, models.GroupedRow(totals[composite], values...))
	}

	sortResults(results, groupBy)
	return results
}

// sortResults orders grouped rows: chronologically when any key is the
// month bucket, descending by total otherwise.
func sortResults(results []models.ResultRow, groupBy models.GroupBy) {
	if groupBy.HasMonth() {
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].MonthTime().Before(results[j].MonthTime())
		})
		return
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Total > results[j].Total
	})
}

// rowAmount computes one row's contribution to a sum. Revenue sums
// credit minus debit, expenses debit minus credit; everything else uses
// the table's amount column, falling back to total_amount or open_balance.
// Missing or non-numeric values contribute zero, never an error.
func (e *Executor) rowAmount(row map[string]any, table *schema.Table, class Classification) float64 {
	switch class {
	case ClassRevenue:
		return toFloat(row["credit"]) - toFloat(row["debit"])
	case ClassExpense:
		return toFloat(row["debit"]) - toFloat(row["credit"])
	}

	if table.AmountColumn != "" {
		return toFloat(row[table.AmountColumn])
	}
	if v, ok := row["total_amount"]; ok {
		return toFloat(v)
	}
	return toFloat(row["open_balance"])
}

// resolveGroupValue resolves one group key for one row. The month bucket
// derives a calendar-month label from the table's date column; anything
// missing or empty lands in the Unknown bucket.
func (e *Executor) resolveGroupValue(row map[string]any, table *schema.Table, key models.GroupKey) string {
	if key.Month {
		return monthLabel(row[table.DateColumn])
	}
	value := toString(row[key.Column])
	if value == "" {
		return unknownBucket
	}
	return value
}

// monthLabel formats a row's date value as e.g. "Jan 2025".
func monthLabel(v any) string {
	switch d := v.(type) {
	case time.Time:
		return d.Format("Jan 2006")
	case pgtype.Date:
		if d.Valid {
			return d.Time.Format("Jan 2006")
		}
	case string:
		for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05"} {
			if t, err := time.Parse(layout, d); err == nil {
				return t.Format("Jan 2006")
			}
		}
	}
	return unknownBucket
}

// toFloat coerces a database value to float64. Non-numeric and missing
// values become zero.
func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		return f
	case pgtype.Numeric:
		f8, err := n.Float64Value()
		if err != nil || !f8.Valid {
			return 0
		}
		return f8.Float64
	default:
		return 0
	}
}

// toString coerces a database value to a string group key.
func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case time.Time:
		return s.Format("2006-01-02")
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprintf("%v", s)
	}
}

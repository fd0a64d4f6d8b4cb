package models

import (
	"encoding/json"
	"strings"
	"time"
)

// GroupValue is one resolved grouping dimension on a result row.
type GroupValue struct {
	Name  string
	Value string
}

// ResultRow is a row produced by an aggregated query: an ungrouped total,
// or a total keyed by one or more group values.
type ResultRow struct {
	Keys  []GroupValue
	Total float64
}

// ScalarRow builds an ungrouped total row.
func ScalarRow(total float64) ResultRow {
	return ResultRow{Total: total}
}

// GroupedRow builds a row keyed by the given group values.
func GroupedRow(total float64, keys ...GroupValue) ResultRow {
	return ResultRow{Keys: keys, Total: total}
}

// Key returns the value for the named group dimension, or "" if absent.
func (r ResultRow) Key(name string) string {
	for _, k := range r.Keys {
		if k.Name == name {
			return k.Value
		}
	}
	return ""
}

// MonthTime parses the row's month label ("Jan 2006") back into a date for
// chronological ordering. Returns the zero time when the row has no month
// key or the label does not parse.
func (r ResultRow) MonthTime() time.Time {
	label := r.Key(MonthKey)
	if label == "" {
		return time.Time{}
	}
	t, err := time.Parse("Jan 2006", label)
	if err != nil {
		return time.Time{}
	}
	return t
}

// MarshalJSON flattens the row into the shape downstream prompts expect:
// {"total": n} or {"<key>": v, ..., "total": n}.
func (r ResultRow) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(r.Keys)+1)
	for _, k := range r.Keys {
		m[k.Name] = k.Value
	}
	m["total"] = r.Total
	return json.Marshal(m)
}

// DataMap carries every plan entry's result keyed by alias, plus the
// pre-aggregated "<alias>_total" and "<alias>_count" side-channel values.
// Values are []ResultRow for aggregated entries, []map[string]any for
// list entries, and float64 for the side-channel keys.
type DataMap map[string]any

// TotalEntry pairs an alias with its pre-aggregated total.
type TotalEntry struct {
	Alias string
	Total float64
}

// Totals collects every pre-aggregated total in the map.
func (d DataMap) Totals() []TotalEntry {
	var totals []TotalEntry
	for key, value := range d {
		total, ok := value.(float64)
		if !ok {
			continue
		}
		if alias, found := strings.CutSuffix(key, "_total"); found && alias != "" {
			totals = append(totals, TotalEntry{Alias: alias, Total: total})
		}
	}
	return totals
}

// HasMonthSeries reports whether any aggregated result is month-keyed,
// which tells the responder to ask for month-over-month commentary.
func (d DataMap) HasMonthSeries() bool {
	for _, value := range d {
		rows, ok := value.([]ResultRow)
		if !ok {
			continue
		}
		for _, row := range rows {
			if row.Key(MonthKey) != "" {
				return true
			}
		}
	}
	return false
}

// AnswerMeta is the per-request diagnostics returned alongside the answer.
type AnswerMeta struct {
	Queries    int    `json:"queries,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty"`
	QuickMatch bool   `json:"quick_match,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Answer is the engine's terminal output for one request.
type Answer struct {
	Response string     `json:"response"`
	Meta     AnswerMeta `json:"context"`
}
